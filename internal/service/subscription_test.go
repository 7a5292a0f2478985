package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewSubscriptionService(db)
	ctx := context.Background()

	reader := testhelpers.CreateUser(t, db, "reader")
	author := testhelpers.CreateUser(t, db, "author")
	tag := testhelpers.CreateTag(t, db, "soup")
	for _, title := range []string{"one", "two", "three"} {
		testhelpers.CreateRecipe(t, db, author, title, []*models.Tag{tag}, nil)
	}

	view, err := svc.Subscribe(ctx, reader.ID, author.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, author.ID, view.User.ID)
	assert.True(t, view.IsSubscribed)
	assert.Equal(t, int64(3), view.RecipesCount)
	assert.Len(t, view.Recipes, 2)
	assert.Equal(t, "three", view.Recipes[0].Title)

	_, err = svc.Subscribe(ctx, reader.ID, author.ID, 0)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	_, err = svc.Subscribe(ctx, reader.ID, 999, 0)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestSubscribeSelfIsRejected(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewSubscriptionService(db)
	user := testhelpers.CreateUser(t, db, "narcissus")

	_, err := svc.Subscribe(context.Background(), user.ID, user.ID, 0)
	assert.ErrorIs(t, err, service.ErrSelfFollow)

	var rows int64
	db.Model(&models.Follow{}).Count(&rows)
	assert.Zero(t, rows)
}

func TestUnsubscribe(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewSubscriptionService(db)
	ctx := context.Background()
	reader := testhelpers.CreateUser(t, db, "reader")
	author := testhelpers.CreateUser(t, db, "author")

	assert.ErrorIs(t, svc.Unsubscribe(ctx, reader.ID, author.ID), service.ErrNotFound)

	_, err := svc.Subscribe(ctx, reader.ID, author.ID, 0)
	require.NoError(t, err)
	require.NoError(t, svc.Unsubscribe(ctx, reader.ID, author.ID))
	assert.ErrorIs(t, svc.Unsubscribe(ctx, reader.ID, author.ID), service.ErrNotFound)
}

func TestListSubscriptions(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	svc := service.NewSubscriptionService(db)
	ctx := context.Background()

	reader := testhelpers.CreateUser(t, db, "reader")
	tag := testhelpers.CreateTag(t, db, "soup")
	var authors []*models.User
	for _, name := range []string{"a1", "a2", "a3"} {
		author := testhelpers.CreateUser(t, db, name)
		testhelpers.CreateRecipe(t, db, author, "dish "+name, []*models.Tag{tag}, nil)
		testhelpers.CreateRecipe(t, db, author, "second "+name, []*models.Tag{tag}, nil)
		authors = append(authors, author)
		_, err := svc.Subscribe(ctx, reader.ID, author.ID, 0)
		require.NoError(t, err)
	}
	testhelpers.CreateUser(t, db, "unfollowed")

	page, err := svc.ListSubscriptions(ctx, reader.ID, service.Page{Number: 1, Size: 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, authors[0].ID, page.Items[0].User.ID)
	assert.Equal(t, "a1", page.Items[0].User.Username)
	assert.Equal(t, int64(2), page.Items[0].RecipesCount)
	assert.Len(t, page.Items[0].Recipes, 1)
	assert.True(t, page.HasNext())

	uncapped, err := svc.ListSubscriptions(ctx, reader.ID, service.Page{Number: 2, Size: 2}, 0)
	require.NoError(t, err)
	require.Len(t, uncapped.Items, 1)
	assert.Len(t, uncapped.Items[0].Recipes, 2)
}

func TestUserServiceIsSubscribed(t *testing.T) {
	db := testhelpers.SetupTestDB(t)
	users := service.NewUserService(db)
	ctx := context.Background()
	reader := testhelpers.CreateUser(t, db, "reader")
	author := testhelpers.CreateUser(t, db, "author")

	_, err := service.NewSubscriptionService(db).Subscribe(ctx, reader.ID, author.ID, 0)
	require.NoError(t, err)

	view, err := users.GetUser(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, view.IsSubscribed)

	anon, err := users.GetUser(ctx, 0, author.ID)
	require.NoError(t, err)
	assert.False(t, anon.IsSubscribed)

	list, err := users.ListUsers(ctx, reader.ID, service.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
	assert.False(t, list.Items[0].IsSubscribed)
	assert.True(t, list.Items[1].IsSubscribed)

	_, err = users.GetUser(ctx, 0, 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
