package service_test

import (
	"context"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPostgresConstraints runs the uniqueness and aggregation paths against
// a real PostgreSQL through lib/pq.
func TestPostgresConstraints(t *testing.T) {
	db := testhelpers.SetupPostgresDB(t)
	ctx := context.Background()

	chef := testhelpers.CreateUser(t, db, "chef")
	reader := testhelpers.CreateUser(t, db, "reader")
	tag := testhelpers.CreateTag(t, db, "dinner")
	rice := testhelpers.CreateIngredient(t, db, "rice", "g")

	recipes := service.NewRecipeService(db, nil)
	created, err := recipes.CreateRecipe(ctx, chef.ID, &types.CreateRecipeRequest{
		Title:       "Risotto",
		Text:        "Stir.",
		CookingTime: intPtr(30),
		Tags:        []uint{tag.ID},
		Ingredients: []types.RecipeIngredientInput{{ID: rice.ID, Quantity: 300}},
	})
	require.NoError(t, err)
	second := testhelpers.CreateRecipe(t, db, chef, "Pilaf", []*models.Tag{tag}, map[uint]int{rice.ID: 200})

	favorites := service.NewFavoriteService(db)
	_, err = favorites.Add(ctx, reader.ID, created.Recipe.ID)
	require.NoError(t, err)
	_, err = favorites.Add(ctx, reader.ID, created.Recipe.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	subs := service.NewSubscriptionService(db)
	_, err = subs.Subscribe(ctx, reader.ID, chef.ID, 0)
	require.NoError(t, err)
	_, err = subs.Subscribe(ctx, reader.ID, chef.ID, 0)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	cart := service.NewShoppingCartService(db)
	for _, id := range []uint{created.Recipe.ID, second.ID} {
		_, err := cart.Add(ctx, reader.ID, id)
		require.NoError(t, err)
	}
	items, err := service.NewShoppingListService(db).Aggregate(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 500, items[0].Total)

	byTag, err := recipes.ListRecipes(ctx, reader.ID, service.RecipeFilter{TagSlugs: []string{"dinner"}, IsInShoppingCart: true}, service.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byTag.Total)
}
