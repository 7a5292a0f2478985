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
	"gorm.io/gorm"
)

type recipeFixture struct {
	db          *gorm.DB
	svc         *service.RecipeService
	author      *models.User
	tags        []*models.Tag
	ingredients []*models.Ingredient
}

func setupRecipeTest(t *testing.T) *recipeFixture {
	db := testhelpers.SetupTestDB(t)
	return &recipeFixture{
		db:     db,
		svc:    service.NewRecipeService(db, nil),
		author: testhelpers.CreateUser(t, db, "chef"),
		tags: []*models.Tag{
			testhelpers.CreateTag(t, db, "breakfast"),
			testhelpers.CreateTag(t, db, "dinner"),
		},
		ingredients: []*models.Ingredient{
			testhelpers.CreateIngredient(t, db, "egg", "pcs"),
			testhelpers.CreateIngredient(t, db, "milk", "ml"),
		},
	}
}

func intPtr(v int) *int { return &v }

func (f *recipeFixture) createRequest(title string) *types.CreateRecipeRequest {
	return &types.CreateRecipeRequest{
		Title:       title,
		Text:        "Whisk and fry.",
		CookingTime: intPtr(15),
		Tags:        []uint{f.tags[0].ID, f.tags[1].ID},
		Ingredients: []types.RecipeIngredientInput{{ID: f.ingredients[0].ID, Quantity: 3}},
	}
}

func TestCreateRecipe(t *testing.T) {
	f := setupRecipeTest(t)

	view, err := f.svc.CreateRecipe(context.Background(), f.author.ID, f.createRequest("Omelette"))
	require.NoError(t, err)

	assert.Equal(t, f.author.ID, view.Recipe.AuthorID)
	assert.Equal(t, "chef", view.Recipe.Author.Username)
	assert.Len(t, view.Recipe.Tags, 2)
	require.Len(t, view.Recipe.Ingredients, 1)
	assert.Equal(t, 3, view.Recipe.Ingredients[0].Quantity)
	assert.Equal(t, "egg", view.Recipe.Ingredients[0].Ingredient.Name)
	assert.False(t, view.IsFavorited)
	assert.False(t, view.Recipe.PubDate.IsZero())
}

func TestCreateRecipeValidation(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*types.CreateRecipeRequest)
		field  string
	}{
		{"no tags", func(r *types.CreateRecipeRequest) { r.Tags = nil }, "tags"},
		{"no ingredients", func(r *types.CreateRecipeRequest) { r.Ingredients = nil }, "ingredients"},
		{"duplicate ingredient", func(r *types.CreateRecipeRequest) {
			r.Ingredients = append(r.Ingredients, types.RecipeIngredientInput{ID: f.ingredients[0].ID, Quantity: 1})
		}, "ingredients"},
		{"duplicate tag", func(r *types.CreateRecipeRequest) { r.Tags = []uint{f.tags[0].ID, f.tags[0].ID} }, "tags"},
		{"unknown tag", func(r *types.CreateRecipeRequest) { r.Tags = []uint{999} }, "tags"},
		{"unknown ingredient", func(r *types.CreateRecipeRequest) {
			r.Ingredients = []types.RecipeIngredientInput{{ID: 999, Quantity: 1}}
		}, "ingredients"},
		{"zero quantity", func(r *types.CreateRecipeRequest) { r.Ingredients[0].Quantity = 0 }, "ingredients"},
		{"negative cooking time", func(r *types.CreateRecipeRequest) { r.CookingTime = intPtr(-1) }, "cooking_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.createRequest("Omelette " + tt.name)
			tt.mutate(req)

			_, err := f.svc.CreateRecipe(ctx, f.author.ID, req)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	var count int64
	f.db.Model(&models.Recipe{}).Count(&count)
	assert.Zero(t, count, "failed creates must not leave rows behind")
}

func TestCreateRecipeDuplicateTitle(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()

	_, err := f.svc.CreateRecipe(ctx, f.author.ID, f.createRequest("Pancakes"))
	require.NoError(t, err)

	_, err = f.svc.CreateRecipe(ctx, f.author.ID, f.createRequest("Pancakes"))
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)
}

func TestUpdateRecipeReplacesSets(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()

	created, err := f.svc.CreateRecipe(ctx, f.author.ID, f.createRequest("Omelette"))
	require.NoError(t, err)

	title := "Milk omelette"
	updated, err := f.svc.UpdateRecipe(ctx, created.Recipe.ID, f.author.ID, &types.UpdateRecipeRequest{
		Title: &title,
		Tags:  []uint{f.tags[1].ID},
		Ingredients: []types.RecipeIngredientInput{
			{ID: f.ingredients[1].ID, Quantity: 200},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Milk omelette", updated.Recipe.Title)
	assert.Equal(t, "Whisk and fry.", updated.Recipe.Text)
	require.Len(t, updated.Recipe.Tags, 1)
	assert.Equal(t, "dinner", updated.Recipe.Tags[0].Slug)
	require.Len(t, updated.Recipe.Ingredients, 1)
	assert.Equal(t, f.ingredients[1].ID, updated.Recipe.Ingredients[0].IngredientID)
	assert.Equal(t, 200, updated.Recipe.Ingredients[0].Quantity)

	var rows int64
	f.db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", created.Recipe.ID).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestUpdateRecipeRollsBackOnBadIngredient(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()

	created, err := f.svc.CreateRecipe(ctx, f.author.ID, f.createRequest("Omelette"))
	require.NoError(t, err)

	title := "Changed"
	_, err = f.svc.UpdateRecipe(ctx, created.Recipe.ID, f.author.ID, &types.UpdateRecipeRequest{
		Title:       &title,
		Tags:        []uint{f.tags[1].ID},
		Ingredients: []types.RecipeIngredientInput{{ID: 999, Quantity: 1}},
	})
	require.Error(t, err)

	got, err := f.svc.GetRecipe(ctx, 0, created.Recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, "Omelette", got.Recipe.Title)
	assert.Len(t, got.Recipe.Tags, 2)
	assert.Len(t, got.Recipe.Ingredients, 1)
}

func TestUpdateAndDeleteRequireOwner(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()
	stranger := testhelpers.CreateUser(t, f.db, "stranger")

	created, err := f.svc.CreateRecipe(ctx, f.author.ID, f.createRequest("Omelette"))
	require.NoError(t, err)

	_, err = f.svc.UpdateRecipe(ctx, created.Recipe.ID, stranger.ID, &types.UpdateRecipeRequest{
		Tags:        []uint{f.tags[0].ID},
		Ingredients: []types.RecipeIngredientInput{{ID: f.ingredients[0].ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, service.ErrForbidden)

	assert.ErrorIs(t, f.svc.DeleteRecipe(ctx, created.Recipe.ID, stranger.ID), service.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteRecipe(ctx, 999, f.author.ID), service.ErrNotFound)

	require.NoError(t, f.svc.DeleteRecipe(ctx, created.Recipe.ID, f.author.ID))
	_, err = f.svc.GetRecipe(ctx, 0, created.Recipe.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	var rows int64
	f.db.Model(&models.RecipeIngredient{}).Count(&rows)
	assert.Zero(t, rows)
}

func TestListRecipesFilters(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()
	other := testhelpers.CreateUser(t, f.db, "other")

	breakfast := testhelpers.CreateRecipe(t, f.db, f.author, "Porridge", []*models.Tag{f.tags[0]}, map[uint]int{f.ingredients[1].ID: 250})
	dinner := testhelpers.CreateRecipe(t, f.db, f.author, "Stew", []*models.Tag{f.tags[1]}, map[uint]int{f.ingredients[0].ID: 1})
	both := testhelpers.CreateRecipe(t, f.db, other, "Frittata", []*models.Tag{f.tags[0], f.tags[1]}, map[uint]int{f.ingredients[0].ID: 4})

	favorites := service.NewFavoriteService(f.db)
	_, err := favorites.Add(ctx, other.ID, dinner.ID)
	require.NoError(t, err)

	all, err := f.svc.ListRecipes(ctx, 0, service.RecipeFilter{}, service.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Total)
	assert.Equal(t, both.ID, all.Items[0].Recipe.ID, "newest first")

	byAuthor, err := f.svc.ListRecipes(ctx, 0, service.RecipeFilter{AuthorID: f.author.ID}, service.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), byAuthor.Total)

	byTag, err := f.svc.ListRecipes(ctx, 0, service.RecipeFilter{TagSlugs: []string{"breakfast", "dinner"}}, service.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), byTag.Total, "any-of, no duplicates")

	onlyBreakfast, err := f.svc.ListRecipes(ctx, 0, service.RecipeFilter{TagSlugs: []string{"breakfast"}}, service.Page{})
	require.NoError(t, err)
	ids := []uint{onlyBreakfast.Items[0].Recipe.ID, onlyBreakfast.Items[1].Recipe.ID}
	assert.ElementsMatch(t, []uint{breakfast.ID, both.ID}, ids)

	favorited, err := f.svc.ListRecipes(ctx, other.ID, service.RecipeFilter{IsFavorited: true}, service.Page{})
	require.NoError(t, err)
	require.Equal(t, int64(1), favorited.Total)
	assert.Equal(t, dinner.ID, favorited.Items[0].Recipe.ID)
	assert.True(t, favorited.Items[0].IsFavorited)

	anonymous, err := f.svc.ListRecipes(ctx, 0, service.RecipeFilter{IsFavorited: true}, service.Page{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), anonymous.Total, "flag filters are ignored for anonymous users")
}

func TestListRecipesPagination(t *testing.T) {
	f := setupRecipeTest(t)
	for _, title := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		testhelpers.CreateRecipe(t, f.db, f.author, title, []*models.Tag{f.tags[0]}, map[uint]int{f.ingredients[0].ID: 1})
	}

	first, err := f.svc.ListRecipes(context.Background(), 0, service.RecipeFilter{}, service.Page{Number: 1})
	require.NoError(t, err)
	assert.Len(t, first.Items, service.DefaultPageSize)
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())

	second, err := f.svc.ListRecipes(context.Background(), 0, service.RecipeFilter{}, service.Page{Number: 2})
	require.NoError(t, err)
	assert.Len(t, second.Items, 1)
	assert.False(t, second.HasNext())
	assert.True(t, second.HasPrevious())
}

func TestGetRecipeAnnotations(t *testing.T) {
	f := setupRecipeTest(t)
	ctx := context.Background()
	viewer := testhelpers.CreateUser(t, f.db, "viewer")
	recipe := testhelpers.CreateRecipe(t, f.db, f.author, "Soup", []*models.Tag{f.tags[0]}, map[uint]int{f.ingredients[0].ID: 1})

	_, err := service.NewShoppingCartService(f.db).Add(ctx, viewer.ID, recipe.ID)
	require.NoError(t, err)
	_, err = service.NewSubscriptionService(f.db).Subscribe(ctx, viewer.ID, f.author.ID, 0)
	require.NoError(t, err)

	view, err := f.svc.GetRecipe(ctx, viewer.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, view.IsInShoppingCart)
	assert.False(t, view.IsFavorited)
	assert.True(t, view.AuthorSubscribed)

	anon, err := f.svc.GetRecipe(ctx, 0, recipe.ID)
	require.NoError(t, err)
	assert.False(t, anon.IsInShoppingCart)
	assert.False(t, anon.AuthorSubscribed)
}
