package api

import (
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func toUserResponse(user *models.User, subscribed bool) types.UserResponse {
	return types.UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
	}
}

func toUserView(view service.UserView) types.UserResponse {
	return toUserResponse(&view.User, view.IsSubscribed)
}

func toTagResponse(tag models.Tag) types.TagResponse {
	return types.TagResponse{ID: tag.ID, Name: tag.Name, Color: tag.Color, Slug: tag.Slug}
}

func toIngredientResponse(ingredient models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{
		ID:              ingredient.ID,
		Name:            ingredient.Name,
		MeasurementUnit: ingredient.MeasurementUnit,
	}
}

func toRecipeShort(recipe models.Recipe) types.RecipeShortResponse {
	return types.RecipeShortResponse{
		ID:          recipe.ID,
		Title:       recipe.Title,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}
}

func toRecipeResponse(view service.RecipeView) types.RecipeResponse {
	r := view.Recipe
	resp := types.RecipeResponse{
		ID:               r.ID,
		Tags:             make([]types.TagResponse, 0, len(r.Tags)),
		Ingredients:      make([]types.RecipeIngredientResponse, 0, len(r.Ingredients)),
		IsFavorited:      view.IsFavorited,
		IsInShoppingCart: view.IsInShoppingCart,
		Title:            r.Title,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		PubDate:          r.PubDate,
	}
	if r.Author != nil {
		resp.Author = toUserResponse(r.Author, view.AuthorSubscribed)
	}
	for _, tag := range r.Tags {
		resp.Tags = append(resp.Tags, toTagResponse(tag))
	}
	for _, item := range r.Ingredients {
		line := types.RecipeIngredientResponse{ID: item.IngredientID, Quantity: item.Quantity}
		if item.Ingredient != nil {
			line.Name = item.Ingredient.Name
			line.MeasurementUnit = item.Ingredient.MeasurementUnit
		}
		resp.Ingredients = append(resp.Ingredients, line)
	}
	return resp
}

func toSubscriptionResponse(view service.AuthorView) types.SubscriptionResponse {
	resp := types.SubscriptionResponse{
		UserResponse: toUserResponse(&view.User, view.IsSubscribed),
		RecipesCount: view.RecipesCount,
		Recipes:      make([]types.RecipeShortResponse, 0, len(view.Recipes)),
	}
	for _, recipe := range view.Recipes {
		resp.Recipes = append(resp.Recipes, toRecipeShort(recipe))
	}
	return resp
}
