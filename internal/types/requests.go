package types

// RegisterRequest represents the request body for creating a user
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest represents the request body for obtaining a token
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
}

// RecipeIngredientInput is one {id, quantity} entry of a recipe payload.
type RecipeIngredientInput struct {
	ID       uint `json:"id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

// CreateRecipeRequest represents the request body for creating a recipe
type CreateRecipeRequest struct {
	Title       string                  `json:"title" binding:"required,max=200"`
	Text        string                  `json:"text" binding:"required"`
	CookingTime *int                    `json:"cooking_time" binding:"required,gte=0"`
	Image       string                  `json:"image"`
	Tags        []uint                  `json:"tags" binding:"required,min=1,dive,required"`
	Ingredients []RecipeIngredientInput `json:"ingredients" binding:"required,min=1,dive"`
}

// UpdateRecipeRequest is a partial update. Tags and ingredients are still
// required because both sets are replaced on every update.
type UpdateRecipeRequest struct {
	Title       *string                 `json:"title" binding:"omitempty,max=200"`
	Text        *string                 `json:"text"`
	CookingTime *int                    `json:"cooking_time" binding:"omitempty,gte=0"`
	Image       *string                 `json:"image"`
	Tags        []uint                  `json:"tags" binding:"required,min=1,dive,required"`
	Ingredients []RecipeIngredientInput `json:"ingredients" binding:"required,min=1,dive"`
}

type CreateTagRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Color string `json:"color" binding:"required,hexcolor,len=7"`
	Slug  string `json:"slug" binding:"required,max=200,slug"`
}

type UpdateTagRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=200"`
	Color *string `json:"color" binding:"omitempty,hexcolor,len=7"`
	Slug  *string `json:"slug" binding:"omitempty,max=200,slug"`
}
