package models

import "time"

type Recipe struct {
	ID          uint               `gorm:"primarykey"`
	AuthorID    uint               `gorm:"not null;index"`
	Author      *User              `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Title       string             `gorm:"size:200;not null"`
	Image       string             `gorm:"type:text"`
	Text        string             `gorm:"type:text;not null"`
	CookingTime int                `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 0"`
	PubDate     time.Time          `gorm:"autoCreateTime;index"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// RecipeIngredient is the junction row carrying the per-recipe quantity.
type RecipeIngredient struct {
	ID           uint        `gorm:"primarykey"`
	RecipeID     uint        `gorm:"not null;index"`
	IngredientID uint        `gorm:"not null;index"`
	Ingredient   *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
	Quantity     int         `gorm:"not null;check:chk_recipe_ingredients_quantity,quantity >= 1"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

// Favorite marks a recipe as a user's favorite. Unique per (user, recipe).
type Favorite struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorites_user_recipe"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorites_user_recipe;index"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe    *Recipe   `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (Favorite) TableName() string {
	return "favorites"
}

// ShoppingCart places a recipe in a user's cart. Unique per (user, recipe).
type ShoppingCart struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_shopping_carts_user_recipe"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_shopping_carts_user_recipe;index"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe    *Recipe   `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

func (ShoppingCart) TableName() string {
	return "shopping_carts"
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Follow{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCart{},
	}
}
