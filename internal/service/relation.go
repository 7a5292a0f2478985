package service

import (
	"context"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// RelationService toggles a (user, recipe) edge stored in one table. The
// favorites list and the shopping cart are both instances of it.
type RelationService struct {
	db     *gorm.DB
	model  interface{}
	newRow func(userID, recipeID uint) interface{}
	label  string
}

func NewFavoriteService(db *gorm.DB) *RelationService {
	return &RelationService{
		db:    db,
		model: &models.Favorite{},
		newRow: func(userID, recipeID uint) interface{} {
			return &models.Favorite{UserID: userID, RecipeID: recipeID}
		},
		label: "favorites",
	}
}

func NewShoppingCartService(db *gorm.DB) *RelationService {
	return &RelationService{
		db:    db,
		model: &models.ShoppingCart{},
		newRow: func(userID, recipeID uint) interface{} {
			return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
		},
		label: "shopping cart",
	}
}

// Add links the recipe to the user and returns the recipe. A second Add for
// the same pair is rejected by the unique index.
func (s *RelationService) Add(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		return nil, notFound(err)
	}

	if err := s.db.WithContext(ctx).Create(s.newRow(userID, recipeID)).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("recipe is already in %s: %w", s.label, ErrAlreadyExists)
		}
		if isForeignKeyViolation(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to add recipe to %s: %w", s.label, err)
	}
	return &recipe, nil
}

// Remove unlinks the recipe. ErrNotFound when the pair was not linked.
func (s *RelationService) Remove(ctx context.Context, userID, recipeID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(s.model)
	if res.Error != nil {
		return fmt.Errorf("failed to remove recipe from %s: %w", s.label, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("recipe is not in %s: %w", s.label, ErrNotFound)
	}
	return nil
}

// Contains reports whether the pair is linked.
func (s *RelationService) Contains(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(s.model).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check %s: %w", s.label, err)
	}
	return count > 0, nil
}
