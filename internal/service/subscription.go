package service

import (
	"context"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// AuthorView is a followed author with a preview of their recipes.
type AuthorView struct {
	User         models.User
	IsSubscribed bool
	RecipesCount int64
	Recipes      []models.Recipe
}

type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Subscribe makes userID follow authorID. recipesLimit caps the preview
// (0 or less means all).
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, authorID uint, recipesLimit int) (*AuthorView, error) {
	var author models.User
	if err := s.db.WithContext(ctx).First(&author, authorID).Error; err != nil {
		return nil, notFound(err)
	}
	if userID == authorID {
		return nil, ErrSelfFollow
	}

	follow := models.Follow{UserID: userID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(&follow).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("already subscribed to this author: %w", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	views, err := s.authorViews(ctx, []models.User{author}, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// Unsubscribe removes the follow edge. ErrNotFound when there was none.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return fmt.Errorf("failed to unsubscribe: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("not subscribed to this author: %w", ErrNotFound)
	}
	return nil
}

// ListSubscriptions pages through the authors userID follows.
func (s *SubscriptionService) ListSubscriptions(ctx context.Context, userID uint, page Page, recipesLimit int) (PageResult[AuthorView], error) {
	page = page.Normalize()
	result := PageResult[AuthorView]{Page: page}

	query := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Session(&gorm.Session{})

	if err := query.Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	err := query.Select("users.*").Order("follows.id").Limit(page.Size).Offset(page.Offset()).Find(&authors).Error
	if err != nil {
		return result, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	result.Items, err = s.authorViews(ctx, authors, recipesLimit)
	if err != nil {
		return result, err
	}
	return result, nil
}

// authorViews loads recipe counts and previews for authors the caller
// follows.
func (s *SubscriptionService) authorViews(ctx context.Context, authors []models.User, recipesLimit int) ([]AuthorView, error) {
	views := make([]AuthorView, len(authors))
	for i, author := range authors {
		view := AuthorView{User: author, IsSubscribed: true}

		db := s.db.WithContext(ctx)
		if err := db.Model(&models.Recipe{}).Where("author_id = ?", author.ID).Count(&view.RecipesCount).Error; err != nil {
			return nil, fmt.Errorf("failed to count recipes: %w", err)
		}

		query := db.Where("author_id = ?", author.ID).Order("pub_date DESC").Order("id DESC")
		if recipesLimit > 0 {
			query = query.Limit(recipesLimit)
		}
		if err := query.Find(&view.Recipes).Error; err != nil {
			return nil, fmt.Errorf("failed to load recipes: %w", err)
		}
		views[i] = view
	}
	return views, nil
}
