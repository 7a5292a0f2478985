package service

import (
	"context"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// UserView is a user annotated for the requester.
type UserView struct {
	User         models.User
	IsSubscribed bool
}

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// ListUsers pages through all users ordered by id.
func (s *UserService) ListUsers(ctx context.Context, viewerID uint, page Page) (PageResult[UserView], error) {
	page = page.Normalize()
	result := PageResult[UserView]{Page: page}

	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := db.Order("id").Limit(page.Size).Offset(page.Offset()).Find(&users).Error; err != nil {
		return result, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := subscribedSet(ctx, s.db, viewerID, ids)
	if err != nil {
		return result, err
	}

	result.Items = make([]UserView, len(users))
	for i, u := range users {
		result.Items[i] = UserView{User: u, IsSubscribed: subscribed[u.ID]}
	}
	return result, nil
}

// GetUser returns one user annotated for viewerID (0 for anonymous).
func (s *UserService) GetUser(ctx context.Context, viewerID, userID uint) (*UserView, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, notFound(err)
	}
	subscribed, err := subscribedSet(ctx, s.db, viewerID, []uint{user.ID})
	if err != nil {
		return nil, err
	}
	return &UserView{User: user, IsSubscribed: subscribed[user.ID]}, nil
}

// subscribedSet returns which of authorIDs viewerID follows.
func subscribedSet(ctx context.Context, db *gorm.DB, viewerID uint, authorIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(authorIDs))
	if viewerID == 0 || len(authorIDs) == 0 {
		return set, nil
	}

	var followed []uint
	err := db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id IN ?", viewerID, authorIDs).
		Pluck("author_id", &followed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range followed {
		set[id] = true
	}
	return set, nil
}
