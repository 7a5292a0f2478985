package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
)

// RecipeView is a recipe with its relations loaded and the flags computed
// for the requesting user. All flags are false for anonymous requests.
type RecipeView struct {
	Recipe           models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

// RecipeFilter narrows ListRecipes. Zero values disable a filter.
type RecipeFilter struct {
	AuthorID         uint
	TagSlugs         []string
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeService handles recipe operations
type RecipeService struct {
	db     *gorm.DB
	images ImageStore
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore) *RecipeService {
	if images == nil {
		images = InlineImageStore{}
	}
	return &RecipeService{
		db:     db,
		images: images,
	}
}

// CreateRecipe stores a recipe authored by authorID together with its tag
// links and ingredient rows in one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, req *types.CreateRecipeRequest) (*RecipeView, error) {
	if req.CookingTime == nil || *req.CookingTime < 0 {
		return nil, invalid("cooking_time", "must be zero or greater")
	}
	if err := validateComposition(req.Tags, req.Ingredients); err != nil {
		return nil, err
	}

	image, err := s.images.Store(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Title:       strings.TrimSpace(req.Title),
		Text:        req.Text,
		CookingTime: *req.CookingTime,
		Image:       image,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureTitleFree(tx, recipe.Title, 0); err != nil {
			return err
		}
		tags, err := loadTags(tx, req.Tags)
		if err != nil {
			return err
		}
		if err := ensureIngredientsExist(tx, req.Ingredients); err != nil {
			return err
		}

		if err := tx.Omit("Author", "Tags", "Ingredients").Create(&recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		if err := tx.Model(&recipe).Association("Tags").Append(tags); err != nil {
			return fmt.Errorf("failed to link tags: %w", err)
		}
		return insertIngredients(tx, recipe.ID, req.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, authorID, recipe.ID)
}

// UpdateRecipe applies a partial update. Tags and ingredients are replaced
// wholesale, and the whole change commits or rolls back together.
func (s *RecipeService) UpdateRecipe(ctx context.Context, recipeID, requesterID uint, req *types.UpdateRecipeRequest) (*RecipeView, error) {
	if req.CookingTime != nil && *req.CookingTime < 0 {
		return nil, invalid("cooking_time", "must be zero or greater")
	}
	if err := validateComposition(req.Tags, req.Ingredients); err != nil {
		return nil, err
	}

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		return nil, notFound(err)
	}
	if recipe.AuthorID != requesterID {
		return nil, ErrForbidden
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, invalid("title", "may not be blank")
		}
		updates["title"] = title
	}
	if req.Text != nil {
		if strings.TrimSpace(*req.Text) == "" {
			return nil, invalid("text", "may not be blank")
		}
		updates["text"] = *req.Text
	}
	if req.CookingTime != nil {
		updates["cooking_time"] = *req.CookingTime
	}
	if req.Image != nil {
		image, err := s.images.Store(ctx, *req.Image)
		if err != nil {
			return nil, err
		}
		updates["image"] = image
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if title, ok := updates["title"].(string); ok {
			if err := ensureTitleFree(tx, title, recipe.ID); err != nil {
				return err
			}
		}
		tags, err := loadTags(tx, req.Tags)
		if err != nil {
			return err
		}
		if err := ensureIngredientsExist(tx, req.Ingredients); err != nil {
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update recipe: %w", err)
			}
		}
		if err := tx.Model(&recipe).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("failed to replace tags: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to clear ingredients: %w", err)
		}
		return insertIngredients(tx, recipe.ID, req.Ingredients)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, requesterID, recipe.ID)
}

// DeleteRecipe removes a recipe owned by requesterID. Favorites, cart rows
// and ingredient rows go with it.
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipeID, requesterID uint) error {
	ownerID, found, err := s.RecipeOwner(ctx, recipeID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	if ownerID != requesterID {
		return ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(&models.Recipe{}, recipeID).Error; err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	return nil
}

// RecipeOwner returns the author of a recipe.
func (s *RecipeService) RecipeOwner(ctx context.Context, recipeID uint) (uint, bool, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Select("id", "author_id").First(&recipe, recipeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to load recipe: %w", err)
	}
	return recipe.AuthorID, true, nil
}

// GetRecipe retrieves a recipe by ID, annotated for viewerID.
func (s *RecipeService) GetRecipe(ctx context.Context, viewerID, recipeID uint) (*RecipeView, error) {
	var recipe models.Recipe
	if err := withRelations(s.db.WithContext(ctx)).First(&recipe, recipeID).Error; err != nil {
		return nil, notFound(err)
	}

	views, err := s.annotate(ctx, viewerID, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecipes returns one page of recipes, newest first.
func (s *RecipeService) ListRecipes(ctx context.Context, viewerID uint, filter RecipeFilter, page Page) (PageResult[RecipeView], error) {
	page = page.Normalize()
	result := PageResult[RecipeView]{Page: page}

	query := s.db.WithContext(ctx).Model(&models.Recipe{})
	if filter.AuthorID != 0 {
		query = query.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		tagged := s.db.Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.TagSlugs)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if viewerID != 0 && filter.IsFavorited {
		query = query.Where("recipes.id IN (?)",
			s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewerID))
	}
	if viewerID != 0 && filter.IsInShoppingCart {
		query = query.Where("recipes.id IN (?)",
			s.db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", viewerID))
	}
	query = query.Session(&gorm.Session{})

	if err := query.Count(&result.Total).Error; err != nil {
		return result, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := withRelations(query).
		Order("recipes.pub_date DESC").
		Order("recipes.id DESC").
		Limit(page.Size).
		Offset(page.Offset()).
		Find(&recipes).Error
	if err != nil {
		return result, fmt.Errorf("failed to list recipes: %w", err)
	}

	result.Items, err = s.annotate(ctx, viewerID, recipes)
	if err != nil {
		return result, err
	}
	return result, nil
}

// annotate computes the per-viewer flags with one query per relation.
func (s *RecipeService) annotate(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]RecipeView, error) {
	recipeIDs := make([]uint, len(recipes))
	authorIDs := make([]uint, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		authorIDs[i] = r.AuthorID
	}

	favorites, err := userRecipeSet(ctx, s.db, &models.Favorite{}, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	cart, err := userRecipeSet(ctx, s.db, &models.ShoppingCart{}, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := subscribedSet(ctx, s.db, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]RecipeView, len(recipes))
	for i, r := range recipes {
		views[i] = RecipeView{
			Recipe:           r,
			IsFavorited:      favorites[r.ID],
			IsInShoppingCart: cart[r.ID],
			AuthorSubscribed: subscribed[r.AuthorID],
		}
	}
	return views, nil
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// userRecipeSet returns which of recipeIDs have a row in model's table for userID.
func userRecipeSet(ctx context.Context, db *gorm.DB, model interface{}, userID uint, recipeIDs []uint) (map[uint]bool, error) {
	set := make(map[uint]bool, len(recipeIDs))
	if userID == 0 || len(recipeIDs) == 0 {
		return set, nil
	}

	var ids []uint
	err := db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe flags: %w", err)
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// validateComposition enforces at least one tag and one ingredient, with no
// repeats in either list.
func validateComposition(tagIDs []uint, ingredients []types.RecipeIngredientInput) error {
	if len(tagIDs) == 0 {
		return invalid("tags", "at least one tag is required")
	}
	if len(ingredients) == 0 {
		return invalid("ingredients", "at least one ingredient is required")
	}

	seenTags := make(map[uint]bool, len(tagIDs))
	for _, id := range tagIDs {
		if seenTags[id] {
			return invalid("tags", "tag %d is listed more than once", id)
		}
		seenTags[id] = true
	}

	seen := make(map[uint]bool, len(ingredients))
	for _, item := range ingredients {
		if seen[item.ID] {
			return invalid("ingredients", "ingredient %d is listed more than once", item.ID)
		}
		if item.Quantity < 1 {
			return invalid("ingredients", "quantity must be at least 1")
		}
		seen[item.ID] = true
	}
	return nil
}

func ensureTitleFree(tx *gorm.DB, title string, exceptID uint) error {
	var count int64
	query := tx.Model(&models.Recipe{}).Where("title = ?", title)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check recipe title: %w", err)
	}
	if count > 0 {
		return invalid("title", "a recipe with this title already exists")
	}
	return nil
}

func loadTags(tx *gorm.DB, ids []uint) ([]models.Tag, error) {
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	if len(tags) != len(ids) {
		return nil, invalid("tags", "unknown tag id")
	}
	return tags, nil
}

func ensureIngredientsExist(tx *gorm.DB, items []types.RecipeIngredientInput) error {
	ids := make([]uint, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	var count int64
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check ingredients: %w", err)
	}
	if int(count) != len(ids) {
		return invalid("ingredients", "unknown ingredient id")
	}
	return nil
}

func insertIngredients(tx *gorm.DB, recipeID uint, items []types.RecipeIngredientInput) error {
	rows := make([]models.RecipeIngredient, len(items))
	for i, item := range items {
		rows[i] = models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Quantity:     item.Quantity,
		}
	}
	if err := tx.Omit("Ingredient").Create(&rows).Error; err != nil {
		if isForeignKeyViolation(err) {
			return invalid("ingredients", "unknown ingredient id")
		}
		return fmt.Errorf("failed to add ingredients: %w", err)
	}
	return nil
}
