package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipes       *service.RecipeService
	favorites     *service.RelationService
	cart          *service.RelationService
	shoppingList  *service.ShoppingListService
	auth          *service.AuthService
	createLimiter *middleware.RateLimiter
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	favorites *service.RelationService,
	cart *service.RelationService,
	shoppingList *service.ShoppingListService,
	auth *service.AuthService,
	createLimiter *middleware.RateLimiter,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:       recipes,
		favorites:     favorites,
		cart:          cart,
		shoppingList:  shoppingList,
		auth:          auth,
		createLimiter: createLimiter,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	required := middleware.AuthMiddleware(h.auth)
	optional := middleware.OptionalAuth(h.auth)
	owner := middleware.OwnerOrReadOnly(h.recipes.RecipeOwner)

	create := []gin.HandlerFunc{required}
	if h.createLimiter != nil {
		create = append(create, h.createLimiter.RateLimitMiddleware())
	}
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("/", optional, h.ListRecipes)
		recipes.POST("/", create...)
		recipes.GET("/download_shopping_cart/", required, h.DownloadShoppingCart)
		recipes.GET("/:id/", optional, h.GetRecipe)
		recipes.PATCH("/:id/", required, owner, h.UpdateRecipe)
		recipes.DELETE("/:id/", required, owner, h.DeleteRecipe)
		recipes.POST("/:id/favorite/", required, h.relationAdd(h.favorites))
		recipes.DELETE("/:id/favorite/", required, h.relationRemove(h.favorites))
		recipes.POST("/:id/shopping_cart/", required, h.relationAdd(h.cart))
		recipes.DELETE("/:id/shopping_cart/", required, h.relationRemove(h.cart))
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	author, _, err := queryInt(c, "author")
	if err != nil || author < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "author: must be a user id"})
		return
	}

	filter := service.RecipeFilter{
		AuthorID:         uint(author),
		TagSlugs:         c.QueryArray("tags"),
		IsFavorited:      queryFlag(c, "is_favorited"),
		IsInShoppingCart: queryFlag(c, "is_in_shopping_cart"),
	}

	result, err := h.recipes.ListRecipes(c.Request.Context(), middleware.UserID(c), filter, pageFromQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginate(c, result, toRecipeResponse))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	view, err := h.recipes.GetRecipe(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecipeResponse(*view))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.CreateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.recipes.CreateRecipe(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecipeResponse(*view))
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req types.UpdateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.recipes.UpdateRecipe(c.Request.Context(), id, middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecipeResponse(*view))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.recipes.DeleteRecipe(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) relationAdd(rel *service.RelationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		recipe, err := rel.Add(c.Request.Context(), middleware.UserID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, toRecipeShort(*recipe))
	}
}

func (h *RecipeHandler) relationRemove(rel *service.RelationService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		if err := rel.Remove(c.Request.Context(), middleware.UserID(c), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// DownloadShoppingCart sends the aggregated cart as a text attachment.
func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.auth.GetUserByID(ctx, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	items, err := h.shoppingList.Aggregate(ctx, user.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_shopping_list.txt", user.Username))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(service.Render(user, items)))
}
