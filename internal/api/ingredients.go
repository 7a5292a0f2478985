package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type IngredientHandler struct {
	ingredients *service.IngredientService
}

func NewIngredientHandler(ingredients *service.IngredientService) *IngredientHandler {
	return &IngredientHandler{ingredients: ingredients}
}

func (h *IngredientHandler) RegisterRoutes(router *gin.RouterGroup) {
	ingredients := router.Group("/ingredients")
	{
		ingredients.GET("/", h.SearchIngredients)
		ingredients.GET("/:id/", h.GetIngredient)
	}
}

// SearchIngredients matches a name prefix given as ?title= (or ?name=).
func (h *IngredientHandler) SearchIngredients(c *gin.Context) {
	prefix := c.Query("title")
	if prefix == "" {
		prefix = c.Query("name")
	}

	ingredients, err := h.ingredients.SearchIngredients(c.Request.Context(), prefix)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]types.IngredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		resp = append(resp, toIngredientResponse(ingredient))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *IngredientHandler) GetIngredient(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ingredient, err := h.ingredients.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toIngredientResponse(*ingredient))
}
