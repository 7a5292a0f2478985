package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

type client struct {
	t       *testing.T
	handler http.Handler
}

func (c *client) do(method, path, token string, body interface{}) (int, map[string]interface{}, string) {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rr := httptest.NewRecorder()
	c.handler.ServeHTTP(rr, req)

	var out map[string]interface{}
	_ = json.Unmarshal(rr.Body.Bytes(), &out)
	return rr.Code, out, rr.Body.String()
}

// setupStack runs the full server against PostgreSQL and Redis containers.
func setupStack(t *testing.T, recipeLimit int) (*client, *gorm.DB) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupPostgresDB(t)
	redisClient := testhelpers.SetupRedis(t)

	cfg := &config.Config{
		ServerHost:          "localhost",
		ServerPort:          "0",
		JWTSecret:           "integration-secret",
		TokenTTL:            time.Hour,
		RedisURL:            "redis://" + redisClient.Options().Addr,
		RecipeCreationLimit: recipeLimit,
	}
	srv, err := server.New(context.Background(), cfg, db)
	require.NoError(t, err)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })

	return &client{t: t, handler: srv.Handler()}, db
}

func (c *client) register(username string) string {
	c.t.Helper()
	body := map[string]string{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "Cook",
		"last_name":  username,
		"password":   "integration-pass",
	}
	code, _, raw := c.do(http.MethodPost, "/api/users/", "", body)
	require.Equal(c.t, http.StatusCreated, code, raw)

	login := map[string]string{"email": username + "@example.com", "password": "integration-pass"}
	code, out, raw := c.do(http.MethodPost, "/api/auth/token/login/", "", login)
	require.Equal(c.t, http.StatusOK, code, raw)
	return out["auth_token"].(string)
}

func recipePayload(title string, tagID, ingredientID uint, quantity int) map[string]interface{} {
	return map[string]interface{}{
		"title":        title,
		"text":         "Simmer for a while.",
		"cooking_time": 30,
		"image":        "data:image/png;base64,iVBORw0KGgo=",
		"tags":         []uint{tagID},
		"ingredients":  []map[string]interface{}{{"id": ingredientID, "quantity": quantity}},
	}
}

func TestRecipeLifecycle(t *testing.T) {
	c, db := setupStack(t, 20)
	tag := testhelpers.CreateTag(t, db, "dinner")
	rice := testhelpers.CreateIngredient(t, db, "rice", "g")

	chef := c.register("chef")
	guest := c.register("guest")

	code, created, raw := c.do(http.MethodPost, "/api/recipes/", chef, recipePayload("Risotto", tag.ID, rice.ID, 200))
	require.Equal(t, http.StatusCreated, code, raw)
	recipeID := uint(created["id"].(float64))
	assert.Contains(t, created["image"], "data:image/png;base64,")

	code, _, _ = c.do(http.MethodPost, "/api/recipes/", chef, recipePayload("Risotto", tag.ID, rice.ID, 100))
	assert.Equal(t, http.StatusBadRequest, code)

	for _, rel := range []string{"favorite", "shopping_cart"} {
		path := fmt.Sprintf("/api/recipes/%d/%s/", recipeID, rel)
		code, _, _ = c.do(http.MethodPost, path, guest, nil)
		assert.Equal(t, http.StatusCreated, code, rel)
		code, _, _ = c.do(http.MethodPost, path, guest, nil)
		assert.Equal(t, http.StatusBadRequest, code, rel)
	}

	code, _, raw = c.do(http.MethodGet, "/api/recipes/download_shopping_cart/", guest, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, raw, "- rice (g) - 200")

	code, page, _ := c.do(http.MethodGet, "/api/recipes/?is_favorited=1&tags=dinner", guest, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), page["count"])

	code, _, _ = c.do(http.MethodPatch, fmt.Sprintf("/api/recipes/%d/", recipeID), guest, recipePayload("Stolen", tag.ID, rice.ID, 1))
	assert.Equal(t, http.StatusForbidden, code)

	code, _, _ = c.do(http.MethodDelete, fmt.Sprintf("/api/recipes/%d/", recipeID), chef, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, _, _ = c.do(http.MethodGet, "/api/recipes/download_shopping_cart/", guest, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLogoutRevokesToken(t *testing.T) {
	c, _ := setupStack(t, 20)
	token := c.register("sleepy")

	code, _, _ := c.do(http.MethodGet, "/api/users/me/", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _, _ = c.do(http.MethodPost, "/api/auth/token/logout/", token, nil)
	require.Equal(t, http.StatusNoContent, code)

	code, _, _ = c.do(http.MethodGet, "/api/users/me/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRecipeCreationIsRateLimited(t *testing.T) {
	c, db := setupStack(t, 1)
	tag := testhelpers.CreateTag(t, db, "snack")
	nuts := testhelpers.CreateIngredient(t, db, "nuts", "g")
	token := c.register("busy")

	code, _, raw := c.do(http.MethodPost, "/api/recipes/", token, recipePayload("Trail mix", tag.ID, nuts.ID, 50))
	require.Equal(t, http.StatusCreated, code, raw)

	code, out, _ := c.do(http.MethodPost, "/api/recipes/", token, recipePayload("Roasted nuts", tag.ID, nuts.ID, 80))
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Contains(t, out, "retry_after")
}
