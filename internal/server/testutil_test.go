package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"foodgram/config"
	"foodgram/internal/models"
	"foodgram/internal/service"
)

const testBaseURL = "http://localhost:8000"

// newTestServer assembles the full router on an in-memory sqlite
// database with local image storage.
func newTestServer(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory DB.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.AuthToken{},
		&models.Ingredient{},
		&models.Tag{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.Favorite{},
		&models.ShoppingCart{},
	))

	cfg := &config.Config{
		BaseURL:        testBaseURL,
		SecretKey:      "test-secret",
		StorageBackend: "local",
		MediaRoot:      t.TempDir(),
	}
	images := service.NewLocalStore(cfg.MediaRoot, cfg.BaseURL)
	return New(cfg, db, nil, images).Router(), db
}

// doJSON performs one request against the router. An empty token means
// anonymous.
func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), "body: %s", w.Body.String())
}

// registerAndLogin creates an account over the API and returns its token
// and id. The password is always "password123".
func registerAndLogin(t *testing.T, router *gin.Engine, username string) (string, uint) {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/users/", "", gin.H{
		"email":      username + "@example.com",
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, "register: %s", w.Body.String())
	var created struct {
		ID uint `json:"id"`
	}
	parseBody(t, w, &created)

	w = doJSON(t, router, http.MethodPost, "/api/auth/token/login/", "", gin.H{
		"email":    username + "@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code, "login: %s", w.Body.String())
	var tok struct {
		AuthToken string `json:"auth_token"`
	}
	parseBody(t, w, &tok)
	require.NotEmpty(t, tok.AuthToken)

	return tok.AuthToken, created.ID
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) uint {
	t.Helper()
	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(&ingredient).Error)
	return ingredient.ID
}

// createRecipe posts a recipe over the API and returns its id.
func createRecipe(t *testing.T, router *gin.Engine, token, name string, lines []gin.H) uint {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/recipes/", token, gin.H{
		"name":         name,
		"text":         "How to cook " + name,
		"cooking_time": 15,
		"image":        testImagePayload,
		"ingredients":  lines,
	})
	require.Equal(t, http.StatusCreated, w.Code, "create recipe: %s", w.Body.String())
	var created struct {
		ID uint `json:"id"`
	}
	parseBody(t, w, &created)
	return created.ID
}

func urlForUser(id uint) string {
	return fmt.Sprintf("/api/users/%d/", id)
}

// A one-pixel PNG, base64-encoded the way clients submit images.
const testImagePayload = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
