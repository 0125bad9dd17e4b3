package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"foodgram/internal/middleware"
	"foodgram/internal/models"
	"foodgram/internal/service"
)

// RecipeHandler owns recipe CRUD, the bookmark toggles, short links and
// the shopping-list export.
type RecipeHandler struct {
	recipes  *service.RecipeService
	users    *service.UserService
	shopping *service.ShoppingListService
	auth     *service.AuthService
	images   service.ImageStore
	baseURL  string
}

func NewRecipeHandler(
	recipes *service.RecipeService,
	users *service.UserService,
	shopping *service.ShoppingListService,
	auth *service.AuthService,
	images service.ImageStore,
	baseURL string,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:  recipes,
		users:    users,
		shopping: shopping,
		auth:     auth,
		images:   images,
		baseURL:  baseURL,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("/", middleware.OptionalAuth(h.auth), h.List)
		recipes.POST("/", middleware.Auth(h.auth), h.Create)
		recipes.GET("/download_shopping_cart/", middleware.Auth(h.auth), h.DownloadShoppingCart)
		recipes.GET("/:id/", middleware.OptionalAuth(h.auth), h.Retrieve)
		recipes.PATCH("/:id/", middleware.Auth(h.auth), h.Update)
		recipes.DELETE("/:id/", middleware.Auth(h.auth), h.Delete)
		recipes.GET("/:id/get-link/", h.GetLink)
		recipes.POST("/:id/favorite/", middleware.Auth(h.auth), h.Favorite)
		recipes.DELETE("/:id/favorite/", middleware.Auth(h.auth), h.Unfavorite)
		recipes.POST("/:id/shopping_cart/", middleware.Auth(h.auth), h.AddToCart)
		recipes.DELETE("/:id/shopping_cart/", middleware.Auth(h.auth), h.RemoveFromCart)
	}
}

// RegisterShortLinkRoute mounts the public short-link resolver outside
// the /api prefix.
func (h *RecipeHandler) RegisterShortLinkRoute(router *gin.Engine) {
	router.GET("/r/:code", h.ResolveShortLink)
}

func (h *RecipeHandler) List(c *gin.Context) {
	filter := service.ListFilter{UserID: viewerID(c)}
	if v, err := strconv.ParseUint(c.Query("author"), 10, 32); err == nil {
		filter.AuthorID = uint(v)
	}
	filter.Favorited = boolQuery(c, "is_favorited")
	filter.InCart = boolQuery(c, "is_in_shopping_cart")

	page := parsePageParams(c)
	recipes, total, err := h.recipes.List(filter, page.Offset(), page.Size)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	results := make([]recipeResponse, 0, len(recipes))
	for i := range recipes {
		results = append(results, h.newRecipeResponse(c, &recipes[i]))
	}
	c.JSON(http.StatusOK, newPaginatedResponse(c, h.baseURL, page, total, results))
}

func (h *RecipeHandler) Retrieve(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newRecipeResponse(c, recipe))
}

func (h *RecipeHandler) Create(c *gin.Context) {
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	recipe, err := h.recipes.Create(c.Request.Context(), user.ID, req.toInput())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.newRecipeResponse(c, recipe))
}

func (h *RecipeHandler) Update(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req recipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	recipe, err := h.recipes.Update(c.Request.Context(), user.ID, id, req.toInput())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.newRecipeResponse(c, recipe))
}

func (h *RecipeHandler) Delete(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if err := h.recipes.Delete(user.ID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"short-link": h.recipes.ShortLink(h.baseURL, recipe)})
}

func (h *RecipeHandler) ResolveShortLink(c *gin.Context) {
	recipe, err := h.recipes.ResolveShortCode(c.Param("code"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.baseURL+"/recipes/"+strconv.FormatUint(uint64(recipe.ID), 10))
}

func (h *RecipeHandler) Favorite(c *gin.Context) {
	h.addBookmark(c, h.recipes.Favorite)
}

func (h *RecipeHandler) Unfavorite(c *gin.Context) {
	h.removeBookmark(c, h.recipes.Unfavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addBookmark(c, h.recipes.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeBookmark(c, h.recipes.RemoveFromCart)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	user := middleware.CurrentUser(c)
	list, err := h.shopping.Build(user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	now := time.Now()
	c.Header("Content-Disposition", `attachment; filename="`+list.Filename(now)+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(list.Render(now)))
}

func (h *RecipeHandler) addBookmark(c *gin.Context, add func(userID, recipeID uint) (*models.Recipe, error)) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	recipe, err := add(user.ID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRecipeShortResponse(recipe, h.images))
}

func (h *RecipeHandler) removeBookmark(c *gin.Context, remove func(userID, recipeID uint) error) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if err := remove(user.ID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) newRecipeResponse(c *gin.Context, recipe *models.Recipe) recipeResponse {
	viewer := viewerID(c)

	lines := make([]ingredientLineResponse, 0, len(recipe.Ingredients))
	for _, line := range recipe.Ingredients {
		lines = append(lines, ingredientLineResponse{
			ID:              line.IngredientID,
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		})
	}

	return recipeResponse{
		ID:               recipe.ID,
		Author:           newUserResponse(&recipe.Author, h.users.IsSubscribed(viewer, recipe.AuthorID), h.images),
		Ingredients:      lines,
		IsFavorited:      h.recipes.IsFavorited(viewer, recipe.ID),
		IsInShoppingCart: h.recipes.IsInCart(viewer, recipe.ID),
		Name:             recipe.Name,
		Image:            h.images.URL(recipe.Image),
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}
}

// boolQuery treats "1" and "true" as true, everything else as false.
func boolQuery(c *gin.Context, name string) bool {
	v := c.Query(name)
	return v == "1" || v == "true" || v == "True"
}
