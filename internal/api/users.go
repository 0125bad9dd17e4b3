package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodgram/internal/middleware"
	"foodgram/internal/models"
	"foodgram/internal/service"
)

// UserHandler owns the account, avatar and subscription endpoints.
type UserHandler struct {
	users   *service.UserService
	auth    *service.AuthService
	images  service.ImageStore
	baseURL string
}

func NewUserHandler(users *service.UserService, auth *service.AuthService, images service.ImageStore, baseURL string) *UserHandler {
	return &UserHandler{users: users, auth: auth, images: images, baseURL: baseURL}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("/", h.Create)
		users.GET("/", middleware.OptionalAuth(h.auth), h.List)
		users.GET("/me/", middleware.Auth(h.auth), h.Me)
		users.PUT("/me/avatar/", middleware.Auth(h.auth), h.SetAvatar)
		users.DELETE("/me/avatar/", middleware.Auth(h.auth), h.DeleteAvatar)
		users.POST("/set_password/", middleware.Auth(h.auth), h.SetPassword)
		users.GET("/subscriptions/", middleware.Auth(h.auth), h.Subscriptions)
		users.GET("/:id/", middleware.OptionalAuth(h.auth), h.Retrieve)
		users.POST("/:id/subscribe/", middleware.Auth(h.auth), h.Subscribe)
		users.DELETE("/:id/subscribe/", middleware.Auth(h.auth), h.Unsubscribe)
	}
}

func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), service.CreateUserInput{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
		Avatar:    req.Avatar,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, createdUserResponse{
		Email:     user.Email,
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *UserHandler) List(c *gin.Context) {
	page := parsePageParams(c)
	users, total, err := h.users.List(page.Offset(), page.Size)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	viewer := viewerID(c)
	results := make([]userResponse, 0, len(users))
	for i := range users {
		results = append(results, newUserResponse(&users[i], h.users.IsSubscribed(viewer, users[i].ID), h.images))
	}
	c.JSON(http.StatusOK, newPaginatedResponse(c, h.baseURL, page, total, results))
}

func (h *UserHandler) Retrieve(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user, err := h.users.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user, h.users.IsSubscribed(viewerID(c), user.ID), h.images))
}

func (h *UserHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, newUserResponse(user, false, h.images))
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	var req avatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	url, err := h.users.SetAvatar(c.Request.Context(), user, req.Avatar)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"avatar": url})
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.users.DeleteAvatar(c.Request.Context(), user); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user := middleware.CurrentUser(c)
	if err := h.users.SetPassword(user, req.CurrentPassword, req.NewPassword); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if err := h.users.Subscribe(user.ID, id); err != nil {
		handleServiceError(c, err)
		return
	}

	followee, err := h.users.Get(id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	resp, err := h.userWithRecipes(c, followee, true)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	user := middleware.CurrentUser(c)
	if err := h.users.Unsubscribe(user.ID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	user := middleware.CurrentUser(c)
	page := parsePageParams(c)

	followees, total, err := h.users.Subscriptions(user.ID, page.Offset(), page.Size)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	results := make([]userWithRecipesResponse, 0, len(followees))
	for i := range followees {
		resp, err := h.userWithRecipes(c, &followees[i], true)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		results = append(results, resp)
	}
	c.JSON(http.StatusOK, newPaginatedResponse(c, h.baseURL, page, total, results))
}

// userWithRecipes builds the subscription representation: the user plus
// their recipes, optionally capped by the recipes_limit query parameter.
func (h *UserHandler) userWithRecipes(c *gin.Context, user *models.User, subscribed bool) (userWithRecipesResponse, error) {
	limit := 0
	if v, err := strconv.Atoi(c.Query("recipes_limit")); err == nil && v > 0 {
		limit = v
	}

	recipes, count, err := h.users.RecipesByAuthor(user.ID, limit)
	if err != nil {
		return userWithRecipesResponse{}, err
	}

	shorts := make([]recipeShortResponse, 0, len(recipes))
	for i := range recipes {
		shorts = append(shorts, newRecipeShortResponse(&recipes[i], h.images))
	}
	return userWithRecipesResponse{
		userResponse: newUserResponse(user, subscribed, h.images),
		Recipes:      shorts,
		RecipesCount: count,
	}, nil
}

// viewerID is the authenticated caller's id, zero for anonymous.
func viewerID(c *gin.Context) uint {
	if user := middleware.CurrentUser(c); user != nil {
		return user.ID
	}
	return 0
}

// idParam parses the :id path parameter, answering 404 for garbage.
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
		return 0, false
	}
	return uint(id), true
}
