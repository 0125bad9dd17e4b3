package server

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginMe(t *testing.T) {
	router, _ := newTestServer(t)
	token, id := registerAndLogin(t, router, "alice")

	w := doJSON(t, router, http.MethodGet, "/api/users/me/", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		ID       uint   `json:"id"`
		Email    string `json:"email"`
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
	}
	parseBody(t, w, &me)
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.Equal(t, "alice", me.Username)
	assert.Empty(t, me.Avatar)

	// /me/ requires a token.
	w = doJSON(t, router, http.MethodGet, "/api/users/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users/me/", "bogus-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	router, _ := newTestServer(t)
	registerAndLogin(t, router, "alice")

	// Missing required fields.
	w := doJSON(t, router, http.MethodPost, "/api/users/", "", gin.H{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Duplicate email answers with a field-keyed error.
	w = doJSON(t, router, http.MethodPost, "/api/users/", "", gin.H{
		"email":      "alice@example.com",
		"username":   "alice2",
		"first_name": "A",
		"last_name":  "B",
		"password":   "pw",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var fields map[string][]string
	parseBody(t, w, &fields)
	assert.Contains(t, fields, "email")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	router, _ := newTestServer(t)
	registerAndLogin(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/auth/token/login/", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	router, _ := newTestServer(t)
	token, _ := registerAndLogin(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/auth/token/logout/", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users/me/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Logging out anonymously is rejected.
	w = doJSON(t, router, http.MethodPost, "/api/auth/token/logout/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetPasswordEndpoint(t *testing.T) {
	router, _ := newTestServer(t)
	token, _ := registerAndLogin(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/users/set_password/", token, gin.H{
		"current_password": "wrong",
		"new_password":     "newpassword",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/users/set_password/", token, gin.H{
		"current_password": "password123",
		"new_password":     "newpassword",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/token/login/", "", gin.H{
		"email":    "alice@example.com",
		"password": "newpassword",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserListPagination(t *testing.T) {
	router, _ := newTestServer(t)
	for _, name := range []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi"} {
		registerAndLogin(t, router, name)
	}

	w := doJSON(t, router, http.MethodGet, "/api/users/?limit=5", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Count    int64                    `json:"count"`
		Next     *string                  `json:"next"`
		Previous *string                  `json:"previous"`
		Results  []map[string]interface{} `json:"results"`
	}
	parseBody(t, w, &page)
	assert.EqualValues(t, 8, page.Count)
	assert.Len(t, page.Results, 5)
	require.NotNil(t, page.Next)
	assert.Contains(t, *page.Next, testBaseURL+"/api/users/?")
	assert.Contains(t, *page.Next, "page=2")
	assert.Nil(t, page.Previous)

	w = doJSON(t, router, http.MethodGet, "/api/users/?limit=5&page=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	parseBody(t, w, &page)
	assert.Len(t, page.Results, 3)
	assert.Nil(t, page.Next)
	require.NotNil(t, page.Previous)
	assert.Contains(t, *page.Previous, "page=1")
}

func TestRetrieveUser(t *testing.T) {
	router, _ := newTestServer(t)
	_, id := registerAndLogin(t, router, "alice")

	w := doJSON(t, router, http.MethodGet, urlForUser(id), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var user struct {
		Username     string `json:"username"`
		IsSubscribed bool   `json:"is_subscribed"`
	}
	parseBody(t, w, &user)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.IsSubscribed)

	w = doJSON(t, router, http.MethodGet, "/api/users/9999/", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Garbage ids are a 404, not a 400.
	w = doJSON(t, router, http.MethodGet, "/api/users/abc/", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAvatarEndpoints(t *testing.T) {
	router, _ := newTestServer(t)
	token, _ := registerAndLogin(t, router, "alice")

	w := doJSON(t, router, http.MethodPut, "/api/users/me/avatar/", token, gin.H{
		"avatar": testImagePayload,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Avatar string `json:"avatar"`
	}
	parseBody(t, w, &resp)
	assert.Contains(t, resp.Avatar, testBaseURL+"/media/avatars/")

	w = doJSON(t, router, http.MethodDelete, "/api/users/me/avatar/", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users/me/", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Avatar string `json:"avatar"`
	}
	parseBody(t, w, &me)
	assert.Empty(t, me.Avatar)
}

func TestSubscriptionEndpoints(t *testing.T) {
	router, db := newTestServer(t)
	aliceToken, aliceID := registerAndLogin(t, router, "alice")
	bobToken, bobID := registerAndLogin(t, router, "bob")

	flour := seedIngredient(t, db, "flour", "g")
	createRecipe(t, router, bobToken, "Bread", []gin.H{{"id": flour, "amount": 300}})
	createRecipe(t, router, bobToken, "Cake", []gin.H{{"id": flour, "amount": 200}})

	// Following yourself is rejected.
	w := doJSON(t, router, http.MethodPost, urlForUser(aliceID)+"subscribe/", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, urlForUser(bobID)+"subscribe/?recipes_limit=1", aliceToken, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var followed struct {
		Username     string                   `json:"username"`
		IsSubscribed bool                     `json:"is_subscribed"`
		Recipes      []map[string]interface{} `json:"recipes"`
		RecipesCount int64                    `json:"recipes_count"`
	}
	parseBody(t, w, &followed)
	assert.Equal(t, "bob", followed.Username)
	assert.True(t, followed.IsSubscribed)
	assert.Len(t, followed.Recipes, 1)
	assert.EqualValues(t, 2, followed.RecipesCount)

	// Following twice is a conflict.
	w = doJSON(t, router, http.MethodPost, urlForUser(bobID)+"subscribe/", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users/subscriptions/", aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Count   int64 `json:"count"`
		Results []struct {
			Username string `json:"username"`
		} `json:"results"`
	}
	parseBody(t, w, &page)
	assert.EqualValues(t, 1, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "bob", page.Results[0].Username)

	w = doJSON(t, router, http.MethodDelete, urlForUser(bobID)+"subscribe/", aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	// Removing a follow that no longer exists is a client error.
	w = doJSON(t, router, http.MethodDelete, urlForUser(bobID)+"subscribe/", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
