package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Yatube/api/cache"
	"Yatube/api/controllers"
	"Yatube/api/middlewares"
	"Yatube/api/models"
	"Yatube/api/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestServer wires a Server against an in-memory SQLite database, the
// in-process cache and a temp-dir blob store, with the production route table.
func newTestServer(t *testing.T) *controllers.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cache.UseMemory()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	server := &controllers.Server{
		DB:    db,
		Media: &storage.DiskStore{Root: t.TempDir()},
	}

	r := gin.New()
	tokenAuth := middlewares.TokenAuthMiddleware(db)
	adminOnly := middlewares.AdminOnlyMiddleware()

	v1 := r.Group("/api/v1")
	v1.POST("/login", server.Login)
	v1.POST("/users", server.CreateUser)
	v1.GET("/users", server.GetUsers)
	v1.GET("/posts", server.GetPosts)
	v1.GET("/posts/:id", server.GetPost)
	v1.POST("/posts", tokenAuth, server.CreatePost)
	v1.PUT("/posts/:id", tokenAuth, server.UpdatePost)
	v1.DELETE("/posts/:id", tokenAuth, server.DeletePost)
	v1.GET("/groups", server.GetGroups)
	v1.GET("/groups/:slug/posts", server.GetGroupPosts)
	v1.POST("/groups", tokenAuth, adminOnly, server.CreateGroup)
	v1.DELETE("/groups/:slug", tokenAuth, adminOnly, server.DeleteGroup)
	v1.GET("/profiles/:username", server.GetProfile)
	v1.GET("/profiles/:username/posts", server.GetAuthorPosts)
	v1.GET("/profiles/:username/followers", server.GetFollowers)
	v1.GET("/profiles/:username/following", server.GetFollowing)
	v1.POST("/profiles/:username/follow", tokenAuth, server.FollowAuthor)
	v1.DELETE("/profiles/:username/follow", tokenAuth, server.UnfollowAuthor)
	v1.GET("/feed", tokenAuth, server.GetFollowingFeed)
	v1.POST("/posts/:id/comments", tokenAuth, server.CreateComment)
	v1.GET("/posts/:id/comments", server.GetComments)
	v1.POST("/cache/clear", tokenAuth, adminOnly, server.ClearFeedCache)

	server.Router = r
	return server
}

func doJSON(t *testing.T, server *controllers.Server, method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	server.Router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return body
}

// registerUser creates an account through the API and returns its id.
func registerUser(t *testing.T, server *controllers.Server, username string) uint {
	t.Helper()
	w := doJSON(t, server, http.MethodPost, "/api/v1/users", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	return uint(body["response"].(map[string]interface{})["id"].(float64))
}

// loginUser logs in with the convention used by registerUser and returns the
// bearer token.
func loginUser(t *testing.T, server *controllers.Server, username string) string {
	t.Helper()
	w := doJSON(t, server, http.MethodPost, "/api/v1/login", "", map[string]string{
		"email":    username + "@example.com",
		"password": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	token, ok := body["response"].(map[string]interface{})["token"].(string)
	if !ok {
		t.Fatalf("token not found in login response: %s", w.Body.String())
	}
	return token
}

func promoteToAdmin(t *testing.T, server *controllers.Server, userID uint) {
	t.Helper()
	if err := server.DB.Model(&models.User{}).Where("id = ?", userID).
		UpdateColumn("is_admin", true).Error; err != nil {
		t.Fatalf("promote admin: %v", err)
	}
}

func createGroup(t *testing.T, server *controllers.Server, slug, title string) uint {
	t.Helper()
	group := models.Group{Title: title, Slug: slug, Description: "about " + title}
	if err := server.DB.Create(&group).Error; err != nil {
		t.Fatalf("create group %s: %v", slug, err)
	}
	return group.ID
}

// seedPost writes a post straight to the store with a controlled timestamp so
// ordering tests are deterministic.
func seedPost(t *testing.T, server *controllers.Server, authorID uint, text string, groupID *uint, createdAt time.Time) uint {
	t.Helper()
	post := models.Post{
		AuthorID:  authorID,
		Text:      text,
		GroupID:   groupID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := server.DB.Create(&post).Error; err != nil {
		t.Fatalf("seed post: %v", err)
	}
	return post.ID
}

func followPath(username string) string {
	return fmt.Sprintf("/api/v1/profiles/%s/follow", username)
}
