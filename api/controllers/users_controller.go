package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"Yatube/api/auth"
	"Yatube/api/models"
	"Yatube/api/utils/formaterror"

	"github.com/gin-gonic/gin"
)

func userToResponse(user *models.User) map[string]interface{} {
	return map[string]interface{}{
		"id":         user.ID,
		"username":   user.Username,
		"email":      user.Email,
		"created_at": user.CreatedAt,
	}
}

// CreateUser registers a new account.
func (server *Server) CreateUser(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Unable to get request",
		})
		return
	}

	user := models.User{}
	if err := json.Unmarshal(body, &user); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}

	user.Prepare()
	errorMessages := user.Validate("")
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	createdUser, err := user.SaveUser(server.DB)
	if err != nil {
		formattedError := formaterror.FormatError(err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{
			"status": http.StatusInternalServerError,
			"error":  formattedError,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": userToResponse(createdUser),
	})
}

// GetUsers lists registered users.
func (server *Server) GetUsers(c *gin.Context) {
	user := models.User{}
	users, err := user.FindAllUsers(server.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve users"})
		return
	}

	response := make([]map[string]interface{}, len(*users))
	for i := range *users {
		response[i] = userToResponse(&(*users)[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": response,
	})
}

// GetProfile returns a user's public profile: identity, post count, follower
// and following counts, and whether the viewer follows them.
func (server *Server) GetProfile(c *gin.Context) {
	user := models.User{}
	profile, err := user.FindUserByUsername(server.DB, c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	post := models.Post{}
	postCount, err := post.CountAuthorPosts(server.DB, profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to count posts"})
		return
	}

	var followerCount, followingCount int64
	if err := server.DB.Model(&models.Follow{}).
		Where("author_id = ?", profile.ID).Count(&followerCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to count followers"})
		return
	}
	if err := server.DB.Model(&models.Follow{}).
		Where("user_id = ?", profile.ID).Count(&followingCount).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to count following"})
		return
	}

	// The profile route is public, so the viewer is picked up straight from
	// the bearer token when one is sent along.
	following := false
	if viewerID, err := auth.ExtractTokenID(c.Request); err == nil && viewerID != profile.ID {
		var edgeCount int64
		if err := server.DB.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", viewerID, profile.ID).
			Count(&edgeCount).Error; err == nil {
			following = edgeCount > 0
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"id":              profile.ID,
			"username":        profile.Username,
			"post_count":      postCount,
			"follower_count":  followerCount,
			"following_count": followingCount,
			"following":       following,
		},
	})
}
