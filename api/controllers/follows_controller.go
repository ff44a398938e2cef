package controllers

import (
	"errors"
	"net/http"

	"Yatube/api/models"
	httpctx "Yatube/api/utils/httpctx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowAuthor creates a follow edge from the authenticated user to the
// author named in the route. Re-following is absorbed by the unique index
// and reported as success.
func (server *Server) FollowAuthor(c *gin.Context) {
	requestorID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user := models.User{}
	target, err := user.FindUserByUsername(server.DB, c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if requestorID == target.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot follow yourself"})
		return
	}

	created := false
	err = server.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.User{}, target.ID).Error; err != nil {
			return err
		}

		follow := models.Follow{
			UserID:   requestorID,
			AuthorID: target.ID,
		}
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&follow)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			created = true
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error following user"})
		return
	}

	status := http.StatusOK
	message := "Already following user"
	if created {
		status = http.StatusCreated
		message = "User followed successfully"
	}
	c.JSON(status, gin.H{"status": status, "response": message})
}

// UnfollowAuthor removes the follow edge. Unfollowing someone never followed
// is a no-op, not an error.
func (server *Server) UnfollowAuthor(c *gin.Context) {
	requestorID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user := models.User{}
	target, err := user.FindUserByUsername(server.DB, c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if requestorID == target.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot unfollow yourself"})
		return
	}

	result := server.DB.Where("user_id = ? AND author_id = ?", requestorID, target.ID).
		Delete(&models.Follow{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error unfollowing user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "response": "User unfollowed successfully"})
}

// GetFollowers lists the users following the named author.
func (server *Server) GetFollowers(c *gin.Context) {
	user := models.User{}
	target, err := user.FindUserByUsername(server.DB, c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	users, err := server.fetchFollowUsers(
		"follows.author_id = ?", target.ID, "users.id = follows.user_id")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching followers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": users,
	})
}

// GetFollowing lists the authors the named user follows.
func (server *Server) GetFollowing(c *gin.Context) {
	user := models.User{}
	target, err := user.FindUserByUsername(server.DB, c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	users, err := server.fetchFollowUsers(
		"follows.user_id = ?", target.ID, "users.id = follows.author_id")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error fetching following"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": users,
	})
}

func (server *Server) fetchFollowUsers(whereClause string, targetID uint, joinClause string) ([]map[string]interface{}, error) {
	var rows []models.User
	err := server.DB.Table("follows").
		Select("users.id, users.username").
		Joins("JOIN users ON "+joinClause).
		Where(whereClause, targetID).
		Order("follows.created_at DESC, follows.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	users := make([]map[string]interface{}, len(rows))
	for i := range rows {
		users[i] = map[string]interface{}{
			"id":       rows[i].ID,
			"username": rows[i].Username,
		}
	}
	return users, nil
}
