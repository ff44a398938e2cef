package controllers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"Yatube/api/models"
	httpctx "Yatube/api/utils/httpctx"

	"github.com/gin-gonic/gin"
)

// CreateComment adds a comment to a post. Any authenticated user may comment
// on any post.
func (server *Server) CreateComment(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	pid, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	post := models.Post{}
	foundPost, err := post.FindPostByID(server.DB, uint(pid))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Unable to get request",
		})
		return
	}

	comment := models.Comment{}
	if err := json.Unmarshal(body, &comment); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}

	comment.AuthorID = userID
	comment.PostID = foundPost.ID
	comment.Prepare()

	errorMessages := comment.Validate()
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	createdComment, err := comment.SaveComment(server.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error creating comment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   http.StatusCreated,
		"response": toCommentResponse(createdComment),
	})
}

// GetComments lists a post's comments in creation order.
func (server *Server) GetComments(c *gin.Context) {
	pid, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	post := models.Post{}
	foundPost, err := post.FindPostByID(server.DB, uint(pid))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	comment := models.Comment{}
	comments, err := comment.GetPostComments(server.DB, foundPost.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error retrieving comments"})
		return
	}

	response := make([]map[string]interface{}, len(*comments))
	for i := range *comments {
		response[i] = toCommentResponse(&(*comments)[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": response,
	})
}
