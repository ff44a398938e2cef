package controllers

import (
	"encoding/json"
	"io"
	"net/http"

	"Yatube/api/models"
	"Yatube/api/utils/formaterror"

	"github.com/gin-gonic/gin"
)

// CreateGroup registers a new topical group. Admin only.
func (server *Server) CreateGroup(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Unable to get request",
		})
		return
	}

	group := models.Group{}
	if err := json.Unmarshal(body, &group); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}

	group.Prepare()
	errorMessages := group.Validate()
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	createdGroup, err := group.SaveGroup(server.DB)
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
		"response": createdGroup,
	})
}

// GetGroups lists all groups.
func (server *Server) GetGroups(c *gin.Context) {
	group := models.Group{}
	groups, err := group.FindAllGroups(server.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve groups"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": groups,
	})
}

// DeleteGroup removes a group, clearing (not deleting) its posts. Admin only.
func (server *Server) DeleteGroup(c *gin.Context) {
	group := models.Group{}
	foundGroup, err := group.FindGroupBySlug(server.DB, c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	if _, err := group.DeleteGroup(server.DB, foundGroup.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "Group deleted",
	})
}
