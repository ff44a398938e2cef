package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"Yatube/api/cache"
	"Yatube/api/models"
	"Yatube/api/storage"
	"Yatube/api/utils/fileformat"
	"Yatube/api/utils/formaterror"
	httpctx "Yatube/api/utils/httpctx"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const feedCachePrefix = "posts:index"

// toPostResponse converts a Post model to a response-friendly structure
func toPostResponse(post *models.Post) map[string]interface{} {
	var group map[string]interface{}
	if post.Group != nil {
		group = map[string]interface{}{
			"id":    post.Group.ID,
			"title": post.Group.Title,
			"slug":  post.Group.Slug,
		}
	}

	return map[string]interface{}{
		"id":         post.ID,
		"author_id":  post.AuthorID,
		"author":     post.Author.Username,
		"text":       post.Text,
		"group":      group,
		"image_path": post.ImagePath,
		"created_at": post.CreatedAt,
		"updated_at": post.UpdatedAt,
	}
}

func toCommentResponse(comment *models.Comment) map[string]interface{} {
	return map[string]interface{}{
		"id":         comment.ID,
		"post_id":    comment.PostID,
		"author_id":  comment.AuthorID,
		"author":     comment.Author.Username,
		"text":       comment.Text,
		"created_at": comment.CreatedAt,
	}
}

func toPostListResponse(posts []models.Post) []map[string]interface{} {
	response := make([]map[string]interface{}, len(posts))
	for i := range posts {
		response[i] = toPostResponse(&posts[i])
	}
	return response
}

// GetPosts serves the global feed. Pages are cached briefly, so anonymous
// readers may see content up to FeedTTL stale.
func (server *Server) GetPosts(c *gin.Context) {
	page := parsePage(c)

	ctx := context.Background()
	cacheKey := fmt.Sprintf("%s:page:%d", feedCachePrefix, page)

	if cached, err := cache.Get(ctx, cacheKey); err == nil && cached != "" {
		c.Data(http.StatusOK, "application/json", []byte(cached))
		return
	}

	post := models.Post{}
	total, err := post.CountAllPosts(server.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to count posts"})
		return
	}

	page, totalPages := clampPage(page, total, FeedPageSize)
	offset := (page - 1) * FeedPageSize

	posts, err := post.FindAllPosts(server.DB, FeedPageSize, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve posts"})
		return
	}

	respBody := gin.H{
		"status":     http.StatusOK,
		"response":   toPostListResponse(posts),
		"pagination": buildPagination(page, totalPages, FeedPageSize, total),
	}

	if jsonBytes, err := json.Marshal(respBody); err == nil {
		_ = cache.Set(ctx, cacheKey, jsonBytes, cache.FeedTTL)
	}

	c.JSON(http.StatusOK, respBody)
}

// GetGroupPosts serves a group's feed, addressed by slug.
func (server *Server) GetGroupPosts(c *gin.Context) {
	group := models.Group{}
	foundGroup, err := group.FindGroupBySlug(server.DB, c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	post := models.Post{}
	total, err := post.CountGroupPosts(server.DB, foundGroup.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to count posts"})
		return
	}

	page, totalPages := clampPage(parsePage(c), total, FeedPageSize)
	offset := (page - 1) * FeedPageSize

	posts, err := post.FindGroupPosts(server.DB, foundGroup.ID, FeedPageSize, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"group": gin.H{
				"id":          foundGroup.ID,
				"title":       foundGroup.Title,
				"slug":        foundGroup.Slug,
				"description": foundGroup.Description,
			},
			"posts": toPostListResponse(posts),
		},
		"pagination": buildPagination(page, totalPages, FeedPageSize, total),
	})
}

// GetAuthorPosts serves an author's feed, addressed by username, along with
// the author's total post count.
func (server *Server) GetAuthorPosts(c *gin.Context) {
	user := models.User{}
	author, err := user.FindUserByUsername(server.DB, c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	post := models.Post{}
	total, err := post.CountAuthorPosts(server.DB, author.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to count posts"})
		return
	}

	page, totalPages := clampPage(parsePage(c), total, FeedPageSize)
	offset := (page - 1) * FeedPageSize

	posts, err := post.FindAuthorPosts(server.DB, author.ID, FeedPageSize, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"author": gin.H{
				"id":         author.ID,
				"username":   author.Username,
				"post_count": total,
			},
			"posts": toPostListResponse(posts),
		},
		"pagination": buildPagination(page, totalPages, FeedPageSize, total),
	})
}

// GetFollowingFeed serves posts authored by anyone the viewer follows.
func (server *Server) GetFollowingFeed(c *gin.Context) {
	viewerID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	post := models.Post{}
	total, err := post.CountFollowingPosts(server.DB, viewerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to count posts"})
		return
	}

	page, totalPages := clampPage(parsePage(c), total, FeedPageSize)
	offset := (page - 1) * FeedPageSize

	posts, err := post.FindFollowingPosts(server.DB, viewerID, FeedPageSize, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to retrieve posts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     http.StatusOK,
		"response":   toPostListResponse(posts),
		"pagination": buildPagination(page, totalPages, FeedPageSize, total),
	})
}

// GetPost serves a single post with its comments in creation order and the
// author's total post count.
func (server *Server) GetPost(c *gin.Context) {
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

	authorPosts, err := post.CountAuthorPosts(server.DB, foundPost.AuthorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to count posts"})
		return
	}

	commentResponses := make([]map[string]interface{}, len(*comments))
	for i := range *comments {
		commentResponses[i] = toCommentResponse(&(*comments)[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"response": gin.H{
			"post":              toPostResponse(foundPost),
			"comments":          commentResponses,
			"author_post_count": authorPosts,
		},
	})
}

type postSubmission struct {
	Text    string `json:"text" form:"text"`
	GroupID *uint  `json:"group_id" form:"group_id"`
}

// resolveGroup checks an optional group reference against existing groups.
func (server *Server) resolveGroup(groupID *uint) (map[string]string, error) {
	if groupID == nil {
		return nil, nil
	}
	group := models.Group{}
	if _, err := group.FindGroupByID(server.DB, *groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return map[string]string{"Invalid_group": "Group does not exist"}, nil
		}
		return nil, err
	}
	return nil, nil
}

// readImageUpload pulls the optional image from a multipart submission.
// Returns nil bytes when no image was sent.
func readImageUpload(c *gin.Context) ([]byte, string, string, map[string]string) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, "", "", nil
	}
	f, err := file.Open()
	if err != nil {
		return nil, "", "", map[string]string{"Invalid_image": "Cannot open image"}
	}
	defer f.Close()

	if file.Size > 5_000_000 {
		return nil, "", "", map[string]string{"Invalid_image": "Image too large (<5MB)"}
	}

	buf := make([]byte, file.Size)
	if _, err := f.Read(buf); err != nil {
		return nil, "", "", map[string]string{"Invalid_image": "Could not read image"}
	}
	fileType := http.DetectContentType(buf)
	if !strings.HasPrefix(fileType, "image/") {
		return nil, "", "", map[string]string{"Invalid_image": "Not an image"}
	}
	return buf, file.Filename, fileType, nil
}

// storeImage writes the upload under posts/<filename>, falling back to a
// unique name when the key is already taken.
func (server *Server) storeImage(ctx context.Context, filename string, body []byte, contentType string) (string, error) {
	key := "posts/" + filename
	path, err := server.Media.Put(ctx, key, body, contentType)
	if errors.Is(err, storage.ErrExists) {
		key = "posts/" + fileformat.UniqueFormat(filename)
		path, err = server.Media.Put(ctx, key, body, contentType)
	}
	return path, err
}

// CreatePost accepts either a JSON body or a multipart form with an optional
// image. The image is written to blob storage before the row is created.
func (server *Server) CreatePost(c *gin.Context) {
	userID, ok := httpctx.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var submission postSubmission
	var imageBody []byte
	var imageName, imageType string

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBind(&submission); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"status": http.StatusUnprocessableEntity,
				"error":  "Cannot parse form",
			})
			return
		}
		var errs map[string]string
		imageBody, imageName, imageType, errs = readImageUpload(c)
		if len(errs) > 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"status": http.StatusUnprocessableEntity,
				"error":  errs,
			})
			return
		}
	} else {
		if err := c.ShouldBindJSON(&submission); err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"status": http.StatusUnprocessableEntity,
				"error":  "Cannot unmarshal body",
			})
			return
		}
	}

	post := models.Post{
		AuthorID: userID,
		Text:     submission.Text,
		GroupID:  submission.GroupID,
	}
	post.Prepare()

	errorMessages := post.Validate()
	if groupErrs, err := server.resolveGroup(post.GroupID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking group"})
		return
	} else {
		for k, v := range groupErrs {
			errorMessages[k] = v
		}
	}
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	if imageBody != nil {
		path, err := server.storeImage(c.Request.Context(), imageName, imageBody, imageType)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store image"})
			return
		}
		post.ImagePath = path
	}

	createdPost, err := post.SavePost(server.DB)
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
		"response": toPostResponse(createdPost),
	})
}

// UpdatePost lets the author change a post's text and group. A non-owner is
// sent to the post detail view untouched, not handed an error.
func (server *Server) UpdatePost(c *gin.Context) {
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
	existing, err := post.FindPostByID(server.DB, uint(pid))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if existing.AuthorID != userID {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/api/v1/posts/%d", existing.ID))
		return
	}

	var submission postSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  "Cannot unmarshal body",
		})
		return
	}

	updated := models.Post{
		ID:       existing.ID,
		AuthorID: existing.AuthorID,
		Text:     submission.Text,
		GroupID:  submission.GroupID,
	}
	updated.Prepare()
	updated.CreatedAt = existing.CreatedAt

	errorMessages := updated.Validate()
	if groupErrs, err := server.resolveGroup(updated.GroupID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error checking group"})
		return
	} else {
		for k, v := range groupErrs {
			errorMessages[k] = v
		}
	}
	if len(errorMessages) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status": http.StatusUnprocessableEntity,
			"error":  errorMessages,
		})
		return
	}

	updatedPost, err := updated.UpdatePost(server.DB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error updating post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": toPostResponse(updatedPost),
	})
}

// DeletePost removes a post and, with it, its comments. Same ownership rule
// as UpdatePost.
func (server *Server) DeletePost(c *gin.Context) {
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
	existing, err := post.FindPostByID(server.DB, uint(pid))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}

	if existing.AuthorID != userID {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/api/v1/posts/%d", existing.ID))
		return
	}

	if _, err := post.DeletePost(server.DB, existing.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error deleting post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "Post deleted",
	})
}

// ClearFeedCache drops every cached global-feed page before its TTL.
func (server *Server) ClearFeedCache(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := cache.DeleteByPrefix(ctx, feedCachePrefix); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error clearing cache"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   http.StatusOK,
		"response": "Feed cache cleared",
	})
}
