package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// FeedPageSize is fixed for every feed.
const FeedPageSize = 10

func parsePage(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	return page
}

// clampPage snaps the requested page into [1, last non-empty page]. A page
// past the end serves the last page instead of an empty one; an empty feed
// still reports one (empty) page.
func clampPage(page int, total int64, limit int) (int, int) {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page, totalPages
}

func buildPagination(page, totalPages, limit int, total int64) gin.H {
	return gin.H{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": totalPages,
	}
}
