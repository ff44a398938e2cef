package controllers_test

import (
	"net/http"
	"testing"
	"time"

	"Yatube/api/models"

	"github.com/stretchr/testify/assert"
)

func TestFollowIsIdempotent(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "follower")
	registerUser(t, server, "followed")
	token := loginUser(t, server, "follower")

	w := doJSON(t, server, http.MethodPost, followPath("followed"), token, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	// A second follow neither errors nor duplicates the edge.
	w = doJSON(t, server, http.MethodPost, followPath("followed"), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	server.DB.Model(&models.Follow{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestSelfFollowRejected(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "narcissus")
	token := loginUser(t, server, "narcissus")

	w := doJSON(t, server, http.MethodPost, followPath("narcissus"), token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	server.DB.Model(&models.Follow{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestUnfollowWithoutFollowIsNoOp(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "stranger")
	registerUser(t, server, "unbothered")
	token := loginUser(t, server, "stranger")

	w := doJSON(t, server, http.MethodDelete, followPath("unbothered"), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFollowUnknownUser(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "hopeful")
	token := loginUser(t, server, "hopeful")

	w := doJSON(t, server, http.MethodPost, followPath("ghost"), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnonymousFollowRejected(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "somebody")

	w := doJSON(t, server, http.MethodPost, followPath("somebody"), "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFollowingFeedVisibility(t *testing.T) {
	server := newTestServer(t)

	authorID := registerUser(t, server, "feedauthor")
	registerUser(t, server, "feedfollower")
	registerUser(t, server, "feedbystander")
	followerToken := loginUser(t, server, "feedfollower")
	bystanderToken := loginUser(t, server, "feedbystander")

	w := doJSON(t, server, http.MethodPost, followPath("feedauthor"), followerToken, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	seedPost(t, server, authorID, "a post for followers", nil, time.Now())

	w = doJSON(t, server, http.MethodGet, "/api/v1/feed", followerToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	items := feedItems(t, w)
	if assert.Len(t, items, 1) {
		assert.Equal(t, "a post for followers", items[0].(map[string]interface{})["text"])
	}

	// Someone not following the author sees an empty feed, not an error.
	w = doJSON(t, server, http.MethodGet, "/api/v1/feed", bystanderToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, feedItems(t, w), 0)
}

func TestUnfollowRemovesFromFeed(t *testing.T) {
	server := newTestServer(t)

	authorID := registerUser(t, server, "fickleauthor")
	registerUser(t, server, "ficklefollower")
	token := loginUser(t, server, "ficklefollower")

	doJSON(t, server, http.MethodPost, followPath("fickleauthor"), token, nil)
	seedPost(t, server, authorID, "soon unseen", nil, time.Now())

	w := doJSON(t, server, http.MethodDelete, followPath("fickleauthor"), token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, server, http.MethodGet, "/api/v1/feed", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, feedItems(t, w), 0)
}

func TestFollowerAndFollowingLists(t *testing.T) {
	server := newTestServer(t)

	registerUser(t, server, "listauthor")
	registerUser(t, server, "listfan")
	token := loginUser(t, server, "listfan")

	doJSON(t, server, http.MethodPost, followPath("listauthor"), token, nil)

	w := doJSON(t, server, http.MethodGet, "/api/v1/profiles/listauthor/followers", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "listfan")

	w = doJSON(t, server, http.MethodGet, "/api/v1/profiles/listfan/following", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "listauthor")
}
