package controllers

import (
	"Yatube/api/middlewares"
)

func (s *Server) initializeRoutes() {

	v1 := s.Router.Group("/api/v1")
	{
		// Users routes
		v1.POST("/login", middlewares.LoginRateLimitMiddleware(), s.Login)
		v1.POST("/users", s.CreateUser)
		v1.GET("/users", s.GetUsers)

		// Post routes
		v1.GET("/posts", s.GetPosts)
		v1.GET("/posts/:id", s.GetPost)
		v1.POST("/posts", middlewares.TokenAuthMiddleware(s.DB), s.CreatePost)
		v1.PUT("/posts/:id", middlewares.TokenAuthMiddleware(s.DB), s.UpdatePost)
		v1.DELETE("/posts/:id", middlewares.TokenAuthMiddleware(s.DB), s.DeletePost)

		// Group routes
		v1.GET("/groups", s.GetGroups)
		v1.GET("/groups/:slug/posts", s.GetGroupPosts)
		v1.POST("/groups", middlewares.TokenAuthMiddleware(s.DB), middlewares.AdminOnlyMiddleware(), s.CreateGroup)
		v1.DELETE("/groups/:slug", middlewares.TokenAuthMiddleware(s.DB), middlewares.AdminOnlyMiddleware(), s.DeleteGroup)

		// Profile routes
		v1.GET("/profiles/:username", s.GetProfile)
		v1.GET("/profiles/:username/posts", s.GetAuthorPosts)
		v1.GET("/profiles/:username/followers", s.GetFollowers)
		v1.GET("/profiles/:username/following", s.GetFollowing)
		v1.POST("/profiles/:username/follow", middlewares.TokenAuthMiddleware(s.DB), s.FollowAuthor)
		v1.DELETE("/profiles/:username/follow", middlewares.TokenAuthMiddleware(s.DB), s.UnfollowAuthor)

		// Following feed
		v1.GET("/feed", middlewares.TokenAuthMiddleware(s.DB), s.GetFollowingFeed)

		// Comments routes
		v1.POST("/posts/:id/comments", middlewares.TokenAuthMiddleware(s.DB), s.CreateComment)
		v1.GET("/posts/:id/comments", s.GetComments)

		// Cache escape hatch
		v1.POST("/cache/clear", middlewares.TokenAuthMiddleware(s.DB), middlewares.AdminOnlyMiddleware(), s.ClearFeedCache)
	}
}
