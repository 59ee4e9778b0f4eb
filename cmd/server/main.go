package main

import (
	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/hayashide/project-management-api/internal/config"
	"github.com/hayashide/project-management-api/internal/constants"
	"github.com/hayashide/project-management-api/internal/database"
	"github.com/hayashide/project-management-api/internal/handlers"
	"github.com/hayashide/project-management-api/internal/middleware"
	"github.com/hayashide/project-management-api/internal/repository"
	"github.com/hayashide/project-management-api/internal/services"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.JSONFormatter{})

	gin.SetMode(cfg.GinMode)

	if err := database.Connect(cfg); err != nil {
		logrus.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.Migrate(); err != nil {
		logrus.WithError(err).Fatal("failed to run migrations")
	}
	db := database.GetDB()

	r := gin.Default()

	// Sessions live in Redis so restarts do not log everyone out.
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,
		"tcp",
		redisAddr,
		"",
		"",
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create Redis session store")
	}
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2, // Lax
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	aiService := services.NewAIService(cfg.OpenAIAPIKey)

	authService := services.NewAuthService(repository.NewUserRepository(db))
	userService := services.NewUserService(db)
	projectService := services.NewProjectService(db)
	boardService := services.NewBoardService(db)
	taskService := services.NewTaskService(db, aiService)
	subtaskService := services.NewSubtaskService(db)
	commentService := services.NewCommentService(db)
	labelService := services.NewLabelService(db)
	attachmentService := services.NewAttachmentService(db)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	projectHandler := handlers.NewProjectHandler(projectService)
	boardHandler := handlers.NewBoardHandler(boardService)
	taskHandler := handlers.NewTaskHandler(taskService)
	subtaskHandler := handlers.NewSubtaskHandler(subtaskService)
	commentHandler := handlers.NewCommentHandler(commentService)
	labelHandler := handlers.NewLabelHandler(labelService)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Project Management API is running",
		})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		users := api.Group("/users")
		users.Use(middleware.RequireAuth())
		{
			users.GET("", userHandler.List)
			users.PATCH("/me", userHandler.UpdateProfile)
			users.GET("/:id", userHandler.Get)
			users.GET("/:id/stats", userHandler.Stats)
		}

		projects := api.Group("/projects")
		projects.Use(middleware.RequireAuth())
		{
			projects.POST("", projectHandler.Create)
			projects.GET("", projectHandler.List)
			projects.GET("/:id", projectHandler.Get)
			projects.PATCH("/:id", projectHandler.Update)
			projects.POST("/:id/archive", projectHandler.Archive)
			projects.POST("/:id/restore", projectHandler.Restore)
			projects.DELETE("/:id", projectHandler.Delete)

			projects.GET("/:id/members", projectHandler.ListMembers)
			projects.POST("/:id/members", projectHandler.AddMember)
			projects.DELETE("/:id/members/:userId", projectHandler.RemoveMember)

			projects.POST("/:id/boards", boardHandler.CreateBoard)
			projects.GET("/:id/boards", boardHandler.ListBoards)
			projects.POST("/:id/boards/reorder", boardHandler.ReorderBoards)

			projects.POST("/:id/labels", labelHandler.Create)
			projects.GET("/:id/labels", labelHandler.List)
		}

		boards := api.Group("/boards")
		boards.Use(middleware.RequireAuth())
		{
			boards.GET("/:id", boardHandler.GetBoard)
			boards.PATCH("/:id", boardHandler.UpdateBoard)
			boards.DELETE("/:id", boardHandler.DeleteBoard)
			boards.POST("/:id/columns", boardHandler.CreateColumn)
			boards.POST("/:id/columns/reorder", boardHandler.ReorderColumns)
		}

		columns := api.Group("/columns")
		columns.Use(middleware.RequireAuth())
		{
			columns.PATCH("/:id", boardHandler.UpdateColumn)
			columns.POST("/:id/toggle-collapse", boardHandler.ToggleColumnCollapse)
			columns.DELETE("/:id", boardHandler.DeleteColumn)
			columns.POST("/:id/tasks", taskHandler.Create)
			columns.POST("/:id/tasks/reorder", taskHandler.Reorder)
			columns.POST("/:id/tasks/generate", taskHandler.Generate)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.List)
			tasks.GET("/:id", taskHandler.Get)
			tasks.PATCH("/:id", taskHandler.Update)
			tasks.DELETE("/:id", taskHandler.Delete)
			tasks.POST("/:id/move", taskHandler.Move)

			tasks.POST("/:id/assignees", taskHandler.Assign)
			tasks.DELETE("/:id/assignees/:userId", taskHandler.Unassign)
			tasks.POST("/:id/labels", taskHandler.AddLabel)
			tasks.DELETE("/:id/labels/:labelId", taskHandler.RemoveLabel)
			tasks.POST("/:id/watch", taskHandler.Watch)
			tasks.DELETE("/:id/watch", taskHandler.Unwatch)

			tasks.POST("/:id/subtasks", subtaskHandler.Create)
			tasks.GET("/:id/subtasks", subtaskHandler.List)
			tasks.POST("/:id/subtasks/reorder", subtaskHandler.Reorder)

			tasks.POST("/:id/comments", commentHandler.Create)
			tasks.GET("/:id/comments", commentHandler.List)

			tasks.POST("/:id/attachments", attachmentHandler.Create)
			tasks.GET("/:id/attachments", attachmentHandler.List)
		}

		subtasks := api.Group("/subtasks")
		subtasks.Use(middleware.RequireAuth())
		{
			subtasks.PATCH("/:id", subtaskHandler.Update)
			subtasks.POST("/:id/toggle", subtaskHandler.Toggle)
			subtasks.DELETE("/:id", subtaskHandler.Delete)
		}

		comments := api.Group("/comments")
		comments.Use(middleware.RequireAuth())
		{
			comments.PATCH("/:id", commentHandler.Update)
			comments.DELETE("/:id", commentHandler.Delete)
		}

		labels := api.Group("/labels")
		labels.Use(middleware.RequireAuth())
		{
			labels.PATCH("/:id", labelHandler.Update)
			labels.DELETE("/:id", labelHandler.Delete)
		}

		attachments := api.Group("/attachments")
		attachments.Use(middleware.RequireAuth())
		{
			attachments.DELETE("/:id", attachmentHandler.Delete)
		}
	}

	logrus.WithField("addr", cfg.HTTPAddr).Info("server starting")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		logrus.WithError(err).Fatal("failed to start server")
	}
}
