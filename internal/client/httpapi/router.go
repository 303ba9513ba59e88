package httpapi

import (
	"github.com/dmitrijs2005/closetsync/internal/logging"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Auth *AuthMiddleware

	Account *AccountHandler
	Capture *CaptureHandler
	Library *LibraryHandler
	TryOn   *TryOnHandler
	Sync    *SyncHandler
	Status  *StatusHandler

	Logger logging.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS())

	// limits how much of a multipart body gin keeps in memory
	r.MaxMultipartMemory = DefaultMaxUploadBytes

	api := r.Group("/api")

	api.GET("/status", cfg.Status.Status)
	api.POST("/register", cfg.Account.Register)
	api.POST("/login", cfg.Account.Login)
	api.GET("/task/:id", cfg.Capture.TaskStatus)

	// anonymous requests act as the default user
	open := api.Group("")
	open.Use(cfg.Auth.OptionalAuth())
	{
		open.GET("/auth/check", cfg.Account.Check)
		open.POST("/receive-image", cfg.Capture.ReceiveImage)
		open.POST("/upload-clipboard", cfg.Capture.UploadClipboard)
		open.POST("/upload-file", cfg.Capture.UploadFile)
		open.GET("/images/:user_id/:filename", cfg.Library.ServeFile)
	}

	protected := api.Group("")
	protected.Use(cfg.Auth.RequireAuth())
	{
		protected.GET("/user/profile", cfg.Account.Profile)

		protected.GET("/user/images", cfg.Library.ListImages)
		protected.GET("/user/images/:id", cfg.Library.GetImage)
		protected.DELETE("/user/images/:id", cfg.Library.DeleteImage)
		protected.POST("/user/images/batch-delete", cfg.Library.BatchDelete)
		protected.GET("/user/files/:category", cfg.Library.ListFiles)

		protected.GET("/user/favorites", cfg.Library.ListFavorites)
		protected.POST("/user/favorites/:image_id", cfg.Library.AddFavorite)
		protected.DELETE("/user/favorites/:image_id", cfg.Library.RemoveFavorite)

		protected.POST("/tryon", cfg.TryOn.Generate)
		protected.GET("/tryon/history", cfg.TryOn.History)

		protected.POST("/cloud/sync", cfg.Sync.Sync)
		protected.GET("/cloud/sync/status", cfg.Sync.Status)
	}

	return r
}
