package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/proximachat/proxima/internal/common"
	"github.com/proximachat/proxima/internal/httpapi/handlers"
	"github.com/proximachat/proxima/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	apiGroup := r.Group("/api")

	apiGroup.GET("/health", h.Ping)
	apiGroup.POST("/auth/register", h.Register)
	apiGroup.POST("/auth/login", h.Login)

	authGroup := apiGroup.Group("/")
	authGroup.Use(middleware.AuthRequired(h.Cfg.JWTSecret, denylistOrNil(h)))

	authGroup.POST("/auth/logout", h.Logout)

	authGroup.GET("/files", h.ListFiles)
	authGroup.POST("/upload", h.Upload)
	authGroup.DELETE("/files/:id", h.DeleteFile)
	authGroup.POST("/process", h.Process)
	authGroup.POST("/process/async", h.ProcessAsync)
	authGroup.GET("/jobs/:id", h.GetJob)
	authGroup.GET("/user/status", h.UserStatus)

	authGroup.POST("/chat", h.Chat)
	authGroup.GET("/history", h.History)
	authGroup.DELETE("/history/:index", h.DeleteHistoryItem)
	authGroup.DELETE("/history", h.ClearHistory)

	return r
}

// denylistOrNil avoids passing a typed-nil interface into the middleware.
func denylistOrNil(h *handlers.Handler) middleware.Denylist {
	if h.Redis == nil {
		return nil
	}
	return h.Redis
}
