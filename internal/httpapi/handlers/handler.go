package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/proximachat/proxima/internal/chat"
	"github.com/proximachat/proxima/internal/common"
	"github.com/proximachat/proxima/internal/config"
	"github.com/proximachat/proxima/internal/httpapi/middleware"
	"github.com/proximachat/proxima/internal/library"
	"github.com/proximachat/proxima/internal/store/rabbitmq"
	"github.com/proximachat/proxima/internal/store/redisstore"
	"gorm.io/gorm"
)

type Handler struct {
	DB      *gorm.DB
	Cfg     config.Config
	LibSvc  *library.Service
	ChatSvc *chat.Service

	// Optional: nil disables logout denylisting / async processing.
	Redis  *redisstore.Store
	Rabbit *rabbitmq.Publisher
}

func NewHandler(db *gorm.DB, cfg config.Config, libSvc *library.Service, chatSvc *chat.Service, rds *redisstore.Store, rabbit *rabbitmq.Publisher) *Handler {
	return &Handler{
		DB:      db,
		Cfg:     cfg,
		LibSvc:  libSvc,
		ChatSvc: chatSvc,
		Redis:   rds,
		Rabbit:  rabbit,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "API is running"})
}

func userIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.UserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// failFrom maps service errors onto the wire envelope: rejections carry their
// message verbatim with a 400, missing rows a 404, everything else a 500.
func failFrom(c *gin.Context, err error) {
	var rej *common.Rejection
	switch {
	case errors.As(err, &rej):
		common.Fail(c, http.StatusBadRequest, rej.Msg)
	case errors.Is(err, gorm.ErrRecordNotFound):
		common.Fail(c, http.StatusNotFound, "not found")
	default:
		common.Fail(c, http.StatusInternalServerError, "internal error")
	}
}
