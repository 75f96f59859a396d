package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/proximachat/proxima/internal/api"
	"github.com/proximachat/proxima/internal/common"
)

func (h *Handler) Chat(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req api.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, "invalid json")
		return
	}

	entry, err := h.ChatSvc.Ask(c.Request.Context(), uid, req.Message)
	if err != nil {
		failFrom(c, err)
		return
	}

	common.OK(c, gin.H{
		"message": entry.BotText,
		"sources": entry.Sources,
	})
}

func (h *Handler) History(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	entries, err := h.ChatSvc.History(c.Request.Context(), uid)
	if err != nil {
		failFrom(c, err)
		return
	}

	out := make([]api.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, api.HistoryEntry{
			User:      e.UserText,
			Bot:       e.BotText,
			Sources:   e.Sources,
			Timestamp: e.CreatedAt,
		})
	}
	common.OK(c, gin.H{"history": out})
}

func (h *Handler) DeleteHistoryItem(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "Invalid history index")
		return
	}

	if err := h.ChatSvc.DeleteAt(c.Request.Context(), uid, index); err != nil {
		failFrom(c, err)
		return
	}
	common.OK(c, gin.H{"message": "History item deleted"})
}

func (h *Handler) ClearHistory(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.ChatSvc.Clear(c.Request.Context(), uid); err != nil {
		failFrom(c, err)
		return
	}
	common.OK(c, gin.H{"message": "Chat history cleared"})
}
