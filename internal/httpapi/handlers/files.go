package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/proximachat/proxima/internal/api"
	"github.com/proximachat/proxima/internal/common"
	"github.com/proximachat/proxima/internal/library"
)

func (h *Handler) ListFiles(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	files, err := h.LibSvc.List(c.Request.Context(), uid)
	if err != nil {
		failFrom(c, err)
		return
	}

	out := make([]api.FileInfo, 0, len(files))
	for _, f := range files {
		out = append(out, api.FileInfo{
			ID:         f.ID,
			Name:       f.Name,
			Size:       f.Size,
			UploadedAt: f.CreatedAt,
		})
	}
	common.OK(c, gin.H{"files": out})
}

func (h *Handler) Upload(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "No file part")
		return
	}
	if fh.Size > h.Cfg.MaxUploadBytes {
		common.Fail(c, http.StatusBadRequest, "File too large")
		return
	}

	src, err := fh.Open()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "failed to read file")
		return
	}
	defer src.Close()

	f, count, err := h.LibSvc.Upload(c.Request.Context(), uid, fh.Filename, src)
	if err != nil {
		failFrom(c, err)
		return
	}

	common.OK(c, gin.H{
		"message":    "File uploaded successfully",
		"file_id":    f.ID,
		"file_name":  f.Name,
		"file_count": count,
	})
}

func (h *Handler) DeleteFile(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	fileID := c.Param("id")
	if err := h.LibSvc.Delete(c.Request.Context(), uid, fileID); err != nil {
		failFrom(c, err)
		return
	}
	common.OK(c, gin.H{"message": "File deleted successfully"})
}

func (h *Handler) Process(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.LibSvc.Process(c.Request.Context(), uid); err != nil {
		failFrom(c, err)
		return
	}
	common.OK(c, gin.H{"message": "Files processed successfully"})
}

// ProcessAsync queues a processing job; poll GET /jobs/:id for the outcome.
func (h *Handler) ProcessAsync(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	if h.Rabbit == nil {
		common.Fail(c, http.StatusServiceUnavailable, "async processing unavailable")
		return
	}

	idempoKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if len(idempoKey) > 128 {
		common.Fail(c, http.StatusBadRequest, "idempotency key too long")
		return
	}
	var idempoKeyPtr *string
	if idempoKey != "" {
		idempoKeyPtr = &idempoKey
	}

	jobID, err := common.NewULID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	j := &library.Job{
		ID:             jobID,
		UserID:         uid,
		IdempotencyKey: idempoKeyPtr,
		Status:         library.JobQueued,
	}
	j, created, err := h.LibSvc.CreateJobOrGetExisting(c.Request.Context(), j)
	if err != nil {
		log.Printf("create process job failed uid=%s err=%v", uid, err)
		common.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	// Enqueue only when a new job was created
	if created {
		if err := h.Rabbit.PublishJob(c.Request.Context(), j.ID); err != nil {
			log.Printf("publish process job failed uid=%s job=%s err=%v", uid, j.ID, err)
			common.Fail(c, http.StatusInternalServerError, "enqueue failed")
			return
		}
	}

	common.OK(c, gin.H{"job_id": j.ID})
}

func (h *Handler) GetJob(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	jobID := c.Param("id")
	j, err := h.LibSvc.GetJob(c.Request.Context(), jobID)
	if err != nil {
		failFrom(c, err)
		return
	}
	if j.UserID != uid {
		// hide existence
		common.Fail(c, http.StatusNotFound, "not found")
		return
	}

	common.OK(c, gin.H{
		"job": gin.H{
			"id":     j.ID,
			"status": j.Status,
			"error":  j.Error,
		},
	})
}

func (h *Handler) UserStatus(c *gin.Context) {
	uid, okk := userIDFromContext(c)
	if !okk {
		common.Fail(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	st, err := h.LibSvc.Status(c.Request.Context(), uid)
	if err != nil {
		failFrom(c, err)
		return
	}
	hasHistory, err := h.ChatSvc.HasHistory(c.Request.Context(), uid)
	if err != nil {
		failFrom(c, err)
		return
	}

	common.OK(c, gin.H{"status": api.UserStatus{
		HasFiles:     st.HasFiles,
		HasRetriever: st.HasRetriever,
		HasHistory:   hasHistory,
		FileCount:    st.FileCount,
	}})
}
