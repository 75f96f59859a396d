// Package api holds the wire types shared by the Proxima server and client.
package api

import "time"

// Route paths, relative to the /api prefix.
const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	LogoutPath   = "/auth/logout"
	FilesPath    = "/files"
	UploadPath   = "/upload"
	ProcessPath  = "/process"
	StatusPath   = "/user/status"
	ChatPath     = "/chat"
	HistoryPath  = "/history"
)

// Envelope is the common response shape: every endpoint reports success plus
// an optional human-readable message.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Env lets response types that embed Envelope be handled generically at the
// client decode boundary.
func (e *Envelope) Env() *Envelope { return e }

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type AuthResponse struct {
	Envelope
	Token string `json:"token"`
	User  User   `json:"user"`
}

type FileInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size,omitempty"`
	UploadedAt time.Time `json:"uploaded_at,omitempty"`
}

type FilesResponse struct {
	Envelope
	Files []FileInfo `json:"files"`
}

type UploadResponse struct {
	Envelope
	FileID    string `json:"file_id,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	FileCount int    `json:"file_count,omitempty"`
}

// UserStatus mirrors GET /user/status. has_retriever reports whether the
// processed knowledge base exists and is queryable.
type UserStatus struct {
	HasFiles     bool `json:"has_files"`
	HasRetriever bool `json:"has_retriever"`
	HasHistory   bool `json:"has_history"`
	FileCount    int  `json:"file_count"`
}

type StatusResponse struct {
	Envelope
	Status UserStatus `json:"status"`
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Envelope
	Sources []string `json:"sources,omitempty"`
}

// HistoryEntry is one confirmed exchange. History order is the only
// addressing mechanism for positional deletes, so both sides must preserve it.
type HistoryEntry struct {
	User      string    `json:"user"`
	Bot       string    `json:"bot"`
	Sources   []string  `json:"sources"`
	Timestamp time.Time `json:"timestamp"`
}

type HistoryResponse struct {
	Envelope
	History []HistoryEntry `json:"history"`
}

type JobResponse struct {
	Envelope
	JobID string `json:"job_id,omitempty"`
}

type JobStatusResponse struct {
	Envelope
	Job struct {
		ID     string  `json:"id"`
		Status string  `json:"status"`
		Error  *string `json:"error,omitempty"`
	} `json:"job"`
}
