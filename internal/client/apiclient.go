package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/proximachat/proxima/internal/api"
)

// API is the typed client for the remote session service. Every response is
// decoded exactly once here; callers only ever see typed payloads or errors.
type API struct {
	baseURL string
	httpc   *http.Client

	mu    sync.RWMutex
	token string
}

func NewAPI(baseURL string, httpc *http.Client) *API {
	if httpc == nil {
		httpc = &http.Client{Timeout: 120 * time.Second}
	}
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   httpc,
	}
}

func (a *API) SetToken(token string) {
	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
}

func (a *API) bearer() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

type enveloped interface {
	Env() *api.Envelope
}

// do sends the request and decodes the envelope. 401 always maps to
// ErrAuthExpired; success=false maps to ServerError with the verbatim
// message; transport and parse failures are returned wrapped.
func (a *API) do(ctx context.Context, method, path, contentType string, body io.Reader, out enveloped) error {
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if t := a.bearer(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := a.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrAuthExpired
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	if env := out.Env(); !env.Success {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return &ServerError{Msg: msg}
	}
	return nil
}

func (a *API) doJSON(ctx context.Context, method, path string, payload any, out enveloped) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	return a.do(ctx, method, path, "application/json", body, out)
}

type credentialsReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) Login(ctx context.Context, email, password string) (*api.AuthResponse, error) {
	var out api.AuthResponse
	if err := a.doJSON(ctx, http.MethodPost, api.LoginPath, credentialsReq{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Register(ctx context.Context, email, password string) (*api.AuthResponse, error) {
	var out api.AuthResponse
	if err := a.doJSON(ctx, http.MethodPost, api.RegisterPath, credentialsReq{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Logout(ctx context.Context) error {
	var out api.Envelope
	return a.doJSON(ctx, http.MethodPost, api.LogoutPath, nil, &out)
}

func (a *API) ListFiles(ctx context.Context) ([]api.FileInfo, error) {
	var out api.FilesResponse
	if err := a.doJSON(ctx, http.MethodGet, api.FilesPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (a *API) Upload(ctx context.Context, name string, r io.Reader) (*api.UploadResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var out api.UploadResponse
	if err := a.do(ctx, http.MethodPost, api.UploadPath, w.FormDataContentType(), &buf, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) DeleteFile(ctx context.Context, fileID string) error {
	var out api.Envelope
	return a.doJSON(ctx, http.MethodDelete, api.FilesPath+"/"+fileID, nil, &out)
}

func (a *API) Process(ctx context.Context) error {
	var out api.Envelope
	return a.doJSON(ctx, http.MethodPost, api.ProcessPath, nil, &out)
}

func (a *API) Status(ctx context.Context) (*api.UserStatus, error) {
	var out api.StatusResponse
	if err := a.doJSON(ctx, http.MethodGet, api.StatusPath, nil, &out); err != nil {
		return nil, err
	}
	return &out.Status, nil
}

func (a *API) Chat(ctx context.Context, message string) (*api.ChatResponse, error) {
	var out api.ChatResponse
	if err := a.doJSON(ctx, http.MethodPost, api.ChatPath, api.ChatRequest{Message: message}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) History(ctx context.Context) ([]api.HistoryEntry, error) {
	var out api.HistoryResponse
	if err := a.doJSON(ctx, http.MethodGet, api.HistoryPath, nil, &out); err != nil {
		return nil, err
	}
	return out.History, nil
}

func (a *API) DeleteHistoryItem(ctx context.Context, index int) error {
	var out api.Envelope
	return a.doJSON(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", api.HistoryPath, index), nil, &out)
}

func (a *API) ClearHistory(ctx context.Context) error {
	var out api.Envelope
	return a.doJSON(ctx, http.MethodDelete, api.HistoryPath, nil, &out)
}
