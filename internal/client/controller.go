// Package client implements the session synchronization controller: it
// reconciles optimistic local state with server-confirmed state after every
// remote call and is the only surface the presentation layer talks to.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/proximachat/proxima/internal/api"
	"github.com/proximachat/proxima/internal/credstore"
)

// MaxFiles is the most documents a knowledge base may hold.
const MaxFiles = 10

// Snapshot is a consistent read-only view of the session. Slices are copies;
// the presentation layer never mutates controller state directly.
type Snapshot struct {
	Credential   *credstore.Credential
	Files        []api.FileInfo
	Readiness    Readiness
	Exchanges    []Exchange
	PendingError string
}

func (s Snapshot) Authenticated() bool { return s.Credential != nil }

// Controller serializes mutations per sub-resource: two uploads can never
// race each other, but a status refresh may run while a chat send is in
// flight. State itself is guarded separately by mu, which is never held
// across a network call.
type Controller struct {
	api   *API
	creds *credstore.Store

	filesMu  sync.Mutex
	chatMu   sync.Mutex
	statusMu sync.Mutex

	historySeq uint64 // issued fetches; stale responses are discarded

	mu             sync.Mutex
	cred           *credstore.Credential
	files          []api.FileInfo
	readiness      Readiness
	exchanges      []Exchange
	pendingErr     string
	processing     bool
	historyApplied uint64
}

func New(a *API, creds *credstore.Store) *Controller {
	return &Controller{api: a, creds: creds}
}

// Restore loads a persisted credential, if any. Returns whether the session
// is authenticated.
func (c *Controller) Restore() (bool, error) {
	cred, err := c.creds.Load()
	if err != nil {
		return false, err
	}
	if cred == nil {
		return false, nil
	}
	c.api.SetToken(cred.Token)
	c.mu.Lock()
	c.cred = cred
	c.mu.Unlock()
	return true, nil
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cred *credstore.Credential
	if c.cred != nil {
		cc := *c.cred
		cred = &cc
	}
	return Snapshot{
		Credential:   cred,
		Files:        append([]api.FileInfo(nil), c.files...),
		Readiness:    c.readiness,
		Exchanges:    append([]Exchange(nil), c.exchanges...),
		PendingError: c.pendingErr,
	}
}

// DismissError clears the current error without undoing the failed
// operation's state.
func (c *Controller) DismissError() {
	c.setError("")
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	c.pendingErr = msg
	c.mu.Unlock()
}

// fail terminates an operation's error at the controller: 401 cascades into
// credential invalidation, server rejections surface verbatim, transport
// failures fall back to a generic message. The error is still returned so
// callers can branch on it.
func (c *Controller) fail(err error, fallback string) error {
	var srv *ServerError
	switch {
	case errors.Is(err, ErrAuthExpired):
		c.invalidate()
		c.setError("Session expired, please log in again")
	case errors.As(err, &srv):
		c.setError(srv.Msg)
	default:
		c.setError(fallback)
	}
	return err
}

// invalidate tears the session down: credential destroyed, caches dropped.
func (c *Controller) invalidate() {
	_ = c.creds.Clear()
	c.api.SetToken("")

	c.mu.Lock()
	c.cred = nil
	c.files = nil
	c.exchanges = nil
	c.readiness = Readiness{}
	c.processing = false
	c.mu.Unlock()
}

// Auth

func (c *Controller) Login(ctx context.Context, email, password string) error {
	resp, err := c.api.Login(ctx, email, password)
	if err != nil {
		// a 401 here is a bad password, not an expired session
		if errors.Is(err, ErrAuthExpired) {
			c.invalidate()
			c.setError("Invalid email or password")
			return err
		}
		return c.fail(err, "Login failed")
	}
	return c.adoptCredential(resp)
}

func (c *Controller) Register(ctx context.Context, email, password string) error {
	resp, err := c.api.Register(ctx, email, password)
	if err != nil {
		return c.fail(err, "Registration failed")
	}
	return c.adoptCredential(resp)
}

func (c *Controller) adoptCredential(resp *api.AuthResponse) error {
	cred := &credstore.Credential{
		Token:  resp.Token,
		UserID: resp.User.ID,
		Email:  resp.User.Email,
	}
	if err := c.creds.Save(cred); err != nil {
		return c.fail(err, "Failed to save credentials")
	}
	c.api.SetToken(cred.Token)

	c.mu.Lock()
	c.cred = cred
	c.pendingErr = ""
	c.mu.Unlock()
	return nil
}

// Logout tells the server best-effort and always tears down locally.
func (c *Controller) Logout(ctx context.Context) {
	_ = c.api.Logout(ctx)
	c.invalidate()
}

// Refresh

// RefreshAll pulls status, files and history, as on dashboard load.
func (c *Controller) RefreshAll(ctx context.Context) error {
	var first error
	if err := c.RefreshStatus(ctx); err != nil && first == nil {
		first = err
	}
	if err := c.RefreshFiles(ctx); err != nil && first == nil {
		first = err
	}
	if err := c.ReloadHistory(ctx); err != nil && first == nil {
		first = err
	}
	return first
}

func (c *Controller) RefreshFiles(ctx context.Context) error {
	c.filesMu.Lock()
	defer c.filesMu.Unlock()

	if err := c.refreshFilesLocked(ctx); err != nil {
		return c.fail(err, "Failed to fetch files")
	}
	return nil
}

// refreshFilesLocked replaces the local sequence wholesale; the server is the
// source of truth, never the client's append log.
func (c *Controller) refreshFilesLocked(ctx context.Context) error {
	files, err := c.api.ListFiles(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.files = files
	c.mu.Unlock()
	return nil
}

func (c *Controller) RefreshStatus(ctx context.Context) error {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()

	if err := c.refreshStatusLocked(ctx); err != nil {
		return c.fail(err, "Failed to fetch status")
	}
	return nil
}

func (c *Controller) refreshStatusLocked(ctx context.Context) error {
	st, err := c.api.Status(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.readiness.applyStatus(st)
	if c.processing {
		c.readiness.State = StateProcessing
	}
	c.mu.Unlock()
	return nil
}

// ReloadHistory fetches the authoritative history. Late responses that were
// superseded by a newer fetch are discarded rather than applied.
func (c *Controller) ReloadHistory(ctx context.Context) error {
	seq := atomic.AddUint64(&c.historySeq, 1)

	entries, err := c.api.History(ctx)
	if err != nil {
		return c.fail(err, "Failed to fetch chat history")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.historyApplied {
		return nil
	}
	c.historyApplied = seq

	log := make([]Exchange, 0, len(entries))
	for _, e := range entries {
		log = append(log, exchangeFromEntry(e))
	}
	c.exchanges = log
	return nil
}

// Files

// Upload validates locally first: over-limit and non-PDF uploads never reach
// the network.
func (c *Controller) Upload(ctx context.Context, name string, r io.Reader) error {
	c.filesMu.Lock()
	defer c.filesMu.Unlock()

	c.mu.Lock()
	count := len(c.files)
	c.mu.Unlock()

	if count >= MaxFiles {
		c.setError(fmt.Sprintf("Maximum of %d files allowed", MaxFiles))
		return ErrLimitExceeded
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		c.setError("Only PDF files are allowed")
		return ErrUnsupportedType
	}

	if _, err := c.api.Upload(ctx, name, r); err != nil {
		return c.fail(err, "Failed to upload file")
	}

	if err := c.refreshFilesLocked(ctx); err != nil {
		return c.fail(err, "Failed to fetch files")
	}
	if err := c.RefreshStatus(ctx); err != nil {
		return err
	}
	c.setError("")
	return nil
}

// DeleteFile removes the descriptor only after server confirmation. Deleting
// the last file downgrades readiness immediately; the status refresh that
// follows is authoritative either way.
func (c *Controller) DeleteFile(ctx context.Context, fileID string) error {
	c.filesMu.Lock()
	defer c.filesMu.Unlock()

	c.mu.Lock()
	last := len(c.files) <= 1
	c.mu.Unlock()

	if err := c.api.DeleteFile(ctx, fileID); err != nil {
		return c.fail(err, "Failed to delete file")
	}

	// downgrade before the refresh round-trips: no snapshot may read Ready
	// once the last file's deletion is confirmed
	if last {
		c.mu.Lock()
		c.readiness.downgrade()
		c.mu.Unlock()
	}

	if err := c.refreshFilesLocked(ctx); err != nil {
		return c.fail(err, "Failed to fetch files")
	}

	c.mu.Lock()
	if len(c.files) == 0 {
		c.readiness.downgrade()
	}
	c.mu.Unlock()

	return c.RefreshStatus(ctx)
}

// Process

func (c *Controller) Process(ctx context.Context) error {
	c.mu.Lock()
	if c.processing {
		c.mu.Unlock()
		c.setError("Processing is already in progress")
		return ErrAlreadyProcessing
	}
	if len(c.files) == 0 && c.readiness.FileCount == 0 {
		c.mu.Unlock()
		c.setError("Please upload files first")
		return ErrNoFilesToProcess
	}
	c.processing = true
	c.readiness.State = StateProcessing
	c.mu.Unlock()

	c.statusMu.Lock()
	defer c.statusMu.Unlock()

	err := c.api.Process(ctx)

	c.mu.Lock()
	c.processing = false
	if err != nil {
		c.readiness.State = StateUnready
	}
	c.mu.Unlock()

	if err != nil {
		return c.fail(err, "Failed to process files")
	}

	c.mu.Lock()
	c.readiness.State = StateReady
	c.readiness.HasKnowledgeBase = true
	c.mu.Unlock()

	if err := c.refreshStatusLocked(ctx); err != nil && errors.Is(err, ErrAuthExpired) {
		return c.fail(err, "")
	}
	c.setError("")
	return nil
}

// Chat

// Send appends an optimistic pending exchange, then reconciles: a confirmed
// send is replaced by the authoritative history, a failed one becomes a
// terminal exchange carrying the error inline.
func (c *Controller) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		c.setError("Please enter a message")
		return ErrEmptyMessage
	}

	c.chatMu.Lock()
	defer c.chatMu.Unlock()

	c.mu.Lock()
	if !c.readiness.Ready() {
		c.mu.Unlock()
		c.setError("Please process your files first")
		return ErrNotReady
	}
	c.exchanges = append(c.exchanges, Exchange{
		UserText:  text,
		Timestamp: time.Now(),
		Pending:   true,
	})
	c.mu.Unlock()

	resp, err := c.api.Chat(ctx, text)
	if err != nil {
		if errors.Is(err, ErrAuthExpired) {
			return c.fail(err, "")
		}
		var srv *ServerError
		inline := "Error: Failed to communicate with the server"
		if errors.As(err, &srv) {
			inline = "Error: " + srv.Msg
		}
		c.resolvePending(inline, nil)
		return c.fail(err, "Failed to send message")
	}

	if err := c.ReloadHistory(ctx); err != nil {
		// the send itself was confirmed; settle the pending entry with the
		// answer from the chat response so it can never stay pending
		c.resolvePending(resp.Message, resp.Sources)
		return err
	}
	c.setError("")
	return nil
}

// resolvePending turns the trailing pending exchange into a terminal one.
func (c *Controller) resolvePending(botText string, sources []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.exchanges) - 1; i >= 0; i-- {
		if c.exchanges[i].Pending {
			c.exchanges[i].BotText = botText
			c.exchanges[i].Sources = sources
			c.exchanges[i].Pending = false
			c.exchanges[i].Timestamp = time.Now()
			return
		}
	}
}

// DeleteExchange issues a positional delete, then reloads instead of locally
// splicing: positions are only trustworthy immediately after a full reload.
func (c *Controller) DeleteExchange(ctx context.Context, index int) error {
	c.chatMu.Lock()
	defer c.chatMu.Unlock()

	c.mu.Lock()
	n := len(c.exchanges)
	c.mu.Unlock()

	if index < 0 || index >= n {
		c.setError("Invalid history index")
		return ErrIndexOutOfRange
	}

	if err := c.api.DeleteHistoryItem(ctx, index); err != nil {
		return c.fail(err, "Failed to delete history item")
	}
	return c.ReloadHistory(ctx)
}

// ClearHistory empties the local log only after the server confirms.
func (c *Controller) ClearHistory(ctx context.Context) error {
	c.chatMu.Lock()
	defer c.chatMu.Unlock()

	if err := c.api.ClearHistory(ctx); err != nil {
		return c.fail(err, "Failed to clear chat history")
	}

	c.mu.Lock()
	c.exchanges = nil
	c.readiness.HasHistory = false
	c.mu.Unlock()
	return nil
}
