package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/proximachat/proxima/internal/ai"
	"github.com/proximachat/proxima/internal/common"
	"github.com/proximachat/proxima/internal/library"
	"gorm.io/gorm"
)

type fakeProvider struct {
	answer string
	err    error
	calls  [][]ai.Message
}

func (f *fakeProvider) Chat(ctx context.Context, msgs []ai.Message) (string, error) {
	_ = ctx
	f.calls = append(f.calls, msgs)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type flatEmbedder struct{}

func (flatEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	_ = ctx
	v := make([]float64, 4)
	for i, r := range text {
		v[i%4] += float64(r % 17)
	}
	return v, nil
}

func newTestServices(t *testing.T) (*Service, *library.Service, *fakeProvider) {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&library.File{}, &library.Chunk{}, &library.Job{}, &Entry{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	lib := library.NewService(library.NewRepo(db), flatEmbedder{}, t.TempDir(), 10)
	lib.Extract = func(path string) (string, error) {
		b, err := os.ReadFile(path)
		return string(b), err
	}

	provider := &fakeProvider{answer: "the answer"}
	svc := NewService(NewRepo(db), lib, provider, 4, 5)
	return svc, lib, provider
}

func seedKnowledgeBase(t *testing.T, lib *library.Service, userID string) {
	t.Helper()
	ctx := context.Background()
	if _, _, err := lib.Upload(ctx, userID, "guide.pdf", strings.NewReader("all about widgets")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := lib.Process(ctx, userID); err != nil {
		t.Fatalf("process: %v", err)
	}
}

func TestAsk_RequiresMessage(t *testing.T) {
	svc, _, _ := newTestServices(t)

	_, err := svc.Ask(context.Background(), "u1", "   ")
	var rej *common.Rejection
	if !errors.As(err, &rej) || rej.Msg != "Message is required" {
		t.Fatalf("expected 'Message is required', got %v", err)
	}
}

func TestAsk_RequiresProcessedFiles(t *testing.T) {
	svc, _, provider := newTestServices(t)

	_, err := svc.Ask(context.Background(), "u1", "hello?")
	var rej *common.Rejection
	if !errors.As(err, &rej) || rej.Msg != "Please upload and process files first" {
		t.Fatalf("expected readiness rejection, got %v", err)
	}
	if len(provider.calls) != 0 {
		t.Fatalf("provider should not be called, got %d calls", len(provider.calls))
	}
}

func TestAsk_AppendsEntryWithSources(t *testing.T) {
	svc, lib, _ := newTestServices(t)
	ctx := context.Background()
	seedKnowledgeBase(t, lib, "u1")

	entry, err := svc.Ask(ctx, "u1", "what are widgets?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if entry.BotText != "the answer" {
		t.Fatalf("unexpected answer: %q", entry.BotText)
	}
	if len(entry.Sources) != 1 || entry.Sources[0] != "guide.pdf" {
		t.Fatalf("unexpected sources: %v", entry.Sources)
	}

	history, err := svc.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].UserText != "what are widgets?" {
		t.Fatalf("unexpected history: %+v", history)
	}
}

func TestAsk_BuildsPromptWithRecentHistory(t *testing.T) {
	svc, lib, provider := newTestServices(t)
	ctx := context.Background()
	seedKnowledgeBase(t, lib, "u1")

	for i := 0; i < 7; i++ {
		if _, err := svc.Ask(ctx, "u1", fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("ask %d: %v", i, err)
		}
	}

	// the 8th call should carry the system prompt, 5 prior exchanges, and
	// the new question
	if _, err := svc.Ask(ctx, "u1", "final question"); err != nil {
		t.Fatalf("final ask: %v", err)
	}
	msgs := provider.calls[len(provider.calls)-1]
	if want := 1 + 2*5 + 1; len(msgs) != want {
		t.Fatalf("expected %d messages, got %d", want, len(msgs))
	}
	if msgs[0].Role != "system" {
		t.Fatalf("first message must be system, got %s", msgs[0].Role)
	}
	// oldest retained exchange is question 2 (0 and 1 fell out the window)
	if msgs[1].Content != "question 2" {
		t.Fatalf("unexpected oldest history entry: %q", msgs[1].Content)
	}
	last := msgs[len(msgs)-1]
	if !strings.Contains(last.Content, "Question: final question") ||
		!strings.Contains(last.Content, "Context:") {
		t.Fatalf("context prompt malformed: %q", last.Content)
	}
}

func TestAsk_ProviderFailure(t *testing.T) {
	svc, lib, provider := newTestServices(t)
	ctx := context.Background()
	seedKnowledgeBase(t, lib, "u1")
	provider.err = errors.New("model unavailable")

	_, err := svc.Ask(ctx, "u1", "anything")
	var rej *common.Rejection
	if !errors.As(err, &rej) || !strings.Contains(rej.Msg, "Error generating response") {
		t.Fatalf("expected generation error, got %v", err)
	}

	has, err := svc.HasHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("has history: %v", err)
	}
	if has {
		t.Fatalf("failed ask must not write history")
	}
}

func TestDeleteAt_Positional(t *testing.T) {
	svc, lib, _ := newTestServices(t)
	ctx := context.Background()
	seedKnowledgeBase(t, lib, "u1")

	for i := 0; i < 3; i++ {
		if _, err := svc.Ask(ctx, "u1", fmt.Sprintf("q%d", i)); err != nil {
			t.Fatalf("ask: %v", err)
		}
	}

	if err := svc.DeleteAt(ctx, "u1", 1); err != nil {
		t.Fatalf("delete at 1: %v", err)
	}

	history, err := svc.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].UserText != "q0" || history[1].UserText != "q2" {
		t.Fatalf("unexpected history after delete: %+v", history)
	}
}

func TestDeleteAt_OutOfRange(t *testing.T) {
	svc, lib, _ := newTestServices(t)
	ctx := context.Background()
	seedKnowledgeBase(t, lib, "u1")

	if _, err := svc.Ask(ctx, "u1", "only one"); err != nil {
		t.Fatalf("ask: %v", err)
	}

	for _, idx := range []int{-1, 1, 99} {
		err := svc.DeleteAt(ctx, "u1", idx)
		var rej *common.Rejection
		if !errors.As(err, &rej) || rej.Msg != "Invalid history index" {
			t.Fatalf("index %d: expected 'Invalid history index', got %v", idx, err)
		}
	}

	history, err := svc.History(ctx, "u1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history mutated by failed delete: %+v", history)
	}
}

func TestClear(t *testing.T) {
	svc, lib, _ := newTestServices(t)
	ctx := context.Background()
	seedKnowledgeBase(t, lib, "u1")

	if _, err := svc.Ask(ctx, "u1", "hello"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if err := svc.Clear(ctx, "u1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	has, err := svc.HasHistory(ctx, "u1")
	if err != nil {
		t.Fatalf("has history: %v", err)
	}
	if has {
		t.Fatalf("history should be empty after clear")
	}
}
