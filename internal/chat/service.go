package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/proximachat/proxima/internal/ai"
	"github.com/proximachat/proxima/internal/common"
	"github.com/proximachat/proxima/internal/library"
	"gorm.io/gorm"
)

const systemPrompt = "Use the following pieces of context to answer the question at the end. " +
	"If you don't know the answer, say you don't know, but don't make up an answer. " +
	"Be concise but thorough."

type Service struct {
	repo          *Repo
	lib           *library.Service
	provider      ai.Provider
	topK          int
	historyWindow int
}

func NewService(repo *Repo, lib *library.Service, provider ai.Provider, topK, historyWindow int) *Service {
	if topK <= 0 {
		topK = 4
	}
	if historyWindow < 0 {
		historyWindow = 5
	}
	return &Service{repo: repo, lib: lib, provider: provider, topK: topK, historyWindow: historyWindow}
}

// Ask answers a question against the user's knowledge base and appends the
// exchange to history.
func (s *Service) Ask(ctx context.Context, userID, question string) (*Entry, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, common.Rejectf("Message is required")
	}

	ready, err := s.lib.HasRetriever(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !ready {
		return nil, common.Rejectf("Please upload and process files first")
	}

	// 1) retrieve relevant chunks
	chunks, err := s.lib.Retrieve(ctx, userID, question, s.topK)
	if err != nil {
		return nil, common.Rejectf("Error generating response: %v", err)
	}

	// 2) build provider messages: system prompt, recent history, then the
	// question with retrieved context
	recentDesc, err := s.repo.ListRecentEntriesDesc(ctx, userID, s.historyWindow)
	if err != nil {
		return nil, err
	}

	msgs := make([]ai.Message, 0, 2*len(recentDesc)+2)
	msgs = append(msgs, ai.Message{Role: "system", Content: systemPrompt})
	for i := len(recentDesc) - 1; i >= 0; i-- {
		e := recentDesc[i]
		msgs = append(msgs,
			ai.Message{Role: "user", Content: e.UserText},
			ai.Message{Role: "assistant", Content: e.BotText},
		)
	}

	var b strings.Builder
	b.WriteString("Context:\n")
	for _, c := range chunks {
		fmt.Fprintf(&b, "Content: %s\nSource: %s\n\n", c.Content, c.Source)
	}
	fmt.Fprintf(&b, "Question: %s", question)
	msgs = append(msgs, ai.Message{Role: "user", Content: b.String()})

	// 3) call provider
	answer, err := s.provider.Chat(ctx, msgs)
	if err != nil {
		return nil, common.Rejectf("Error generating response: %v", err)
	}

	// 4) dedup sources, preserving retrieval order
	var sources StringList
	seen := make(map[string]bool)
	for _, c := range chunks {
		if !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
	}

	entry := &Entry{
		UserID:   userID,
		UserText: question,
		BotText:  answer,
		Sources:  sources,
	}
	if err := s.repo.InsertEntry(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) History(ctx context.Context, userID string) ([]Entry, error) {
	return s.repo.ListEntries(ctx, userID)
}

func (s *Service) HasHistory(ctx context.Context, userID string) (bool, error) {
	n, err := s.repo.CountEntries(ctx, userID)
	return n > 0, err
}

// DeleteAt removes the history entry at the given position (ASC order).
func (s *Service) DeleteAt(ctx context.Context, userID string, index int) error {
	if index < 0 {
		return common.Rejectf("Invalid history index")
	}
	if err := s.repo.DeleteAt(ctx, userID, index); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.Rejectf("Invalid history index")
		}
		return err
	}
	return nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.repo.Clear(ctx, userID)
}
