package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// OllamaProvider implements both Provider and Embedder against a local
// Ollama server.
type OllamaProvider struct {
	BaseURL    string
	ChatModel  string
	EmbedModel string
	Client     *http.Client
}

func NewOllamaProvider(baseURL, chatModel, embedModel string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if chatModel == "" {
		chatModel = "deepseek-r1:1.5b"
	}
	if embedModel == "" {
		embedModel = "nomic-embed-text"
	}
	return &OllamaProvider{
		BaseURL:    baseURL,
		ChatModel:  chatModel,
		EmbedModel: embedModel,
		Client:     &http.Client{Timeout: 90 * time.Second},
	}
}

type ollamaMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatReq struct {
	Model    string      `json:"model"`
	Messages []ollamaMsg `json:"messages"`
	Stream   bool        `json:"stream"`
}

type ollamaChatResp struct {
	Message ollamaMsg `json:"message"`
	Error   string    `json:"error,omitempty"`
}

func (p *OllamaProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if p.Client == nil {
		return "", errors.New("ollama: http client is nil")
	}

	reqBody := ollamaChatReq{
		Model:  p.ChatModel,
		Stream: false,
		Messages: func() []ollamaMsg {
			out := make([]ollamaMsg, 0, len(messages))
			for _, m := range messages {
				out = append(out, ollamaMsg{Role: m.Role, Content: m.Content})
			}
			return out
		}(),
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/api/chat", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama: status %d", resp.StatusCode)
	}

	var decoded ollamaChatResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if decoded.Error != "" {
		return "", errors.New(decoded.Error)
	}
	return decoded.Message.Content, nil
}

type ollamaEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResp struct {
	Embedding []float64 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

func (p *OllamaProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if p.Client == nil {
		return nil, errors.New("ollama: http client is nil")
	}

	b, err := json.Marshal(ollamaEmbedReq{Model: p.EmbedModel, Prompt: text})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/embeddings", p.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama: status %d", resp.StatusCode)
	}

	var decoded ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if decoded.Error != "" {
		return nil, errors.New(decoded.Error)
	}
	if len(decoded.Embedding) == 0 {
		return nil, errors.New("ollama: empty embedding")
	}
	return decoded.Embedding, nil
}
