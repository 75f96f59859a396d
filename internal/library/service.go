package library

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/proximachat/proxima/internal/ai"
	"github.com/proximachat/proxima/internal/common"
)

type Service struct {
	repo      *Repo
	embedder  ai.Embedder
	uploadDir string
	maxFiles  int

	// Extract is swappable so tests can feed plain text files.
	Extract func(path string) (string, error)
}

func NewService(repo *Repo, embedder ai.Embedder, uploadDir string, maxFiles int) *Service {
	if maxFiles <= 0 {
		maxFiles = 10
	}
	return &Service{
		repo:      repo,
		embedder:  embedder,
		uploadDir: uploadDir,
		maxFiles:  maxFiles,
		Extract:   ExtractPDFText,
	}
}

func (s *Service) List(ctx context.Context, userID string) ([]File, error) {
	return s.repo.ListFiles(ctx, userID)
}

// Upload stores the file bytes on disk and records the descriptor. Returns
// the descriptor and the new file count.
func (s *Service) Upload(ctx context.Context, userID, name string, src io.Reader) (*File, int, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		return nil, 0, common.Rejectf("No file selected")
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		return nil, 0, common.Rejectf("File type not allowed")
	}

	count, err := s.repo.CountFiles(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	if int(count) >= s.maxFiles {
		return nil, 0, common.Rejectf("Maximum of %d files allowed", s.maxFiles)
	}

	id := uuid.NewString()
	path := filepath.Join(s.uploadDir, fmt.Sprintf("%s_%s", id, name))

	dst, err := os.Create(path)
	if err != nil {
		return nil, 0, err
	}
	size, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, 0, err
	}

	f := &File{
		ID:     id,
		UserID: userID,
		Name:   name,
		Path:   path,
		Size:   size,
	}
	if err := s.repo.CreateFile(ctx, f); err != nil {
		_ = os.Remove(path)
		return nil, 0, err
	}
	return f, int(count) + 1, nil
}

// Delete removes the file and, when it was the last one, drops the user's
// knowledge base so status stops reporting a retriever.
func (s *Service) Delete(ctx context.Context, userID, fileID string) error {
	f, err := s.repo.GetFile(ctx, userID, fileID)
	if err != nil {
		return err
	}

	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("remove upload failed path=%s err=%v", f.Path, err)
	}
	if err := s.repo.DeleteFile(ctx, userID, fileID); err != nil {
		return err
	}

	count, err := s.repo.CountFiles(ctx, userID)
	if err != nil {
		return err
	}
	if count == 0 {
		return s.repo.DeleteChunks(ctx, userID)
	}
	return nil
}

// Process rebuilds the user's knowledge base from every uploaded file:
// extract text, split into chunks, embed, swap in atomically.
func (s *Service) Process(ctx context.Context, userID string) error {
	files, err := s.repo.ListFiles(ctx, userID)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return common.Rejectf("No files uploaded")
	}

	var chunks []Chunk
	for _, f := range files {
		text, err := s.Extract(f.Path)
		if err != nil {
			return common.Rejectf("Error loading %s: %v", f.Name, err)
		}
		for _, piece := range splitText(text) {
			vec, err := s.embedder.Embed(ctx, piece)
			if err != nil {
				return common.Rejectf("Error processing files: %v", err)
			}
			chunks = append(chunks, Chunk{
				UserID:    userID,
				FileID:    f.ID,
				Source:    f.Name,
				Content:   piece,
				Embedding: vec,
			})
		}
	}
	if len(chunks) == 0 {
		return common.Rejectf("No documents could be loaded")
	}

	return s.repo.ReplaceChunks(ctx, userID, chunks)
}

type Status struct {
	HasFiles     bool
	HasRetriever bool
	FileCount    int
}

func (s *Service) Status(ctx context.Context, userID string) (Status, error) {
	files, err := s.repo.CountFiles(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	chunks, err := s.repo.CountChunks(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	return Status{
		HasFiles:     files > 0,
		HasRetriever: chunks > 0,
		FileCount:    int(files),
	}, nil
}

func (s *Service) HasRetriever(ctx context.Context, userID string) (bool, error) {
	n, err := s.repo.CountChunks(ctx, userID)
	return n > 0, err
}

// Async processing jobs (consumed by cmd/worker).

func (s *Service) CreateJobOrGetExisting(ctx context.Context, job *Job) (*Job, bool, error) {
	return s.repo.CreateJobOrGetExisting(ctx, job)
}

func (s *Service) GetJob(ctx context.Context, jobID string) (*Job, error) {
	return s.repo.GetJobByID(ctx, jobID)
}

// RunJob executes one queued processing job and records the outcome.
func (s *Service) RunJob(ctx context.Context, jobID string) error {
	_ = s.repo.UpdateJobStatusRunning(ctx, jobID)

	j, err := s.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return err
	}

	if err := s.Process(ctx, j.UserID); err != nil {
		_ = s.repo.MarkJobFailed(ctx, jobID, err.Error())
		return err
	}
	return s.repo.MarkJobSucceeded(ctx, jobID)
}
