package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/proximachat/proxima/internal/common"
	"gorm.io/gorm"
)

// fakeEmbedder returns a deterministic vector per input so retrieval order is
// predictable in tests.
type fakeEmbedder struct {
	vectors map[string][]float64
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	_ = ctx
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	// default: crude bag-of-letters so any text embeds
	v := make([]float64, 4)
	for i, r := range text {
		v[i%4] += float64(r % 13)
	}
	return v, nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&File{}, &Chunk{}, &Job{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, emb *fakeEmbedder) *Service {
	t.Helper()
	if emb == nil {
		emb = &fakeEmbedder{}
	}
	svc := NewService(NewRepo(openTestDB(t)), emb, t.TempDir(), 10)
	// uploads in tests are plain text, not real PDFs
	svc.Extract = func(path string) (string, error) {
		b, err := os.ReadFile(path)
		return string(b), err
	}
	return svc
}

func uploadText(t *testing.T, svc *Service, userID, name, content string) *File {
	t.Helper()
	f, _, err := svc.Upload(context.Background(), userID, name, strings.NewReader(content))
	if err != nil {
		t.Fatalf("upload %s: %v", name, err)
	}
	return f
}

func TestUpload_RejectsNonPDF(t *testing.T) {
	svc := newTestService(t, nil)

	_, _, err := svc.Upload(context.Background(), "u1", "notes.txt", strings.NewReader("x"))
	var rej *common.Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rej.Msg != "File type not allowed" {
		t.Fatalf("unexpected message: %q", rej.Msg)
	}
}

func TestUpload_EnforcesMaxFiles(t *testing.T) {
	svc := newTestService(t, nil)

	for i := 0; i < 10; i++ {
		uploadText(t, svc, "u1", fmt.Sprintf("doc%d.pdf", i), "content")
	}

	_, _, err := svc.Upload(context.Background(), "u1", "one-more.pdf", strings.NewReader("x"))
	var rej *common.Rejection
	if !errors.As(err, &rej) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rej.Msg != "Maximum of 10 files allowed" {
		t.Fatalf("unexpected message: %q", rej.Msg)
	}

	n, err := svc.repo.CountFiles(context.Background(), "u1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 10 {
		t.Fatalf("expected 10 files, got %d", n)
	}
}

func TestProcess_NoFiles(t *testing.T) {
	svc := newTestService(t, nil)

	err := svc.Process(context.Background(), "u1")
	var rej *common.Rejection
	if !errors.As(err, &rej) || rej.Msg != "No files uploaded" {
		t.Fatalf("expected 'No files uploaded', got %v", err)
	}
}

func TestProcess_FlipsRetrieverStatus(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	uploadText(t, svc, "u1", "report.pdf", "the quarterly budget is fine")

	st, err := svc.Status(ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.HasFiles || st.HasRetriever {
		t.Fatalf("expected files without retriever, got %+v", st)
	}

	if err := svc.Process(ctx, "u1"); err != nil {
		t.Fatalf("process: %v", err)
	}

	st, err = svc.Status(ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !st.HasRetriever || st.FileCount != 1 {
		t.Fatalf("expected retriever after processing, got %+v", st)
	}
}

func TestDelete_LastFileDropsKnowledgeBase(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	f := uploadText(t, svc, "u1", "only.pdf", "some content")
	if err := svc.Process(ctx, "u1"); err != nil {
		t.Fatalf("process: %v", err)
	}

	if err := svc.Delete(ctx, "u1", f.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	st, err := svc.Status(ctx, "u1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.HasFiles || st.HasRetriever {
		t.Fatalf("expected empty status after last delete, got %+v", st)
	}
}

func TestDelete_UnknownFile(t *testing.T) {
	svc := newTestService(t, nil)

	err := svc.Delete(context.Background(), "u1", "no-such-id")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected record not found, got %v", err)
	}
}

func TestRetrieve_RanksByCosine(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"cats are great":  {1, 0, 0, 0},
		"dogs are loyal":  {0, 1, 0, 0},
		"fish are quiet":  {0, 0, 1, 0},
		"tell me of cats": {0.9, 0.1, 0, 0},
	}}
	svc := newTestService(t, emb)
	ctx := context.Background()

	uploadText(t, svc, "u1", "cats.pdf", "cats are great")
	uploadText(t, svc, "u1", "dogs.pdf", "dogs are loyal")
	uploadText(t, svc, "u1", "fish.pdf", "fish are quiet")
	if err := svc.Process(ctx, "u1"); err != nil {
		t.Fatalf("process: %v", err)
	}

	chunks, err := svc.Retrieve(ctx, "u1", "tell me of cats", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Source != "cats.pdf" {
		t.Fatalf("expected cats.pdf first, got %s", chunks[0].Source)
	}
}

func TestRunJob_RecordsOutcome(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	uploadText(t, svc, "u1", "doc.pdf", "content")

	job := &Job{ID: "01JOBID0000000000000000000", UserID: "u1", Status: JobQueued}
	if err := svc.repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := svc.RunJob(ctx, job.ID); err != nil {
		t.Fatalf("run job: %v", err)
	}

	got, err := svc.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != JobSucceeded {
		t.Fatalf("expected succeeded, got %s", got.Status)
	}
}

func TestRunJob_FailureMarksFailed(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	// no files: processing must fail
	job := &Job{ID: "01JOBID0000000000000000001", UserID: "u2", Status: JobQueued}
	if err := svc.repo.CreateJob(ctx, job); err != nil {
		t.Fatalf("create job: %v", err)
	}

	if err := svc.RunJob(ctx, job.ID); err == nil {
		t.Fatalf("expected job failure")
	}

	got, err := svc.GetJob(ctx, job.ID)
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if got.Status != JobFailed || got.Error == nil {
		t.Fatalf("expected failed with error, got %+v", got)
	}
}

func TestSplitText_Overlap(t *testing.T) {
	text := strings.Repeat("All work and no play makes a dull module. ", 60)
	chunks := splitText(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c) > chunkSize+chunkOverlap {
			t.Fatalf("chunk too large: %d", len(c))
		}
	}
}
