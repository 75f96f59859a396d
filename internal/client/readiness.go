package client

import "github.com/proximachat/proxima/internal/api"

type ReadyState int

const (
	StateUnready ReadyState = iota
	StateProcessing
	StateReady
)

func (s ReadyState) String() string {
	switch s {
	case StateProcessing:
		return "processing"
	case StateReady:
		return "ready"
	default:
		return "unready"
	}
}

// Readiness tracks whether the knowledge base is queryable. Server-confirmed
// status always supersedes whatever was inferred locally.
type Readiness struct {
	State            ReadyState
	HasFiles         bool
	HasKnowledgeBase bool
	HasHistory       bool
	FileCount        int
}

func (r Readiness) Ready() bool { return r.State == StateReady }

// applyStatus folds an authoritative status fetch into the machine. A status
// claiming a knowledge base with zero files is a transient server race and is
// treated as not ready until the file count catches up.
func (r *Readiness) applyStatus(st *api.UserStatus) {
	r.HasFiles = st.HasFiles
	r.HasKnowledgeBase = st.HasRetriever
	r.HasHistory = st.HasHistory
	r.FileCount = st.FileCount

	if st.HasRetriever && st.FileCount > 0 {
		r.State = StateReady
	} else {
		r.State = StateUnready
	}
}

// downgrade forces not-ready locally, ahead of the next authoritative fetch.
func (r *Readiness) downgrade() {
	r.State = StateUnready
	r.HasKnowledgeBase = false
}
