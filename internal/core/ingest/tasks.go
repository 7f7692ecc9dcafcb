package ingest

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Task states. The runner currently executes inline on a goroutine, but
// callers only ever see the submit/poll surface, so ingestion can move
// behind a queue without touching them.
const (
	TaskRunning = "running"
	TaskDone    = "done"
	TaskFailed  = "failed"
)

type TaskID string

// TaskState is a poll snapshot of one submitted ingestion.
type TaskState struct {
	Status  string   `json:"status"`
	Outcome *Outcome `json:"outcome,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// TaskRunner decouples callers from the sync/async ingestion decision.
type TaskRunner struct {
	preparer *Preparer
	mu       sync.RWMutex
	tasks    map[TaskID]TaskState
}

func NewTaskRunner(preparer *Preparer) *TaskRunner {
	return &TaskRunner{
		preparer: preparer,
		tasks:    make(map[TaskID]TaskState),
	}
}

// Submit schedules ingestion of a document and returns immediately. The
// per-document lock inside Prepare still serializes duplicate submits,
// and the cached short-circuit holds regardless of execution mode.
func (r *TaskRunner) Submit(docID string, force bool) TaskID {
	id := TaskID(uuid.NewString())

	r.mu.Lock()
	r.tasks[id] = TaskState{Status: TaskRunning}
	r.mu.Unlock()

	go func() {
		outcome, err := r.preparer.Prepare(context.Background(), docID, force)

		r.mu.Lock()
		defer r.mu.Unlock()
		if err != nil {
			r.tasks[id] = TaskState{Status: TaskFailed, Error: err.Error()}
			return
		}
		r.tasks[id] = TaskState{Status: TaskDone, Outcome: &outcome}
	}()

	return id
}

// Status polls a submitted task.
func (r *TaskRunner) Status(id TaskID) (TaskState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.tasks[id]
	return state, ok
}
