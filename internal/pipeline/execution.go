package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/interview-iq/backend/internal/apperr"
	"github.com/interview-iq/backend/internal/storage/models"
)

type ExecutionStatus string

const (
	ExecutionRunning   ExecutionStatus = "RUNNING"
	ExecutionSucceeded ExecutionStatus = "SUCCEEDED"
	ExecutionFailed    ExecutionStatus = "FAILED"
)

// Execution tracks one asynchronous full-pipeline run. Output is set on
// success, Error and Cause on failure; Stage always names the most
// recently started stage.
type Execution struct {
	ExecutionID string          `json:"executionId"`
	SessionID   string          `json:"sessionId"`
	Status      ExecutionStatus `json:"status"`
	Stage       string          `json:"stage"`
	StartedAt   string          `json:"startedAt"`
	FinishedAt  string          `json:"finishedAt,omitempty"`
	Output      map[string]any  `json:"output,omitempty"`
	Error       string          `json:"error,omitempty"`
	Cause       string          `json:"cause,omitempty"`
}

func newExecution(sessionID string) *Execution {
	return &Execution{
		ExecutionID: uuid.NewString(),
		SessionID:   sessionID,
		Status:      ExecutionRunning,
		StartedAt:   models.Timestamp(time.Now()),
	}
}

// ExecutionStore persists execution records so status polling works
// while the run proceeds in the background.
type ExecutionStore interface {
	Put(ctx context.Context, exec *Execution) error
	Get(ctx context.Context, executionID string) (*Execution, error)
}

// MemoryExecutionStore holds executions in process memory. Used in tests
// and when redis is not configured.
type MemoryExecutionStore struct {
	mu         sync.RWMutex
	executions map[string]Execution
}

func NewMemoryExecutionStore() *MemoryExecutionStore {
	return &MemoryExecutionStore{executions: map[string]Execution{}}
}

func (s *MemoryExecutionStore) Put(ctx context.Context, exec *Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[exec.ExecutionID] = *exec
	return nil
}

func (s *MemoryExecutionStore) Get(ctx context.Context, executionID string) (*Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.executions[executionID]
	if !ok {
		return nil, apperr.NotFound("execution %s not found", executionID)
	}
	return &exec, nil
}
