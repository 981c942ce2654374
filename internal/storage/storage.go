package storage

import (
	"context"

	"github.com/interview-iq/backend/internal/storage/models"
)

// SessionStore is the versioned session record store shared by all
// pipeline stages. Updates are field-level merges addressed by the
// (sessionID, createdAt) composite key; a single Update call is atomic,
// cross-call races on the same field are last-write-wins.
type SessionStore interface {
	Create(ctx context.Context, companyName, companyURL string, metadata map[string]string) (*models.Session, error)
	Get(ctx context.Context, sessionID string) (*models.Session, error)
	Update(ctx context.Context, sessionID, createdAt string, updates models.FieldUpdates) (*models.Session, error)
	StoreFeedback(ctx context.Context, sessionID, createdAt string, corrections []models.Correction, selectedQuestions []string, notes string) (*models.Session, error)
}
