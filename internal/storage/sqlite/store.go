package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/apperr"
	"github.com/interview-iq/backend/internal/storage/models"
	"github.com/interview-iq/backend/pkg/logger"
)

// Store is the SQLite-backed session store. JSON-valued session fields
// are stored as serialized columns so a merge update rewrites only the
// columns named by the FieldUpdates.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite session store initialized", zap.String("path", dbPath))

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		status TEXT NOT NULL,
		company_name TEXT NOT NULL,
		company_url TEXT NOT NULL DEFAULT '',
		scraped_data TEXT,
		parsed_documents TEXT NOT NULL DEFAULT '[]',
		analysis_results TEXT,
		interviewer_brief TEXT,
		interviewee_packet TEXT,
		feedback TEXT,
		metadata TEXT NOT NULL DEFAULT '{}',
		PRIMARY KEY (session_id, created_at)
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_status ON sessions(status, created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (s *Store) Create(ctx context.Context, companyName, companyURL string, metadata map[string]string) (*models.Session, error) {
	now := models.Timestamp(time.Now())
	if metadata == nil {
		metadata = map[string]string{}
	}

	session := &models.Session{
		SessionID:       uuid.NewString(),
		CreatedAt:       now,
		UpdatedAt:       now,
		Status:          models.StatusCreated,
		CompanyName:     companyName,
		CompanyURL:      companyURL,
		ParsedDocuments: []models.ParsedDocument{},
		Metadata:        metadata,
	}

	metadataJSON, _ := json.Marshal(session.Metadata)

	query := `
		INSERT INTO sessions (session_id, created_at, updated_at, status, company_name, company_url, parsed_documents, metadata)
		VALUES (?, ?, ?, ?, ?, ?, '[]', ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		session.SessionID,
		session.CreatedAt,
		session.UpdatedAt,
		string(session.Status),
		session.CompanyName,
		session.CompanyURL,
		string(metadataJSON),
	)
	if err != nil {
		return nil, apperr.Backend("failed to create session", err)
	}

	logger.Info("Session created",
		zap.String("session_id", session.SessionID),
		zap.String("company", companyName),
	)

	return session, nil
}

func (s *Store) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	query := selectColumns + ` FROM sessions WHERE session_id = ? ORDER BY created_at DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, sessionID)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("session %s not found", sessionID)
	}
	if err != nil {
		return nil, apperr.Backend("failed to get session", err)
	}

	return session, nil
}

func (s *Store) Update(ctx context.Context, sessionID, createdAt string, updates models.FieldUpdates) (*models.Session, error) {
	set := []string{"updated_at = ?"}
	args := []any{models.Timestamp(time.Now())}

	appendCol := func(col string, v any) {
		set = append(set, col+" = ?")
		args = append(args, v)
	}
	appendJSON := func(col string, v any) {
		data, _ := json.Marshal(v)
		appendCol(col, string(data))
	}

	if updates.Status != nil {
		appendCol("status", string(*updates.Status))
	}
	if updates.CompanyName != nil {
		appendCol("company_name", *updates.CompanyName)
	}
	if updates.CompanyURL != nil {
		appendCol("company_url", *updates.CompanyURL)
	}
	if updates.ScrapedData != nil {
		appendJSON("scraped_data", updates.ScrapedData)
	}
	if updates.ParsedDocuments != nil {
		appendJSON("parsed_documents", *updates.ParsedDocuments)
	}
	if updates.AnalysisResults != nil {
		appendJSON("analysis_results", updates.AnalysisResults)
	}
	if updates.InterviewerBrief != nil {
		appendJSON("interviewer_brief", *updates.InterviewerBrief)
	}
	if updates.IntervieweePack != nil {
		appendJSON("interviewee_packet", *updates.IntervieweePack)
	}
	if updates.Feedback != nil {
		appendJSON("feedback", updates.Feedback)
	}
	if updates.Metadata != nil {
		appendJSON("metadata", *updates.Metadata)
	}

	args = append(args, sessionID, createdAt)
	query := "UPDATE sessions SET "
	for i, clause := range set {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE session_id = ? AND created_at = ?"

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, apperr.Backend("failed to update session", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, apperr.Backend("failed to update session", err)
	}
	if affected == 0 {
		return nil, apperr.NotFound("session %s (createdAt %s) not found", sessionID, createdAt)
	}

	logger.Debug("Session updated", zap.String("session_id", sessionID))

	row := s.db.QueryRowContext(ctx, selectColumns+` FROM sessions WHERE session_id = ? AND created_at = ?`, sessionID, createdAt)
	session, err := scanSession(row)
	if err != nil {
		return nil, apperr.Backend("failed to read back session", err)
	}
	return session, nil
}

func (s *Store) StoreFeedback(ctx context.Context, sessionID, createdAt string, corrections []models.Correction, selectedQuestions []string, notes string) (*models.Session, error) {
	if corrections == nil {
		corrections = []models.Correction{}
	}
	if selectedQuestions == nil {
		selectedQuestions = []string{}
	}

	feedback := &models.Feedback{
		Corrections:       corrections,
		SelectedQuestions: selectedQuestions,
		Notes:             notes,
		SubmittedAt:       models.Timestamp(time.Now()),
	}
	status := models.StatusFeedbackReceived

	session, err := s.Update(ctx, sessionID, createdAt, models.FieldUpdates{
		Feedback: feedback,
		Status:   &status,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Feedback stored",
		zap.String("session_id", sessionID),
		zap.Int("corrections", len(corrections)),
		zap.Int("selected_questions", len(selectedQuestions)),
	)

	return session, nil
}

const selectColumns = `SELECT session_id, created_at, updated_at, status, company_name, company_url,
	scraped_data, parsed_documents, analysis_results, interviewer_brief, interviewee_packet, feedback, metadata`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var session models.Session
	var status string
	var scraped, parsed, analysis, brief, packet, feedback, metadata sql.NullString

	err := row.Scan(
		&session.SessionID,
		&session.CreatedAt,
		&session.UpdatedAt,
		&status,
		&session.CompanyName,
		&session.CompanyURL,
		&scraped,
		&parsed,
		&analysis,
		&brief,
		&packet,
		&feedback,
		&metadata,
	)
	if err != nil {
		return nil, err
	}

	session.Status = models.Status(status)
	session.ParsedDocuments = []models.ParsedDocument{}
	session.Metadata = map[string]string{}

	if scraped.Valid && scraped.String != "" {
		json.Unmarshal([]byte(scraped.String), &session.ScrapedData)
	}
	if parsed.Valid && parsed.String != "" {
		json.Unmarshal([]byte(parsed.String), &session.ParsedDocuments)
	}
	if analysis.Valid && analysis.String != "" {
		json.Unmarshal([]byte(analysis.String), &session.AnalysisResults)
	}
	if brief.Valid && brief.String != "" {
		json.Unmarshal([]byte(brief.String), &session.InterviewerBrief)
	}
	if packet.Valid && packet.String != "" {
		json.Unmarshal([]byte(packet.String), &session.IntervieweePack)
	}
	if feedback.Valid && feedback.String != "" {
		json.Unmarshal([]byte(feedback.String), &session.Feedback)
	}
	if metadata.Valid && metadata.String != "" {
		json.Unmarshal([]byte(metadata.String), &session.Metadata)
	}

	return &session, nil
}
