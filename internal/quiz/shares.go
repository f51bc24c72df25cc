package quiz

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quizgenius/backend/internal/models"
)

// ErrShareNotFound is returned when no shared result exists for an id.
var ErrShareNotFound = errors.New("shared result not found")

// SharedResult is a published quiz result, fetchable without auth.
type SharedResult struct {
	ShareID   string            `json:"share_id"`
	Username  string            `json:"username"`
	Result    models.QuizResult `json:"result"`
	CreatedAt time.Time         `json:"created_at"`
}

// ShareStore persists published results in Postgres.
type ShareStore struct {
	db *sql.DB
}

func NewShareStore(db *sql.DB) *ShareStore {
	return &ShareStore{db: db}
}

// Publish stores a snapshot of a completed result under a fresh share id.
func (s *ShareStore) Publish(username string, result *models.QuizResult) (string, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encoding shared result: %w", err)
	}

	shareID := uuid.NewString()
	_, err = s.db.Exec(`
		INSERT INTO shared_results (id, username, result, created_at)
		VALUES ($1, $2, $3, $4)`,
		shareID, username, payload, time.Now(),
	)
	if err != nil {
		return "", fmt.Errorf("inserting shared result: %w", err)
	}
	return shareID, nil
}

// Fetch returns a published result by share id.
func (s *ShareStore) Fetch(shareID string) (*SharedResult, error) {
	var (
		username  string
		payload   []byte
		createdAt time.Time
	)
	err := s.db.QueryRow(`
		SELECT username, result, created_at
		FROM shared_results
		WHERE id = $1`,
		shareID,
	).Scan(&username, &payload, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrShareNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying shared result: %w", err)
	}

	var result models.QuizResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decoding shared result: %w", err)
	}
	return &SharedResult{
		ShareID:   shareID,
		Username:  username,
		Result:    result,
		CreatedAt: createdAt,
	}, nil
}
