package session

import (
	"context"

	"github.com/quizgenius/backend/internal/models"
)

// QuestionSource is the streaming contract the session consumes: batches of
// questions as they become available, then a final set and terminal error.
// generator.Stream satisfies it.
type QuestionSource interface {
	Batches() <-chan []models.Question
	Wait() ([]models.Question, error)
}

// Ingest consumes a question source, appending questions in delivery order
// until the source finishes or ctx is cancelled. The streaming flag is held
// for the whole consumption so NextQuestion applies backpressure instead of
// running off the end of a still-growing list.
//
// Questions appended before a mid-stream failure are kept; the error only
// reports the shortfall. Cancellation stops consumption deterministically —
// after Ingest returns, nothing further mutates the session.
func (s *Session) Ingest(ctx context.Context, src QuestionSource) error {
	s.beginStreaming()
	defer s.finishStreaming()

	for {
		select {
		case batch, ok := <-src.Batches():
			if !ok {
				_, err := src.Wait()
				return err
			}
			for _, q := range batch {
				s.AddQuestion(q)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Session) beginStreaming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.streaming = true
}

func (s *Session) finishStreaming() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaming = false
}
