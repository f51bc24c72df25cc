// Package quiz wires the generator, session store, persistence port and
// gamification together behind the HTTP surface: it owns the lifecycle of a
// quiz from "start from topic/document" through answering to the completion
// side effects.
package quiz

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/quizgenius/backend/internal/gamification"
	"github.com/quizgenius/backend/internal/generator"
	"github.com/quizgenius/backend/internal/models"
	"github.com/quizgenius/backend/internal/session"
	"github.com/quizgenius/backend/internal/store"
)

// ErrSessionNotFound is returned for operations against an unknown or
// already torn-down session id.
var ErrSessionNotFound = errors.New("quiz session not found")

// generationTimeout bounds how long a streaming generation may run after
// the session starts.
const generationTimeout = 5 * time.Minute

var _ session.QuestionSource = (*generator.Stream)(nil)

type Service struct {
	sessions *session.Manager
	gen      *generator.Generator
	gam      *gamification.Service
	stores   store.Factory
	shares   *ShareStore

	mu      sync.Mutex
	entries map[string]*entry
}

// entry tracks per-session orchestration state the session itself does not
// know about: who is playing, the streaming cancel handle, and the
// completion outcome once gamification has run.
type entry struct {
	userID  string
	profile models.Profile
	cancel  context.CancelFunc

	mu      sync.Mutex
	outcome *models.CompletionOutcome
}

func NewService(sessions *session.Manager, gen *generator.Generator, gam *gamification.Service, stores store.Factory, shares *ShareStore) *Service {
	return &Service{
		sessions: sessions,
		gen:      gen,
		gam:      gam,
		stores:   stores,
		shares:   shares,
		entries:  make(map[string]*entry),
	}
}

// StartFromTopic creates a session for a topic quiz and begins streaming
// generated questions into it. The session is returned immediately; questions
// arrive as the model produces them.
func (s *Service) StartFromTopic(profile models.Profile, userID, topicID, additionalDetails string, settings models.QuizSettings) (*session.Session, error) {
	req := generator.Request{
		Topic:             topicName(topicID),
		AdditionalDetails: additionalDetails,
		Settings:          settings,
	}
	return s.start(profile, userID, topicID, req, settings)
}

// StartFromDocument creates a session seeded from extracted document text.
func (s *Service) StartFromDocument(profile models.Profile, userID string, doc *models.DocumentContent, settings models.QuizSettings) (*session.Session, error) {
	if settings.Title == "" {
		settings.Title = doc.Filename
	}
	req := generator.Request{
		Content:  doc.Text,
		Settings: settings,
	}
	return s.start(profile, userID, "", req, settings)
}

func (s *Service) start(profile models.Profile, userID, topicID string, req generator.Request, settings models.QuizSettings) (*session.Session, error) {
	sess := s.sessions.Create(settings)
	if topicID != "" {
		sess.SetTopicID(topicID)
	}

	e := &entry{userID: userID, profile: profile}
	sess.SetOnComplete(func(result *models.QuizResult) {
		s.onComplete(e, sess.ID(), result)
	})

	s.mu.Lock()
	s.entries[sess.ID()] = e
	s.mu.Unlock()

	sess.Start()

	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	e.cancel = cancel
	stream := s.gen.GenerateStream(ctx, req)
	go func() {
		defer cancel()
		if err := sess.Ingest(ctx, stream); err != nil {
			log.Printf("[quiz] session %s: question stream ended with error: %v", sess.ID(), err)
		}
	}()

	return sess, nil
}

// onComplete runs the completion side effects. The session guarantees it is
// invoked at most once per quiz run.
func (s *Service) onComplete(e *entry, sessionID string, result *models.QuizResult) {
	st := s.stores.ForUser(e.userID)
	outcome, err := s.gam.OnQuizCompleted(st, e.profile, result)
	if err != nil {
		log.Printf("[quiz] session %s: recording completion failed: %v", sessionID, err)
		outcome = &models.CompletionOutcome{Result: result, AchievementsUnlocked: []string{}}
	}
	e.mu.Lock()
	e.outcome = outcome
	e.mu.Unlock()
}

// Get returns a live session by id.
func (s *Service) Get(id string) (*session.Session, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Answer scores a submission against the session's current question.
func (s *Service) Answer(id string, answer models.AnswerValue, timeSpentSeconds float64) (models.Answer, bool, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return models.Answer{}, false, ErrSessionNotFound
	}
	ans, accepted := sess.AnswerQuestion(answer, timeSpentSeconds)
	return ans, accepted, nil
}

// Advance moves the session to the next question, completing the quiz when
// past the last one.
func (s *Service) Advance(id string) error {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return ErrSessionNotFound
	}
	sess.NextQuestion()
	return nil
}

// Complete finalizes the quiz and returns the completion outcome. Repeat
// calls return the already-recorded outcome without re-running side effects.
func (s *Service) Complete(id string) (*models.CompletionOutcome, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.Complete()

	s.mu.Lock()
	e := s.entries[id]
	s.mu.Unlock()
	if e == nil {
		return nil, ErrSessionNotFound
	}

	e.mu.Lock()
	outcome := e.outcome
	e.mu.Unlock()
	if outcome == nil {
		// Completion was a no-op (still streaming with the index held, or
		// the quiz never became active). Report current state only.
		return &models.CompletionOutcome{Result: sess.Result(), AchievementsUnlocked: []string{}}, nil
	}
	return outcome, nil
}

// End tears the session down and cancels any in-flight generation.
func (s *Service) End(id string) {
	s.mu.Lock()
	e := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	if e != nil && e.cancel != nil {
		e.cancel()
	}
	s.sessions.Delete(id)
}

func topicName(topicID string) string {
	for _, t := range models.DefaultTopics {
		if t.ID == topicID {
			return t.Name
		}
	}
	return topicID
}
