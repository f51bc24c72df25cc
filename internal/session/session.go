// Package session holds the quiz session state machine: the question list,
// the current position, the per-question countdown, and the in-progress
// result. All mutations go through one mutex so re-entrant callers (timer
// fires, streaming appends, user submissions) never interleave.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quizgenius/backend/internal/models"
)

type State string

const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateCompleted State = "completed"
)

// CompletionFunc is invoked exactly once per active→completed transition,
// with the finalized result. It runs outside the session lock.
type CompletionFunc func(result *models.QuizResult)

type Session struct {
	id  string
	now func() time.Time

	mu         sync.Mutex
	state      State
	settings   models.QuizSettings
	topicID    string
	questions  []models.Question
	seen       map[string]bool
	answered   map[string]bool
	index      int
	streaming  bool
	closed     bool
	result     *models.QuizResult
	onComplete CompletionFunc

	timer      *time.Timer
	timerEpoch int
}

func New(settings models.QuizSettings) *Session {
	return NewWithClock(settings, time.Now)
}

// NewWithClock allows deterministic timestamps in tests.
func NewWithClock(settings models.QuizSettings, now func() time.Time) *Session {
	return &Session{
		id:       uuid.NewString(),
		now:      now,
		state:    StateIdle,
		settings: settings,
		seen:     make(map[string]bool),
		answered: make(map[string]bool),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Settings() models.QuizSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Session) QuestionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.questions)
}

func (s *Session) Streaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// CurrentQuestion returns the question at the current index, if available.
func (s *Session) CurrentQuestion() (models.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= len(s.questions) {
		return models.Question{}, false
	}
	return s.questions[s.index], true
}

// Questions returns a copy of the current question list.
func (s *Session) Questions() []models.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Question(nil), s.questions...)
}

// Result returns a copy of the in-progress (or finalized) result, or nil
// before the quiz has started.
func (s *Session) Result() *models.QuizResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyResult(s.result)
}

// SetTopicID associates a topic with the next started quiz.
func (s *Session) SetTopicID(topicID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topicID = topicID
}

// SetOnComplete registers the completion side-effect hook. Must be set
// before Start; later changes are ignored for an active quiz.
func (s *Session) SetOnComplete(fn CompletionFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onComplete = fn
}

// ── Operations ─────────────────────────────────────────

// Start transitions to active with a fresh result. Calling it while a quiz
// is already active resets the in-progress result rather than accumulating.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	now := s.now()
	s.state = StateActive
	s.index = 0
	s.answered = make(map[string]bool)
	s.result = &models.QuizResult{
		QuizID:         uuid.NewString(),
		Title:          s.settings.Title,
		TotalQuestions: len(s.questions),
		Answers:        []models.Answer{},
		StartTime:      now,
		EndTime:        now,
		TopicID:        s.topicID,
	}
	s.armTimerLocked()
}

// SetQuestions replaces the full question list; used when all questions are
// generated up front. The current index is clamped to the new list.
func (s *Session) SetQuestions(questions []models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.questions = append([]models.Question(nil), questions...)
	s.seen = make(map[string]bool, len(questions))
	for _, q := range questions {
		s.seen[q.ID] = true
	}
	if s.index >= len(s.questions) && s.index > 0 {
		s.index = len(s.questions) - 1
		if s.index < 0 {
			s.index = 0
		}
	}
	if s.result != nil && s.state == StateActive {
		s.result.TotalQuestions = len(s.questions)
	}
}

// AddQuestion appends one question. Arrival order defines quiz order;
// questions whose id was already appended are dropped, so overlapping
// partial batches from the adapter cannot produce duplicates.
func (s *Session) AddQuestion(q models.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if s.seen[q.ID] {
		return
	}
	s.seen[q.ID] = true
	s.questions = append(s.questions, q)
	if s.result != nil && s.state == StateActive {
		s.result.TotalQuestions = len(s.questions)
	}
}

// AnswerQuestion scores a submission against the current question. It is a
// no-op (ok=false) outside the active state, past the end of the list, or
// when the current question was already answered — late and duplicate
// submissions happen when the timer races the user.
func (s *Session) AnswerQuestion(answer models.AnswerValue, timeSpentSeconds float64) (models.Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != StateActive || s.result == nil || s.index >= len(s.questions) {
		return models.Answer{}, false
	}
	q := s.questions[s.index]
	if s.answered[q.ID] {
		return models.Answer{}, false
	}

	ans := models.Answer{
		QuestionID:       q.ID,
		UserAnswer:       answer,
		CorrectAnswer:    q.CorrectAnswer,
		Correct:          q.CorrectAnswer.Matches(answer),
		TimeSpentSeconds: timeSpentSeconds,
		AttemptCount:     1,
	}
	s.answered[q.ID] = true
	s.result.Answers = append(s.result.Answers, ans)
	if ans.Correct {
		s.result.CorrectAnswers++
	} else {
		s.result.IncorrectAnswers++
	}
	return ans, true
}

// NextQuestion advances the index. While streaming is active and no further
// question is available yet, the position holds (backpressure against the
// producer). Once ingestion has finished, advancing past the last question
// completes the quiz.
func (s *Session) NextQuestion() {
	s.mu.Lock()
	if s.closed || s.state != StateActive {
		s.mu.Unlock()
		return
	}
	res := s.advanceLocked()
	fn := s.onComplete
	s.mu.Unlock()
	if res != nil && fn != nil {
		fn(res)
	}
}

// Complete finalizes the quiz. Idempotent: the second call reports ok=false
// and triggers no side effects.
func (s *Session) Complete() (*models.QuizResult, bool) {
	s.mu.Lock()
	res := s.completeLocked()
	fn := s.onComplete
	s.mu.Unlock()
	if res == nil {
		return nil, false
	}
	if fn != nil {
		fn(res)
	}
	return res, true
}

// Close tears the session down. Every later mutation, timer fire, or
// streaming callback against this session becomes a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.streaming = false
	s.stopTimerLocked()
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// ── Internals (callers hold s.mu) ──────────────────────

func (s *Session) advanceLocked() *models.QuizResult {
	next := s.index + 1
	if next >= len(s.questions) {
		if s.streaming {
			// Hold position until the producer delivers more or finishes.
			return nil
		}
		return s.completeLocked()
	}
	s.index = next
	s.armTimerLocked()
	return nil
}

func (s *Session) completeLocked() *models.QuizResult {
	if s.state != StateActive || s.result == nil {
		return nil
	}
	s.stopTimerLocked()
	s.streaming = false

	now := s.now()
	r := s.result
	r.EndTime = now
	r.TotalTimeSeconds = now.Sub(r.StartTime).Seconds()
	r.TotalQuestions = len(s.questions)
	skipped := r.TotalQuestions - r.CorrectAnswers - r.IncorrectAnswers
	if skipped < 0 {
		skipped = 0
	}
	r.SkippedQuestions = skipped
	r.Questions = append([]models.Question(nil), s.questions...)

	s.state = StateCompleted
	return copyResult(r)
}

func (s *Session) armTimerLocked() {
	s.stopTimerLocked()
	if s.settings.TimeLimitSeconds <= 0 || s.state != StateActive {
		return
	}
	s.timerEpoch++
	epoch := s.timerEpoch
	s.timer = time.AfterFunc(time.Duration(s.settings.TimeLimitSeconds)*time.Second, func() {
		s.timerFired(epoch)
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// timerFired skips the current question when its countdown expires. The
// quiz continues; only the one question is lost.
func (s *Session) timerFired(epoch int) {
	s.mu.Lock()
	if s.closed || s.state != StateActive || epoch != s.timerEpoch {
		s.mu.Unlock()
		return
	}
	res := s.advanceLocked()
	fn := s.onComplete
	s.mu.Unlock()
	if res != nil && fn != nil {
		fn(res)
	}
}

func copyResult(r *models.QuizResult) *models.QuizResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Answers = append([]models.Answer(nil), r.Answers...)
	out.Questions = append([]models.Question(nil), r.Questions...)
	return &out
}
