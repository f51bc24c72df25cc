package models

import "time"

// ── Core Gamification Structs ─────────────────────────────

// Achievement is a one-way unlockable milestone flag. Unlocked is flipped
// exactly once, on the quiz completion that satisfies its predicate, and is
// never re-locked.
type Achievement struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	Unlocked bool   `json:"unlocked"`
}

// LeaderboardEntry is one topic leaderboard row. The collection is kept
// sorted by score descending, time ascending, and capped at 100 entries.
type LeaderboardEntry struct {
	UserID           string    `json:"user_id"`
	Username         string    `json:"username"`
	Avatar           string    `json:"avatar,omitempty"`
	Score            int       `json:"score"`
	TimeSpentSeconds float64   `json:"time_spent_seconds"`
	Date             time.Time `json:"date"`
	TopicID          string    `json:"topic_id"`
}

// FlashCard is a study aid counted into the study-time estimate.
type FlashCard struct {
	ID              string     `json:"id"`
	Front           string     `json:"front"`
	Back            string     `json:"back"`
	Topic           string     `json:"topic"`
	LastReviewed    *time.Time `json:"last_reviewed,omitempty"`
	NextReviewDue   *time.Time `json:"next_review_due,omitempty"`
	ConfidenceLevel int        `json:"confidence_level,omitempty"` // 1-5 for spaced repetition
}

// StudyNote is a free-form note attached to a question.
type StudyNote struct {
	QuestionID string    `json:"question_id"`
	Note       string    `json:"note"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Profile is the persisted user identity shown on leaderboards.
type Profile struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// Preferences are the persisted user defaults for new quizzes.
type Preferences struct {
	EnableSound          bool           `json:"enable_sound"`
	DefaultDifficulty    Difficulty     `json:"default_difficulty"`
	DefaultQuestionTypes []QuestionType `json:"default_question_types"`
}

// ── Completion Side Effects ───────────────────────────────

// CompletionOutcome summarizes what a single quiz completion changed.
type CompletionOutcome struct {
	Result               *QuizResult `json:"result"`
	Streak               int         `json:"streak"`
	AchievementsUnlocked []string    `json:"achievements_unlocked"`
	LeaderboardRank      int         `json:"leaderboard_rank,omitempty"` // 1-based; 0 when no topic
}
