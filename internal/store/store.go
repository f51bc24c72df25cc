// Package store is the single persistence port for user state. Only the
// durable schema lives here: preferences, quiz history, flashcards, study
// notes, profile, streak, and achievement-unlock state. In-progress quiz
// state (current index, live timers) is deliberately never persisted.
package store

import "github.com/quizgenius/backend/internal/models"

// Store abstracts how one user's state is stored (in-memory, Redis, etc).
type Store interface {
	LoadHistory() ([]models.QuizResult, error)
	// AppendHistory adds a finalized result. History is append-only; entries
	// are immutable once written.
	AppendHistory(result models.QuizResult) error

	LoadFlashCards() ([]models.FlashCard, error)
	SaveFlashCards(cards []models.FlashCard) error

	LoadStudyNotes() ([]models.StudyNote, error)
	SaveStudyNotes(notes []models.StudyNote) error

	LoadPreferences() (models.Preferences, bool, error)
	SavePreferences(prefs models.Preferences) error

	LoadProfile() (models.Profile, bool, error)
	SaveProfile(profile models.Profile) error

	LoadStreak() (int, error)
	SaveStreak(days int) error

	LoadAchievements() ([]models.Achievement, error)
	SaveAchievements(achievements []models.Achievement) error
}

// Factory hands out a Store scoped to one user.
type Factory interface {
	ForUser(userID string) Store
}
