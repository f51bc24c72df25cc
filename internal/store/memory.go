package store

import (
	"sync"

	"github.com/quizgenius/backend/internal/models"
)

// MemoryFactory keeps all user state in process memory. Default when no
// Redis address is configured, and the backing for unit tests.
type MemoryFactory struct {
	mu     sync.Mutex
	stores map[string]*MemoryStore
}

func NewMemoryFactory() *MemoryFactory {
	return &MemoryFactory{stores: make(map[string]*MemoryStore)}
}

func (f *MemoryFactory) ForUser(userID string) Store {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.stores[userID]; ok {
		return s
	}
	s := NewMemoryStore()
	f.stores[userID] = s
	return s
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu           sync.RWMutex
	history      []models.QuizResult
	flashCards   []models.FlashCard
	studyNotes   []models.StudyNote
	preferences  *models.Preferences
	profile      *models.Profile
	streak       int
	achievements []models.Achievement
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadHistory() ([]models.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.QuizResult(nil), s.history...), nil
}

func (s *MemoryStore) AppendHistory(result models.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, result)
	return nil
}

func (s *MemoryStore) LoadFlashCards() ([]models.FlashCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.FlashCard(nil), s.flashCards...), nil
}

func (s *MemoryStore) SaveFlashCards(cards []models.FlashCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashCards = append([]models.FlashCard(nil), cards...)
	return nil
}

func (s *MemoryStore) LoadStudyNotes() ([]models.StudyNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.StudyNote(nil), s.studyNotes...), nil
}

func (s *MemoryStore) SaveStudyNotes(notes []models.StudyNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.studyNotes = append([]models.StudyNote(nil), notes...)
	return nil
}

func (s *MemoryStore) LoadPreferences() (models.Preferences, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.preferences == nil {
		return models.Preferences{}, false, nil
	}
	return *s.preferences, true, nil
}

func (s *MemoryStore) SavePreferences(prefs models.Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences = &prefs
	return nil
}

func (s *MemoryStore) LoadProfile() (models.Profile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return models.Profile{}, false, nil
	}
	return *s.profile, true, nil
}

func (s *MemoryStore) SaveProfile(profile models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &profile
	return nil
}

func (s *MemoryStore) LoadStreak() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.streak, nil
}

func (s *MemoryStore) SaveStreak(days int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streak = days
	return nil
}

func (s *MemoryStore) LoadAchievements() ([]models.Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Achievement(nil), s.achievements...), nil
}

func (s *MemoryStore) SaveAchievements(achievements []models.Achievement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.achievements = append([]models.Achievement(nil), achievements...)
	return nil
}
