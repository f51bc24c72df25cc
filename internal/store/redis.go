package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/quizgenius/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisFactory stores user state as JSON values under per-user keys.
type RedisFactory struct {
	client *redis.Client
}

func NewRedisFactory(client *redis.Client) *RedisFactory {
	return &RedisFactory{client: client}
}

func (f *RedisFactory) ForUser(userID string) Store {
	return &RedisStore{client: f.client, prefix: "quizgenius:" + userID + ":"}
}

// RedisStore is a Redis-backed implementation of Store. Each logical field
// is one key holding a JSON blob; history is a Redis list so appends never
// rewrite existing entries.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func (s *RedisStore) key(name string) string {
	return s.prefix + name
}

func (s *RedisStore) LoadHistory() ([]models.QuizResult, error) {
	raw, err := s.client.LRange(context.Background(), s.key("history"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	history := make([]models.QuizResult, 0, len(raw))
	for _, item := range raw {
		var r models.QuizResult
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		history = append(history, r)
	}
	return history, nil
}

func (s *RedisStore) AppendHistory(result models.QuizResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := s.client.RPush(context.Background(), s.key("history"), data).Err(); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadFlashCards() ([]models.FlashCard, error) {
	var cards []models.FlashCard
	ok, err := s.loadJSON("flashcards", &cards)
	if err != nil || !ok {
		return nil, err
	}
	return cards, nil
}

func (s *RedisStore) SaveFlashCards(cards []models.FlashCard) error {
	return s.saveJSON("flashcards", cards)
}

func (s *RedisStore) LoadStudyNotes() ([]models.StudyNote, error) {
	var notes []models.StudyNote
	ok, err := s.loadJSON("notes", &notes)
	if err != nil || !ok {
		return nil, err
	}
	return notes, nil
}

func (s *RedisStore) SaveStudyNotes(notes []models.StudyNote) error {
	return s.saveJSON("notes", notes)
}

func (s *RedisStore) LoadPreferences() (models.Preferences, bool, error) {
	var prefs models.Preferences
	ok, err := s.loadJSON("preferences", &prefs)
	return prefs, ok, err
}

func (s *RedisStore) SavePreferences(prefs models.Preferences) error {
	return s.saveJSON("preferences", prefs)
}

func (s *RedisStore) LoadProfile() (models.Profile, bool, error) {
	var profile models.Profile
	ok, err := s.loadJSON("profile", &profile)
	return profile, ok, err
}

func (s *RedisStore) SaveProfile(profile models.Profile) error {
	return s.saveJSON("profile", profile)
}

func (s *RedisStore) LoadStreak() (int, error) {
	days, err := s.client.Get(context.Background(), s.key("streak")).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load streak: %w", err)
	}
	return days, nil
}

func (s *RedisStore) SaveStreak(days int) error {
	if err := s.client.Set(context.Background(), s.key("streak"), days, 0).Err(); err != nil {
		return fmt.Errorf("save streak: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadAchievements() ([]models.Achievement, error) {
	var achievements []models.Achievement
	ok, err := s.loadJSON("achievements", &achievements)
	if err != nil || !ok {
		return nil, err
	}
	return achievements, nil
}

func (s *RedisStore) SaveAchievements(achievements []models.Achievement) error {
	return s.saveJSON("achievements", achievements)
}

func (s *RedisStore) loadJSON(name string, out any) (bool, error) {
	data, err := s.client.Get(context.Background(), s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load %s: %w", name, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

func (s *RedisStore) saveJSON(name string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := s.client.Set(context.Background(), s.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("save %s: %w", name, err)
	}
	return nil
}
