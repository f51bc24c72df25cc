package gamification

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/quizgenius/backend/internal/models"
	"github.com/quizgenius/backend/internal/store"
)

// Service applies the completion side effects of a finished quiz: history
// append, streak update, achievement unlocks, leaderboard insertion. The
// leaderboard is held in memory only.
type Service struct {
	now func() time.Time

	mu          sync.Mutex
	leaderboard []models.LeaderboardEntry
}

func NewService() *Service {
	return NewServiceWithClock(time.Now)
}

// NewServiceWithClock lets tests pin the streak clock.
func NewServiceWithClock(now func() time.Time) *Service {
	return &Service{now: now}
}

// OnQuizCompleted records the result for one user and returns the updated
// streak, any newly unlocked achievements, and the leaderboard rank (0 when
// the quiz had no topic). The caller guarantees it is invoked at most once
// per quiz.
func (s *Service) OnQuizCompleted(st store.Store, profile models.Profile, result *models.QuizResult) (*models.CompletionOutcome, error) {
	prior, err := st.LoadHistory()
	if err != nil {
		return nil, fmt.Errorf("loading quiz history: %w", err)
	}

	streak, err := st.LoadStreak()
	if err != nil {
		return nil, fmt.Errorf("loading streak: %w", err)
	}
	var lastCompleted *time.Time
	if len(prior) > 0 {
		t := prior[len(prior)-1].EndTime
		lastCompleted = &t
	}
	streak = UpdateStreak(streak, lastCompleted, s.now())

	unlocked := CheckUnlocks(prior, result, streak)

	if err := st.AppendHistory(*result); err != nil {
		return nil, fmt.Errorf("appending quiz history: %w", err)
	}
	if err := st.SaveStreak(streak); err != nil {
		return nil, fmt.Errorf("saving streak: %w", err)
	}

	achievements, err := st.LoadAchievements()
	if err != nil {
		return nil, fmt.Errorf("loading achievements: %w", err)
	}
	if len(achievements) == 0 {
		achievements = DefaultAchievements()
	}
	achievements = ApplyUnlocks(achievements, unlocked)
	if err := st.SaveAchievements(achievements); err != nil {
		return nil, fmt.Errorf("saving achievements: %w", err)
	}
	if len(unlocked) > 0 {
		log.Printf("[gamification] user %s unlocked %v", profile.Username, unlocked)
	}

	rank := 0
	if result.TopicID != "" {
		entry := models.LeaderboardEntry{
			UserID:           profile.Username,
			Username:         profile.Username,
			Avatar:           profile.Avatar,
			Score:            result.ScorePercent(),
			TimeSpentSeconds: result.TotalTimeSeconds,
			Date:             result.EndTime,
			TopicID:          result.TopicID,
		}
		s.mu.Lock()
		s.leaderboard = InsertEntry(s.leaderboard, entry)
		rank = Rank(s.leaderboard, entry.UserID, entry.TopicID)
		s.mu.Unlock()
	}

	return &models.CompletionOutcome{
		Result:               result,
		Streak:               streak,
		AchievementsUnlocked: unlocked,
		LeaderboardRank:      rank,
	}, nil
}

// Leaderboard returns the top entries for a topic, highest score first.
func (s *Service) Leaderboard(topicID string, limit int) []models.LeaderboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return TopForTopic(s.leaderboard, topicID, limit)
}
