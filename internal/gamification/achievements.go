package gamification

import "github.com/quizgenius/backend/internal/models"

// AchievementDef defines a single achievement.
type AchievementDef struct {
	Name string
	Icon string
}

// Achievements maps achievement ids to their definitions.
var Achievements = map[string]AchievementDef{
	"first_quiz":    {Name: "First Steps", Icon: "award"},
	"perfect_score": {Name: "Perfect Score", Icon: "trophy"},
	"streak_3":      {Name: "3-Day Streak", Icon: "zap"},
	"streak_7":      {Name: "Weekly Warrior", Icon: "flame"},
	"quiz_10":       {Name: "Quiz Enthusiast", Icon: "medal"},
	"all_topics":    {Name: "Knowledge Master", Icon: "brain"},
}

// achievementOrder fixes the display order.
var achievementOrder = []string{
	"first_quiz", "perfect_score", "streak_3", "streak_7", "quiz_10", "all_topics",
}

// DefaultAchievements returns the full locked set for a new user.
func DefaultAchievements() []models.Achievement {
	out := make([]models.Achievement, 0, len(achievementOrder))
	for _, id := range achievementOrder {
		def := Achievements[id]
		out = append(out, models.Achievement{ID: id, Name: def.Name, Icon: def.Icon})
	}
	return out
}

// CheckUnlocks returns achievement ids qualified by this completion. Each
// predicate is evaluated independently; the caller only flips ids that are
// still locked, so unlocking stays monotonic.
//
// priorHistory is the history before this result was appended; streak is
// the value after this completion's streak update.
func CheckUnlocks(priorHistory []models.QuizResult, result *models.QuizResult, streak int) []string {
	var unlocked []string

	if len(priorHistory) == 0 {
		unlocked = append(unlocked, "first_quiz")
	}

	if result.TotalQuestions > 0 && result.CorrectAnswers == result.TotalQuestions {
		unlocked = append(unlocked, "perfect_score")
	}

	// History length 9 before append means this is the 10th quiz.
	if len(priorHistory) == 9 {
		unlocked = append(unlocked, "quiz_10")
	}

	if streak == 3 {
		unlocked = append(unlocked, "streak_3")
	}
	if streak == 7 {
		unlocked = append(unlocked, "streak_7")
	}

	if coversAllTopics(priorHistory, result) {
		unlocked = append(unlocked, "all_topics")
	}

	return unlocked
}

// coversAllTopics reports whether completed quizzes now span every built-in
// topic.
func coversAllTopics(priorHistory []models.QuizResult, result *models.QuizResult) bool {
	covered := make(map[string]bool, len(models.DefaultTopics))
	for _, r := range priorHistory {
		if r.TopicID != "" {
			covered[r.TopicID] = true
		}
	}
	if result.TopicID != "" {
		covered[result.TopicID] = true
	}
	for _, topic := range models.DefaultTopics {
		if !covered[topic.ID] {
			return false
		}
	}
	return true
}

// ApplyUnlocks flips the given ids to unlocked, never the reverse. Missing
// ids are appended so older persisted sets pick up new achievements.
func ApplyUnlocks(achievements []models.Achievement, ids []string) []models.Achievement {
	if len(achievements) == 0 {
		achievements = DefaultAchievements()
	}
	index := make(map[string]int, len(achievements))
	for i, a := range achievements {
		index[a.ID] = i
	}
	for _, id := range ids {
		if i, ok := index[id]; ok {
			achievements[i].Unlocked = true
			continue
		}
		def, ok := Achievements[id]
		if !ok {
			continue
		}
		achievements = append(achievements, models.Achievement{ID: id, Name: def.Name, Icon: def.Icon, Unlocked: true})
	}
	return achievements
}
