// Package analytics derives performance statistics from quiz history. All
// computation is pure: the aggregator never mutates its inputs and never
// persists anything.
package analytics

import (
	"math"

	"github.com/quizgenius/backend/internal/models"
)

const recentWindow = 5

// ComputeStats aggregates a user's quiz history together with the flashcard
// and study-note counts that feed the study-time estimate. An empty history
// yields zero-valued stats (the streak is passed through).
func ComputeStats(history []models.QuizResult, flashCards, studyNotes, streak int) models.PerformanceStats {
	stats := models.PerformanceStats{
		QuizzesByTopic:        map[string]int{},
		ScoresByDifficulty:    map[models.Difficulty]int{},
		CorrectByQuestionType: map[models.QuestionType]float64{},
		RecentScores:          []int{},
		Streak:                streak,
	}
	if len(history) == 0 {
		return stats
	}

	stats.TotalQuizzes = len(history)

	var (
		totalCorrect   int
		totalQuestions int
		totalTime      float64
	)
	diffCorrect := map[models.Difficulty]int{}
	diffTotal := map[models.Difficulty]int{}
	typeCorrect := map[models.QuestionType]int{}
	typeTotal := map[models.QuestionType]int{}

	for _, result := range history {
		totalCorrect += result.CorrectAnswers
		totalQuestions += result.TotalQuestions
		totalTime += result.TotalTimeSeconds

		if score := result.ScorePercent(); score > stats.BestScore {
			stats.BestScore = score
		}
		if result.TopicID != "" {
			stats.QuizzesByTopic[result.TopicID]++
		}

		// Join answers back to their questions for the per-difficulty
		// and per-type breakdowns.
		byID := make(map[string]models.Question, len(result.Questions))
		for _, q := range result.Questions {
			byID[q.ID] = q
		}
		for _, a := range result.Answers {
			q, ok := byID[a.QuestionID]
			if !ok {
				continue
			}
			diffTotal[q.Difficulty]++
			typeTotal[q.Type]++
			if a.Correct {
				diffCorrect[q.Difficulty]++
				typeCorrect[q.Type]++
			}
		}
	}

	stats.AverageScore = models.Percentage(totalCorrect, totalQuestions)
	if totalQuestions > 0 {
		stats.TimePerQuestion = int(math.Round(totalTime / float64(totalQuestions)))
	}

	for diff, total := range diffTotal {
		stats.ScoresByDifficulty[diff] = models.Percentage(diffCorrect[diff], total)
	}
	for qt, total := range typeTotal {
		stats.CorrectByQuestionType[qt] = float64(typeCorrect[qt]) / float64(total) * 100
	}

	// Last five scores, oldest first.
	start := len(history) - recentWindow
	if start < 0 {
		start = 0
	}
	for _, result := range history[start:] {
		stats.RecentScores = append(stats.RecentScores, result.ScorePercent())
	}

	// Quiz time in minutes, plus a flat estimate per flashcard and note.
	stats.TotalStudyTimeMinutes = int(math.Round(totalTime/60)) + flashCards*2 + studyNotes*3

	return stats
}
