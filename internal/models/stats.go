package models

// PerformanceStats is derived on demand from quiz history plus flashcard and
// study-note counts. It is never persisted.
type PerformanceStats struct {
	TotalQuizzes          int                      `json:"total_quizzes"`
	AverageScore          int                      `json:"average_score"`
	BestScore             int                      `json:"best_score"`
	QuizzesByTopic        map[string]int           `json:"quizzes_by_topic"`
	ScoresByDifficulty    map[Difficulty]int       `json:"scores_by_difficulty"`
	TimePerQuestion       int                      `json:"time_per_question_seconds"`
	CorrectByQuestionType map[QuestionType]float64 `json:"correct_by_question_type"`
	RecentScores          []int                    `json:"recent_scores"`
	Streak                int                      `json:"streak"`
	TotalStudyTimeMinutes int                      `json:"total_study_time_minutes"`
}
