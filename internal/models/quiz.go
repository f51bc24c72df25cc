package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeTrueFalse      QuestionType = "true-false"
	TypeShortAnswer    QuestionType = "short-answer"
)

var ValidQuestionTypes = map[QuestionType]bool{
	TypeMultipleChoice: true,
	TypeTrueFalse:      true,
	TypeShortAnswer:    true,
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var ValidDifficulties = map[Difficulty]bool{
	DifficultyEasy:   true,
	DifficultyMedium: true,
	DifficultyHard:   true,
}

// AnswerValue is either a single answer or a multi-select answer set.
// On the wire it is a JSON string or a JSON array of strings.
type AnswerValue []string

func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*a = AnswerValue{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("answer must be a string or an array of strings")
	}
	*a = AnswerValue(list)
	return nil
}

func (a AnswerValue) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	return json.Marshal([]string(a))
}

// Matches reports whether a submission satisfies this correct answer.
// Single-value answers require exact string equality; multi-value answers
// require the same number of values with identical membership, order ignored.
func (a AnswerValue) Matches(submitted AnswerValue) bool {
	if len(a) == 1 && len(submitted) == 1 {
		return a[0] == submitted[0]
	}
	if len(a) != len(submitted) {
		return false
	}
	have := make(map[string]bool, len(submitted))
	for _, v := range submitted {
		have[v] = true
	}
	for _, v := range a {
		if !have[v] {
			return false
		}
	}
	return true
}

// ── Core Structs ───────────────────────────────────────

// Question is one quiz item. Immutable once created.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"text"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer AnswerValue  `json:"correct_answer"`
	Explanation   string       `json:"explanation,omitempty"`
	Hint          string       `json:"hint,omitempty"`
	Difficulty    Difficulty   `json:"difficulty"`
	Topic         string       `json:"topic,omitempty"`
}

// QuizSettings configures one quiz. Read-only while the quiz is active.
type QuizSettings struct {
	Title            string         `json:"title"`
	Description      string         `json:"description,omitempty"`
	Topic            string         `json:"topic,omitempty"`
	NumQuestions     int            `json:"num_questions"`
	Difficulty       Difficulty     `json:"difficulty"`
	TimeLimitSeconds int            `json:"time_limit_seconds,omitempty"` // per question; 0 means untimed
	QuestionTypes    []QuestionType `json:"question_types"`
	EnableSound      bool           `json:"enable_sound"`
	StudyMode        bool           `json:"study_mode"`
	ShowHints        bool           `json:"show_hints"`
}

func DefaultQuizSettings() QuizSettings {
	return QuizSettings{
		Title:         "New Quiz",
		NumQuestions:  5,
		Difficulty:    DifficultyMedium,
		QuestionTypes: []QuestionType{TypeMultipleChoice, TypeTrueFalse},
		EnableSound:   true,
	}
}

// Answer records a user's response to one question. Created exactly once
// per answered question and never mutated afterwards.
type Answer struct {
	QuestionID       string      `json:"question_id"`
	UserAnswer       AnswerValue `json:"user_answer"`
	CorrectAnswer    AnswerValue `json:"correct_answer"`
	Correct          bool        `json:"correct"`
	TimeSpentSeconds float64     `json:"time_spent_seconds"`
	AttemptCount     int         `json:"attempt_count"`
}

// QuizResult is the outcome of one quiz. It accumulates answers while the
// quiz is active, is finalized on completion, and is immutable once appended
// to history. Questions snapshots the question list so per-type and
// per-difficulty stats can be joined back after the session is gone.
type QuizResult struct {
	QuizID           string     `json:"quiz_id"`
	Title            string     `json:"title"`
	TotalQuestions   int        `json:"total_questions"`
	CorrectAnswers   int        `json:"correct_answers"`
	IncorrectAnswers int        `json:"incorrect_answers"`
	SkippedQuestions int        `json:"skipped_questions"`
	TotalTimeSeconds float64    `json:"total_time_seconds"`
	Answers          []Answer   `json:"answers"`
	Questions        []Question `json:"questions,omitempty"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	TopicID          string     `json:"topic_id,omitempty"`
	ShareID          string     `json:"share_id,omitempty"`
}

// ScorePercent is the result's score as a rounded percentage.
func (r *QuizResult) ScorePercent() int {
	return Percentage(r.CorrectAnswers, r.TotalQuestions)
}

// Percentage returns round(100 * part / whole), 0 when whole is 0.
func Percentage(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(float64(part)/float64(whole)*100 + 0.5)
}

// DocumentContent is the extracted form of an uploaded document.
type DocumentContent struct {
	Filename  string `json:"filename"`
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
}

// Topic is a predefined quiz subject.
type Topic struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Difficulty      Difficulty `json:"difficulty,omitempty"`
	PopularityScore int        `json:"popularity_score,omitempty"`
}

// DefaultTopics are the built-in subjects offered when no document is uploaded.
var DefaultTopics = []Topic{
	{ID: "science", Name: "Science", Description: "Questions about physics, chemistry, biology, and more", Difficulty: DifficultyMedium, PopularityScore: 85},
	{ID: "history", Name: "History", Description: "Test your knowledge of historical events and figures", Difficulty: DifficultyMedium, PopularityScore: 75},
	{ID: "technology", Name: "Technology", Description: "Questions about computers, software, and tech innovations", Difficulty: DifficultyHard, PopularityScore: 90},
	{ID: "literature", Name: "Literature", Description: "Questions about books, authors, and literary works", Difficulty: DifficultyMedium, PopularityScore: 65},
	{ID: "geography", Name: "Geography", Description: "Test your knowledge of countries, capitals, and landmarks", Difficulty: DifficultyEasy, PopularityScore: 70},
	{ID: "mathematics", Name: "Mathematics", Description: "Challenge yourself with math problems and concepts", Difficulty: DifficultyHard, PopularityScore: 60},
	{ID: "arts", Name: "Arts & Culture", Description: "Explore paintings, music, theater, and cultural heritage", Difficulty: DifficultyMedium, PopularityScore: 55},
	{ID: "sports", Name: "Sports", Description: "Test your knowledge about athletes, teams, and sporting events", Difficulty: DifficultyEasy, PopularityScore: 80},
}
