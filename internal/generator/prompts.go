package generator

import (
	"fmt"
	"strings"

	"github.com/quizgenius/backend/internal/models"
)

// maxContentChars bounds how much document text is sent upstream.
const maxContentChars = 15000

func SystemPrompt() string {
	return `You are an expert quiz author. You write clear, unambiguous quiz questions with exactly one defensible correct answer per question.

You always respond with a single JSON array of question objects and nothing else — no prose, no markdown fences. Each object has these keys:
  "text": the question text
  "type": one of "multiple-choice", "true-false", "short-answer"
  "options": array of 4 distinct options (multiple-choice only; use ["True","False"] for true-false)
  "correctAnswer": the correct answer as a string, or an array of strings for multi-select questions
  "explanation": a 2-3 sentence explanation of the answer
  "hint": optional short hint
  "difficulty": one of "easy", "medium", "hard"

Emit complete question objects one after another so partial output is still parseable.`
}

// BuildContentPrompt builds the user prompt for document-based generation.
func BuildContentPrompt(content string, settings models.QuizSettings) string {
	truncated := content
	if len(truncated) > maxContentChars {
		truncated = truncated[:maxContentChars]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d quiz questions based on the following content.\n\n", settings.NumQuestions)
	fmt.Fprintf(&sb, "Content:\n%s\n\n", truncated)
	writeSettings(&sb, settings)
	if settings.Topic != "" {
		fmt.Fprintf(&sb, "Focus on the topic: %s\n", settings.Topic)
	}
	return sb.String()
}

// BuildTopicPrompt builds the user prompt for topic-based generation.
func BuildTopicPrompt(topic string, additionalDetails string, settings models.QuizSettings) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate %d quiz questions about %q.\n", settings.NumQuestions, topic)
	if additionalDetails != "" {
		fmt.Fprintf(&sb, "Additional context: %s\n", additionalDetails)
	}
	sb.WriteString("\n")
	writeSettings(&sb, settings)
	return sb.String()
}

func writeSettings(sb *strings.Builder, settings models.QuizSettings) {
	types := make([]string, len(settings.QuestionTypes))
	for i, t := range settings.QuestionTypes {
		types[i] = string(t)
	}
	fmt.Fprintf(sb, "Quiz settings:\n")
	fmt.Fprintf(sb, "- Question types: %s\n", strings.Join(types, ", "))
	fmt.Fprintf(sb, "- Difficulty level: %s\n", settings.Difficulty)
	if settings.ShowHints {
		fmt.Fprintf(sb, "- Include a hint for every question\n")
	}
	fmt.Fprintf(sb, "Keep question text and options concise (under 150 characters each).\n")
}
