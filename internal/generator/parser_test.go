package generator

import (
	"errors"
	"strings"
	"testing"

	"github.com/quizgenius/backend/internal/models"
)

func testSettings() models.QuizSettings {
	return models.QuizSettings{
		Topic:         "Science",
		NumQuestions:  5,
		Difficulty:    models.DifficultyMedium,
		QuestionTypes: []models.QuestionType{models.TypeMultipleChoice},
	}
}

func TestParseQuestions(t *testing.T) {
	body := "```json\n" + `[
		{"text": "What is H2O?", "type": "multiple-choice", "options": ["Water", "Salt", "Sugar", "Air"], "correctAnswer": "Water", "explanation": "H2O is water.", "difficulty": "easy"},
		{"text": "The sun is a star.", "type": "true or false", "correctAnswer": "True", "explanation": "It is.", "difficulty": "easy"}
	]` + "\n```"

	questions, err := ParseQuestions(body, testSettings())
	if err != nil {
		t.Fatalf("ParseQuestions failed: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}

	if questions[0].Type != models.TypeMultipleChoice {
		t.Errorf("expected multiple-choice, got %s", questions[0].Type)
	}
	if questions[0].ID == "" {
		t.Error("expected generated question id")
	}
	if len(questions[0].Options) != 4 {
		t.Errorf("expected 4 options, got %d", len(questions[0].Options))
	}
	if questions[0].Topic != "Science" {
		t.Errorf("expected topic from settings, got %q", questions[0].Topic)
	}

	if questions[1].Type != models.TypeTrueFalse {
		t.Errorf("expected true-false from 'true or false', got %s", questions[1].Type)
	}
	if len(questions[1].Options) != 2 {
		t.Errorf("expected True/False options, got %v", questions[1].Options)
	}
}

func TestParseQuestionsDropsMalformed(t *testing.T) {
	body := `[
		{"text": "", "correctAnswer": "x"},
		{"text": "No answer here", "type": "short-answer"},
		{"text": "Valid one", "type": "short-answer", "correctAnswer": "yes", "difficulty": "hard"}
	]`

	questions, err := ParseQuestions(body, testSettings())
	if err != nil {
		t.Fatalf("ParseQuestions failed: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 valid question, got %d", len(questions))
	}
	if questions[0].Text != "Valid one" {
		t.Errorf("unexpected question: %q", questions[0].Text)
	}
	if questions[0].Difficulty != models.DifficultyHard {
		t.Errorf("expected hard difficulty, got %s", questions[0].Difficulty)
	}
}

func TestParseQuestionsErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no array", "I could not generate questions for this content."},
		{"invalid json", "[{broken}]"},
		{"empty array", "[]"},
		{"all malformed", `[{"text": ""}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuestions(tt.body, testSettings())
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrGeneration) {
				t.Errorf("expected ErrGeneration, got %v", err)
			}
		})
	}
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		raw  string
		want models.QuestionType
	}{
		{"multiple-choice", models.TypeMultipleChoice},
		{"Multiple Choice", models.TypeMultipleChoice},
		{"mcq", models.TypeMultipleChoice},
		{"true_false", models.TypeTrueFalse},
		{"True or False", models.TypeTrueFalse},
		{"boolean", models.TypeTrueFalse},
		{"short answer", models.TypeShortAnswer},
		{"free text", models.TypeShortAnswer},
		{"essay", models.TypeMultipleChoice}, // falls back
		{"", models.TypeMultipleChoice},
	}
	for _, tt := range tests {
		if got := normalizeType(tt.raw, models.TypeMultipleChoice); got != tt.want {
			t.Errorf("normalizeType(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}

func TestStreamParserIncremental(t *testing.T) {
	full := `Here are your questions:
	[
		{"text": "Q1?", "type": "short-answer", "correctAnswer": "a1"},
		{"text": "Q2?", "type": "short-answer", "correctAnswer": "a2"},
		{"text": "Q3?", "type": "short-answer", "correctAnswer": "a3"}
	]`

	// Feed in small chunks so objects are split mid-way.
	p := NewStreamParser(testSettings())
	var got []models.Question
	for i := 0; i < len(full); i += 7 {
		end := i + 7
		if end > len(full) {
			end = len(full)
		}
		got = append(got, p.Feed(full[i:end])...)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(got))
	}
	for i, want := range []string{"Q1?", "Q2?", "Q3?"} {
		if got[i].Text != want {
			t.Errorf("question %d = %q, want %q", i, got[i].Text, want)
		}
	}
	if p.Emitted() != 3 {
		t.Errorf("Emitted() = %d, want 3", p.Emitted())
	}

	// Trailing feeds after the closing bracket emit nothing.
	if extra := p.Feed(`[{"text": "Q4?", "correctAnswer": "a4"}]`); len(extra) != 0 {
		t.Errorf("expected no questions after array close, got %d", len(extra))
	}
}

func TestStreamParserEmitsEachObjectOnce(t *testing.T) {
	sp := NewStreamParser(testSettings())

	first := sp.Feed(`[{"text": "Q1?", "type": "short-answer", "correctAnswer": "a1"},`)
	if len(first) != 1 {
		t.Fatalf("expected 1 question from first chunk, got %d", len(first))
	}
	// The second chunk completes only the second object; the first must not
	// be re-emitted even though it is still in the buffer.
	second := sp.Feed(`{"text": "Q2?", "type": "short-answer", "correctAnswer": "a2"}]`)
	if len(second) != 1 {
		t.Fatalf("expected 1 question from second chunk, got %d", len(second))
	}
	if second[0].Text != "Q2?" {
		t.Errorf("expected Q2?, got %q", second[0].Text)
	}
}

func TestStreamParserHandlesStringsWithBraces(t *testing.T) {
	sp := NewStreamParser(testSettings())
	got := sp.Feed(`[{"text": "What does {x} mean in \"set {a, b}\"?", "type": "short-answer", "correctAnswer": "notation"}]`)
	if len(got) != 1 {
		t.Fatalf("expected 1 question, got %d", len(got))
	}
	if !strings.Contains(got[0].Text, "{x}") {
		t.Errorf("braces inside strings were mangled: %q", got[0].Text)
	}
}
