package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quizgenius/backend/internal/models"
)

// ErrGeneration marks any failure of the question source: the upstream call
// failed or its output could not be parsed into valid questions. Callers
// test with errors.Is.
var ErrGeneration = errors.New("question generation failed")

// generatedQuestion is the raw wire shape emitted by the model.
type generatedQuestion struct {
	Text          string             `json:"text"`
	Type          string             `json:"type"`
	Options       []string           `json:"options"`
	CorrectAnswer models.AnswerValue `json:"correctAnswer"`
	Explanation   string             `json:"explanation"`
	Hint          string             `json:"hint"`
	Difficulty    string             `json:"difficulty"`
}

// ParseQuestions parses a complete model response into questions.
func ParseQuestions(responseBody string, settings models.QuizSettings) ([]models.Question, error) {
	cleaned := stripCodeFences(responseBody)

	start := strings.IndexByte(cleaned, '[')
	end := strings.LastIndexByte(cleaned, ']')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array in response", ErrGeneration)
	}

	var raw []generatedQuestion
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("%w: parse response JSON: %v", ErrGeneration, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty question array", ErrGeneration)
	}

	questions := make([]models.Question, 0, len(raw))
	for _, gq := range raw {
		q, err := normalizeQuestion(gq, settings)
		if err != nil {
			continue // drop malformed items, keep the rest
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no valid questions in response", ErrGeneration)
	}
	return questions, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```json"))
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "```"))
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

func normalizeQuestion(gq generatedQuestion, settings models.QuizSettings) (models.Question, error) {
	if strings.TrimSpace(gq.Text) == "" {
		return models.Question{}, fmt.Errorf("empty question text")
	}
	if len(gq.CorrectAnswer) == 0 {
		return models.Question{}, fmt.Errorf("missing correct answer")
	}

	fallback := models.TypeMultipleChoice
	if len(settings.QuestionTypes) > 0 {
		fallback = settings.QuestionTypes[0]
	}
	qType := normalizeType(gq.Type, fallback)

	difficulty := models.Difficulty(strings.ToLower(strings.TrimSpace(gq.Difficulty)))
	if !models.ValidDifficulties[difficulty] {
		difficulty = settings.Difficulty
	}

	q := models.Question{
		ID:            uuid.NewString(),
		Type:          qType,
		Text:          strings.TrimSpace(gq.Text),
		CorrectAnswer: gq.CorrectAnswer,
		Explanation:   gq.Explanation,
		Hint:          gq.Hint,
		Difficulty:    difficulty,
		Topic:         settings.Topic,
	}

	switch qType {
	case models.TypeMultipleChoice:
		if len(gq.Options) < 2 {
			return models.Question{}, fmt.Errorf("multiple-choice question needs options")
		}
		q.Options = gq.Options
	case models.TypeTrueFalse:
		q.Options = []string{"True", "False"}
	}

	return q, nil
}

// normalizeType maps the model's free-form type label to a known type.
func normalizeType(raw string, fallback models.QuestionType) models.QuestionType {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.ReplaceAll(normalized, " or ", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.ReplaceAll(normalized, "_", "-")

	switch models.QuestionType(normalized) {
	case models.TypeMultipleChoice, models.TypeTrueFalse, models.TypeShortAnswer:
		return models.QuestionType(normalized)
	}
	switch normalized {
	case "multiplechoice", "mcq", "choice":
		return models.TypeMultipleChoice
	case "truefalse", "true-or-false", "boolean":
		return models.TypeTrueFalse
	case "shortanswer", "open", "free-text":
		return models.TypeShortAnswer
	}
	return fallback
}

// ── Incremental Stream Parsing ─────────────────────────────

// StreamParser recovers complete question objects from a response that is
// still arriving. It scans forward from the position after the last emitted
// object, so previously seen text is never reparsed and every object is
// emitted at most once.
type StreamParser struct {
	settings models.QuizSettings
	buf      []byte
	pos      int
	inArray  bool
	closed   bool
	emitted  int
}

func NewStreamParser(settings models.QuizSettings) *StreamParser {
	return &StreamParser{settings: settings}
}

// Emitted reports how many questions the parser has produced so far.
func (p *StreamParser) Emitted() int {
	return p.emitted
}

// Feed appends a chunk of response text and returns any questions completed
// by it. A nil or empty slice means no new complete object arrived yet.
func (p *StreamParser) Feed(chunk string) []models.Question {
	if p.closed || chunk == "" {
		return nil
	}
	p.buf = append(p.buf, chunk...)

	if !p.inArray {
		idx := -1
		for i := p.pos; i < len(p.buf); i++ {
			if p.buf[i] == '[' {
				idx = i
				break
			}
		}
		if idx < 0 {
			// Avoid rescanning preamble text on the next chunk.
			p.pos = len(p.buf)
			return nil
		}
		p.pos = idx + 1
		p.inArray = true
	}

	var out []models.Question
	for {
		obj, ok := p.nextObject()
		if !ok {
			break
		}
		var gq generatedQuestion
		if err := json.Unmarshal(obj, &gq); err != nil {
			continue // skip malformed object, keep scanning
		}
		q, err := normalizeQuestion(gq, p.settings)
		if err != nil {
			continue
		}
		p.emitted++
		out = append(out, q)
	}
	return out
}

// nextObject scans from p.pos for the next complete top-level JSON object in
// the array, advancing p.pos past it. Returns ok=false when the buffer holds
// no further complete object.
func (p *StreamParser) nextObject() ([]byte, bool) {
	i := p.pos
	// Skip separators and whitespace between array elements.
	for i < len(p.buf) {
		c := p.buf[i]
		if c == ',' || c == ' ' || c == '\n' || c == '\r' || c == '\t' {
			i++
			continue
		}
		break
	}
	if i >= len(p.buf) {
		p.pos = i
		return nil, false
	}
	if p.buf[i] == ']' {
		p.pos = i + 1
		p.closed = true
		return nil, false
	}
	if p.buf[i] != '{' {
		// Unexpected token; give up on this position until more context arrives.
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for j := i; j < len(p.buf); j++ {
		c := p.buf[j]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				p.pos = j + 1
				return p.buf[i : j+1], true
			}
		}
	}
	// Object still incomplete.
	return nil, false
}
