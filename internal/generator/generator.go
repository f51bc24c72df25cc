package generator

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/quizgenius/backend/internal/models"
)

// Generator wraps an LLMClient and turns source content or a topic into
// quiz questions, either as one batch or as a progressively-delivered stream.
type Generator struct {
	llm   LLMClient
	model string
}

func NewGenerator() *Generator {
	var llm LLMClient
	model := "mock"

	if os.Getenv("MOCK_GENERATOR") == "true" {
		llm = NewMockClient()
		log.Println("[generator] using mock data")
	} else {
		model = os.Getenv("ANTHROPIC_MODEL")
		if model == "" {
			model = "claude-sonnet-4-5-20250929"
		}
		llm = NewAPIClient(model)
		log.Println("[generator] using Anthropic API:", model)
	}

	return &Generator{llm: llm, model: model}
}

// NewGeneratorWithClient wires an explicit client; used by tests.
func NewGeneratorWithClient(llm LLMClient, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

func (g *Generator) ModelName() string {
	return g.model
}

// Request describes one generation call. Exactly one of Content or Topic
// should be set; Content wins when both are present.
type Request struct {
	Content           string
	Topic             string
	AdditionalDetails string
	Settings          models.QuizSettings
}

func (r Request) userPrompt() string {
	if r.Content != "" {
		return BuildContentPrompt(r.Content, r.Settings)
	}
	return BuildTopicPrompt(r.Topic, r.AdditionalDetails, r.Settings)
}

// Generate produces the full question set in one call.
func (g *Generator) Generate(ctx context.Context, req Request) ([]models.Question, error) {
	resp, err := g.llm.Generate(ctx, SystemPrompt(), req.userPrompt())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	return ParseQuestions(resp.Content, req.Settings)
}

// Stream is a cancellable sequence of question batches. Batches arrive on
// Batches() as the model emits them; Wait blocks until generation finishes
// and returns everything delivered. When generation fails partway, Wait
// returns the partial set together with the error so callers can keep the
// questions already delivered.
type Stream struct {
	batches chan []models.Question
	done    chan struct{}
	final   []models.Question
	err     error
}

func (s *Stream) Batches() <-chan []models.Question {
	return s.batches
}

func (s *Stream) Wait() ([]models.Question, error) {
	<-s.done
	return s.final, s.err
}

// GenerateStream produces questions progressively. The returned stream is
// torn down when ctx is cancelled; no batches are delivered after that.
func (g *Generator) GenerateStream(ctx context.Context, req Request) *Stream {
	s := &Stream{
		batches: make(chan []models.Question, 8),
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(s.batches)

		parser := NewStreamParser(req.Settings)
		var delivered []models.Question

		_, err := g.llm.GenerateStream(ctx, SystemPrompt(), req.userPrompt(), func(chunk string) {
			batch := parser.Feed(chunk)
			if len(batch) == 0 {
				return
			}
			delivered = append(delivered, batch...)
			select {
			case s.batches <- batch:
			case <-ctx.Done():
			}
		})

		s.final = delivered
		if err != nil {
			// Partial progress survives; the error reports the shortfall.
			s.err = fmt.Errorf("%w: %v", ErrGeneration, err)
			return
		}
		if len(delivered) == 0 {
			s.err = fmt.Errorf("%w: no valid questions in response", ErrGeneration)
		}
	}()

	return s
}
