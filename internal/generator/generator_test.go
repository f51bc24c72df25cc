package generator

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeClient scripts the LLM responses for generator tests.
type fakeClient struct {
	content string
	chunkSz int
	err     error
}

func (f *fakeClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (*LLMResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &LLMResponse{Content: f.content}, nil
}

func (f *fakeClient) GenerateStream(ctx context.Context, systemPrompt, userPrompt string, onText func(chunk string)) (*LLMResponse, error) {
	size := f.chunkSz
	if size <= 0 {
		size = 16
	}
	for i := 0; i < len(f.content); i += size {
		end := i + size
		if end > len(f.content) {
			end = len(f.content)
		}
		onText(f.content[i:end])
	}
	if f.err != nil {
		return nil, f.err
	}
	return &LLMResponse{Content: f.content}, nil
}

func TestGenerateBatch(t *testing.T) {
	g := NewGeneratorWithClient(&fakeClient{content: buildMockJSON(4)}, "fake")

	questions, err := g.Generate(context.Background(), Request{Topic: "Science", Settings: testSettings()})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(questions))
	}
}

func TestGenerateWrapsClientError(t *testing.T) {
	g := NewGeneratorWithClient(&fakeClient{err: fmt.Errorf("api down")}, "fake")

	_, err := g.Generate(context.Background(), Request{Topic: "Science", Settings: testSettings()})
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestGenerateStreamDeliversBatches(t *testing.T) {
	g := NewGeneratorWithClient(&fakeClient{content: buildMockJSON(5), chunkSz: 32}, "fake")

	stream := g.GenerateStream(context.Background(), Request{Topic: "Science", Settings: testSettings()})

	total := 0
	for batch := range stream.Batches() {
		if len(batch) == 0 {
			t.Fatal("received empty batch")
		}
		total += len(batch)
	}

	final, err := stream.Wait()
	if err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if total != 5 || len(final) != 5 {
		t.Fatalf("expected 5 questions, got %d delivered / %d final", total, len(final))
	}
}

func TestGenerateStreamKeepsPartialProgressOnError(t *testing.T) {
	// Two complete objects arrive, then the stream dies mid-way.
	content := `[{"text":"Q1?","type":"short-answer","correctAnswer":"a1"},` +
		`{"text":"Q2?","type":"short-answer","correctAnswer":"a2"},{"text":"Q3`
	g := NewGeneratorWithClient(&fakeClient{content: content, err: fmt.Errorf("connection reset")}, "fake")

	stream := g.GenerateStream(context.Background(), Request{Topic: "Science", Settings: testSettings()})
	for range stream.Batches() {
	}

	final, err := stream.Wait()
	if !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
	if len(final) != 2 {
		t.Fatalf("expected 2 partial questions to survive, got %d", len(final))
	}
}

func TestGenerateStreamEmptyResponseIsError(t *testing.T) {
	g := NewGeneratorWithClient(&fakeClient{content: "no questions here"}, "fake")

	stream := g.GenerateStream(context.Background(), Request{Topic: "Science", Settings: testSettings()})
	for range stream.Batches() {
	}

	if _, err := stream.Wait(); !errors.Is(err, ErrGeneration) {
		t.Fatalf("expected ErrGeneration for empty response, got %v", err)
	}
}
