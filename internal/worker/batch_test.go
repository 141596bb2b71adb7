package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/askcup/internal/model"
)

// MockAsker implements Asker
type MockAsker struct {
	FailOn string
	Delay  time.Duration
	calls  atomic.Int32
}

func (m *MockAsker) Ask(ctx context.Context, q string) (*model.AskResponse, error) {
	m.calls.Add(1)
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if q == m.FailOn {
		return nil, errors.New("answer service down")
	}
	return &model.AskResponse{Answer: "A: " + q}, nil
}

func (m *MockAsker) BaseURL() string {
	return "http://localhost:8000"
}

func TestBatchProcessor_ProcessQuestions(t *testing.T) {
	asker := &MockAsker{Delay: 5 * time.Millisecond}
	processor := NewBatchProcessor(asker, 3, 0, 0)

	results := processor.ProcessQuestions(context.Background(), model.SampleQuestions)

	if len(results) != len(model.SampleQuestions) {
		t.Fatalf("expected %d results, got %d", len(model.SampleQuestions), len(results))
	}
	for i, res := range results {
		if res.Index != i || res.Question != model.SampleQuestions[i] {
			t.Errorf("result %d out of order: %+v", i, res)
		}
		if res.Error != nil {
			t.Errorf("unexpected error for %q: %v", res.Question, res.Error)
			continue
		}
		if res.Response.Answer != "A: "+res.Question {
			t.Errorf("unexpected answer %q", res.Response.Answer)
		}
	}
	if got := asker.calls.Load(); got != int32(len(model.SampleQuestions)) {
		t.Errorf("expected one call per question, got %d", got)
	}
}

func TestBatchProcessor_PartialFailure(t *testing.T) {
	asker := &MockAsker{FailOn: "b"}
	processor := NewBatchProcessor(asker, 2, 0, 0)

	results := processor.ProcessQuestions(context.Background(), []string{"a", "b", "c"})

	if results[1].Error == nil {
		t.Error("expected error for b")
	}
	if results[1].Response != nil {
		t.Error("expected nil response on error")
	}
	if results[0].Error != nil || results[2].Error != nil {
		t.Error("other questions should succeed")
	}
}

func TestBatchProcessor_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockAsker{}, 2, 0, 0)
	if results := processor.ProcessQuestions(context.Background(), nil); len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	asker := &MockAsker{Delay: time.Second}
	processor := NewBatchProcessor(asker, 1, 0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	// One worker and a short queue: submission stalls, so the batch ends
	// through the shutdown path and queued questions are abandoned.
	start := time.Now()
	results := processor.ProcessQuestions(ctx, []string{"a", "b", "c", "d", "e", "f"})
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("cancelled batch took %v, expected it to stop promptly", elapsed)
	}
	if len(results) != 6 {
		t.Fatalf("expected a result slot per question, got %d", len(results))
	}
	for _, r := range results {
		if r.Error == nil {
			t.Errorf("%q: expected an error after cancellation", r.Question)
		}
	}
}

func TestBatchProcessor_RateLimited(t *testing.T) {
	asker := &MockAsker{}
	// 20 rps with burst 1: four questions need at least ~150ms
	processor := NewBatchProcessor(asker, 4, 20, 1)

	start := time.Now()
	results := processor.ProcessQuestions(context.Background(), []string{"a", "b", "c", "d"})
	elapsed := time.Since(start)

	for _, r := range results {
		if r.Error != nil {
			t.Fatalf("unexpected error: %v", r.Error)
		}
	}
	if elapsed < 100*time.Millisecond {
		t.Errorf("expected rate limiting to spread calls, took %v", elapsed)
	}
}

func TestReadQuestionsFromFile(t *testing.T) {
	content := strings.Join([]string{
		"# World Cup questions",
		"Who won the 2014 FIFA World Cup?",
		"",
		"   Which country hosted the 2006 World Cup?  ",
		"Who won the 2014 FIFA World Cup?",
	}, "\n")

	path := filepath.Join(t.TempDir(), "questions.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	questions, err := ReadQuestionsFromFile(path)
	if err != nil {
		t.Fatalf("ReadQuestionsFromFile: %v", err)
	}

	want := []string{"Who won the 2014 FIFA World Cup?", "Which country hosted the 2006 World Cup?"}
	if len(questions) != len(want) {
		t.Fatalf("expected %v, got %v", want, questions)
	}
	for i := range want {
		if questions[i] != want[i] {
			t.Errorf("question %d = %q, want %q", i, questions[i], want[i])
		}
	}
}

func TestReadQuestionsFromFile_Missing(t *testing.T) {
	if _, err := ReadQuestionsFromFile(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "q.txt")
	if err := os.WriteFile(path, []byte("a\nb\n"), 0644); err != nil {
		t.Fatal(err)
	}

	processor := NewBatchProcessor(&MockAsker{}, 2, 0, 0)
	results, err := processor.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}
