package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/askcup/internal/model"
)

// Asker defines the interface for asking the answer service one question
type Asker interface {
	Ask(ctx context.Context, question string) (*model.AskResponse, error)
	BaseURL() string
}

// AskJob represents one question of a batch
type AskJob struct {
	Index    int
	Question string
	Asker    Asker
	Limiter  *Limiter
}

// Execute waits for the limiter and asks the question
func (j *AskJob) Execute(ctx context.Context) Result {
	start := time.Now()
	res := &AskResult{Index: j.Index, Question: j.Question}

	if j.Limiter != nil {
		if err := j.Limiter.WaitURL(ctx, j.Asker.BaseURL()); err != nil {
			res.Error = fmt.Errorf("rate limit wait: %w", err)
			return res
		}
	}

	resp, err := j.Asker.Ask(ctx, j.Question)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	res.Response = resp
	return res
}

// AskResult represents the result of an ask job
type AskResult struct {
	Index    int
	Question string
	Response *model.AskResponse
	Duration time.Duration
	Error    error
}

// GetError returns the error from the ask result
func (r *AskResult) GetError() error {
	return r.Error
}

// BatchProcessor asks many questions concurrently
type BatchProcessor struct {
	asker       Asker
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a new batch processor. requestsPerSecond <= 0
// disables rate limiting.
func NewBatchProcessor(asker Asker, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	return &BatchProcessor{
		asker:       asker,
		concurrency: concurrency,
		limiter:     NewLimiter(requestsPerSecond, burst),
	}
}

// ProcessQuestions asks every question and returns results in input order.
// Questions never reached because ctx ended are reported with ctx's error.
func (b *BatchProcessor) ProcessQuestions(ctx context.Context, questions []string) []*AskResult {
	if len(questions) == 0 {
		return []*AskResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	submitted := true
	for i, q := range questions {
		job := &AskJob{
			Index:    i,
			Question: q,
			Asker:    b.asker,
			Limiter:  b.limiter,
		}
		if !pool.Submit(job) {
			submitted = false
			break
		}
	}

	var results []Result
	if submitted {
		results = pool.Wait()
	} else {
		// ctx ended mid-batch: abandon whatever is still queued
		results = pool.Shutdown()
	}

	ordered := make([]*AskResult, len(questions))
	for _, r := range results {
		ar := r.(*AskResult)
		ordered[ar.Index] = ar
	}
	for i, r := range ordered {
		if r == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			ordered[i] = &AskResult{Index: i, Question: questions[i], Error: err}
		}
	}
	return ordered
}

// ProcessFile reads questions from a file and asks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AskResult, error) {
	questions, err := ReadQuestionsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	return b.ProcessQuestions(ctx, questions), nil
}

// ReadQuestionsFromFile reads questions from a file (one per line)
func ReadQuestionsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var questions []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			questions = append(questions, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return questions, nil
}
