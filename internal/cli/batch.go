package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/askcup/internal/answer"
	"github.com/ppiankov/askcup/internal/model"
	"github.com/ppiankov/askcup/internal/render"
	"github.com/ppiankov/askcup/internal/worker"
)

var (
	outputDir    string
	batchTimeout time.Duration
	useSamples   bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Ask many questions from a file in parallel",
	Long: `Batch asks multiple questions concurrently:
- Read questions from input file (one per line, # for comments)
- Or ask the built-in sample questions with --samples
- Ask in parallel with a configurable worker count and request rate
- Write one JSON answer file per question

Example:
  askcup batch questions.txt
  askcup batch --samples --output-dir ./answers
  askcup batch questions.txt --concurrency 2 --rps 1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 0, "number of concurrent workers (default 4)")
	batchCmd.Flags().Float64("rps", 0, "max requests per second to the answer service (default 2)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./askcup-answers", "output directory for answers")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&useSamples, "samples", false, "ask the built-in sample questions")

	_ = viper.BindPFlag("batch.concurrency", batchCmd.Flags().Lookup("concurrency"))
	_ = viper.BindPFlag("batch.requests_per_second", batchCmd.Flags().Lookup("rps"))
}

// batchRecord is written once per question
type batchRecord struct {
	Question   string         `json:"question"`
	Answer     string         `json:"answer,omitempty"`
	Sources    []model.Source `json:"sources,omitempty"`
	Chips      []string       `json:"chips,omitempty"`
	Error      string         `json:"error,omitempty"`
	NoAnswer   bool           `json:"no_answer,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	d := model.DefaultConfig().Batch
	if cfg.Batch.Concurrency <= 0 {
		cfg.Batch.Concurrency = d.Concurrency
	}
	if cfg.Batch.RequestsPerSecond == 0 {
		cfg.Batch.RequestsPerSecond = d.RequestsPerSecond
	}

	source := "samples"
	switch {
	case useSamples && len(args) > 0:
		return fmt.Errorf("pass either a questions file or --samples, not both")
	case useSamples:
	case len(args) == 1:
		source = args[0]
	default:
		return fmt.Errorf("no questions: pass a file or --samples")
	}

	client, err := answer.NewClient(cfg.AnswerService)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  askcup Batch\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Questions:    %s\n", source)
	fmt.Fprintf(os.Stderr, "  Backend:      %s\n", client.BaseURL())
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Batch.Concurrency)
	fmt.Fprintf(os.Stderr, "  Rate:         %.2f req/s\n", cfg.Batch.RequestsPerSecond)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(client, cfg.Batch.Concurrency, cfg.Batch.RequestsPerSecond, cfg.Batch.Burst)

	var results []*worker.AskResult
	if useSamples {
		results = processor.ProcessQuestions(ctx, model.SampleQuestions)
	} else {
		results, err = processor.ProcessFile(ctx, source)
		if err != nil {
			return err
		}
	}

	successCount := 0
	failureCount := 0
	emptyCount := 0

	for _, result := range results {
		rec := newBatchRecord(result)
		path := filepath.Join(outputDir, fmt.Sprintf("%02d-%s.json", result.Index+1, slugify(result.Question)))
		if err := writeJSONFile(path, rec); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write answer: %v\n", result.Question, err)
			failureCount++
			continue
		}

		switch {
		case result.Error != nil:
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Question, result.Error)
			continue
		case rec.NoAnswer:
			emptyCount++
			fmt.Fprintf(os.Stderr, "⚠️  %s: %s\n", result.Question, noAnswerText)
			continue
		}
		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d sources, %v)\n", result.Question, len(result.Response.Sources), result.Duration.Round(time.Millisecond))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d questions\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  No answer: %d\n", emptyCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if failureCount > 0 && successCount == 0 && emptyCount == 0 {
		return fmt.Errorf("%s", client.FailureMessage())
	}
	return nil
}

func newBatchRecord(r *worker.AskResult) batchRecord {
	rec := batchRecord{
		Question:   r.Question,
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Error != nil {
		rec.Error = r.Error.Error()
		return rec
	}
	if r.Response.Answer == "" {
		rec.NoAnswer = true
		return rec
	}
	rec.Answer = r.Response.Answer
	rec.Sources = r.Response.Sources
	rec.Chips = render.SourceLabels(r.Response.Sources)
	return rec
}

func writeJSONFile(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// slugify turns a question into a short file-name-safe string
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 60 {
		out = strings.TrimSuffix(out[:60], "-")
	}
	if out == "" {
		out = "question"
	}
	return out
}
