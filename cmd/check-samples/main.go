// Program to check a running answer service against the sample questions.
// Each question goes through a QuestionPage the way the web UI drives it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/askcup/internal/answer"
	"github.com/ppiankov/askcup/internal/model"
	"github.com/ppiankov/askcup/internal/page"
	"github.com/ppiankov/askcup/internal/render"
)

func main() {
	cfg := model.DefaultConfig().AnswerService
	flag.StringVar(&cfg.BaseURL, "backend", cfg.BaseURL, "answer service base URL")
	timeout := flag.Duration("timeout", 60*time.Second, "timeout per question")
	flag.Parse()

	client, err := answer.NewClient(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== Sample Question Check (%s) ===\n\n", client.BaseURL())

	failed := 0
	for _, q := range model.SampleQuestions {
		fmt.Printf("Q: %s\n", q)
		fmt.Println(strings.Repeat("-", 60))

		p := page.New(client, client.FailureMessage())
		p.PickSample(q)

		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		start := time.Now()
		st, err := p.Submit(ctx)
		cancel()
		if err != nil {
			fmt.Printf("  ✗ %v\n\n", err)
			failed++
			continue
		}

		switch st := st.(type) {
		case page.Answered:
			fmt.Printf("  ✓ answered in %v\n", time.Since(start).Round(time.Millisecond))
			fmt.Printf("    %s\n", st.Answer)
			for _, label := range render.SourceLabels(st.Sources) {
				fmt.Printf("    - %s\n", label)
			}
		case page.Failed:
			fmt.Printf("  ✗ %s\n", st.Message)
			failed++
		default:
			fmt.Printf("  ⚠️  no answer (state %s)\n", st.Kind())
		}
		fmt.Println()
	}

	fmt.Printf("=== %d/%d sample questions answered ===\n", len(model.SampleQuestions)-failed, len(model.SampleQuestions))
	if failed > 0 {
		os.Exit(1)
	}
}
