package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/askcup/internal/answer"
	"github.com/ppiankov/askcup/internal/model"
	"github.com/ppiankov/askcup/internal/page"
	"github.com/ppiankov/askcup/internal/render"
)

var (
	askFormat  string
	askTimeout time.Duration
	askSample  int
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask one question and print the answer with its sources",
	Long: `Ask sends a single question to the answer service and prints:
- the answer text
- the sources the service cited (matches, tournaments, team records)

The words of the question may be passed unquoted. Use --sample N to ask
one of the built-in sample questions instead (see 'askcup samples').

Example:
  askcup ask Who won the 2014 FIFA World Cup?
  askcup ask --sample 2 --format json
  askcup ask "How many World Cups has Brazil won?" --backend http://rag:8000`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askFormat, "format", "text", "output format (text, json, yaml)")
	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall timeout (0 waits forever)")
	askCmd.Flags().IntVar(&askSample, "sample", 0, "ask sample question N (1-based) instead of an argument")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	question := strings.Join(args, " ")
	if askSample != 0 {
		q, err := sampleAt(askSample)
		if err != nil {
			return err
		}
		question = q
	}

	client, err := answer.NewClient(cfg.AnswerService)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	ctx := context.Background()
	if askTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, askTimeout)
		defer cancel()
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Backend:  %s\n", client.BaseURL())
		fmt.Fprintf(os.Stderr, "Question: %s\n", question)
		fmt.Fprintf(os.Stderr, "⚙️  %s\n\n", render.LoadingText)
	}

	p := page.New(client, client.FailureMessage())
	p.SetQuestion(question)

	st, err := p.Submit(ctx)
	if errors.Is(err, page.ErrEmptyQuestion) {
		return fmt.Errorf("no question given (pass it as arguments or use --sample)")
	}
	if err != nil {
		return err
	}

	if err := writeAnswer(cmd.OutOrStdout(), askFormat, p.Snapshot()); err != nil {
		return err
	}

	switch st.Kind() {
	case page.KindFailed:
		return errQuestionFailed
	case page.KindIdle:
		return errNoAnswer
	}
	return nil
}

// noAnswerText reports a reply whose answer was empty
const noAnswerText = "The answer service returned no answer."

// errQuestionFailed and errNoAnswer are returned after the outcome was
// already printed
var (
	errQuestionFailed = errors.New("question failed")
	errNoAnswer       = errors.New("no answer")
)

// answerOutput is the json/yaml shape of an ask
type answerOutput struct {
	Question string         `json:"question" yaml:"question"`
	State    page.Kind      `json:"state" yaml:"state"`
	Answer   string         `json:"answer,omitempty" yaml:"answer,omitempty"`
	Sources  []model.Source `json:"sources,omitempty" yaml:"sources,omitempty"`
	Chips    []string       `json:"chips,omitempty" yaml:"chips,omitempty"`
	Error    string         `json:"error,omitempty" yaml:"error,omitempty"`
	NoAnswer bool           `json:"no_answer,omitempty" yaml:"no_answer,omitempty"`
}

// answeredEmpty reports a submitted question that came back without an
// answer: the page is idle again but still holds the question.
func answeredEmpty(snap page.Snapshot) bool {
	return snap.State.Kind() == page.KindIdle && strings.TrimSpace(snap.Question) != ""
}

func newAnswerOutput(snap page.Snapshot) answerOutput {
	out := answerOutput{
		Question: snap.Question,
		State:    snap.State.Kind(),
		NoAnswer: answeredEmpty(snap),
	}
	if out.NoAnswer {
		out.Error = noAnswerText
	}
	switch st := snap.State.(type) {
	case page.Failed:
		out.Error = st.Message
	case page.Answered:
		out.Answer = st.Answer
		out.Chips = render.SourceLabels(st.Sources)
		out.Sources = st.Sources
	}
	return out
}

func writeAnswer(w io.Writer, format string, snap page.Snapshot) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newAnswerOutput(snap)); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case "yaml":
		data, err := yaml.Marshal(newAnswerOutput(snap))
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	case "text", "":
		if answeredEmpty(snap) {
			_, err := fmt.Fprintf(w, "⚠️  %s\n", noAnswerText)
			return err
		}
		v := render.NewView(snap)
		// The terminal has no sample shortcuts to click.
		v.ShowSamples = false
		return render.Text(w, v)
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}
