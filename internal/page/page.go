// Package page holds the question/answer page state machine shared by the
// web UI and the CLI.
package page

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/ppiankov/askcup/internal/model"
)

// ErrEmptyQuestion is returned by Submit when the trimmed question is empty
var ErrEmptyQuestion = errors.New("question is empty")

// Asker performs the one outbound call of the page
type Asker interface {
	Ask(ctx context.Context, question string) (*model.AskResponse, error)
}

// Snapshot is an immutable view of the page used for rendering
type Snapshot struct {
	Question    string
	State       State
	CanSubmit   bool // false while loading or with a blank question
	ShowSamples bool // sample shortcuts are offered when not loading and not answered
	Samples     []string
}

// QuestionPage owns the question text and the request lifecycle. It is safe
// for concurrent use. Each submission gets a request ID; a completion whose
// ID is no longer current is dropped, and starting a new submission cancels
// the previous one.
type QuestionPage struct {
	asker          Asker
	failureMessage string

	mu       sync.Mutex
	question string
	state    State
	seq      uint64
	cancel   context.CancelFunc
	done     chan struct{}
}

// New creates an idle page. failureMessage is shown for every failed request.
func New(asker Asker, failureMessage string) *QuestionPage {
	return &QuestionPage{
		asker:          asker,
		failureMessage: failureMessage,
		state:          Idle{},
		done:           make(chan struct{}),
	}
}

// SetQuestion replaces the question text, as typing into the input does
func (p *QuestionPage) SetQuestion(q string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.question = q
}

// PickSample fills the question with a sample without submitting it
func (p *QuestionPage) PickSample(q string) {
	p.SetQuestion(q)
}

// Question returns the current question text
func (p *QuestionPage) Question() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.question
}

// State returns the current state
func (p *QuestionPage) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyState(p.state)
}

// Snapshot returns a consistent view of question and state
func (p *QuestionPage) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	kind := p.state.Kind()
	samples := make([]string, len(model.SampleQuestions))
	copy(samples, model.SampleQuestions)

	return Snapshot{
		Question:    p.question,
		State:       copyState(p.state),
		CanSubmit:   kind != KindLoading && model.NormalizeQuestion(p.question) != "",
		ShowSamples: kind != KindLoading && kind != KindAnswered,
		Samples:     samples,
	}
}

// Submit asks the current question and blocks until the answer service
// replies or ctx is done. It returns the state reached by this request;
// if a newer submission superseded it, the newer request's state is returned.
func (p *QuestionPage) Submit(ctx context.Context) (State, error) {
	id, callCtx, q, err := p.begin(ctx)
	if err != nil {
		return p.State(), err
	}
	p.run(callCtx, id, q)
	return p.State(), nil
}

// Start is the non-blocking form of Submit. The request runs in its own
// goroutine and is bound to ctx, not to the caller's request scope.
func (p *QuestionPage) Start(ctx context.Context) (uint64, error) {
	id, callCtx, q, err := p.begin(ctx)
	if err != nil {
		return 0, err
	}
	go p.run(callCtx, id, q)
	return id, nil
}

// Reset returns to Idle, clears the question and abandons any in-flight
// request. A lingering error is cleared as well.
func (p *QuestionPage) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	p.stopLocked()
	p.question = ""
	p.state = Idle{}
}

// Wait blocks until the page is not loading or ctx is done
func (p *QuestionPage) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		loading := p.state.Kind() == KindLoading
		done := p.done
		p.mu.Unlock()

		if !loading {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *QuestionPage) begin(ctx context.Context) (uint64, context.Context, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q := model.NormalizeQuestion(p.question)
	if q == "" {
		return 0, nil, "", ErrEmptyQuestion
	}

	p.seq++
	p.stopLocked()

	callCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.state = Loading{RequestID: p.seq}

	// The untrimmed text goes out, as typed.
	return p.seq, callCtx, p.question, nil
}

func (p *QuestionPage) run(ctx context.Context, id uint64, q string) {
	resp, err := p.asker.Ask(ctx, q)
	p.complete(id, resp, err)
}

func (p *QuestionPage) complete(id uint64, resp *model.AskResponse, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id != p.seq {
		slog.Debug("dropping superseded answer", "request_id", id, "current", p.seq)
		return
	}

	switch {
	case err != nil:
		slog.Warn("question failed", "request_id", id, "error", err)
		p.state = Failed{Message: p.failureMessage}
	case resp == nil:
		slog.Warn("question failed", "request_id", id, "error", "empty response")
		p.state = Failed{Message: p.failureMessage}
	case resp.Answer == "":
		// An empty answer renders as nothing, so its sources are dropped too.
		slog.Warn("answer service returned an empty answer", "request_id", id, "sources", len(resp.Sources))
		p.state = Idle{}
	default:
		p.state = Answered{Answer: resp.Answer, Sources: resp.Sources}
	}
	p.stopLocked()
}

// stopLocked cancels the in-flight call and wakes waiters
func (p *QuestionPage) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	close(p.done)
	p.done = make(chan struct{})
}
