package render

import (
	"github.com/ppiankov/askcup/internal/page"
)

const (
	Title          = "FIFA World Cup AI Analyst"
	Subtitle       = "Powered by RAG + Llama 3.1"
	Placeholder    = "Ask anything about FIFA World Cup history..."
	LoadingText    = "Searching World Cup data..."
	ButtonIdle     = "Ask AI"
	ButtonLoading  = "Thinking..."
	AnswerHeading  = "🤖 AI ANSWER"
	SourcesHeading = "Sources used:"
	SamplesHeading = "Try asking:"
	ResetText      = "← Ask another question"
)

// View is the template data derived from a page snapshot. Exactly one of
// Loading, Error and Answer drives the main branch.
//
// The HTML form cannot see what the user types, so the submit button is
// only disabled while loading; a blank submission is ignored server side.
type View struct {
	Title       string
	Subtitle    string
	Placeholder string
	Question    string
	Button      string
	ShowSamples bool
	Samples     []string
	Loading     bool
	Error       string
	Answer      string
	Chips       []string

	SamplesHeading string
	LoadingText    string
	AnswerHeading  string
	SourcesHeading string
	ResetText      string

	// RefreshSeconds > 0 makes the HTML page reload itself while loading
	RefreshSeconds int
}

// NewView flattens a snapshot for the templates
func NewView(snap page.Snapshot) View {
	v := View{
		Title:       Title,
		Subtitle:    Subtitle,
		Placeholder: Placeholder,
		Question:    snap.Question,
		Button:      ButtonIdle,
		ShowSamples: snap.ShowSamples,
		Samples:     snap.Samples,

		SamplesHeading: SamplesHeading,
		LoadingText:    LoadingText,
		AnswerHeading:  AnswerHeading,
		SourcesHeading: SourcesHeading,
		ResetText:      ResetText,
	}

	switch st := snap.State.(type) {
	case page.Loading:
		v.Loading = true
		v.Button = ButtonLoading
	case page.Failed:
		v.Error = st.Message
	case page.Answered:
		v.Answer = st.Answer
		v.Chips = SourceLabels(st.Sources)
	}
	return v
}
