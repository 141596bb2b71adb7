package page

import "github.com/ppiankov/askcup/internal/model"

// Kind names a state variant
type Kind string

const (
	KindIdle     Kind = "idle"
	KindLoading  Kind = "loading"
	KindFailed   Kind = "error"
	KindAnswered Kind = "answered"
)

// State is one of Idle, Loading, Failed or Answered. Only these four types
// implement it.
type State interface {
	Kind() Kind
	isState()
}

// Idle means no question is in flight and nothing has been answered
type Idle struct{}

// Loading means request RequestID is in flight
type Loading struct {
	RequestID uint64
}

// Failed holds the user-visible message of the last failed request
type Failed struct {
	Message string
}

// Answered holds the last answer and the sources backing it
type Answered struct {
	Answer  string
	Sources []model.Source
}

func (Idle) Kind() Kind     { return KindIdle }
func (Loading) Kind() Kind  { return KindLoading }
func (Failed) Kind() Kind   { return KindFailed }
func (Answered) Kind() Kind { return KindAnswered }

func (Idle) isState()     {}
func (Loading) isState()  {}
func (Failed) isState()   {}
func (Answered) isState() {}

// copyState detaches slices so snapshots cannot alias page internals
func copyState(s State) State {
	if a, ok := s.(Answered); ok {
		sources := make([]model.Source, len(a.Sources))
		copy(sources, a.Sources)
		return Answered{Answer: a.Answer, Sources: sources}
	}
	return s
}
