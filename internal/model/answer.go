package model

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// AskRequest is the JSON body sent to POST /ask
type AskRequest struct {
	Question string `json:"question"`
	NResults int    `json:"n_results"`
}

// AskResponse is the decoded answer service reply
type AskResponse struct {
	Answer  string   `json:"answer" yaml:"answer"`
	Sources []Source `json:"sources" yaml:"sources"`

	// Rejected counts sources dropped because their type was not recognized
	Rejected int `json:"-" yaml:"-"`
}

// UnmarshalJSON decodes the reply. A source entry with an unknown type is
// logged and dropped instead of failing the whole answer.
func (r *AskResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Answer  string            `json:"answer"`
		Sources []json.RawMessage `json:"sources"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := AskResponse{
		Answer:  raw.Answer,
		Sources: make([]Source, 0, len(raw.Sources)),
	}
	for i, msg := range raw.Sources {
		var s Source
		if err := json.Unmarshal(msg, &s); err != nil {
			slog.Warn("dropping source", "index", i, "error", err)
			out.Rejected++
			continue
		}
		out.Sources = append(out.Sources, s)
	}

	*r = out
	return nil
}

// HealthStatus is the reply of GET /health
type HealthStatus struct {
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message" yaml:"message"`
}

// OK reports whether the service declared itself healthy
func (h HealthStatus) OK() bool {
	return h.Status == "ok"
}

func (h HealthStatus) String() string {
	if h.Message == "" {
		return h.Status
	}
	return fmt.Sprintf("%s (%s)", h.Status, h.Message)
}
