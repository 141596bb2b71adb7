package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnknownSourceType is returned when a source carries a missing or
// unrecognized type discriminant.
var ErrUnknownSourceType = errors.New("unknown source type")

// SourceType discriminates the evidence variants returned by the answer service
type SourceType string

const (
	SourceTypeMatch      SourceType = "match"        // A single World Cup match
	SourceTypeTournament SourceType = "tournament"   // A whole tournament edition
	SourceTypeTeamStat   SourceType = "team_history" // Aggregated history of one team
)

// sourceTypeAliases maps accepted wire spellings onto the canonical type
var sourceTypeAliases = map[string]SourceType{
	"match":        SourceTypeMatch,
	"tournament":   SourceTypeTournament,
	"team_history": SourceTypeTeamStat,
	"team_stat":    SourceTypeTeamStat,
}

// ParseSourceType resolves a wire discriminant into a SourceType
func ParseSourceType(s string) (SourceType, error) {
	if t, ok := sourceTypeAliases[s]; ok {
		return t, nil
	}
	if s == "" {
		return "", fmt.Errorf("%w: missing type", ErrUnknownSourceType)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSourceType, s)
}

// Year is a tournament year. The backend stores it as a string in chunk
// metadata, so both "2014" and 2014 decode.
type Year int

// UnmarshalJSON accepts a JSON number or a numeric string
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode year: %w", err)
		}
		if s == "" {
			*y = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("decode year %q: %w", s, err)
		}
		*y = Year(n)
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decode year: %w", err)
	}
	*y = Year(n)
	return nil
}

func (y Year) String() string {
	return strconv.Itoa(int(y))
}

// Source is one piece of evidence backing an answer. Exactly one of the
// variant structs is populated, selected by Type.
type Source struct {
	Type       SourceType
	Match      *MatchSource
	Tournament *TournamentSource
	TeamStat   *TeamStatSource
}

// MatchSource describes a single match
type MatchSource struct {
	HomeTeam string `json:"home_team"`
	AwayTeam string `json:"away_team"`
	Year     Year   `json:"year"`
}

// TournamentSource describes a tournament edition
type TournamentSource struct {
	Year Year `json:"year"`
}

// TeamStatSource describes the aggregated record of one team
type TeamStatSource struct {
	Team string `json:"team"`
}

// NewMatchSource builds a match source
func NewMatchSource(home, away string, year int) Source {
	return Source{Type: SourceTypeMatch, Match: &MatchSource{HomeTeam: home, AwayTeam: away, Year: Year(year)}}
}

// NewTournamentSource builds a tournament source
func NewTournamentSource(year int) Source {
	return Source{Type: SourceTypeTournament, Tournament: &TournamentSource{Year: Year(year)}}
}

// NewTeamStatSource builds a team-stat source
func NewTeamStatSource(team string) Source {
	return Source{Type: SourceTypeTeamStat, TeamStat: &TeamStatSource{Team: team}}
}

// UnmarshalJSON decodes a source and rejects unrecognized discriminants
func (s *Source) UnmarshalJSON(data []byte) error {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("decode source: %w", err)
	}

	t, err := ParseSourceType(head.Type)
	if err != nil {
		return err
	}

	out := Source{Type: t}
	switch t {
	case SourceTypeMatch:
		out.Match = &MatchSource{}
		err = json.Unmarshal(data, out.Match)
	case SourceTypeTournament:
		out.Tournament = &TournamentSource{}
		err = json.Unmarshal(data, out.Tournament)
	case SourceTypeTeamStat:
		out.TeamStat = &TeamStatSource{}
		err = json.Unmarshal(data, out.TeamStat)
	}
	if err != nil {
		return fmt.Errorf("decode %s source: %w", t, err)
	}

	*s = out
	return nil
}

// MarshalJSON flattens the active variant next to its discriminant
func (s Source) MarshalJSON() ([]byte, error) {
	switch s.Type {
	case SourceTypeMatch:
		if s.Match == nil {
			break
		}
		return json.Marshal(struct {
			Type SourceType `json:"type"`
			*MatchSource
		}{s.Type, s.Match})
	case SourceTypeTournament:
		if s.Tournament == nil {
			break
		}
		return json.Marshal(struct {
			Type SourceType `json:"type"`
			*TournamentSource
		}{s.Type, s.Tournament})
	case SourceTypeTeamStat:
		if s.TeamStat == nil {
			break
		}
		return json.Marshal(struct {
			Type SourceType `json:"type"`
			*TeamStatSource
		}{s.Type, s.TeamStat})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceType, s.Type)
	}
	return nil, fmt.Errorf("source %s has no payload", s.Type)
}

// MarshalYAML renders the same flat shape as JSON
func (s Source) MarshalYAML() (interface{}, error) {
	out := map[string]interface{}{"type": string(s.Type)}
	switch {
	case s.Match != nil:
		out["home_team"] = s.Match.HomeTeam
		out["away_team"] = s.Match.AwayTeam
		out["year"] = int(s.Match.Year)
	case s.Tournament != nil:
		out["year"] = int(s.Tournament.Year)
	case s.TeamStat != nil:
		out["team"] = s.TeamStat.Team
	}
	return out, nil
}
