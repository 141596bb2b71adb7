package render

import (
	"fmt"

	"github.com/ppiankov/askcup/internal/model"
)

// SourceLabel is the chip text for one source
func SourceLabel(s model.Source) string {
	switch {
	case s.Type == model.SourceTypeMatch && s.Match != nil:
		return fmt.Sprintf("⚽ %s vs %s (%s)", s.Match.HomeTeam, s.Match.AwayTeam, s.Match.Year)
	case s.Type == model.SourceTypeTournament && s.Tournament != nil:
		return fmt.Sprintf("🏆 %s World Cup", s.Tournament.Year)
	case s.Type == model.SourceTypeTeamStat && s.TeamStat != nil:
		return fmt.Sprintf("📊 %s", s.TeamStat.Team)
	default:
		return fmt.Sprintf("? %s", s.Type)
	}
}

// SourceLabels maps SourceLabel over a list, keeping order
func SourceLabels(sources []model.Source) []string {
	labels := make([]string, len(sources))
	for i, s := range sources {
		labels[i] = SourceLabel(s)
	}
	return labels
}
