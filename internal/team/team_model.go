package team

import "github.com/DhavalSuthar-24/clubhouse/internal/registry"

// TeamFilter narrows a team listing. Zero fields do not filter.
type TeamFilter struct {
	SportID       *uint
	ManagerUserID *uint
	CoachID       *uint
	// IDs restricts the listing to these teams; a non-nil empty slice
	// matches nothing.
	IDs  []uint
	Name string
}

// TeamSummary is a team with the size of its active roster.
type TeamSummary struct {
	registry.Team
	PlayerCount int64 `json:"player_count"`
}

// Roster is a team with the profiles playing for it.
type Roster struct {
	Team    *registry.Team                `json:"team"`
	Players []registry.PlayerSportProfile `json:"players"`
}
