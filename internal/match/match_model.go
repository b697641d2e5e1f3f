package match

import (
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TournamentStatus string

const (
	StatusUpcoming  TournamentStatus = "upcoming"
	StatusOngoing   TournamentStatus = "ongoing"
	StatusCompleted TournamentStatus = "completed"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}

// Tournament is owned by one manager and runs in a single sport.
type Tournament struct {
	gorm.Model
	Name        string           `json:"name" gorm:"size:150;not null"`
	SportID     uint             `json:"sport_id" gorm:"index;not null"`
	Sport       *sport.Sport     `json:"sport,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	ManagerID   uint             `json:"manager_id" gorm:"index;not null"`
	Manager     *user.User       `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	CreatedByID uint             `json:"created_by_id" gorm:"index"`
	StartDate   datatypes.Date   `json:"start_date"`
	EndDate     datatypes.Date   `json:"end_date"`
	Location    string           `json:"location" gorm:"size:200"`
	Status      TournamentStatus `json:"status" gorm:"type:varchar(20);not null;default:'upcoming'"`
	Teams       []TournamentTeam `json:"teams,omitempty" gorm:"foreignKey:TournamentID"`
}

type TournamentTeam struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	TournamentID uint           `json:"tournament_id" gorm:"not null;uniqueIndex:idx_tournament_team"`
	Tournament   *Tournament    `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	TeamID       uint           `json:"team_id" gorm:"not null;uniqueIndex:idx_tournament_team;index"`
	Team         *registry.Team `json:"team,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	RegisteredAt time.Time      `json:"registered_at"`
}

// TournamentMatch is one fixture. MatchNumber is unique within a tournament.
type TournamentMatch struct {
	gorm.Model
	TournamentID    uint             `json:"tournament_id" gorm:"not null;uniqueIndex:idx_tournament_match_number"`
	Tournament      *Tournament      `json:"tournament,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	MatchNumber     int              `json:"match_number" gorm:"not null;uniqueIndex:idx_tournament_match_number"`
	Team1ID         uint             `json:"team1_id" gorm:"not null;index"`
	Team1           *registry.Team   `json:"team1,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	Team2ID         uint             `json:"team2_id" gorm:"not null;index"`
	Team2           *registry.Team   `json:"team2,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	MatchDate       time.Time        `json:"match_date"`
	Venue           string           `json:"venue" gorm:"size:200"`
	ScoreTeam1      int              `json:"score_team1" gorm:"not null;default:0"`
	ScoreTeam2      int              `json:"score_team2" gorm:"not null;default:0"`
	IsCompleted     bool             `json:"is_completed" gorm:"not null;default:false"`
	ManOfTheMatchID *uint            `json:"man_of_the_match_id" gorm:"index"`
	ManOfTheMatch   *registry.Player `json:"man_of_the_match,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
}

// Achievement is an award earned by a player, currently only derived from
// match results.
type Achievement struct {
	ID             uint             `json:"id" gorm:"primaryKey"`
	PlayerID       uint             `json:"player_id" gorm:"not null;index"`
	Player         *registry.Player `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	SportID        *uint            `json:"sport_id" gorm:"index"`
	MatchID        *uint            `json:"match_id" gorm:"index"`
	Match          *TournamentMatch `json:"-" gorm:"constraint:OnDelete:SET NULL;"`
	TournamentName string           `json:"tournament_name" gorm:"size:150"`
	Title          string           `json:"title" gorm:"size:200;not null"`
	Description    string           `json:"description"`
	DateAwarded    datatypes.Date   `json:"date_awarded"`
	CreatedAt      time.Time        `json:"created_at"`
}

func Models() []any {
	return []any{&Tournament{}, &TournamentTeam{}, &TournamentMatch{}, &Achievement{}}
}
