package workflow

import (
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
)

// Status is the state of a workflow request. Pending is the only state that
// can transition; the others are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// Direction records who opened a coach-player link and therefore who must
// answer it.
type Direction string

const (
	CoachToPlayer Direction = "coach_to_player"
	PlayerToCoach Direction = "player_to_coach"
)

// PromotionRequest asks to turn a user into a coach of one sport.
type PromotionRequest struct {
	gorm.Model
	UserID      uint             `json:"user_id" gorm:"not null;index"`
	User        user.User        `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	PlayerID    *uint            `json:"player_id" gorm:"index"`
	Player      *registry.Player `json:"player,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
	SportID     uint             `json:"sport_id" gorm:"not null"`
	Sport       *sport.Sport     `json:"sport,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	Status      Status           `json:"status" gorm:"type:varchar(20);not null;index"`
	Remarks     string           `json:"remarks"`
	CoachID     *uint            `json:"coach_id"`
	DecidedByID *uint            `json:"decided_by_id"`
	DecidedBy   *user.User       `json:"-" gorm:"constraint:OnDelete:SET NULL;"`
	DecidedAt   *time.Time       `json:"decided_at"`
}

// CoachPlayerLinkRequest is an invitation (coach to player) or an
// application (player to coach) within one sport.
type CoachPlayerLinkRequest struct {
	gorm.Model
	CoachID     uint             `json:"coach_id" gorm:"not null;index;uniqueIndex:idx_link_pending,where:status = 'pending'"`
	Coach       *registry.Coach  `json:"coach,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	PlayerID    uint             `json:"player_id" gorm:"not null;index;uniqueIndex:idx_link_pending"`
	Player      *registry.Player `json:"player,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	SportID     uint             `json:"sport_id" gorm:"not null;uniqueIndex:idx_link_pending"`
	Sport       *sport.Sport     `json:"sport,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	Direction   Direction        `json:"direction" gorm:"type:varchar(20);not null"`
	Status      Status           `json:"status" gorm:"type:varchar(20);not null;index"`
	CreatedByID uint             `json:"created_by_id"`
	DecidedByID *uint            `json:"decided_by_id"`
	DecidedAt   *time.Time       `json:"decided_at"`
}

// TeamProposal is a coach-authored roster awaiting a manager's approval.
type TeamProposal struct {
	gorm.Model
	CoachID       uint              `json:"coach_id" gorm:"not null;index"`
	Coach         *registry.Coach   `json:"coach,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	ManagerID     uint              `json:"manager_id" gorm:"not null;index"`
	Manager       *user.User        `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	SportID       uint              `json:"sport_id" gorm:"not null"`
	Sport         *sport.Sport      `json:"sport,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	TeamName      string            `json:"team_name" gorm:"size:100;not null"`
	Players       []registry.Player `json:"proposed_players" gorm:"many2many:team_proposal_players;"`
	Status        Status            `json:"status" gorm:"type:varchar(20);not null;index"`
	Remarks       string            `json:"remarks"`
	DecidedByID   *uint             `json:"decided_by_id"`
	DecidedAt     *time.Time        `json:"decided_at"`
	CreatedTeamID *uint             `json:"created_team_id"`
	CreatedTeam   *registry.Team    `json:"created_team,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
}

// TeamAssignmentRequest asks a coach to take over an existing team.
type TeamAssignmentRequest struct {
	gorm.Model
	ManagerID   uint            `json:"manager_id" gorm:"not null;index"`
	Manager     *user.User      `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	CoachID     uint            `json:"coach_id" gorm:"not null;index;uniqueIndex:idx_assignment_pending,where:status = 'pending'"`
	Coach       *registry.Coach `json:"coach,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	TeamID      uint            `json:"team_id" gorm:"not null;index;uniqueIndex:idx_assignment_pending"`
	Team        *registry.Team  `json:"team,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	Status      Status          `json:"status" gorm:"type:varchar(20);not null;index"`
	Remarks     string          `json:"remarks"`
	DecidedByID *uint           `json:"decided_by_id"`
	DecidedAt   *time.Time      `json:"decided_at"`
}

// Models lists the tables owned by this package.
func Models() []any {
	return []any{&PromotionRequest{}, &CoachPlayerLinkRequest{}, &TeamProposal{}, &TeamAssignmentRequest{}}
}
