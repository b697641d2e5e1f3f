package registry

import (
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
)

// Player is the profile of a user holding the player role. Promoted players
// are deactivated, never deleted.
type Player struct {
	gorm.Model
	UserID   uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	User     user.User `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	PlayerID string    `json:"player_id" gorm:"uniqueIndex;size:16;not null"`
	Bio      string    `json:"bio"`
	TeamID   *uint     `json:"team_id" gorm:"index"`
	Team     *Team     `json:"team,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
	CoachID  *uint     `json:"coach_id" gorm:"index"`
	Coach    *Coach    `json:"coach,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
	IsActive bool      `json:"is_active" gorm:"not null"`
	JoinedAt time.Time `json:"joined_at"`
}

// Coach is created by promotion approval or by admin seeding.
type Coach struct {
	gorm.Model
	UserID          uint        `json:"user_id" gorm:"uniqueIndex;not null"`
	User            user.User   `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	CoachID         string      `json:"coach_id" gorm:"uniqueIndex;size:16;not null"`
	PrimarySportID  uint        `json:"primary_sport_id" gorm:"not null;index"`
	PrimarySport    sport.Sport `json:"primary_sport" gorm:"constraint:OnDelete:RESTRICT;"`
	FromPlayerID    *uint       `json:"from_player_id" gorm:"index"`
	ExperienceYears int         `json:"experience_years"`
	Specialization  string      `json:"specialization"`
}

type Manager struct {
	gorm.Model
	UserID    uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	User      user.User `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	ManagerID string    `json:"manager_id" gorm:"uniqueIndex;size:16;not null"`
}

type Admin struct {
	gorm.Model
	UserID uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	User   user.User `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
}

// ManagerSport authorizes a manager to run teams and tournaments of a sport.
type ManagerSport struct {
	ID           uint        `json:"id" gorm:"primaryKey"`
	ManagerID    uint        `json:"manager_id" gorm:"not null;uniqueIndex:idx_manager_sport"`
	Manager      Manager     `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	SportID      uint        `json:"sport_id" gorm:"not null;uniqueIndex:idx_manager_sport"`
	Sport        sport.Sport `json:"sport" gorm:"constraint:OnDelete:CASCADE;"`
	AssignedByID *uint       `json:"assigned_by_id"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Team belongs to one sport, one managing user and at most one coach.
type Team struct {
	gorm.Model
	Name      string       `json:"name" gorm:"size:100;not null;index"`
	SportID   *uint        `json:"sport_id" gorm:"index"`
	Sport     *sport.Sport `json:"sport,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
	ManagerID *uint        `json:"manager_id" gorm:"index"`
	Manager   *user.User   `json:"-" gorm:"constraint:OnDelete:SET NULL;"`
	CoachID   *uint        `json:"coach_id" gorm:"index"`
	Coach     *Coach       `json:"coach,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
	Logo      string       `json:"logo"`
}

// PlayerSportProfile binds a player to a coach and team within one sport.
// A nil team means "student only".
type PlayerSportProfile struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	PlayerID    uint         `json:"player" gorm:"not null;uniqueIndex:idx_player_sport"`
	Player      *Player      `json:"player_detail,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	SportID     uint         `json:"sport" gorm:"not null;uniqueIndex:idx_player_sport;index"`
	Sport       *sport.Sport `json:"sport_detail,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	CoachID     *uint        `json:"coach" gorm:"index"`
	Coach       *Coach       `json:"coach_detail,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
	TeamID      *uint        `json:"team" gorm:"index"`
	Team        *Team        `json:"team_detail,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
	IsActive    bool         `json:"is_active" gorm:"not null"`
	CareerScore float64      `json:"career_score" gorm:"not null"`
	JoinedDate  time.Time    `json:"joined_date"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IDSequence is a named counter used to allocate public identifiers.
type IDSequence struct {
	Scope     string `gorm:"primaryKey;size:32"`
	LastValue int64  `gorm:"not null"`
}

func (IDSequence) TableName() string { return "id_sequences" }

// Models lists the tables owned by this package.
func Models() []any {
	return []any{
		&Player{}, &Coach{}, &Manager{}, &Admin{}, &ManagerSport{},
		&Team{}, &PlayerSportProfile{}, &IDSequence{},
	}
}
