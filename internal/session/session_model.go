package session

import (
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CoachingSession is one training slot run by a coach. SessionDate is kept in
// UTC and Day is its calendar date, used to group daily scores.
type CoachingSession struct {
	gorm.Model
	CoachID     uint                `json:"coach_id" gorm:"not null;index"`
	Coach       *registry.Coach     `json:"coach,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	SportID     uint                `json:"sport_id" gorm:"not null;index"`
	Sport       *sport.Sport        `json:"sport,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	TeamID      *uint               `json:"team_id" gorm:"index"`
	Team        *registry.Team      `json:"team,omitempty" gorm:"constraint:OnDelete:SET NULL;"`
	SessionDate time.Time           `json:"session_date" gorm:"not null"`
	Day         datatypes.Date      `json:"day" gorm:"not null;index"`
	Title       string              `json:"title" gorm:"size:200;not null"`
	Notes       string              `json:"notes"`
	Attendances []SessionAttendance `json:"attendances,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE;"`
}

// SessionAttendance is the per-player result of a session. Rating is 0 when
// the player was absent.
type SessionAttendance struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	SessionID uint             `json:"session_id" gorm:"not null;uniqueIndex:idx_session_player"`
	PlayerID  uint             `json:"player_id" gorm:"not null;uniqueIndex:idx_session_player;index"`
	Player    *registry.Player `json:"player,omitempty" gorm:"constraint:OnDelete:CASCADE;"`
	Attended  bool             `json:"attended" gorm:"not null"`
	Rating    int              `json:"rating" gorm:"not null"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// DailyPerformanceScore is the mean rating of a player's attended sessions
// on one day. It is derived data, rebuilt on every import.
type DailyPerformanceScore struct {
	ID               uint             `json:"id" gorm:"primaryKey"`
	PlayerID         uint             `json:"player_id" gorm:"not null;uniqueIndex:idx_player_day"`
	Player           *registry.Player `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Day              datatypes.Date   `json:"date" gorm:"not null;uniqueIndex:idx_player_day"`
	Score            float64          `json:"score" gorm:"not null"`
	SessionsAttended int              `json:"sessions_attended" gorm:"not null"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func Models() []any {
	return []any{&CoachingSession{}, &SessionAttendance{}, &DailyPerformanceScore{}}
}

// dayOf returns the UTC calendar day of t.
func dayOf(t time.Time) datatypes.Date {
	u := t.UTC()
	return datatypes.Date(time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC))
}
