package leaderboard

import (
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
)

// LeaderboardEntry holds a player's global score, rebuilt by Recalculate.
type LeaderboardEntry struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	PlayerID  uint             `json:"player_id" gorm:"uniqueIndex;not null"`
	Player    *registry.Player `json:"-" gorm:"constraint:OnDelete:CASCADE;"`
	Score     int              `json:"score" gorm:"not null;default:0;index"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func Models() []any {
	return []any{&LeaderboardEntry{}}
}

// GlobalRow is one line of the cross-sport leaderboard.
type GlobalRow struct {
	Rank       int    `json:"rank"`
	PlayerID   uint   `json:"player_id"`
	PlayerCode string `json:"player_code"`
	Username   string `json:"username"`
	Score      int    `json:"score"`
}

// RankedProfile is one profile's position for one metric.
type RankedProfile struct {
	Rank       int     `json:"rank"`
	ProfileID  uint    `json:"profile_id"`
	PlayerID   uint    `json:"player_id"`
	PlayerCode string  `json:"player_code"`
	Value      float64 `json:"value"`
}

type MetricRanking struct {
	Metric  string          `json:"metric"`
	Order   string          `json:"order"` // "desc" or "asc"
	Entries []RankedProfile `json:"entries"`
}

type SportRanking struct {
	SportID      uint            `json:"sport_id"`
	Sport        string          `json:"sport"`
	TotalPlayers int             `json:"total_players"`
	Metrics      []MetricRanking `json:"metrics"`
}

// ProfileBlock is one sport section of a player's dashboard.
type ProfileBlock struct {
	Profile      registry.PlayerSportProfile `json:"profile"`
	Stats        map[string]float64          `json:"stats"`
	Ranks        map[string]int              `json:"ranks"`
	TotalPlayers int                         `json:"total_players"`
}

type TeamRef struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// StudentProfile is one active sport profile of a coach's student.
type StudentProfile struct {
	ID          uint               `json:"id"`
	Sport       *sport.Sport       `json:"sport"`
	Team        *TeamRef           `json:"team"`
	IsActive    bool               `json:"is_active"`
	JoinedDate  time.Time          `json:"joined_date"`
	CareerScore float64            `json:"career_score"`
	Stats       map[string]float64 `json:"stats"`
}

// Student groups a player's profiles under one coach.
type Student struct {
	ID         uint             `json:"id"`
	UserID     uint             `json:"user_id"`
	PlayerCode string           `json:"player_id"`
	Username   string           `json:"username"`
	Email      string           `json:"email"`
	Profiles   []StudentProfile `json:"profiles"`
}

// CoachDashboard lists the teams a coach runs and their active students.
type CoachDashboard struct {
	Coach         *registry.Coach `json:"coach"`
	Teams         []registry.Team `json:"teams"`
	Players       []Student       `json:"players"`
	TotalStudents int             `json:"total_students"`
	TotalTeams    int             `json:"total_teams"`
}
