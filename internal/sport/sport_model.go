package sport

import (
	"time"

	"gorm.io/gorm"
)

// SportType separates team sports from individual ones.
type SportType string

const (
	TypeTeam       SportType = "team"
	TypeIndividual SportType = "individual"
)

// Sport is a catalog entry.
type Sport struct {
	gorm.Model
	Name        string    `json:"name" gorm:"uniqueIndex;size:100;not null"`
	SportType   SportType `json:"sport_type" gorm:"type:varchar(20);not null"`
	Description string    `json:"description"`
}

// Stats is implemented by every sport-specific stats record.
type Stats interface {
	Profile() uint
	Values() map[string]float64
}

// CricketStats belongs to one cricket PlayerSportProfile.
type CricketStats struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ProfileID     uint      `json:"profile_id" gorm:"uniqueIndex;not null"`
	MatchesPlayed int       `json:"matches_played" gorm:"not null"`
	Runs          int       `json:"runs" gorm:"not null"`
	Wickets       int       `json:"wickets" gorm:"not null"`
	Average       float64   `json:"average" gorm:"not null"`
	StrikeRate    float64   `json:"strike_rate" gorm:"not null"`
	Catches       int       `json:"catches" gorm:"not null"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (CricketStats) TableName() string { return "cricket_stats" }

func (s CricketStats) Profile() uint { return s.ProfileID }

func (s CricketStats) Values() map[string]float64 {
	return map[string]float64{
		"matches_played": float64(s.MatchesPlayed),
		"runs":           float64(s.Runs),
		"wickets":        float64(s.Wickets),
		"average":        s.Average,
		"strike_rate":    s.StrikeRate,
		"catches":        float64(s.Catches),
	}
}

type FootballStats struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ProfileID     uint      `json:"profile_id" gorm:"uniqueIndex;not null"`
	MatchesPlayed int       `json:"matches_played" gorm:"not null"`
	Goals         int       `json:"goals" gorm:"not null"`
	Assists       int       `json:"assists" gorm:"not null"`
	Tackles       int       `json:"tackles" gorm:"not null"`
	CleanSheets   int       `json:"clean_sheets" gorm:"not null"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (FootballStats) TableName() string { return "football_stats" }

func (s FootballStats) Profile() uint { return s.ProfileID }

func (s FootballStats) Values() map[string]float64 {
	return map[string]float64{
		"matches_played": float64(s.MatchesPlayed),
		"goals":          float64(s.Goals),
		"assists":        float64(s.Assists),
		"tackles":        float64(s.Tackles),
		"clean_sheets":   float64(s.CleanSheets),
	}
}

type BasketballStats struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	ProfileID     uint      `json:"profile_id" gorm:"uniqueIndex;not null"`
	MatchesPlayed int       `json:"matches_played" gorm:"not null"`
	Points        int       `json:"points" gorm:"not null"`
	Rebounds      int       `json:"rebounds" gorm:"not null"`
	Assists       int       `json:"assists" gorm:"not null"`
	Steals        int       `json:"steals" gorm:"not null"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (BasketballStats) TableName() string { return "basketball_stats" }

func (s BasketballStats) Profile() uint { return s.ProfileID }

func (s BasketballStats) Values() map[string]float64 {
	return map[string]float64{
		"matches_played": float64(s.MatchesPlayed),
		"points":         float64(s.Points),
		"rebounds":       float64(s.Rebounds),
		"assists":        float64(s.Assists),
		"steals":         float64(s.Steals),
	}
}

type RunningStats struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	ProfileID       uint      `json:"profile_id" gorm:"uniqueIndex;not null"`
	MatchesPlayed   int       `json:"matches_played" gorm:"not null"`
	TotalDistanceKm float64   `json:"total_distance_km" gorm:"not null"`
	BestTimeSeconds float64   `json:"best_time_seconds" gorm:"not null"`
	RacesCompleted  int       `json:"races_completed" gorm:"not null"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (RunningStats) TableName() string { return "running_stats" }

func (s RunningStats) Profile() uint { return s.ProfileID }

func (s RunningStats) Values() map[string]float64 {
	return map[string]float64{
		"matches_played":    float64(s.MatchesPlayed),
		"total_distance_km": s.TotalDistanceKm,
		"best_time_seconds": s.BestTimeSeconds,
		"races_completed":   float64(s.RacesCompleted),
	}
}

// Models lists the tables owned by this package.
func Models() []any {
	return []any{&Sport{}, &CricketStats{}, &FootballStats{}, &BasketballStats{}, &RunningStats{}}
}
