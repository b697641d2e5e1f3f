package match

import (
	"errors"

	"gorm.io/gorm"
)

// TournamentFilter narrows ListTournaments. Nil fields are ignored.
type TournamentFilter struct {
	ManagerID    *uint
	TeamIDsQuery *gorm.DB // tournaments with a registered team in this subquery
	SportID      *uint
	Status       TournamentStatus
}

// MatchRepository defines the data operations on tournaments and matches.
type MatchRepository interface {
	// Tournaments
	CreateTournament(t *Tournament) error
	GetTournamentByID(id uint) (*Tournament, error)
	ListTournaments(filter TournamentFilter, page, limit int) ([]Tournament, int64, error)
	UpdateTournamentStatus(id uint, status TournamentStatus) error

	// Registration
	RegisterTeam(tt *TournamentTeam) error
	IsTeamRegistered(tournamentID, teamID uint) (bool, error)

	// Matches
	CreateMatch(m *TournamentMatch) error
	GetMatchByID(id uint) (*TournamentMatch, error)
	MatchNumberTaken(tournamentID uint, number int) (bool, error)
	ListMatches(tournamentID uint) ([]TournamentMatch, error)
	UpdateMatchResult(m *TournamentMatch) error

	// Achievements
	FirstOrCreateAchievement(a *Achievement) (bool, error)
	ListAchievements(playerID uint) ([]Achievement, error)

	WithTransaction(txFunc func(MatchRepository) error) error
}

type GormMatchRepository struct {
	db *gorm.DB
}

func NewGormMatchRepository(db *gorm.DB) *GormMatchRepository {
	return &GormMatchRepository{db: db}
}

func (r *GormMatchRepository) WithTransaction(txFunc func(MatchRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return txFunc(&GormMatchRepository{db: tx})
	})
}

func (r *GormMatchRepository) CreateTournament(t *Tournament) error {
	return r.db.Omit("Sport", "Manager", "Teams").Create(t).Error
}

// GetTournamentByID loads a tournament with its sport and registered teams.
func (r *GormMatchRepository) GetTournamentByID(id uint) (*Tournament, error) {
	var t Tournament
	err := r.db.Preload("Sport").Preload("Teams.Team").First(&t, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *GormMatchRepository) ListTournaments(filter TournamentFilter, page, limit int) ([]Tournament, int64, error) {
	var tournaments []Tournament
	var total int64

	query := r.db.Model(&Tournament{})
	if filter.ManagerID != nil {
		query = query.Where("manager_id = ?", *filter.ManagerID)
	}
	if filter.SportID != nil {
		query = query.Where("sport_id = ?", *filter.SportID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TeamIDsQuery != nil {
		query = query.Where("id IN (?)", r.db.Model(&TournamentTeam{}).
			Select("tournament_id").Where("team_id IN (?)", filter.TeamIDsQuery))
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("Sport").
		Order("start_date desc, id desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&tournaments).Error
	return tournaments, total, err
}

func (r *GormMatchRepository) UpdateTournamentStatus(id uint, status TournamentStatus) error {
	return r.db.Model(&Tournament{}).Where("id = ?", id).Update("status", status).Error
}

func (r *GormMatchRepository) RegisterTeam(tt *TournamentTeam) error {
	return r.db.Omit("Tournament", "Team").Create(tt).Error
}

func (r *GormMatchRepository) IsTeamRegistered(tournamentID, teamID uint) (bool, error) {
	var n int64
	err := r.db.Model(&TournamentTeam{}).
		Where("tournament_id = ? AND team_id = ?", tournamentID, teamID).Count(&n).Error
	return n > 0, err
}

func (r *GormMatchRepository) CreateMatch(m *TournamentMatch) error {
	return r.db.Omit("Tournament", "Team1", "Team2", "ManOfTheMatch").Create(m).Error
}

func (r *GormMatchRepository) GetMatchByID(id uint) (*TournamentMatch, error) {
	var m TournamentMatch
	err := r.db.Preload("Tournament").Preload("Team1").Preload("Team2").
		Preload("ManOfTheMatch").First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormMatchRepository) MatchNumberTaken(tournamentID uint, number int) (bool, error) {
	var n int64
	err := r.db.Model(&TournamentMatch{}).
		Where("tournament_id = ? AND match_number = ?", tournamentID, number).Count(&n).Error
	return n > 0, err
}

func (r *GormMatchRepository) ListMatches(tournamentID uint) ([]TournamentMatch, error) {
	var matches []TournamentMatch
	err := r.db.Preload("Team1").Preload("Team2").Preload("ManOfTheMatch").
		Where("tournament_id = ?", tournamentID).
		Order("match_number asc").Find(&matches).Error
	return matches, err
}

// UpdateMatchResult writes only the result columns.
func (r *GormMatchRepository) UpdateMatchResult(m *TournamentMatch) error {
	return r.db.Model(m).Select("score_team1", "score_team2", "is_completed", "man_of_the_match_id").
		Updates(map[string]any{
			"score_team1":         m.ScoreTeam1,
			"score_team2":         m.ScoreTeam2,
			"is_completed":        m.IsCompleted,
			"man_of_the_match_id": m.ManOfTheMatchID,
		}).Error
}

// FirstOrCreateAchievement finds an achievement with the same player, title,
// tournament name, description and date, creating it when absent.
func (r *GormMatchRepository) FirstOrCreateAchievement(a *Achievement) (bool, error) {
	var existing Achievement
	res := r.db.Where("player_id = ? AND title = ? AND tournament_name = ? AND description = ? AND date_awarded = ?",
		a.PlayerID, a.Title, a.TournamentName, a.Description, a.DateAwarded).Limit(1).Find(&existing)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		*a = existing
		return false, nil
	}
	return true, r.db.Omit("Player", "Match").Create(a).Error
}

func (r *GormMatchRepository) ListAchievements(playerID uint) ([]Achievement, error) {
	var items []Achievement
	err := r.db.Where("player_id = ?", playerID).Order("date_awarded desc, id desc").Find(&items).Error
	return items, err
}
