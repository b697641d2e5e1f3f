package team

import (
	"errors"
	"strings"

	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"gorm.io/gorm"
)

// TeamRepository reads teams and rosters.
type TeamRepository interface {
	GetTeamByID(id uint) (*registry.Team, error)
	GetAllTeams(filter TeamFilter, page, limit int) ([]registry.Team, int64, error)
	CountPlayers(teamIDs []uint) (map[uint]int64, error)
	GetTeamMembers(teamID uint, activeOnly bool) ([]registry.PlayerSportProfile, error)
	TeamIDsForPlayer(playerID uint) ([]uint, error)
}

type teamRepository struct {
	db *gorm.DB
}

// NewTeamRepository creates a new instance of TeamRepository
func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) GetTeamByID(id uint) (*registry.Team, error) {
	var team registry.Team
	if err := r.db.Preload("Sport").Preload("Coach").First(&team, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &team, nil
}

func (r *teamRepository) GetAllTeams(filter TeamFilter, page, limit int) ([]registry.Team, int64, error) {
	var teams []registry.Team
	var total int64

	query := r.db.Model(&registry.Team{})
	if filter.SportID != nil {
		query = query.Where("sport_id = ?", *filter.SportID)
	}
	if filter.ManagerUserID != nil {
		query = query.Where("manager_id = ?", *filter.ManagerUserID)
	}
	if filter.CoachID != nil {
		query = query.Where("coach_id = ?", *filter.CoachID)
	}
	if filter.IDs != nil {
		if len(filter.IDs) == 0 {
			return []registry.Team{}, 0, nil
		}
		query = query.Where("id IN ?", filter.IDs)
	}
	if name := strings.TrimSpace(filter.Name); name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Preload("Sport").Preload("Coach").
		Order("name asc, id asc").Offset(offset).Limit(limit).Find(&teams).Error
	return teams, total, err
}

// CountPlayers returns the active roster size per team.
func (r *teamRepository) CountPlayers(teamIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(teamIDs))
	if len(teamIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		TeamID uint
		N      int64
	}
	err := r.db.Model(&registry.PlayerSportProfile{}).
		Select("team_id, COUNT(*) AS n").
		Where("team_id IN ? AND is_active = ?", teamIDs, true).
		Group("team_id").Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TeamID] = row.N
	}
	return counts, nil
}

func (r *teamRepository) GetTeamMembers(teamID uint, activeOnly bool) ([]registry.PlayerSportProfile, error) {
	var members []registry.PlayerSportProfile
	query := r.db.Preload("Player").Where("team_id = ?", teamID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	err := query.Order("id asc").Find(&members).Error
	return members, err
}

func (r *teamRepository) TeamIDsForPlayer(playerID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&registry.PlayerSportProfile{}).
		Where("player_id = ? AND team_id IS NOT NULL", playerID).
		Distinct().Pluck("team_id", &ids).Error
	return ids, err
}
