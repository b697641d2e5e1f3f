package registry

import (
	"errors"

	"gorm.io/gorm"
)

// ProfileFilter narrows ListProfiles. Nil fields are ignored.
type ProfileFilter struct {
	PlayerID      *uint
	SportID       *uint
	CoachID       *uint
	TeamID        *uint
	ManagerUserID *uint // profiles on teams managed by this user
	ActiveOnly    bool
}

// Repository defines the data operations on the entity registry.
type Repository interface {
	// Players
	CreatePlayer(p *Player) error
	GetPlayerByID(id uint) (*Player, error)
	GetPlayerByCode(playerID string) (*Player, error)
	GetPlayerByUserID(userID uint) (*Player, error)
	ListPlayers(page, limit int, activeOnly bool) ([]Player, int64, error)

	// Coaches, managers, admins
	CreateCoach(c *Coach) error
	GetCoachByID(id uint) (*Coach, error)
	GetCoachByUserID(userID uint) (*Coach, error)
	ListCoaches(sportID *uint, page, limit int) ([]Coach, int64, error)
	CreateManager(m *Manager) error
	GetManagerByUserID(userID uint) (*Manager, error)
	CreateAdmin(a *Admin) error
	GetAdminByUserID(userID uint) (*Admin, error)

	// Manager sport assignments
	AssignManagerSport(ms *ManagerSport) error
	GetManagerSport(managerID, sportID uint) (*ManagerSport, error)
	GetManagerSportByID(id uint) (*ManagerSport, error)
	DeleteManagerSport(id uint) error
	IsManagerAssignedToSport(managerUserID, sportID uint) (bool, error)
	ListManagerSports(managerID uint) ([]ManagerSport, error)

	// Teams
	CreateTeam(t *Team) error
	GetTeamByID(id uint) (*Team, error)
	UpdateTeam(t *Team) error

	// Profiles
	CreateProfile(p *PlayerSportProfile) error
	GetProfile(playerID, sportID uint) (*PlayerSportProfile, error)
	GetProfileByID(id uint) (*PlayerSportProfile, error)
	ListProfiles(filter ProfileFilter, page, limit int) ([]PlayerSportProfile, int64, error)
	UpdateProfile(p *PlayerSportProfile) error

	WithTransaction(txFunc func(Repository) error) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository creates a new instance of Repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// take loads one row into dest, mapping not-found to (false, nil).
func take(query *gorm.DB, dest any) (bool, error) {
	if err := query.Take(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// --- Players ---

func (r *repository) CreatePlayer(p *Player) error {
	return r.db.Create(p).Error
}

func (r *repository) GetPlayerByID(id uint) (*Player, error) {
	var p Player
	if ok, err := take(r.db.Preload("User").Where("id = ?", id), &p); !ok {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetPlayerByCode(playerID string) (*Player, error) {
	var p Player
	if ok, err := take(r.db.Preload("User").Where("player_id = ?", playerID), &p); !ok {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetPlayerByUserID(userID uint) (*Player, error) {
	var p Player
	if ok, err := take(r.db.Where("user_id = ?", userID), &p); !ok {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListPlayers(page, limit int, activeOnly bool) ([]Player, int64, error) {
	var players []Player
	var total int64
	query := r.db.Model(&Player{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("player_id asc").Offset((page - 1) * limit).Limit(limit).Find(&players).Error
	return players, total, err
}

// --- Coaches, managers, admins ---

func (r *repository) CreateCoach(c *Coach) error {
	return r.db.Create(c).Error
}

func (r *repository) GetCoachByID(id uint) (*Coach, error) {
	var c Coach
	if ok, err := take(r.db.Preload("PrimarySport").Where("id = ?", id), &c); !ok {
		return nil, err
	}
	return &c, nil
}

func (r *repository) GetCoachByUserID(userID uint) (*Coach, error) {
	var c Coach
	if ok, err := take(r.db.Preload("PrimarySport").Where("user_id = ?", userID), &c); !ok {
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListCoaches(sportID *uint, page, limit int) ([]Coach, int64, error) {
	var coaches []Coach
	var total int64
	query := r.db.Model(&Coach{})
	if sportID != nil {
		query = query.Where("primary_sport_id = ?", *sportID)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Preload("PrimarySport").Order("coach_id asc").
		Offset((page - 1) * limit).Limit(limit).Find(&coaches).Error
	return coaches, total, err
}

func (r *repository) CreateManager(m *Manager) error {
	return r.db.Create(m).Error
}

func (r *repository) GetManagerByUserID(userID uint) (*Manager, error) {
	var m Manager
	if ok, err := take(r.db.Where("user_id = ?", userID), &m); !ok {
		return nil, err
	}
	return &m, nil
}

func (r *repository) CreateAdmin(a *Admin) error {
	return r.db.Create(a).Error
}

func (r *repository) GetAdminByUserID(userID uint) (*Admin, error) {
	var a Admin
	if ok, err := take(r.db.Where("user_id = ?", userID), &a); !ok {
		return nil, err
	}
	return &a, nil
}

// --- Manager sport assignments ---

func (r *repository) AssignManagerSport(ms *ManagerSport) error {
	return r.db.Create(ms).Error
}

func (r *repository) GetManagerSport(managerID, sportID uint) (*ManagerSport, error) {
	var ms ManagerSport
	if ok, err := take(r.db.Where("manager_id = ? AND sport_id = ?", managerID, sportID), &ms); !ok {
		return nil, err
	}
	return &ms, nil
}

func (r *repository) GetManagerSportByID(id uint) (*ManagerSport, error) {
	var ms ManagerSport
	if ok, err := take(r.db.Preload("Sport").Where("id = ?", id), &ms); !ok {
		return nil, err
	}
	return &ms, nil
}

func (r *repository) DeleteManagerSport(id uint) error {
	return r.db.Delete(&ManagerSport{}, id).Error
}

func (r *repository) IsManagerAssignedToSport(managerUserID, sportID uint) (bool, error) {
	var count int64
	err := r.db.Model(&ManagerSport{}).
		Joins("JOIN managers ON managers.id = manager_sports.manager_id").
		Where("managers.user_id = ? AND manager_sports.sport_id = ? AND managers.deleted_at IS NULL", managerUserID, sportID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListManagerSports(managerID uint) ([]ManagerSport, error) {
	var list []ManagerSport
	err := r.db.Preload("Sport").Where("manager_id = ?", managerID).Order("id asc").Find(&list).Error
	return list, err
}

// --- Teams ---

func (r *repository) CreateTeam(t *Team) error {
	return r.db.Create(t).Error
}

func (r *repository) GetTeamByID(id uint) (*Team, error) {
	var t Team
	if ok, err := take(r.db.Preload("Sport").Preload("Coach").Where("id = ?", id), &t); !ok {
		return nil, err
	}
	return &t, nil
}

func (r *repository) UpdateTeam(t *Team) error {
	return r.db.Omit("Sport", "Manager", "Coach").Save(t).Error
}

// --- Profiles ---

func (r *repository) CreateProfile(p *PlayerSportProfile) error {
	return r.db.Create(p).Error
}

func (r *repository) GetProfile(playerID, sportID uint) (*PlayerSportProfile, error) {
	var p PlayerSportProfile
	if ok, err := take(r.db.Where("player_id = ? AND sport_id = ?", playerID, sportID), &p); !ok {
		return nil, err
	}
	return &p, nil
}

func (r *repository) GetProfileByID(id uint) (*PlayerSportProfile, error) {
	var p PlayerSportProfile
	query := r.db.Preload("Player").Preload("Sport").Preload("Team").Where("id = ?", id)
	if ok, err := take(query, &p); !ok {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListProfiles(filter ProfileFilter, page, limit int) ([]PlayerSportProfile, int64, error) {
	var profiles []PlayerSportProfile
	var total int64

	query := r.db.Model(&PlayerSportProfile{})
	if filter.PlayerID != nil {
		query = query.Where("player_sport_profiles.player_id = ?", *filter.PlayerID)
	}
	if filter.SportID != nil {
		query = query.Where("player_sport_profiles.sport_id = ?", *filter.SportID)
	}
	if filter.CoachID != nil {
		query = query.Where("player_sport_profiles.coach_id = ?", *filter.CoachID)
	}
	if filter.TeamID != nil {
		query = query.Where("player_sport_profiles.team_id = ?", *filter.TeamID)
	}
	if filter.ManagerUserID != nil {
		query = query.Where("player_sport_profiles.team_id IN (?)",
			r.db.Model(&Team{}).Select("id").Where("manager_id = ?", *filter.ManagerUserID))
	}
	if filter.ActiveOnly {
		query = query.Where("player_sport_profiles.is_active = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		query = query.Offset((page - 1) * limit).Limit(limit)
	}
	err := query.Preload("Player").Preload("Sport").Preload("Team").
		Order("player_sport_profiles.id asc").Find(&profiles).Error
	return profiles, total, err
}

func (r *repository) UpdateProfile(p *PlayerSportProfile) error {
	return r.db.Omit("Player", "Sport", "Coach", "Team").Save(p).Error
}

func (r *repository) WithTransaction(txFunc func(Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return txFunc(&repository{db: tx})
	})
}
