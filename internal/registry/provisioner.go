package registry

import (
	"context"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultSportName is used when no default sport is configured.
const DefaultSportName = "Cricket"

// Provisioner creates the derived records implied by a role assignment. It
// implements user.Provisioner and is invoked explicitly after the role is
// written.
type Provisioner struct {
	ids          *IDGenerator
	stats        *sport.Registry
	defaultSport string
	now          func() time.Time
}

func NewProvisioner(ids *IDGenerator, stats *sport.Registry, defaultSport string) *Provisioner {
	return &Provisioner{ids: ids, stats: stats, defaultSport: defaultSport, now: time.Now}
}

var _ user.Provisioner = (*Provisioner)(nil)

// Provision creates the Player, Manager or Admin profile for u's role when it
// does not exist yet. Coaches are only created through ProvisionCoach.
func (p *Provisioner) Provision(ctx context.Context, tx *gorm.DB, u *user.User) error {
	tx = tx.WithContext(ctx)
	switch u.Role {
	case user.RolePlayer:
		_, err := p.EnsurePlayer(tx, u)
		return err
	case user.RoleManager:
		_, err := p.ensureManager(tx, u)
		return err
	case user.RoleAdmin:
		return p.ensureAdmin(tx, u)
	}
	return nil
}

// EnsurePlayer returns u's player, creating it with a fresh player_id and the
// default sport profile when missing.
func (p *Provisioner) EnsurePlayer(tx *gorm.DB, u *user.User) (*Player, error) {
	repo := NewRepository(tx)
	existing, err := repo.GetPlayerByUserID(u.ID)
	if err != nil || existing != nil {
		return existing, err
	}

	code, err := p.ids.NextPlayerID(tx)
	if err != nil {
		return nil, err
	}
	player := &Player{
		UserID:   u.ID,
		PlayerID: code,
		IsActive: true,
		JoinedAt: p.now(),
	}
	if err := repo.CreatePlayer(player); err != nil {
		return nil, err
	}
	if err := p.attachDefaultSport(tx, player); err != nil {
		return nil, err
	}
	return player, nil
}

func (p *Provisioner) attachDefaultSport(tx *gorm.DB, player *Player) error {
	if p.defaultSport == "" {
		return nil
	}
	sp, err := sport.NewSportRepository(tx).GetOrCreateSport(p.defaultSport, sport.TypeTeam)
	if err != nil {
		return err
	}
	_, _, err = p.EnsureProfile(tx, player.ID, sp.ID)
	return err
}

// EnsureProfile returns the (player, sport) profile, creating an active bare
// profile and its empty stats record when absent. created reports whether a
// row was inserted.
func (p *Provisioner) EnsureProfile(tx *gorm.DB, playerID, sportID uint) (profile *PlayerSportProfile, created bool, err error) {
	repo := NewRepository(tx)
	if profile, err = repo.GetProfile(playerID, sportID); err != nil || profile != nil {
		return profile, false, err
	}

	profile = &PlayerSportProfile{
		PlayerID:   playerID,
		SportID:    sportID,
		IsActive:   true,
		JoinedDate: p.now(),
	}
	if err := repo.CreateProfile(profile); err != nil {
		return nil, false, err
	}
	if err := p.createStats(tx, profile); err != nil {
		return nil, false, err
	}
	return profile, true, nil
}

func (p *Provisioner) createStats(tx *gorm.DB, profile *PlayerSportProfile) error {
	if p.stats == nil {
		return nil
	}
	sp, err := sport.NewSportRepository(tx).GetSportByID(profile.SportID)
	if err != nil {
		return err
	}
	if sp == nil {
		return apperr.NotFound("sport %d not found", profile.SportID)
	}
	desc, ok := p.stats.Lookup(sp.Name)
	if !ok {
		return nil
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(desc.NewStats(profile.ID)).Error
}

func (p *Provisioner) ensureManager(tx *gorm.DB, u *user.User) (*Manager, error) {
	repo := NewRepository(tx)
	existing, err := repo.GetManagerByUserID(u.ID)
	if err != nil || existing != nil {
		return existing, err
	}
	code, err := p.ids.NextManagerID(tx)
	if err != nil {
		return nil, err
	}
	m := &Manager{UserID: u.ID, ManagerID: code}
	return m, repo.CreateManager(m)
}

func (p *Provisioner) ensureAdmin(tx *gorm.DB, u *user.User) error {
	repo := NewRepository(tx)
	existing, err := repo.GetAdminByUserID(u.ID)
	if err != nil || existing != nil {
		return err
	}
	return repo.CreateAdmin(&Admin{UserID: u.ID})
}

// ProvisionCoach creates the coach profile for u with a fresh coach_id. It
// fails with a conflict when u already coaches.
func (p *Provisioner) ProvisionCoach(tx *gorm.DB, u *user.User, sportID uint, fromPlayerID *uint) (*Coach, error) {
	repo := NewRepository(tx)
	existing, err := repo.GetCoachByUserID(u.ID)
	if err != nil {
		return nil, apperr.Wrap("lookup coach", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("user %d already has a coach profile", u.ID)
	}
	code, err := p.ids.NextCoachID(tx)
	if err != nil {
		return nil, apperr.Wrap("allocate coach id", err)
	}
	coach := &Coach{
		UserID:         u.ID,
		CoachID:        code,
		PrimarySportID: sportID,
		FromPlayerID:   fromPlayerID,
	}
	if err := repo.CreateCoach(coach); err != nil {
		return nil, apperr.Wrap("create coach", err)
	}
	return coach, nil
}
