// Package fixtures builds users, profiles and sports for service tests.
package fixtures

import (
	"context"
	"testing"

	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"github.com/DhavalSuthar-24/clubhouse/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Models lists the tables every service test needs.
func Models() []any {
	var models []any
	models = append(models, user.Models()...)
	models = append(models, sport.Models()...)
	models = append(models, registry.Models()...)
	return models
}

// Env bundles the registry services over one test database.
type Env struct {
	t     testing.TB
	DB    *gorm.DB
	IDs   *registry.IDGenerator
	Prov  *registry.Provisioner
	Roles *user.Service
	Stats *sport.Registry
}

func New(t testing.TB, db *gorm.DB) *Env {
	t.Helper()
	utils.PasswordCost = bcrypt.MinCost
	ids := registry.NewIDGenerator()
	stats := sport.DefaultRegistry()
	prov := registry.NewProvisioner(ids, stats, registry.DefaultSportName)
	return &Env{
		t:     t,
		DB:    db,
		IDs:   ids,
		Prov:  prov,
		Roles: user.NewService(db, prov),
		Stats: stats,
	}
}

// Sport returns the named sport, creating it when missing.
func (e *Env) Sport(name string, typ sport.SportType) *sport.Sport {
	e.t.Helper()
	sp, err := sport.NewSportRepository(e.DB).GetOrCreateSport(name, typ)
	if err != nil {
		e.t.Fatalf("sport %s: %v", name, err)
	}
	return sp
}

// User registers a user with role, running provisioning.
func (e *Env) User(username string, role user.Role) *user.User {
	e.t.Helper()
	u, err := e.Roles.Register(context.Background(), user.RegisterInput{
		Username: username,
		Email:    username + "@club.test",
		Password: "password123",
		Role:     role,
	})
	if err != nil {
		e.t.Fatalf("register %s: %v", username, err)
	}
	return u
}

// Player registers a player and returns the provisioned profile.
func (e *Env) Player(username string) (*user.User, *registry.Player) {
	e.t.Helper()
	u := e.User(username, user.RolePlayer)
	p, err := registry.NewRepository(e.DB).GetPlayerByUserID(u.ID)
	if err != nil || p == nil {
		e.t.Fatalf("player for %s: %v", username, err)
	}
	return u, p
}

// Coach registers a coach of sportID.
func (e *Env) Coach(username string, sportID uint) (*user.User, *registry.Coach) {
	e.t.Helper()
	u := e.User(username, user.RoleCoach)
	var coach *registry.Coach
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		coach, err = e.Prov.ProvisionCoach(tx, u, sportID, nil)
		return err
	})
	if err != nil {
		e.t.Fatalf("coach %s: %v", username, err)
	}
	return u, coach
}

// Manager registers a manager assigned to the given sports.
func (e *Env) Manager(username string, sportIDs ...uint) (*user.User, *registry.Manager) {
	e.t.Helper()
	u := e.User(username, user.RoleManager)
	repo := registry.NewRepository(e.DB)
	m, err := repo.GetManagerByUserID(u.ID)
	if err != nil || m == nil {
		e.t.Fatalf("manager for %s: %v", username, err)
	}
	for _, id := range sportIDs {
		if err := repo.AssignManagerSport(&registry.ManagerSport{ManagerID: m.ID, SportID: id}); err != nil {
			e.t.Fatalf("assign manager sport: %v", err)
		}
	}
	return u, m
}

// Admin registers an admin.
func (e *Env) Admin(username string) *user.User {
	e.t.Helper()
	return e.User(username, user.RoleAdmin)
}

// Actor resolves the request actor for userID.
func (e *Env) Actor(userID uint) *registry.Actor {
	e.t.Helper()
	a, err := registry.ResolveActor(context.Background(), e.DB, userID)
	if err != nil {
		e.t.Fatalf("resolve actor %d: %v", userID, err)
	}
	return a
}

// Student makes playerID an active student of coach in the coach's sport.
func (e *Env) Student(playerID uint, coach *registry.Coach) *registry.PlayerSportProfile {
	e.t.Helper()
	var profile *registry.PlayerSportProfile
	err := e.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		if profile, _, err = e.Prov.EnsureProfile(tx, playerID, coach.PrimarySportID); err != nil {
			return err
		}
		profile.CoachID = &coach.ID
		profile.IsActive = true
		return registry.NewRepository(tx).UpdateProfile(profile)
	})
	if err != nil {
		e.t.Fatalf("student profile: %v", err)
	}
	return profile
}

// Team creates a team directly, bypassing the proposal workflow.
func (e *Env) Team(name string, sportID uint, managerUserID uint, coachID *uint) *registry.Team {
	e.t.Helper()
	team := &registry.Team{Name: name, SportID: &sportID, ManagerID: &managerUserID, CoachID: coachID}
	if err := registry.NewRepository(e.DB).CreateTeam(team); err != nil {
		e.t.Fatalf("team %s: %v", name, err)
	}
	return team
}

// Profile reloads the (player, sport) profile.
func (e *Env) Profile(playerID, sportID uint) *registry.PlayerSportProfile {
	e.t.Helper()
	p, err := registry.NewRepository(e.DB).GetProfile(playerID, sportID)
	if err != nil {
		e.t.Fatalf("profile: %v", err)
	}
	return p
}
