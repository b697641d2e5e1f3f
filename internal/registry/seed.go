package registry

import (
	"context"
	"fmt"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "demo-pass-123"

const demoPlayersPerSport = 3

var demoSports = []struct {
	Name string
	Type sport.SportType
}{
	{"Cricket", sport.TypeTeam},
	{"Football", sport.TypeTeam},
	{"Basketball", sport.TypeTeam},
	{"Running", sport.TypeIndividual},
}

// SeedDemo fills an empty club with the built-in sports, one admin, a coach
// and a manager per sport, and a few players with stats. It does nothing
// when the demo admin already exists.
func SeedDemo(ctx context.Context, db *gorm.DB, roles *user.Service, prov *Provisioner) (seeded bool, err error) {
	existing, err := user.NewUserRepository(db.WithContext(ctx)).GetUserByUsername("demo_admin")
	if err != nil {
		return false, apperr.Wrap("check demo admin", err)
	}
	if existing != nil {
		return false, nil
	}
	if _, err := registerDemo(ctx, roles, "demo_admin", user.RoleAdmin); err != nil {
		return false, err
	}

	for _, ds := range demoSports {
		sp, err := sport.NewSportRepository(db.WithContext(ctx)).GetOrCreateSport(ds.Name, ds.Type)
		if err != nil {
			return false, apperr.Wrap("create sport", err)
		}
		if err := seedSport(ctx, db, roles, prov, sp); err != nil {
			return false, fmt.Errorf("seed %s: %w", sp.Name, err)
		}
	}
	return true, nil
}

func seedSport(ctx context.Context, db *gorm.DB, roles *user.Service, prov *Provisioner, sp *sport.Sport) error {
	key := sport.Key(sp.Name)

	managerUser, err := registerDemo(ctx, roles, "manager_"+key, user.RoleManager)
	if err != nil {
		return err
	}
	coachUser, err := registerDemo(ctx, roles, "coach_"+key, user.RoleCoach)
	if err != nil {
		return err
	}
	var players []*user.User
	for i := 1; i <= demoPlayersPerSport; i++ {
		u, err := registerDemo(ctx, roles, fmt.Sprintf("player_%s_%d", key, i), user.RolePlayer)
		if err != nil {
			return err
		}
		players = append(players, u)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		manager, err := repo.GetManagerByUserID(managerUser.ID)
		if err != nil {
			return apperr.Wrap("load demo manager", err)
		}
		if manager == nil {
			return apperr.Integrity("manager %s was not provisioned", managerUser.Username)
		}
		if err := repo.AssignManagerSport(&ManagerSport{ManagerID: manager.ID, SportID: sp.ID}); err != nil {
			return apperr.Wrap("assign demo manager", err)
		}
		coach, err := prov.ProvisionCoach(tx, coachUser, sp.ID, nil)
		if err != nil {
			return err
		}

		var team *Team
		if sp.SportType == sport.TypeTeam {
			team = &Team{Name: sp.Name + " Demo XI", SportID: &sp.ID, ManagerID: &managerUser.ID, CoachID: &coach.ID}
			if err := repo.CreateTeam(team); err != nil {
				return apperr.Wrap("create demo team", err)
			}
		}

		desc, hasStats := prov.stats.Lookup(sp.Name)
		for i, u := range players {
			player, err := repo.GetPlayerByUserID(u.ID)
			if err != nil {
				return apperr.Wrap("load demo player", err)
			}
			if player == nil {
				return apperr.Integrity("player %s was not provisioned", u.Username)
			}
			profile, _, err := prov.EnsureProfile(tx, player.ID, sp.ID)
			if err != nil {
				return apperr.Wrap("create demo profile", err)
			}
			profile.CoachID = &coach.ID
			profile.CareerScore = float64(10 * (i + 1))
			if team != nil {
				profile.TeamID = &team.ID
			}
			if err := repo.UpdateProfile(profile); err != nil {
				return apperr.Wrap("update demo profile", err)
			}
			if !hasStats {
				continue
			}
			if err := tx.Model(desc.NewStats(profile.ID)).Where("profile_id = ?", profile.ID).
				Updates(demoStats(desc, i)).Error; err != nil {
				return apperr.Wrap("fill demo stats", err)
			}
		}
		return nil
	})
}

// demoStats gives the i-th player distinct values on every metric.
func demoStats(desc sport.Descriptor, i int) map[string]any {
	values := map[string]any{"matches_played": 5 + i}
	for m, metric := range desc.Metrics {
		if metric.Order == sport.LowerIsBetter {
			values[metric.Name] = float64(300 - 15*i)
			continue
		}
		values[metric.Name] = float64((i + 1) * (m + 2))
	}
	return values
}

func registerDemo(ctx context.Context, roles *user.Service, username string, role user.Role) (*user.User, error) {
	u, err := roles.Register(ctx, user.RegisterInput{
		Username:  username,
		Email:     username + "@demo.club",
		Password:  DemoPassword,
		FirstName: "Demo",
		Role:      role,
	})
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", username, err)
	}
	return u, nil
}
