package registry

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/testutil"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"github.com/DhavalSuthar-24/clubhouse/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type harness struct {
	db    *gorm.DB
	ids   *IDGenerator
	prov  *Provisioner
	roles *user.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	utils.PasswordCost = bcrypt.MinCost
	var models []any
	models = append(models, user.Models()...)
	models = append(models, sport.Models()...)
	models = append(models, Models()...)
	db := testutil.NewDB(t, models...)

	ids := NewIDGenerator()
	ids.now = func() time.Time { return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC) }
	prov := NewProvisioner(ids, sport.DefaultRegistry(), DefaultSportName)
	return &harness{db: db, ids: ids, prov: prov, roles: user.NewService(db, prov)}
}

func (h *harness) register(t *testing.T, name string, role user.Role) *user.User {
	t.Helper()
	u, err := h.roles.Register(context.Background(), user.RegisterInput{
		Username: name,
		Email:    name + "@club.test",
		Password: "password123",
		Role:     role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

func (h *harness) player(t *testing.T, userID uint) *Player {
	t.Helper()
	p, err := NewRepository(h.db).GetPlayerByUserID(userID)
	if err != nil || p == nil {
		t.Fatalf("player for user %d: %v", userID, err)
	}
	return p
}

func TestPlayerIDsAreSequentialWithinYear(t *testing.T) {
	h := newHarness(t)
	for i := 1; i <= 3; i++ {
		u := h.register(t, fmt.Sprintf("player%d", i), user.RolePlayer)
		got := h.player(t, u.ID).PlayerID
		want := fmt.Sprintf("P26%05d", i)
		if got != want {
			t.Fatalf("player %d id = %s, want %s", i, got, want)
		}
	}
}

func TestPlayerIDSequenceSeedsFromExistingRows(t *testing.T) {
	h := newHarness(t)
	legacy := &user.User{Username: "legacy", Email: "legacy@club.test", Password: "x", Role: user.RolePlayer}
	if err := h.db.Create(legacy).Error; err != nil {
		t.Fatalf("create legacy user: %v", err)
	}
	if err := h.db.Create(&Player{UserID: legacy.ID, PlayerID: "P2600041", IsActive: true}).Error; err != nil {
		t.Fatalf("create legacy player: %v", err)
	}

	u := h.register(t, "fresh", user.RolePlayer)
	if got := h.player(t, u.ID).PlayerID; got != "P2600042" {
		t.Fatalf("player id = %s, want P2600042", got)
	}
}

func TestPlayerIDsUniqueUnderConcurrency(t *testing.T) {
	h := newHarness(t)
	const n = 20

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.roles.Register(context.Background(), user.RegisterInput{
				Username: fmt.Sprintf("racer%02d", i),
				Email:    fmt.Sprintf("racer%02d@club.test", i),
				Password: "password123",
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	var ids []string
	if err := h.db.Model(&Player{}).Order("player_id asc").Pluck("player_id", &ids).Error; err != nil {
		t.Fatalf("pluck: %v", err)
	}
	if len(ids) != n {
		t.Fatalf("got %d players, want %d", len(ids), n)
	}
	for i, id := range ids {
		if want := fmt.Sprintf("P26%05d", i+1); id != want {
			t.Fatalf("ids[%d] = %s, want %s", i, id, want)
		}
	}
}

func TestProvisionCreatesDefaultProfileWithStats(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "rookie", user.RolePlayer)
	p := h.player(t, u.ID)

	cricket, err := sport.NewSportRepository(h.db).FindSportByName("cricket")
	if err != nil || cricket == nil {
		t.Fatalf("default sport missing: %v", err)
	}
	profile, err := NewRepository(h.db).GetProfile(p.ID, cricket.ID)
	if err != nil || profile == nil {
		t.Fatalf("default profile missing: %v", err)
	}
	if !profile.IsActive || profile.TeamID != nil || profile.CoachID != nil {
		t.Fatalf("unexpected default profile: %+v", profile)
	}

	var stats sport.CricketStats
	if err := h.db.Where("profile_id = ?", profile.ID).Take(&stats).Error; err != nil {
		t.Fatalf("cricket stats missing: %v", err)
	}
	if stats.MatchesPlayed != 0 || stats.Runs != 0 {
		t.Fatalf("stats should start empty: %+v", stats)
	}
}

func TestProvisionIsIdempotentOnRoleReassignment(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "flip", user.RolePlayer)
	before := h.player(t, u.ID)

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := h.roles.ChangeRole(context.Background(), tx, u, user.RoleManager, nil); err != nil {
			return err
		}
		return h.roles.ChangeRole(context.Background(), tx, u, user.RolePlayer, nil)
	})
	if err != nil {
		t.Fatalf("change role: %v", err)
	}

	var count int64
	h.db.Model(&Player{}).Where("user_id = ?", u.ID).Count(&count)
	if count != 1 {
		t.Fatalf("players for user = %d, want 1", count)
	}
	if after := h.player(t, u.ID); after.PlayerID != before.PlayerID {
		t.Fatalf("player id changed from %s to %s", before.PlayerID, after.PlayerID)
	}
	if m, _ := NewRepository(h.db).GetManagerByUserID(u.ID); m == nil || m.ManagerID != "M00001" {
		t.Fatalf("manager profile = %+v", m)
	}

	history, err := user.NewUserRepository(h.db).ListRoleHistory(u.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history rows = %d, want 3", len(history))
	}
	if history[1].PreviousRole != user.RolePlayer || history[1].NewRole != user.RoleManager {
		t.Fatalf("unexpected history entry: %+v", history[1])
	}
}

func TestEnsureProfileReturnsExisting(t *testing.T) {
	h := newHarness(t)
	u := h.register(t, "twice", user.RolePlayer)
	p := h.player(t, u.ID)
	football, _ := sport.NewSportRepository(h.db).GetOrCreateSport("Football", sport.TypeTeam)

	var first, second *PlayerSportProfile
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var created bool
		var err error
		if first, created, err = h.prov.EnsureProfile(tx, p.ID, football.ID); err != nil || !created {
			return fmt.Errorf("first ensure: created=%v err=%v", created, err)
		}
		if second, created, err = h.prov.EnsureProfile(tx, p.ID, football.ID); err != nil || created {
			return fmt.Errorf("second ensure: created=%v err=%v", created, err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != second.ID {
		t.Fatalf("profile ids differ: %d vs %d", first.ID, second.ID)
	}
	var stats int64
	h.db.Model(&sport.FootballStats{}).Where("profile_id = ?", first.ID).Count(&stats)
	if stats != 1 {
		t.Fatalf("football stats rows = %d, want 1", stats)
	}
}

func TestResolveActor(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	pu := h.register(t, "pat", user.RolePlayer)
	mu := h.register(t, "meg", user.RoleManager)
	au := h.register(t, "ada", user.RoleAdmin)
	cu := h.register(t, "cody", user.RoleCoach)

	tests := []struct {
		name    string
		userID  uint
		kind    ProfileKind
		isAdmin bool
	}{
		{"player", pu.ID, KindPlayer, false},
		{"manager", mu.ID, KindManager, false},
		{"admin", au.ID, KindAdmin, true},
		{"coach without profile", cu.ID, KindNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ResolveActor(ctx, h.db, tt.userID)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if a.Kind != tt.kind || a.IsAdmin() != tt.isAdmin {
				t.Fatalf("kind=%s admin=%v, want %s/%v", a.Kind, a.IsAdmin(), tt.kind, tt.isAdmin)
			}
		})
	}

	if _, err := ResolveActor(ctx, h.db, 9999); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("unknown user error = %v", err)
	}
}

func TestAssignManagerSport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := NewService(h.db, h.prov, h.roles, nil)
	admin := h.register(t, "root", user.RoleAdmin)
	mgr := h.register(t, "boss", user.RoleManager)
	football, _ := sport.NewSportRepository(h.db).GetOrCreateSport("Football", sport.TypeTeam)

	adminActor, _ := ResolveActor(ctx, h.db, admin.ID)
	mgrActor, _ := ResolveActor(ctx, h.db, mgr.ID)

	if _, err := svc.AssignManagerSport(ctx, mgrActor, mgr.ID, football.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("non-admin assign error = %v", err)
	}
	if _, err := svc.AssignManagerSport(ctx, adminActor, mgr.ID, football.ID); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.AssignManagerSport(ctx, adminActor, mgr.ID, football.ID); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("duplicate assign error = %v", err)
	}
	ok, err := NewRepository(h.db).IsManagerAssignedToSport(mgr.ID, football.ID)
	if err != nil || !ok {
		t.Fatalf("IsManagerAssignedToSport = %v, %v", ok, err)
	}
}

func TestRemoveManagerSport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := NewService(h.db, h.prov, h.roles, nil)
	admin := h.register(t, "root", user.RoleAdmin)
	mgr := h.register(t, "boss", user.RoleManager)
	football, _ := sport.NewSportRepository(h.db).GetOrCreateSport("Football", sport.TypeTeam)
	adminActor, _ := ResolveActor(ctx, h.db, admin.ID)
	mgrActor, _ := ResolveActor(ctx, h.db, mgr.ID)

	assignment, err := svc.AssignManagerSport(ctx, adminActor, mgr.ID, football.ID)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, err := svc.RemoveManagerSport(ctx, mgrActor, assignment.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("non-admin remove error = %v", err)
	}
	removed, err := svc.RemoveManagerSport(ctx, adminActor, assignment.ID)
	if err != nil || removed.ID != assignment.ID || removed.Sport.ID != football.ID {
		t.Fatalf("remove = %+v, %v", removed, err)
	}
	if left, _ := NewRepository(h.db).GetManagerSportByID(assignment.ID); left != nil {
		t.Fatalf("assignment still present: %+v", left)
	}
	if _, err := svc.RemoveManagerSport(ctx, adminActor, assignment.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("second remove error = %v", err)
	}
	if _, err := svc.AssignManagerSport(ctx, adminActor, mgr.ID, football.ID); err != nil {
		t.Fatalf("reassign after removal: %v", err)
	}
}

func TestSeedCoachSwitchesRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := NewService(h.db, h.prov, h.roles, nil)
	admin := h.register(t, "root", user.RoleAdmin)
	target := h.register(t, "future", user.RolePlayer)
	cricket, _ := sport.NewSportRepository(h.db).FindSportByName("Cricket")
	adminActor, _ := ResolveActor(ctx, h.db, admin.ID)

	coach, err := svc.SeedCoach(ctx, adminActor, SeedCoachInput{UserID: target.ID, SportID: cricket.ID, ExperienceYears: 4})
	if err != nil {
		t.Fatalf("seed coach: %v", err)
	}
	if coach.CoachID != "C000001" || coach.PrimarySportID != cricket.ID {
		t.Fatalf("unexpected coach: %+v", coach)
	}
	actor, _ := ResolveActor(ctx, h.db, target.ID)
	if actor.Kind != KindCoach || actor.Coach.ExperienceYears != 4 {
		t.Fatalf("actor = %+v", actor)
	}
	if _, err := svc.SeedCoach(ctx, adminActor, SeedCoachInput{UserID: target.ID, SportID: cricket.ID}); !apperr.IsKind(err, apperr.KindConflict) {
		t.Fatalf("second seed error = %v", err)
	}
}

func TestUpdateProfileAuthority(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	svc := NewService(h.db, h.prov, h.roles, nil)
	cricket, _ := sport.NewSportRepository(h.db).GetOrCreateSport("Cricket", sport.TypeTeam)

	pu := h.register(t, "pupil", user.RolePlayer)
	p := h.player(t, pu.ID)
	profile, _ := NewRepository(h.db).GetProfile(p.ID, cricket.ID)

	cu := h.register(t, "coachy", user.RolePlayer)
	var coach *Coach
	h.db.Transaction(func(tx *gorm.DB) error {
		var err error
		coach, err = h.prov.ProvisionCoach(tx, cu, cricket.ID, nil)
		if err != nil {
			return err
		}
		return h.roles.ChangeRole(ctx, tx, cu, user.RoleCoach, nil)
	})
	profile.CoachID = &coach.ID
	if err := NewRepository(h.db).UpdateProfile(profile); err != nil {
		t.Fatalf("link coach: %v", err)
	}

	mu := h.register(t, "mgr", user.RoleManager)
	other := h.register(t, "othermgr", user.RoleManager)
	team := &Team{Name: "Hawks", SportID: &cricket.ID, ManagerID: &mu.ID}
	NewRepository(h.db).CreateTeam(team)

	coachActor, _ := ResolveActor(ctx, h.db, cu.ID)
	mgrActor, _ := ResolveActor(ctx, h.db, mu.ID)
	otherActor, _ := ResolveActor(ctx, h.db, other.ID)
	playerActor, _ := ResolveActor(ctx, h.db, pu.ID)

	score := 42.5
	if _, err := svc.UpdateProfile(ctx, playerActor, profile.ID, ProfileUpdate{CareerScore: &score}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("player update error = %v", err)
	}
	updated, err := svc.UpdateProfile(ctx, coachActor, profile.ID, ProfileUpdate{CareerScore: &score})
	if err != nil || updated.CareerScore != score {
		t.Fatalf("coach update = %+v, %v", updated, err)
	}
	if _, err := svc.UpdateProfile(ctx, coachActor, profile.ID, ProfileUpdate{TeamID: &team.ID}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("coach team change error = %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, otherActor, profile.ID, ProfileUpdate{TeamID: &team.ID}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("foreign manager error = %v", err)
	}
	updated, err = svc.UpdateProfile(ctx, mgrActor, profile.ID, ProfileUpdate{TeamID: &team.ID})
	if err != nil || updated.TeamID == nil || *updated.TeamID != team.ID {
		t.Fatalf("manager update = %+v, %v", updated, err)
	}

	list, total, err := svc.ListProfiles(ctx, mgrActor, nil, 1, 10)
	if err != nil || total != 1 || list[0].ID != profile.ID {
		t.Fatalf("manager scope = %d profiles, %v", total, err)
	}
}

type staleCounter struct{ n int }

func (c *staleCounter) Invalidate(context.Context) { c.n++ }

func TestUpdateProfileInvalidatesRankings(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	stale := &staleCounter{}
	svc := NewService(h.db, h.prov, h.roles, stale)
	cricket, _ := sport.NewSportRepository(h.db).GetOrCreateSport("Cricket", sport.TypeTeam)

	pu := h.register(t, "pupil", user.RolePlayer)
	profile, _ := NewRepository(h.db).GetProfile(h.player(t, pu.ID).ID, cricket.ID)
	admin := h.register(t, "root", user.RoleAdmin)
	adminActor, _ := ResolveActor(ctx, h.db, admin.ID)
	mu := h.register(t, "mgr", user.RoleManager)
	team := &Team{Name: "Hawks", SportID: &cricket.ID, ManagerID: &mu.ID}
	NewRepository(h.db).CreateTeam(team)

	score := 12.5
	if _, err := svc.UpdateProfile(ctx, adminActor, profile.ID, ProfileUpdate{CareerScore: &score}); err != nil {
		t.Fatalf("score update: %v", err)
	}
	if stale.n != 1 {
		t.Fatalf("invalidations after score change = %d, want 1", stale.n)
	}
	inactive := false
	if _, err := svc.UpdateProfile(ctx, adminActor, profile.ID, ProfileUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if stale.n != 2 {
		t.Fatalf("invalidations after deactivation = %d, want 2", stale.n)
	}

	if _, err := svc.UpdateProfile(ctx, adminActor, profile.ID, ProfileUpdate{TeamID: &team.ID}); err != nil {
		t.Fatalf("team move: %v", err)
	}
	if _, err := svc.UpdateProfile(ctx, adminActor, profile.ID+100, ProfileUpdate{CareerScore: &score}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("missing profile error = %v", err)
	}
	if stale.n != 2 {
		t.Fatalf("invalidations after team move and failure = %d, want 2", stale.n)
	}
}
