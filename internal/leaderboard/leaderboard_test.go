package leaderboard

import (
	"context"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/match"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/testutil"
	"github.com/DhavalSuthar-24/clubhouse/internal/testutil/fixtures"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*fixtures.Env, *Service) {
	t.Helper()
	models := append(fixtures.Models(), match.Models()...)
	db := testutil.NewDB(t, append(models, Models()...)...)
	env := fixtures.New(t, db)
	return env, NewService(db, env.Stats, nil)
}

// profile gives playerID a profile in sp and sets its stats columns.
func profile(t *testing.T, env *fixtures.Env, playerID uint, sp *sport.Sport, stats any, values map[string]any) *registry.PlayerSportProfile {
	t.Helper()
	var p *registry.PlayerSportProfile
	err := env.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		p, _, err = env.Prov.EnsureProfile(tx, playerID, sp.ID)
		return err
	})
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if len(values) > 0 {
		if err := env.DB.Model(stats).Where("profile_id = ?", p.ID).Updates(values).Error; err != nil {
			t.Fatalf("stats: %v", err)
		}
	}
	return p
}

func entries(m MetricRanking) []uint {
	var ids []uint
	for _, e := range m.Entries {
		ids = append(ids, e.ProfileID)
	}
	return ids
}

func TestSportRankings(t *testing.T) {
	env, svc := newService(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)

	var ids []uint
	for i, goals := range []int{5, 9, 5} {
		_, p := env.Player([]string{"ann", "bob", "cat"}[i])
		ids = append(ids, profile(t, env, p.ID, football, &sport.FootballStats{},
			map[string]any{"goals": goals, "tackles": 10 - i}).ID)
	}
	_, benched := env.Player("dan")
	bp := profile(t, env, benched.ID, football, &sport.FootballStats{}, map[string]any{"goals": 100})
	env.DB.Model(bp).Update("is_active", false)

	ranking, err := svc.SportRankings(ctx, football.ID)
	if err != nil {
		t.Fatalf("rankings: %v", err)
	}
	if ranking.TotalPlayers != 3 || len(ranking.Metrics) != 3 {
		t.Fatalf("ranking = %+v", ranking)
	}
	goals := ranking.Metrics[0]
	if goals.Metric != "goals" || goals.Order != "desc" {
		t.Fatalf("first metric = %s/%s", goals.Metric, goals.Order)
	}
	if got, want := entries(goals), []uint{ids[1], ids[0], ids[2]}; !reflect.DeepEqual(got, want) {
		t.Fatalf("goals order = %v, want %v", got, want)
	}
	if goals.Entries[0].Rank != 1 || goals.Entries[2].Rank != 3 || goals.Entries[0].PlayerCode == "" {
		t.Fatalf("goal entries = %+v", goals.Entries)
	}
	if got, want := entries(ranking.Metrics[2]), ids; !reflect.DeepEqual(got, want) {
		t.Fatalf("tackles order = %v, want %v", got, want)
	}

	ranks, total, err := svc.PlayerRanks(ctx, ids[0])
	if err != nil || total != 3 {
		t.Fatalf("player ranks = %v, %d, %v", ranks, total, err)
	}
	if want := map[string]int{"goals": 2, "assists": 1, "tackles": 1}; !reflect.DeepEqual(ranks, want) {
		t.Fatalf("ranks = %v, want %v", ranks, want)
	}
	if _, _, err := svc.PlayerRanks(ctx, 9999); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("missing profile error = %v", err)
	}
}

func TestAscendingMetricPutsUnrecordedLast(t *testing.T) {
	env, svc := newService(t)
	running := env.Sport("Running", sport.TypeIndividual)

	var ids []uint
	for i, best := range []float64{0, 50, 40, 50} {
		_, p := env.Player([]string{"ann", "bob", "cat", "dan"}[i])
		ids = append(ids, profile(t, env, p.ID, running, &sport.RunningStats{},
			map[string]any{"best_time_seconds": best}).ID)
	}
	ranking, err := svc.SportRankings(context.Background(), running.ID)
	if err != nil {
		t.Fatal(err)
	}
	best := ranking.Metrics[1]
	if best.Metric != "best_time_seconds" || best.Order != "asc" {
		t.Fatalf("metric = %+v", best)
	}
	if got, want := entries(best), []uint{ids[2], ids[1], ids[3], ids[0]}; !reflect.DeepEqual(got, want) {
		t.Fatalf("best time order = %v, want %v", got, want)
	}
}

func TestUnknownSportHasNoRankings(t *testing.T) {
	env, svc := newService(t)
	chess := env.Sport("Chess", sport.TypeIndividual)
	ranking, err := svc.SportRankings(context.Background(), chess.ID)
	if err != nil || len(ranking.Metrics) != 0 || ranking.TotalPlayers != 0 {
		t.Fatalf("chess ranking = %+v, %v", ranking, err)
	}
	if _, err := svc.SportRankings(context.Background(), 999); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("unknown sport error = %v", err)
	}
}

func TestRecalculateAndGlobal(t *testing.T) {
	env, svc := newService(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)

	_, ann := env.Player("ann")
	_, bob := env.Player("bob")
	_, gone := env.Player("cal")
	p := profile(t, env, ann.ID, football, &sport.FootballStats{}, map[string]any{})
	env.DB.Model(p).Update("career_score", 12.4)
	env.DB.Model(&registry.PlayerSportProfile{}).Where("player_id = ?", bob.ID).Update("career_score", 3.6)
	env.DB.Model(&registry.PlayerSportProfile{}).Where("player_id = ?", gone.ID).Update("career_score", 99)
	env.DB.Model(gone).Update("is_active", false)
	award := match.Achievement{PlayerID: bob.ID, Title: "Man of the Match - Cup", DateAwarded: datatypes.Date(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))}
	if err := env.DB.Create(&award).Error; err != nil {
		t.Fatal(err)
	}

	if err := svc.Recalculate(ctx); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	rows, err := svc.Global(ctx, 10)
	if err != nil {
		t.Fatalf("global: %v", err)
	}
	want := []GlobalRow{
		{Rank: 1, PlayerID: bob.ID, PlayerCode: bob.PlayerID, Username: "bob", Score: 14},
		{Rank: 2, PlayerID: ann.ID, PlayerCode: ann.PlayerID, Username: "ann", Score: 12},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("global = %+v, want %+v", rows, want)
	}

	if err := svc.Recalculate(ctx); err != nil {
		t.Fatalf("second recalculate: %v", err)
	}
	var n int64
	env.DB.Model(&LeaderboardEntry{}).Count(&n)
	if n != 3 {
		t.Fatalf("entries = %d, want one per player", n)
	}
	if top, _ := svc.Global(ctx, 1); len(top) != 1 || top[0].PlayerID != bob.ID {
		t.Fatalf("top 1 = %+v", top)
	}
}

func TestPlayerDashboard(t *testing.T) {
	env, svc := newService(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)
	pu, p := env.Player("ann")
	_, other := env.Player("bob")
	cu, coach := env.Coach("carl", football.ID)
	ou, _ := env.Coach("olga", football.ID)
	env.Student(p.ID, coach)
	env.DB.Model(&sport.FootballStats{}).Where("profile_id = ?", env.Profile(p.ID, football.ID).ID).Update("goals", 4)

	dash, err := svc.PlayerDashboard(ctx, env.Actor(pu.ID), p.ID)
	if err != nil {
		t.Fatalf("own dashboard: %v", err)
	}
	if len(dash.Profiles) != 2 {
		t.Fatalf("profiles = %d, want default sport plus football", len(dash.Profiles))
	}
	var fb *ProfileBlock
	for i := range dash.Profiles {
		if dash.Profiles[i].Profile.SportID == football.ID {
			fb = &dash.Profiles[i]
		}
	}
	if fb == nil || fb.Stats["goals"] != 4 || fb.Ranks["goals"] != 1 || fb.TotalPlayers != 1 {
		t.Fatalf("football block = %+v", fb)
	}

	if _, err := svc.PlayerDashboard(ctx, env.Actor(cu.ID), p.ID); err != nil {
		t.Fatalf("coach view: %v", err)
	}
	if _, err := svc.PlayerDashboard(ctx, env.Actor(ou.ID), p.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("unrelated coach error = %v, want forbidden", err)
	}
	if _, err := svc.PlayerDashboard(ctx, env.Actor(pu.ID), other.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("other player error = %v, want forbidden", err)
	}
	if _, err := svc.PlayerDashboard(ctx, env.Actor(env.Admin("root").ID), 999); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing player error = %v, want not found", err)
	}
}

func TestCoachDashboard(t *testing.T) {
	env, svc := newService(t)
	ctx := context.Background()
	cricket := env.Sport("Cricket", sport.TypeTeam)
	football := env.Sport("Football", sport.TypeTeam)
	cu, coach := env.Coach("carl", football.ID)
	ou, _ := env.Coach("olga", football.ID)
	mu, _ := env.Manager("max", football.ID)
	reds := env.Team("Reds", football.ID, mu.ID, &coach.ID)
	env.Team("Blues", football.ID, mu.ID, nil)

	au, ann := env.Player("ann")
	_, bob := env.Player("bob")
	_, dan := env.Player("dan")
	fb := env.Student(ann.ID, coach)
	env.DB.Model(fb).Update("team_id", reds.ID)
	env.DB.Model(&sport.FootballStats{}).Where("profile_id = ?", fb.ID).Update("goals", 4)
	cr := env.Profile(ann.ID, cricket.ID)
	env.DB.Model(cr).Update("coach_id", coach.ID)
	env.DB.Model(&sport.CricketStats{}).Where("profile_id = ?", cr.ID).Update("runs", 30)
	env.Student(bob.ID, coach)
	gone := env.Student(dan.ID, coach)
	env.DB.Model(gone).Update("is_active", false)

	dash, err := svc.CoachDashboard(ctx, env.Actor(cu.ID), coach.ID)
	if err != nil {
		t.Fatalf("own dashboard: %v", err)
	}
	if dash.TotalTeams != 1 || dash.Teams[0].ID != reds.ID || dash.Teams[0].Sport == nil {
		t.Fatalf("teams = %+v", dash.Teams)
	}
	if dash.TotalStudents != 2 || dash.Players[0].ID != ann.ID || dash.Players[1].ID != bob.ID {
		t.Fatalf("players = %+v", dash.Players)
	}
	first := dash.Players[0]
	if first.Username != "ann" || first.UserID != au.ID || first.PlayerCode != ann.PlayerID || len(first.Profiles) != 2 {
		t.Fatalf("ann = %+v", first)
	}
	bySport := map[uint]StudentProfile{}
	for _, p := range first.Profiles {
		bySport[p.Sport.ID] = p
	}
	if got := bySport[football.ID]; got.Stats["goals"] != 4 || got.Team == nil || got.Team.Name != "Reds" {
		t.Fatalf("football profile = %+v", got)
	}
	if got := bySport[cricket.ID]; got.Stats["runs"] != 30 || got.Team != nil {
		t.Fatalf("cricket profile = %+v", got)
	}

	admin := env.Actor(env.Admin("root").ID)
	if _, err := svc.CoachDashboard(ctx, admin, coach.ID); err != nil {
		t.Fatalf("admin view: %v", err)
	}
	if _, err := svc.CoachDashboard(ctx, env.Actor(ou.ID), coach.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("other coach error = %v, want forbidden", err)
	}
	if _, err := svc.CoachDashboard(ctx, env.Actor(au.ID), coach.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("player error = %v, want forbidden", err)
	}
	if _, err := svc.CoachDashboard(ctx, admin, 999); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing coach error = %v, want not found", err)
	}
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()
	c.set(ctx, globalKey(10), []GlobalRow{{Rank: 1}})
	var rows []GlobalRow
	if c.get(ctx, globalKey(10), &rows) {
		t.Fatal("nil cache reported a hit")
	}
	c.Invalidate(ctx)
	if NewCache(nil, time.Second) != nil {
		t.Fatal("NewCache(nil) should disable caching")
	}
}

// TestRedisCache runs against a live redis when REDIS_TEST_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	c := NewCache(client, time.Minute)
	c.Invalidate(ctx)
	c.set(ctx, sportKey(3), SportRanking{SportID: 3, Sport: "Football"})
	c.set(ctx, globalKey(10), []GlobalRow{{Rank: 1, Score: 7}})
	client.Set(ctx, "unrelated", "x", time.Minute)

	var got SportRanking
	if !c.get(ctx, sportKey(3), &got) || got.Sport != "Football" {
		t.Fatalf("cached ranking = %+v", got)
	}
	if ttl := client.TTL(ctx, globalKey(10)).Val(); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v", ttl)
	}

	c.Invalidate(ctx)
	if n := client.Exists(ctx, sportKey(3), globalKey(10)).Val(); n != 0 {
		t.Fatalf("%d leaderboard keys survived invalidation", n)
	}
	if client.Exists(ctx, "unrelated").Val() != 1 {
		t.Fatal("invalidation removed a foreign key")
	}
	client.Del(ctx, "unrelated")
}
