package workflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/notify"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/testutil"
	"github.com/DhavalSuthar-24/clubhouse/internal/testutil/fixtures"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Emit(_ context.Context, events ...notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
}

func (r *recorder) to(userID uint, typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.UserID == userID && ev.Type == typ {
			n++
		}
	}
	return n
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newEngine(t *testing.T) (*fixtures.Env, *Engine, *recorder) {
	t.Helper()
	models := append(fixtures.Models(), Models()...)
	db := testutil.NewDB(t, models...)
	env := fixtures.New(t, db)
	rec := &recorder{}
	return env, NewEngine(db, env.Roles, env.Prov, rec, nil), rec
}

// staleCounter counts ranking invalidations.
type staleCounter struct{ n atomic.Int32 }

func (c *staleCounter) Invalidate(context.Context) { c.n.Add(1) }

// missNextPendingLookup empties the next pending-request lookup, as if a
// concurrent insert landed between the lookup and the create.
func missNextPendingLookup(t *testing.T, db *gorm.DB) {
	t.Helper()
	var armed atomic.Bool
	armed.Store(true)
	err := db.Callback().Query().After("gorm:query").Register("test:miss_pending", func(tx *gorm.DB) {
		if !armed.Load() {
			return
		}
		switch d := tx.Statement.Dest.(type) {
		case *CoachPlayerLinkRequest:
			*d = CoachPlayerLinkRequest{}
		case *TeamAssignmentRequest:
			*d = TeamAssignmentRequest{}
		default:
			return
		}
		armed.Store(false)
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if !apperr.IsKind(err, kind) {
		t.Fatalf("error = %v, want kind %s", err, kind)
	}
}

func TestPromotionApproval(t *testing.T) {
	env, eng, rec := newEngine(t)
	ctx := context.Background()
	cricket := env.Sport("Cricket", sport.TypeTeam)
	football := env.Sport("Football", sport.TypeTeam)
	pu, player := env.Player("pat")
	mu, _ := env.Manager("max")

	req, err := eng.RequestPromotion(ctx, env.Actor(pu.ID), PromotionInput{SportID: football.ID, Remarks: "ready"})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if req.Status != StatusPending || req.PlayerID == nil || *req.PlayerID != player.ID {
		t.Fatalf("request = %+v", req)
	}
	_, err = eng.RequestPromotion(ctx, env.Actor(pu.ID), PromotionInput{SportID: football.ID})
	wantKind(t, err, apperr.KindConflict)

	_, err = eng.ApprovePromotion(ctx, env.Actor(pu.ID), req.ID, "")
	wantKind(t, err, apperr.KindForbidden)

	approved, err := eng.ApprovePromotion(ctx, env.Actor(mu.ID), req.ID, "welcome")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != StatusApproved || approved.DecidedByID == nil || *approved.DecidedByID != mu.ID {
		t.Fatalf("approved = %+v", approved)
	}

	repo := registry.NewRepository(env.DB)
	coach, _ := repo.GetCoachByUserID(pu.ID)
	if coach == nil || coach.CoachID != "C000001" || coach.PrimarySportID != football.ID {
		t.Fatalf("coach = %+v", coach)
	}
	if coach.FromPlayerID == nil || *coach.FromPlayerID != player.ID {
		t.Fatalf("coach.from_player = %v", coach.FromPlayerID)
	}
	retired, _ := repo.GetPlayerByID(player.ID)
	if retired.IsActive || retired.TeamID != nil || retired.CoachID == nil || *retired.CoachID != coach.ID {
		t.Fatalf("player after promotion = %+v", retired)
	}
	profile := env.Profile(player.ID, cricket.ID)
	if profile.IsActive || profile.CoachID == nil || *profile.CoachID != coach.ID {
		t.Fatalf("profile after promotion = %+v", profile)
	}

	history, _ := user.NewUserRepository(env.DB).ListRoleHistory(pu.ID)
	last := history[len(history)-1]
	if last.PreviousRole != user.RolePlayer || last.NewRole != user.RoleCoach || *last.ChangedByID != mu.ID {
		t.Fatalf("last history = %+v", last)
	}
	if actor := env.Actor(pu.ID); actor.Kind != registry.KindCoach {
		t.Fatalf("actor kind = %s", actor.Kind)
	}
	if got := rec.to(pu.ID, notify.TypePromotion); got != 2 {
		t.Fatalf("promotion notifications = %d, want 2", got)
	}

	_, err = eng.ApprovePromotion(ctx, env.Actor(mu.ID), req.ID, "")
	wantKind(t, err, apperr.KindConflict)
	_, err = eng.RequestPromotion(ctx, env.Actor(pu.ID), PromotionInput{SportID: cricket.ID})
	wantKind(t, err, apperr.KindConflict)
}

func TestPromotionApprovalIsAtomic(t *testing.T) {
	env, eng, rec := newEngine(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)
	pu, player := env.Player("pat")
	mu, _ := env.Manager("max")

	req, err := eng.RequestPromotion(ctx, env.Actor(pu.ID), PromotionInput{SportID: football.ID})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	before := rec.count()

	storeDown := errors.New("profile store unavailable")
	err = env.DB.Callback().Update().Before("gorm:update").Register("test:fail_profiles", func(db *gorm.DB) {
		if db.Statement.Table == "player_sport_profiles" {
			db.AddError(storeDown)
		}
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if _, err := eng.ApprovePromotion(ctx, env.Actor(mu.ID), req.ID, ""); !errors.Is(err, storeDown) {
		t.Fatalf("approve error = %v, want injected failure", err)
	}

	repo := registry.NewRepository(env.DB)
	if coach, _ := repo.GetCoachByUserID(pu.ID); coach != nil {
		t.Fatalf("coach survived rollback: %+v", coach)
	}
	if p, _ := repo.GetPlayerByID(player.ID); !p.IsActive || p.CoachID != nil {
		t.Fatalf("player changed despite rollback: %+v", p)
	}
	if u, _ := user.NewUserRepository(env.DB).GetUserByID(pu.ID); u.Role != user.RolePlayer {
		t.Fatalf("role = %s after rollback", u.Role)
	}
	var reloaded PromotionRequest
	env.DB.First(&reloaded, req.ID)
	if reloaded.Status != StatusPending {
		t.Fatalf("request status = %s after rollback", reloaded.Status)
	}
	if rec.count() != before {
		t.Fatal("rolled back approval emitted notifications")
	}
}

func TestPromotionValidation(t *testing.T) {
	env, eng, rec := newEngine(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)
	pu, _ := env.Player("pat")
	_, other := env.Player("olive")
	mu, _ := env.Manager("max")
	au := env.Admin("root")

	_, err := eng.RequestPromotion(ctx, env.Actor(pu.ID), PromotionInput{SportID: 999})
	wantKind(t, err, apperr.KindNotFound)
	_, err = eng.RequestPromotion(ctx, env.Actor(pu.ID), PromotionInput{SportID: football.ID, PlayerID: &other.ID})
	wantKind(t, err, apperr.KindValidation)
	_, err = eng.RequestPromotion(ctx, env.Actor(pu.ID), PromotionInput{UserID: other.UserID, SportID: football.ID})
	wantKind(t, err, apperr.KindForbidden)

	req, err := eng.RequestPromotion(ctx, env.Actor(au.ID), PromotionInput{UserID: other.UserID, SportID: football.ID})
	if err != nil || req.UserID != other.UserID {
		t.Fatalf("admin request = %+v, %v", req, err)
	}
	rejected, err := eng.RejectPromotion(ctx, env.Actor(mu.ID), req.ID, "not yet")
	if err != nil || rejected.Status != StatusRejected || rejected.Remarks != "not yet" {
		t.Fatalf("reject = %+v, %v", rejected, err)
	}
	_, err = eng.RejectPromotion(ctx, env.Actor(mu.ID), req.ID, "")
	wantKind(t, err, apperr.KindConflict)
	if rec.to(other.UserID, notify.TypePromotion) != 2 {
		t.Fatalf("requester notifications = %d", rec.to(other.UserID, notify.TypePromotion))
	}
}

func TestCoachInviteIsIdempotent(t *testing.T) {
	env, eng, rec := newEngine(t)
	ctx := context.Background()
	cricket := env.Sport("Cricket", sport.TypeTeam)
	football := env.Sport("Football", sport.TypeTeam)
	cu, coach := env.Coach("carl", football.ID)
	pu, player := env.Player("pat")

	_, _, err := eng.CoachInvitePlayer(ctx, env.Actor(cu.ID), player.ID, cricket.ID)
	wantKind(t, err, apperr.KindForbidden)

	link, created, err := eng.CoachInvitePlayer(ctx, env.Actor(cu.ID), player.ID, football.ID)
	if err != nil || !created || link.Direction != CoachToPlayer {
		t.Fatalf("invite = %+v, %v, %v", link, created, err)
	}
	again, created, err := eng.CoachInvitePlayer(ctx, env.Actor(cu.ID), player.ID, football.ID)
	if err != nil || created || again.ID != link.ID {
		t.Fatalf("duplicate invite = %+v, %v, %v", again, created, err)
	}
	if rec.to(pu.ID, notify.TypeLink) != 1 {
		t.Fatalf("invite notifications = %d, want 1", rec.to(pu.ID, notify.TypeLink))
	}
	if bare := env.Profile(player.ID, football.ID); bare == nil || bare.CoachID != nil {
		t.Fatalf("bare profile = %+v", bare)
	}

	_, err = eng.AcceptLink(ctx, env.Actor(cu.ID), link.ID)
	wantKind(t, err, apperr.KindForbidden)

	profile, err := eng.AcceptLink(ctx, env.Actor(pu.ID), link.ID)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !profile.IsActive || profile.CoachID == nil || *profile.CoachID != coach.ID {
		t.Fatalf("profile = %+v", profile)
	}
	if rec.to(cu.ID, notify.TypeLink) != 1 || rec.to(pu.ID, notify.TypeLink) != 2 {
		t.Fatalf("accept notifications coach=%d player=%d", rec.to(cu.ID, notify.TypeLink), rec.to(pu.ID, notify.TypeLink))
	}
	_, err = eng.RejectLink(ctx, env.Actor(pu.ID), link.ID)
	wantKind(t, err, apperr.KindConflict)

	fresh, created, err := eng.CoachInvitePlayer(ctx, env.Actor(cu.ID), player.ID, football.ID)
	if err != nil || !created || fresh.ID == link.ID {
		t.Fatalf("invite after decision = %+v, %v, %v", fresh, created, err)
	}
}

func TestDuplicateInviteRaceReturnsPendingLink(t *testing.T) {
	env, eng, rec := newEngine(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)
	cu, _ := env.Coach("carl", football.ID)
	pu, player := env.Player("pat")

	link, created, err := eng.CoachInvitePlayer(ctx, env.Actor(cu.ID), player.ID, football.ID)
	if err != nil || !created {
		t.Fatalf("invite = %+v, %v, %v", link, created, err)
	}
	missNextPendingLookup(t, env.DB)
	again, created, err := eng.CoachInvitePlayer(ctx, env.Actor(cu.ID), player.ID, football.ID)
	if err != nil || created || again.ID != link.ID {
		t.Fatalf("raced invite = %+v, %v, %v", again, created, err)
	}
	var pending int64
	env.DB.Model(&CoachPlayerLinkRequest{}).Where("status = ?", StatusPending).Count(&pending)
	if pending != 1 {
		t.Fatalf("pending links = %d, want 1", pending)
	}
	if rec.to(pu.ID, notify.TypeLink) != 1 {
		t.Fatalf("invite notifications = %d, want 1", rec.to(pu.ID, notify.TypeLink))
	}
}

func TestProfileChangesInvalidateRankings(t *testing.T) {
	env, _, _ := newEngine(t)
	stale := &staleCounter{}
	eng := NewEngine(env.DB, env.Roles, env.Prov, nil, stale)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)
	cu, _ := env.Coach("carl", football.ID)
	pu, player := env.Player("pat")
	mu, _ := env.Manager("max")
	if env.Profile(player.ID, football.ID) != nil {
		t.Fatal("unexpected football profile before the invite")
	}

	link, _, err := eng.CoachInvitePlayer(ctx, env.Actor(cu.ID), player.ID, football.ID)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if got := stale.n.Load(); got != 1 {
		t.Fatalf("invalidations after new profile = %d, want 1", got)
	}
	if _, _, err := eng.CoachInvitePlayer(ctx, env.Actor(cu.ID), player.ID, football.ID); err != nil {
		t.Fatalf("repeat invite: %v", err)
	}
	_, err = eng.AcceptLink(ctx, env.Actor(cu.ID), link.ID)
	wantKind(t, err, apperr.KindForbidden)
	if got := stale.n.Load(); got != 1 {
		t.Fatalf("invalidations after no-op calls = %d, want 1", got)
	}

	if _, err := eng.AcceptLink(ctx, env.Actor(pu.ID), link.ID); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if got := stale.n.Load(); got != 2 {
		t.Fatalf("invalidations after accept = %d, want 2", got)
	}

	req, err := eng.RequestPromotion(ctx, env.Actor(pu.ID), PromotionInput{SportID: football.ID})
	if err != nil {
		t.Fatalf("request promotion: %v", err)
	}
	if _, err := eng.ApprovePromotion(ctx, env.Actor(mu.ID), req.ID, ""); err != nil {
		t.Fatalf("approve promotion: %v", err)
	}
	if got := stale.n.Load(); got != 3 {
		t.Fatalf("invalidations after promotion = %d, want 3", got)
	}
}

func TestPlayerRequestCoach(t *testing.T) {
	env, eng, _ := newEngine(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)
	cu, coach := env.Coach("carl", football.ID)
	pu, player := env.Player("pat")

	link, created, err := eng.PlayerRequestCoach(ctx, env.Actor(pu.ID), coach.ID, football.ID)
	if err != nil || !created || link.Direction != PlayerToCoach {
		t.Fatalf("request = %+v, %v, %v", link, created, err)
	}
	_, _, err = eng.PlayerRequestCoach(ctx, env.Actor(cu.ID), coach.ID, football.ID)
	wantKind(t, err, apperr.KindForbidden)
	_, err = eng.AcceptLink(ctx, env.Actor(pu.ID), link.ID)
	wantKind(t, err, apperr.KindForbidden)

	rejected, err := eng.RejectLink(ctx, env.Actor(cu.ID), link.ID)
	if err != nil || rejected.Status != StatusRejected {
		t.Fatalf("reject = %+v, %v", rejected, err)
	}
	if p := env.Profile(player.ID, football.ID); p.CoachID != nil {
		t.Fatalf("rejected link bound coach: %+v", p)
	}
}

func TestConcurrentAcceptHasOneWinner(t *testing.T) {
	env, eng, _ := newEngine(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)
	cu, _ := env.Coach("carl", football.ID)
	pu, player := env.Player("pat")

	link, _, err := eng.CoachInvitePlayer(ctx, env.Actor(cu.ID), player.ID, football.ID)
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	actor := env.Actor(pu.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.AcceptLink(ctx, actor, link.ID)
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.IsKind(err, apperr.KindConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != 1 {
		t.Fatalf("ok=%d conflicts=%d, want 1 and 1", ok, conflicts)
	}
}

func TestNotificationFailureDoesNotFailOperation(t *testing.T) {
	env, _, _ := newEngine(t)
	eng := NewEngine(env.DB, env.Roles, env.Prov, notify.NewDispatcher(zerolog.Nop(), brokenSink{}), nil)
	football := env.Sport("Football", sport.TypeTeam)
	pu, _ := env.Player("pat")

	req, err := eng.RequestPromotion(context.Background(), env.Actor(pu.ID), PromotionInput{SportID: football.ID})
	if err != nil || req.ID == 0 {
		t.Fatalf("request with broken notifier = %+v, %v", req, err)
	}
}

type brokenSink struct{}

func (brokenSink) Notify(context.Context, notify.Event) error { return errors.New("queue full") }

func TestTeamProposalLifecycle(t *testing.T) {
	env, eng, rec := newEngine(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)
	cu, coach := env.Coach("carl", football.ID)
	mu, _ := env.Manager("max", football.ID)
	idle, _ := env.Manager("ida")
	outsider, _ := env.Manager("oz", football.ID)
	_, p1 := env.Player("pat")
	_, p2 := env.Player("pia")
	_, stranger := env.Player("sam")
	env.Student(p1.ID, coach)
	env.Student(p2.ID, coach)

	in := ProposalInput{ManagerUserID: mu.ID, SportID: football.ID, TeamName: "Tigers", PlayerIDs: []uint{p1.ID, p2.ID}}

	_, err := eng.CreateTeamProposal(ctx, env.Actor(cu.ID), ProposalInput{ManagerUserID: idle.ID, SportID: football.ID, TeamName: "Tigers", PlayerIDs: in.PlayerIDs})
	wantKind(t, err, apperr.KindForbidden)
	_, err = eng.CreateTeamProposal(ctx, env.Actor(cu.ID), ProposalInput{ManagerUserID: mu.ID, SportID: football.ID, TeamName: "Tigers"})
	wantKind(t, err, apperr.KindValidation)

	_, err = eng.CreateTeamProposal(ctx, env.Actor(cu.ID), ProposalInput{ManagerUserID: mu.ID, SportID: football.ID, TeamName: "Tigers", PlayerIDs: []uint{p1.ID, stranger.ID}})
	wantKind(t, err, apperr.KindIntegrity)
	var appErr *apperr.Error
	if !errors.As(err, &appErr) || appErr.Metadata["player_id"] != stranger.PlayerID {
		t.Fatalf("integrity metadata = %+v", appErr)
	}

	proposal, err := eng.CreateTeamProposal(ctx, env.Actor(cu.ID), in)
	if err != nil {
		t.Fatalf("propose: %v", err)
	}
	if rec.to(mu.ID, notify.TypeTeamProposal) != 1 {
		t.Fatal("manager was not notified")
	}

	_, err = eng.ApproveTeamProposal(ctx, env.Actor(outsider.ID), proposal.ID, "")
	wantKind(t, err, apperr.KindForbidden)

	approved, err := eng.ApproveTeamProposal(ctx, env.Actor(mu.ID), proposal.ID, "go")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.CreatedTeam == nil || approved.CreatedTeam.Name != "Tigers" {
		t.Fatalf("created team = %+v", approved.CreatedTeam)
	}
	team := approved.CreatedTeam
	if *team.CoachID != coach.ID || *team.ManagerID != mu.ID || *team.SportID != football.ID {
		t.Fatalf("team = %+v", team)
	}
	for _, p := range []*registry.Player{p1, p2} {
		if prof := env.Profile(p.ID, football.ID); prof.TeamID == nil || *prof.TeamID != team.ID {
			t.Fatalf("profile of %s = %+v", p.PlayerID, prof)
		}
	}
	if rec.to(cu.ID, notify.TypeTeamProposal) != 1 {
		t.Fatal("coach was not notified")
	}
	_, err = eng.ApproveTeamProposal(ctx, env.Actor(mu.ID), proposal.ID, "")
	wantKind(t, err, apperr.KindConflict)

	_, err = eng.CreateTeamProposal(ctx, env.Actor(cu.ID), ProposalInput{ManagerUserID: mu.ID, SportID: football.ID, TeamName: "Lions", PlayerIDs: []uint{p1.ID}})
	wantKind(t, err, apperr.KindIntegrity)
}

func TestApproveProposalRevalidatesPlayers(t *testing.T) {
	env, eng, _ := newEngine(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)
	cu, coach := env.Coach("carl", football.ID)
	mu, _ := env.Manager("max", football.ID)
	_, p1 := env.Player("pat")
	env.Student(p1.ID, coach)

	proposal, err := eng.CreateTeamProposal(ctx, env.Actor(cu.ID), ProposalInput{
		ManagerUserID: mu.ID, SportID: football.ID, TeamName: "Tigers", PlayerIDs: []uint{p1.ID},
	})
	if err != nil {
		t.Fatalf("propose: %v", err)
	}

	other := env.Team("Sharks", football.ID, mu.ID, nil)
	profile := env.Profile(p1.ID, football.ID)
	env.DB.Model(profile).Update("team_id", other.ID)

	_, err = eng.ApproveTeamProposal(ctx, env.Actor(mu.ID), proposal.ID, "")
	wantKind(t, err, apperr.KindIntegrity)

	var teams int64
	env.DB.Model(&registry.Team{}).Where("name = ?", "Tigers").Count(&teams)
	if teams != 0 {
		t.Fatal("team created despite integrity failure")
	}
	rejected, err := eng.RejectTeamProposal(ctx, env.Actor(mu.ID), proposal.ID, "roster changed")
	if err != nil || rejected.Status != StatusRejected || rejected.Remarks != "roster changed" {
		t.Fatalf("reject = %+v, %v", rejected, err)
	}
}

func TestTeamAssignment(t *testing.T) {
	env, eng, rec := newEngine(t)
	ctx := context.Background()
	cricket := env.Sport("Cricket", sport.TypeTeam)
	football := env.Sport("Football", sport.TypeTeam)
	cu, coach := env.Coach("carl", football.ID)
	_, cricketCoach := env.Coach("cora", cricket.ID)
	mu, _ := env.Manager("max", football.ID)
	ou, _ := env.Manager("oz", football.ID)
	team := env.Team("Tigers", football.ID, mu.ID, nil)

	_, _, err := eng.CreateTeamAssignment(ctx, env.Actor(ou.ID), coach.ID, team.ID)
	wantKind(t, err, apperr.KindForbidden)
	_, _, err = eng.CreateTeamAssignment(ctx, env.Actor(mu.ID), cricketCoach.ID, team.ID)
	wantKind(t, err, apperr.KindForbidden)

	req, created, err := eng.CreateTeamAssignment(ctx, env.Actor(mu.ID), coach.ID, team.ID)
	if err != nil || !created {
		t.Fatalf("assign = %+v, %v, %v", req, created, err)
	}
	dup, created, err := eng.CreateTeamAssignment(ctx, env.Actor(mu.ID), coach.ID, team.ID)
	if err != nil || created || dup.ID != req.ID {
		t.Fatalf("duplicate assign = %+v, %v, %v", dup, created, err)
	}

	_, err = eng.AcceptTeamAssignment(ctx, env.Actor(mu.ID), req.ID)
	wantKind(t, err, apperr.KindForbidden)
	accepted, err := eng.AcceptTeamAssignment(ctx, env.Actor(cu.ID), req.ID)
	if err != nil || accepted.Status != StatusAccepted {
		t.Fatalf("accept = %+v, %v", accepted, err)
	}
	reloaded, _ := registry.NewRepository(env.DB).GetTeamByID(team.ID)
	if reloaded.CoachID == nil || *reloaded.CoachID != coach.ID {
		t.Fatalf("team coach = %v", reloaded.CoachID)
	}
	if rec.to(cu.ID, notify.TypeTeamAssignment) != 1 || rec.to(mu.ID, notify.TypeTeamAssignment) != 1 {
		t.Fatal("assignment notifications missing")
	}
	_, err = eng.RejectTeamAssignment(ctx, env.Actor(cu.ID), req.ID, "")
	wantKind(t, err, apperr.KindConflict)
}

func TestDuplicateAssignmentRaceReturnsPendingRequest(t *testing.T) {
	env, eng, rec := newEngine(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)
	cu, coach := env.Coach("carl", football.ID)
	mu, _ := env.Manager("max", football.ID)
	team := env.Team("Tigers", football.ID, mu.ID, nil)

	req, created, err := eng.CreateTeamAssignment(ctx, env.Actor(mu.ID), coach.ID, team.ID)
	if err != nil || !created {
		t.Fatalf("assign = %+v, %v, %v", req, created, err)
	}
	missNextPendingLookup(t, env.DB)
	dup, created, err := eng.CreateTeamAssignment(ctx, env.Actor(mu.ID), coach.ID, team.ID)
	if err != nil || created || dup.ID != req.ID {
		t.Fatalf("raced assign = %+v, %v, %v", dup, created, err)
	}
	if rec.to(cu.ID, notify.TypeTeamAssignment) != 1 {
		t.Fatalf("assignment notifications = %d, want 1", rec.to(cu.ID, notify.TypeTeamAssignment))
	}
}

func TestListingsFollowAccessTable(t *testing.T) {
	env, eng, _ := newEngine(t)
	ctx := context.Background()
	football := env.Sport("Football", sport.TypeTeam)
	cu, _ := env.Coach("carl", football.ID)
	pu, p1 := env.Player("pat")
	ou, p2 := env.Player("olive")
	mu, _ := env.Manager("max", football.ID)
	au := env.Admin("root")

	for _, p := range []*registry.Player{p1, p2} {
		if _, _, err := eng.CoachInvitePlayer(ctx, env.Actor(cu.ID), p.ID, football.ID); err != nil {
			t.Fatalf("invite: %v", err)
		}
	}
	if _, err := eng.RequestPromotion(ctx, env.Actor(ou.ID), PromotionInput{SportID: football.ID}); err != nil {
		t.Fatalf("promotion: %v", err)
	}

	tests := []struct {
		name   string
		userID uint
		links  int64
	}{
		{"admin", au.ID, 2},
		{"coach", cu.ID, 2},
		{"player", pu.ID, 1},
	}
	for _, tt := range tests {
		_, total, err := eng.ListLinks(ctx, env.Actor(tt.userID), ListQuery{Status: StatusPending})
		if err != nil || total != tt.links {
			t.Errorf("%s links = %d, %v; want %d", tt.name, total, err, tt.links)
		}
	}
	_, _, err := eng.ListLinks(ctx, env.Actor(mu.ID), ListQuery{})
	wantKind(t, err, apperr.KindForbidden)

	if _, total, _ := eng.ListPromotions(ctx, env.Actor(pu.ID), ListQuery{}); total != 0 {
		t.Errorf("player sees %d foreign promotions", total)
	}
	if _, total, _ := eng.ListPromotions(ctx, env.Actor(mu.ID), ListQuery{}); total != 1 {
		t.Errorf("manager sees %d promotions, want 1", total)
	}
	_, _, err = eng.ListAssignments(ctx, env.Actor(pu.ID), ListQuery{})
	wantKind(t, err, apperr.KindForbidden)
}
