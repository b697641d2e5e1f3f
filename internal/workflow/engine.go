// Package workflow runs the club's approval workflows: coach promotions,
// coach-player links, team proposals and team coach assignments.
//
// Every operation is one database transaction. The request row is locked
// before its status is checked, so concurrent decisions on the same request
// resolve to one winner and one conflict. Notifications are collected while
// the transaction runs and emitted only after it commits.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/notify"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Engine struct {
	db    *gorm.DB
	roles *user.Service
	prov  *registry.Provisioner
	emit  notify.Emitter
	ranks registry.RankingInvalidator
	now   func() time.Time
}

// NewEngine builds the workflow engine; emit and ranks may be nil.
func NewEngine(db *gorm.DB, roles *user.Service, prov *registry.Provisioner, emit notify.Emitter, ranks registry.RankingInvalidator) *Engine {
	if emit == nil {
		emit = notify.Discard{}
	}
	if ranks == nil {
		ranks = registry.DiscardRankings{}
	}
	return &Engine{db: db, roles: roles, prov: prov, emit: emit, ranks: ranks, now: time.Now}
}

// errLostRace reports an insert that hit a pending-request unique index
// after the lookup missed. The failed transaction is unusable, so callers
// re-read the winning row on a fresh connection.
var errLostRace = errors.New("pending request created concurrently")

// outbox buffers notifications until the transaction commits. staleRanks
// marks a change to the profiles the leaderboard reads.
type outbox struct {
	events     []notify.Event
	staleRanks bool
}

func (o *outbox) add(userID uint, typ, title, format string, args ...any) {
	o.events = append(o.events, notify.Event{
		UserID:  userID,
		Title:   title,
		Message: fmt.Sprintf(format, args...),
		Type:    typ,
	})
}

func (e *Engine) transact(ctx context.Context, fn func(tx *gorm.DB, out *outbox) error) error {
	var out outbox
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, &out)
	})
	if err != nil {
		return err
	}
	if out.staleRanks {
		e.ranks.Invalidate(ctx)
	}
	e.emit.Emit(ctx, out.events...)
	return nil
}

// lockRequest re-reads a request row under a row lock.
func lockRequest(tx *gorm.DB, dest any, id uint, what string) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(dest, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s %d not found", what, id)
	}
	if err != nil {
		return apperr.Wrap("load "+what, err)
	}
	return nil
}

func requirePending(status Status, what string) error {
	if status != StatusPending {
		return apperr.Conflict("%s has already been %s", what, status)
	}
	return nil
}

// decide stamps the terminal status on a locked request row.
func (e *Engine) decide(tx *gorm.DB, model any, status Status, actor *registry.Actor, extra map[string]any) (time.Time, error) {
	now := e.now()
	fields := map[string]any{
		"status":        status,
		"decided_by_id": actor.User.ID,
		"decided_at":    now,
	}
	for k, v := range extra {
		fields[k] = v
	}
	if err := tx.Model(model).Updates(fields).Error; err != nil {
		return now, apperr.Wrap("update request status", err)
	}
	return now, nil
}

func loadSport(tx *gorm.DB, id uint) (*sport.Sport, error) {
	sp, err := sport.NewSportRepository(tx).GetSportByID(id)
	if err != nil {
		return nil, apperr.Wrap("load sport", err)
	}
	if sp == nil {
		return nil, apperr.NotFound("sport %d not found", id)
	}
	return sp, nil
}

func loadUser(tx *gorm.DB, id uint) (*user.User, error) {
	u, err := user.NewUserRepository(tx).GetUserByID(id)
	if err != nil {
		return nil, apperr.Wrap("load user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user %d not found", id)
	}
	return u, nil
}

func loadPlayer(repo registry.Repository, id uint) (*registry.Player, error) {
	p, err := repo.GetPlayerByID(id)
	if err != nil {
		return nil, apperr.Wrap("load player", err)
	}
	if p == nil {
		return nil, apperr.NotFound("player %d not found", id)
	}
	return p, nil
}

func loadCoach(repo registry.Repository, id uint) (*registry.Coach, error) {
	c, err := repo.GetCoachByID(id)
	if err != nil {
		return nil, apperr.Wrap("load coach", err)
	}
	if c == nil {
		return nil, apperr.NotFound("coach %d not found", id)
	}
	return c, nil
}
