package workflow

import (
	"context"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
)

// ListQuery pages through one kind of request. An empty Status lists all.
type ListQuery struct {
	Status Status
	Page   int
	Limit  int
}

func (q ListQuery) normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	return q
}

// Access table shared by every listing:
//
//	admin    all records
//	manager  records naming them as manager (all promotions)
//	coach    records naming their coach profile
//	player   records about their player profile (own promotions)
//
// A role with no relation to the record kind gets Forbidden.

func (e *Engine) ListPromotions(ctx context.Context, actor *registry.Actor, q ListQuery) ([]PromotionRequest, int64, error) {
	query := e.db.WithContext(ctx).Model(&PromotionRequest{})
	if !actor.HasRole(user.RoleManager, user.RoleAdmin) {
		query = query.Where("user_id = ?", actor.User.ID)
	}
	var items []PromotionRequest
	total, err := page(query, q, &items, "Sport", "Player")
	return items, total, err
}

func (e *Engine) ListLinks(ctx context.Context, actor *registry.Actor, q ListQuery) ([]CoachPlayerLinkRequest, int64, error) {
	query := e.db.WithContext(ctx).Model(&CoachPlayerLinkRequest{})
	switch {
	case actor.IsAdmin():
	case actor.Kind == registry.KindCoach:
		query = query.Where("coach_id = ?", actor.Coach.ID)
	case actor.Kind == registry.KindPlayer:
		query = query.Where("player_id = ?", actor.Player.ID)
	default:
		return nil, 0, apperr.Forbidden("link requests are visible to coaches, players and admins")
	}
	var items []CoachPlayerLinkRequest
	total, err := page(query, q, &items, "Coach", "Player", "Sport")
	return items, total, err
}

func (e *Engine) ListProposals(ctx context.Context, actor *registry.Actor, q ListQuery) ([]TeamProposal, int64, error) {
	query := e.db.WithContext(ctx).Model(&TeamProposal{})
	switch {
	case actor.IsAdmin():
	case actor.User.Role == user.RoleManager:
		query = query.Where("manager_id = ?", actor.User.ID)
	case actor.Kind == registry.KindCoach:
		query = query.Where("coach_id = ?", actor.Coach.ID)
	case actor.Kind == registry.KindPlayer:
		query = query.Where("id IN (?)", e.db.Table("team_proposal_players").
			Select("team_proposal_id").Where("player_id = ?", actor.Player.ID))
	default:
		return nil, 0, apperr.Forbidden("team proposals are not visible to this role")
	}
	var items []TeamProposal
	total, err := page(query, q, &items, "Coach", "Sport", "Players", "CreatedTeam")
	return items, total, err
}

func (e *Engine) ListAssignments(ctx context.Context, actor *registry.Actor, q ListQuery) ([]TeamAssignmentRequest, int64, error) {
	query := e.db.WithContext(ctx).Model(&TeamAssignmentRequest{})
	switch {
	case actor.IsAdmin():
	case actor.User.Role == user.RoleManager:
		query = query.Where("manager_id = ?", actor.User.ID)
	case actor.Kind == registry.KindCoach:
		query = query.Where("coach_id = ?", actor.Coach.ID)
	default:
		return nil, 0, apperr.Forbidden("team assignments are visible to managers, coaches and admins")
	}
	var items []TeamAssignmentRequest
	total, err := page(query, q, &items, "Coach", "Team")
	return items, total, err
}

func page(query *gorm.DB, q ListQuery, dest any, preloads ...string) (int64, error) {
	q = q.normalize()
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, apperr.Wrap("count requests", err)
	}
	for _, rel := range preloads {
		query = query.Preload(rel)
	}
	err := query.Order("created_at desc, id desc").Offset((q.Page - 1) * q.Limit).Limit(q.Limit).Find(dest).Error
	if err != nil {
		return 0, apperr.Wrap("list requests", err)
	}
	return total, nil
}
