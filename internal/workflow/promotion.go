package workflow

import (
	"context"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/notify"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
)

type PromotionInput struct {
	// UserID files on behalf of another user. Admin only; zero means the actor.
	UserID   uint
	SportID  uint
	PlayerID *uint
	Remarks  string
}

// RequestPromotion files a pending request to make a user a coach of a sport.
// When no player is named, the user's own player profile is attached.
func (e *Engine) RequestPromotion(ctx context.Context, actor *registry.Actor, in PromotionInput) (*PromotionRequest, error) {
	userID := actor.User.ID
	if in.UserID != 0 && in.UserID != userID {
		if !actor.IsAdmin() {
			return nil, apperr.Forbidden("only admins can request promotions for other users")
		}
		userID = in.UserID
	}

	var req *PromotionRequest
	err := e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		repo := registry.NewRepository(tx)
		if _, err := loadUser(tx, userID); err != nil {
			return err
		}
		coach, err := repo.GetCoachByUserID(userID)
		if err != nil {
			return apperr.Wrap("lookup coach", err)
		}
		if coach != nil {
			return apperr.Conflict("user %d already has a coach profile", userID)
		}
		sp, err := loadSport(tx, in.SportID)
		if err != nil {
			return err
		}

		playerID := in.PlayerID
		if playerID != nil {
			player, err := loadPlayer(repo, *playerID)
			if err != nil {
				return err
			}
			if player.UserID != userID {
				return apperr.Validation("player %s does not belong to user %d", player.PlayerID, userID)
			}
		} else {
			own, err := repo.GetPlayerByUserID(userID)
			if err != nil {
				return apperr.Wrap("lookup player", err)
			}
			if own != nil {
				playerID = &own.ID
			}
		}

		var pending int64
		err = tx.Model(&PromotionRequest{}).
			Where("user_id = ? AND status = ?", userID, StatusPending).
			Count(&pending).Error
		if err != nil {
			return apperr.Wrap("count pending promotions", err)
		}
		if pending > 0 {
			return apperr.Conflict("a promotion request is already pending for user %d", userID)
		}

		req = &PromotionRequest{
			UserID:   userID,
			PlayerID: playerID,
			SportID:  sp.ID,
			Status:   StatusPending,
			Remarks:  in.Remarks,
		}
		if err := tx.Create(req).Error; err != nil {
			return apperr.Wrap("create promotion request", err)
		}
		req.Sport = sp
		out.add(userID, notify.TypePromotion, "Promotion request submitted",
			"Your request to become a %s coach is awaiting review.", sp.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func canDecidePromotions(actor *registry.Actor) error {
	if !actor.HasRole(user.RoleManager, user.RoleAdmin) {
		return apperr.Forbidden("only managers or admins can decide promotion requests")
	}
	return nil
}

// ApprovePromotion turns the requester into a coach. The coach profile, the
// retirement of the originating player, the role change and the request's
// status land together or not at all.
func (e *Engine) ApprovePromotion(ctx context.Context, actor *registry.Actor, requestID uint, remarks string) (*PromotionRequest, error) {
	if err := canDecidePromotions(actor); err != nil {
		return nil, err
	}
	var req PromotionRequest
	err := e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		if err := lockRequest(tx, &req, requestID, "promotion request"); err != nil {
			return err
		}
		if err := requirePending(req.Status, "promotion request"); err != nil {
			return err
		}
		u, err := loadUser(tx, req.UserID)
		if err != nil {
			return err
		}
		sp, err := loadSport(tx, req.SportID)
		if err != nil {
			return err
		}

		coach, err := e.prov.ProvisionCoach(tx, u, req.SportID, req.PlayerID)
		if err != nil {
			return err
		}

		if req.PlayerID != nil {
			err := tx.Model(&registry.Player{}).Where("id = ?", *req.PlayerID).Updates(map[string]any{
				"is_active": false,
				"team_id":   nil,
				"coach_id":  coach.ID,
			}).Error
			if err != nil {
				return apperr.Wrap("retire player", err)
			}
			err = tx.Model(&registry.PlayerSportProfile{}).
				Where("player_id = ? AND is_active = ?", *req.PlayerID, true).
				Updates(map[string]any{"is_active": false, "coach_id": coach.ID}).Error
			if err != nil {
				return apperr.Wrap("deactivate player profiles", err)
			}
			out.staleRanks = true
		}

		if err := e.roles.ChangeRole(ctx, tx, u, user.RoleCoach, &actor.User); err != nil {
			return err
		}

		extra := map[string]any{"coach_id": coach.ID}
		if remarks != "" {
			extra["remarks"] = remarks
			req.Remarks = remarks
		}
		decidedAt, err := e.decide(tx, &req, StatusApproved, actor, extra)
		if err != nil {
			return err
		}
		req.Status = StatusApproved
		req.CoachID = &coach.ID
		req.DecidedByID = &actor.User.ID
		req.DecidedAt = &decidedAt
		req.Sport = sp

		out.add(req.UserID, notify.TypePromotion, "Promotion approved",
			"You are now a %s coach (%s).", sp.Name, coach.CoachID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (e *Engine) RejectPromotion(ctx context.Context, actor *registry.Actor, requestID uint, remarks string) (*PromotionRequest, error) {
	if err := canDecidePromotions(actor); err != nil {
		return nil, err
	}
	var req PromotionRequest
	err := e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		if err := lockRequest(tx, &req, requestID, "promotion request"); err != nil {
			return err
		}
		if err := requirePending(req.Status, "promotion request"); err != nil {
			return err
		}
		decidedAt, err := e.decide(tx, &req, StatusRejected, actor, map[string]any{"remarks": remarks})
		if err != nil {
			return err
		}
		req.Status = StatusRejected
		req.Remarks = remarks
		req.DecidedByID = &actor.User.ID
		req.DecidedAt = &decidedAt

		out.add(req.UserID, notify.TypePromotion, "Promotion rejected",
			"Your coach promotion request was rejected. %s", remarks)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}
