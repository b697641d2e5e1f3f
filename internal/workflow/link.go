package workflow

import (
	"context"
	"errors"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/notify"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"gorm.io/gorm"
)

// CoachInvitePlayer opens a coach_to_player link. A pending link for the
// same coach, player and sport is returned as is with created=false.
func (e *Engine) CoachInvitePlayer(ctx context.Context, actor *registry.Actor, playerID, sportID uint) (link *CoachPlayerLinkRequest, created bool, err error) {
	coach, err := actor.AsCoach()
	if err != nil {
		return nil, false, err
	}
	return e.openLink(ctx, actor, coach.ID, playerID, sportID, CoachToPlayer)
}

// PlayerRequestCoach opens a player_to_coach link.
func (e *Engine) PlayerRequestCoach(ctx context.Context, actor *registry.Actor, coachID, sportID uint) (link *CoachPlayerLinkRequest, created bool, err error) {
	player, err := actor.AsPlayer()
	if err != nil {
		return nil, false, err
	}
	return e.openLink(ctx, actor, coachID, player.ID, sportID, PlayerToCoach)
}

func (e *Engine) openLink(ctx context.Context, actor *registry.Actor, coachID, playerID, sportID uint, dir Direction) (*CoachPlayerLinkRequest, bool, error) {
	var link CoachPlayerLinkRequest
	var created bool
	err := e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		repo := registry.NewRepository(tx)
		coach, err := loadCoach(repo, coachID)
		if err != nil {
			return err
		}
		player, err := loadPlayer(repo, playerID)
		if err != nil {
			return err
		}
		sp, err := loadSport(tx, sportID)
		if err != nil {
			return err
		}
		if coach.PrimarySportID != sp.ID {
			return apperr.Forbidden("coach/sport mismatch: coach %s does not coach %s", coach.CoachID, sp.Name)
		}
		if !player.IsActive {
			return apperr.Integrity("player %s is inactive", player.PlayerID).With("player_id", player.PlayerID)
		}
		_, newProfile, err := e.prov.EnsureProfile(tx, player.ID, sp.ID)
		if err != nil {
			return apperr.Wrap("ensure profile", err)
		}
		out.staleRanks = newProfile

		found, err := pendingLink(tx, coach.ID, player.ID, sp.ID, &link)
		if err != nil || found {
			return err
		}
		link = CoachPlayerLinkRequest{
			CoachID:     coach.ID,
			PlayerID:    player.ID,
			SportID:     sp.ID,
			Direction:   dir,
			Status:      StatusPending,
			CreatedByID: actor.User.ID,
		}
		if err := tx.Create(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errLostRace
			}
			return apperr.Wrap("create link request", err)
		}
		created = true

		if dir == CoachToPlayer {
			out.add(player.UserID, notify.TypeLink, "Coach invitation",
				"Coach %s invited you to train %s.", coach.CoachID, sp.Name)
		} else {
			out.add(coach.UserID, notify.TypeLink, "Coaching request",
				"Player %s asked you to coach them in %s.", player.PlayerID, sp.Name)
		}
		return nil
	})
	if errors.Is(err, errLostRace) {
		link = CoachPlayerLinkRequest{}
		found, err := pendingLink(e.db.WithContext(ctx), coachID, playerID, sportID, &link)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return nil, false, apperr.Conflict("link request changed concurrently, retry")
		}
		return &link, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &link, created, nil
}

func pendingLink(tx *gorm.DB, coachID, playerID, sportID uint, dest *CoachPlayerLinkRequest) (bool, error) {
	err := tx.Where("coach_id = ? AND player_id = ? AND sport_id = ? AND status = ?",
		coachID, playerID, sportID, StatusPending).Limit(1).Find(dest).Error
	if err != nil {
		return false, apperr.Wrap("lookup pending link", err)
	}
	return dest.ID != 0, nil
}

// invitedParty returns the user who must answer the link.
func invitedParty(link *CoachPlayerLinkRequest, coach *registry.Coach, player *registry.Player) uint {
	if link.Direction == CoachToPlayer {
		return player.UserID
	}
	return coach.UserID
}

// loadLinkForDecision locks the link and checks that actor may answer it.
func loadLinkForDecision(tx *gorm.DB, actor *registry.Actor, linkID uint) (*CoachPlayerLinkRequest, *registry.Coach, *registry.Player, error) {
	var link CoachPlayerLinkRequest
	if err := lockRequest(tx, &link, linkID, "link request"); err != nil {
		return nil, nil, nil, err
	}
	repo := registry.NewRepository(tx)
	coach, err := loadCoach(repo, link.CoachID)
	if err != nil {
		return nil, nil, nil, err
	}
	player, err := loadPlayer(repo, link.PlayerID)
	if err != nil {
		return nil, nil, nil, err
	}
	if actor.User.ID != invitedParty(&link, coach, player) && !actor.IsAdmin() {
		return nil, nil, nil, apperr.Forbidden("only the invited party can answer this request")
	}
	if err := requirePending(link.Status, "link request"); err != nil {
		return nil, nil, nil, err
	}
	return &link, coach, player, nil
}

// AcceptLink binds the player to the coach in the link's sport and returns
// the updated profile.
func (e *Engine) AcceptLink(ctx context.Context, actor *registry.Actor, linkID uint) (*registry.PlayerSportProfile, error) {
	var profile *registry.PlayerSportProfile
	err := e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		link, coach, player, err := loadLinkForDecision(tx, actor, linkID)
		if err != nil {
			return err
		}
		if profile, _, err = e.prov.EnsureProfile(tx, link.PlayerID, link.SportID); err != nil {
			return apperr.Wrap("ensure profile", err)
		}
		err = tx.Model(profile).Updates(map[string]any{"coach_id": link.CoachID, "is_active": true}).Error
		if err != nil {
			return apperr.Wrap("update profile", err)
		}
		profile.CoachID = &link.CoachID
		profile.IsActive = true
		out.staleRanks = true

		if _, err := e.decide(tx, link, StatusAccepted, actor, nil); err != nil {
			return err
		}
		out.add(player.UserID, notify.TypeLink, "Coach link accepted",
			"You are now coached by %s.", coach.CoachID)
		out.add(coach.UserID, notify.TypeLink, "Coach link accepted",
			"Player %s is now your student.", player.PlayerID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (e *Engine) RejectLink(ctx context.Context, actor *registry.Actor, linkID uint) (*CoachPlayerLinkRequest, error) {
	var link *CoachPlayerLinkRequest
	err := e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		var coach *registry.Coach
		var player *registry.Player
		var err error
		if link, coach, player, err = loadLinkForDecision(tx, actor, linkID); err != nil {
			return err
		}
		decidedAt, err := e.decide(tx, link, StatusRejected, actor, nil)
		if err != nil {
			return err
		}
		link.Status = StatusRejected
		link.DecidedByID = &actor.User.ID
		link.DecidedAt = &decidedAt

		out.add(player.UserID, notify.TypeLink, "Coach link rejected",
			"The link with coach %s was declined.", coach.CoachID)
		out.add(coach.UserID, notify.TypeLink, "Coach link rejected",
			"The link with player %s was declined.", player.PlayerID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}
