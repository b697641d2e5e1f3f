package workflow

import (
	"context"
	"strings"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/notify"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
)

type ProposalInput struct {
	ManagerUserID uint
	SportID       uint
	TeamName      string
	PlayerIDs     []uint
}

// CreateTeamProposal submits a roster of the coach's own unattached students
// to a manager of the sport.
func (e *Engine) CreateTeamProposal(ctx context.Context, actor *registry.Actor, in ProposalInput) (*TeamProposal, error) {
	coach, err := actor.AsCoach()
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.TeamName)
	if name == "" {
		return nil, apperr.Validation("team name is required")
	}
	playerIDs := uniqueIDs(in.PlayerIDs)
	if len(playerIDs) == 0 {
		return nil, apperr.Validation("a team proposal needs at least one player")
	}

	var proposal *TeamProposal
	err = e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		repo := registry.NewRepository(tx)
		sp, err := loadSport(tx, in.SportID)
		if err != nil {
			return err
		}
		if coach.PrimarySportID != sp.ID {
			return apperr.Forbidden("coach/sport mismatch: coach %s does not coach %s", coach.CoachID, sp.Name)
		}
		manager, err := loadUser(tx, in.ManagerUserID)
		if err != nil {
			return err
		}
		if manager.Role != user.RoleManager {
			return apperr.Validation("user %d is not a manager", manager.ID)
		}
		assigned, err := repo.IsManagerAssignedToSport(manager.ID, sp.ID)
		if err != nil {
			return apperr.Wrap("check manager sport", err)
		}
		if !assigned {
			return apperr.Forbidden("manager %s is not assigned to %s", manager.Username, sp.Name)
		}

		players := make([]registry.Player, 0, len(playerIDs))
		for _, id := range playerIDs {
			player, err := loadPlayer(repo, id)
			if err != nil {
				return err
			}
			profile, err := repo.GetProfile(player.ID, sp.ID)
			if err != nil {
				return apperr.Wrap("load profile", err)
			}
			if !player.IsActive || profile == nil || !profile.IsActive ||
				profile.CoachID == nil || *profile.CoachID != coach.ID {
				return apperr.Integrity("player %s is not an active %s student of this coach", player.PlayerID, sp.Name).
					With("player_id", player.PlayerID)
			}
			if profile.TeamID != nil {
				return apperr.Integrity("player %s is already on a %s team", player.PlayerID, sp.Name).
					With("player_id", player.PlayerID)
			}
			players = append(players, *player)
		}

		proposal = &TeamProposal{
			CoachID:   coach.ID,
			ManagerID: manager.ID,
			SportID:   sp.ID,
			TeamName:  name,
			Players:   players,
			Status:    StatusPending,
		}
		if err := tx.Omit("Players.*").Create(proposal).Error; err != nil {
			return apperr.Wrap("create team proposal", err)
		}
		proposal.Sport = sp

		out.add(manager.ID, notify.TypeTeamProposal, "New team proposal",
			"Coach %s proposed the %s team %q with %d players.", coach.CoachID, sp.Name, name, len(players))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func lockProposalForDecision(tx *gorm.DB, actor *registry.Actor, proposalID uint) (*TeamProposal, error) {
	var proposal TeamProposal
	if err := lockRequest(tx, &proposal, proposalID, "team proposal"); err != nil {
		return nil, err
	}
	if proposal.ManagerID != actor.User.ID && !actor.IsAdmin() {
		return nil, apperr.Forbidden("only the proposal's manager can decide it")
	}
	if err := requirePending(proposal.Status, "team proposal"); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// ApproveTeamProposal creates the team and attaches every proposed player's
// profile to it. A player who joined another team since the proposal was
// filed fails the whole approval.
func (e *Engine) ApproveTeamProposal(ctx context.Context, actor *registry.Actor, proposalID uint, remarks string) (*TeamProposal, error) {
	var proposal *TeamProposal
	err := e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		var err error
		if proposal, err = lockProposalForDecision(tx, actor, proposalID); err != nil {
			return err
		}
		repo := registry.NewRepository(tx)
		coach, err := loadCoach(repo, proposal.CoachID)
		if err != nil {
			return err
		}
		var players []registry.Player
		if err := tx.Model(proposal).Association("Players").Find(&players); err != nil {
			return apperr.Wrap("load proposed players", err)
		}

		team := &registry.Team{
			Name:      proposal.TeamName,
			SportID:   &proposal.SportID,
			ManagerID: &proposal.ManagerID,
			CoachID:   &proposal.CoachID,
		}
		if err := repo.CreateTeam(team); err != nil {
			return apperr.Wrap("create team", err)
		}

		for _, player := range players {
			profile, err := repo.GetProfile(player.ID, proposal.SportID)
			if err != nil {
				return apperr.Wrap("load profile", err)
			}
			if profile == nil {
				return apperr.Integrity("player %s no longer has a profile in this sport", player.PlayerID).
					With("player_id", player.PlayerID)
			}
			if profile.TeamID != nil {
				return apperr.Integrity("player %s has joined another team", player.PlayerID).
					With("player_id", player.PlayerID)
			}
			if err := tx.Model(profile).Update("team_id", team.ID).Error; err != nil {
				return apperr.Wrap("attach profile to team", err)
			}
		}

		extra := map[string]any{"created_team_id": team.ID}
		if remarks != "" {
			extra["remarks"] = remarks
			proposal.Remarks = remarks
		}
		decidedAt, err := e.decide(tx, proposal, StatusApproved, actor, extra)
		if err != nil {
			return err
		}
		proposal.Status = StatusApproved
		proposal.DecidedByID = &actor.User.ID
		proposal.DecidedAt = &decidedAt
		proposal.CreatedTeamID = &team.ID
		proposal.CreatedTeam = team
		proposal.Players = players

		out.add(coach.UserID, notify.TypeTeamProposal, "Team proposal approved",
			"Your team %q has been created.", team.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return proposal, nil
}

func (e *Engine) RejectTeamProposal(ctx context.Context, actor *registry.Actor, proposalID uint, remarks string) (*TeamProposal, error) {
	var proposal *TeamProposal
	err := e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		var err error
		if proposal, err = lockProposalForDecision(tx, actor, proposalID); err != nil {
			return err
		}
		coach, err := loadCoach(registry.NewRepository(tx), proposal.CoachID)
		if err != nil {
			return err
		}
		decidedAt, err := e.decide(tx, proposal, StatusRejected, actor, map[string]any{"remarks": remarks})
		if err != nil {
			return err
		}
		proposal.Status = StatusRejected
		proposal.Remarks = remarks
		proposal.DecidedByID = &actor.User.ID
		proposal.DecidedAt = &decidedAt

		out.add(coach.UserID, notify.TypeTeamProposal, "Team proposal rejected",
			"Your proposal for %q was rejected: %s", proposal.TeamName, remarks)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return proposal, nil
}
