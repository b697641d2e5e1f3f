package workflow

import (
	"context"
	"errors"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/notify"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
)

// CreateTeamAssignment asks a coach to take over a team the actor manages.
// A pending request for the same coach and team is returned with
// created=false.
func (e *Engine) CreateTeamAssignment(ctx context.Context, actor *registry.Actor, coachID, teamID uint) (req *TeamAssignmentRequest, created bool, err error) {
	if !actor.HasRole(user.RoleManager, user.RoleAdmin) {
		return nil, false, apperr.Forbidden("only managers can assign coaches to teams")
	}
	req = &TeamAssignmentRequest{}
	err = e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		repo := registry.NewRepository(tx)
		team, err := repo.GetTeamByID(teamID)
		if err != nil {
			return apperr.Wrap("load team", err)
		}
		if team == nil {
			return apperr.NotFound("team %d not found", teamID)
		}
		if !actor.IsAdmin() && (team.ManagerID == nil || *team.ManagerID != actor.User.ID) {
			return apperr.Forbidden("you do not manage team %s", team.Name)
		}
		coach, err := loadCoach(repo, coachID)
		if err != nil {
			return err
		}
		if team.SportID != nil && *team.SportID != coach.PrimarySportID {
			return apperr.Forbidden("coach/sport mismatch: coach %s cannot coach team %s", coach.CoachID, team.Name)
		}

		found, err := pendingAssignment(tx, coach.ID, team.ID, req)
		if err != nil || found {
			return err
		}

		managerID := actor.User.ID
		if actor.IsAdmin() && team.ManagerID != nil {
			managerID = *team.ManagerID
		}
		*req = TeamAssignmentRequest{
			ManagerID: managerID,
			CoachID:   coach.ID,
			TeamID:    team.ID,
			Status:    StatusPending,
		}
		if err := tx.Create(req).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errLostRace
			}
			return apperr.Wrap("create team assignment", err)
		}
		created = true
		out.add(coach.UserID, notify.TypeTeamAssignment, "Team assignment",
			"You have been asked to coach %s.", team.Name)
		return nil
	})
	if errors.Is(err, errLostRace) {
		req = &TeamAssignmentRequest{}
		found, err := pendingAssignment(e.db.WithContext(ctx), coachID, teamID, req)
		if err != nil {
			return nil, false, err
		}
		if !found {
			return nil, false, apperr.Conflict("team assignment changed concurrently, retry")
		}
		return req, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return req, created, nil
}

func pendingAssignment(tx *gorm.DB, coachID, teamID uint, dest *TeamAssignmentRequest) (bool, error) {
	err := tx.Where("coach_id = ? AND team_id = ? AND status = ?", coachID, teamID, StatusPending).
		Limit(1).Find(dest).Error
	if err != nil {
		return false, apperr.Wrap("lookup pending assignment", err)
	}
	return dest.ID != 0, nil
}

func lockAssignmentForDecision(tx *gorm.DB, actor *registry.Actor, requestID uint) (*TeamAssignmentRequest, *registry.Coach, error) {
	var req TeamAssignmentRequest
	if err := lockRequest(tx, &req, requestID, "team assignment"); err != nil {
		return nil, nil, err
	}
	coach, err := loadCoach(registry.NewRepository(tx), req.CoachID)
	if err != nil {
		return nil, nil, err
	}
	if coach.UserID != actor.User.ID && !actor.IsAdmin() {
		return nil, nil, apperr.Forbidden("only the assigned coach can answer this request")
	}
	if err := requirePending(req.Status, "team assignment"); err != nil {
		return nil, nil, err
	}
	return &req, coach, nil
}

// AcceptTeamAssignment makes the coach the team's coach.
func (e *Engine) AcceptTeamAssignment(ctx context.Context, actor *registry.Actor, requestID uint) (*TeamAssignmentRequest, error) {
	var req *TeamAssignmentRequest
	err := e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		var coach *registry.Coach
		var err error
		if req, coach, err = lockAssignmentForDecision(tx, actor, requestID); err != nil {
			return err
		}
		err = tx.Model(&registry.Team{}).Where("id = ?", req.TeamID).Update("coach_id", req.CoachID).Error
		if err != nil {
			return apperr.Wrap("assign team coach", err)
		}
		decidedAt, err := e.decide(tx, req, StatusAccepted, actor, nil)
		if err != nil {
			return err
		}
		req.Status = StatusAccepted
		req.DecidedByID = &actor.User.ID
		req.DecidedAt = &decidedAt

		out.add(req.ManagerID, notify.TypeTeamAssignment, "Team assignment accepted",
			"Coach %s accepted the assignment to team %d.", coach.CoachID, req.TeamID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (e *Engine) RejectTeamAssignment(ctx context.Context, actor *registry.Actor, requestID uint, remarks string) (*TeamAssignmentRequest, error) {
	var req *TeamAssignmentRequest
	err := e.transact(ctx, func(tx *gorm.DB, out *outbox) error {
		var coach *registry.Coach
		var err error
		if req, coach, err = lockAssignmentForDecision(tx, actor, requestID); err != nil {
			return err
		}
		decidedAt, err := e.decide(tx, req, StatusRejected, actor, map[string]any{"remarks": remarks})
		if err != nil {
			return err
		}
		req.Status = StatusRejected
		req.Remarks = remarks
		req.DecidedByID = &actor.User.ID
		req.DecidedAt = &decidedAt

		out.add(req.ManagerID, notify.TypeTeamAssignment, "Team assignment rejected",
			"Coach %s declined the assignment to team %d.", coach.CoachID, req.TeamID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}
