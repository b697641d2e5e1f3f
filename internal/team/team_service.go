package team

import (
	"context"
	"slices"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"gorm.io/gorm"
)

// Service is the role-scoped read side of teams and the player directory.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// scope narrows f to the teams the actor may see.
func (s *Service) scope(repo TeamRepository, actor *registry.Actor, f TeamFilter) (TeamFilter, error) {
	switch {
	case actor.IsAdmin():
	case actor.Kind == registry.KindManager:
		id := actor.User.ID
		f.ManagerUserID = &id
	case actor.Kind == registry.KindCoach:
		id := actor.Coach.ID
		f.CoachID = &id
	case actor.Kind == registry.KindPlayer:
		ids, err := repo.TeamIDsForPlayer(actor.Player.ID)
		if err != nil {
			return f, apperr.Wrap("load player teams", err)
		}
		if ids == nil {
			ids = []uint{}
		}
		f.IDs = ids
	default:
		return f, apperr.Forbidden("no profile to scope teams by")
	}
	return f, nil
}

// ListTeams returns the teams the actor manages, coaches or plays for;
// admins see every team.
func (s *Service) ListTeams(ctx context.Context, actor *registry.Actor, f TeamFilter, page, limit int) ([]TeamSummary, int64, error) {
	repo := NewTeamRepository(s.db.WithContext(ctx))
	f, err := s.scope(repo, actor, f)
	if err != nil {
		return nil, 0, err
	}
	teams, total, err := repo.GetAllTeams(f, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap("list teams", err)
	}
	ids := make([]uint, len(teams))
	for i := range teams {
		ids[i] = teams[i].ID
	}
	counts, err := repo.CountPlayers(ids)
	if err != nil {
		return nil, 0, apperr.Wrap("count players", err)
	}
	out := make([]TeamSummary, len(teams))
	for i := range teams {
		out[i] = TeamSummary{Team: teams[i], PlayerCount: counts[teams[i].ID]}
	}
	return out, total, nil
}

// GetRoster returns a team and its players. Players on the team see only
// active teammates.
func (s *Service) GetRoster(ctx context.Context, actor *registry.Actor, teamID uint) (*Roster, error) {
	repo := NewTeamRepository(s.db.WithContext(ctx))
	team, err := repo.GetTeamByID(teamID)
	if err != nil {
		return nil, apperr.Wrap("load team", err)
	}
	if team == nil {
		return nil, apperr.NotFound("team %d not found", teamID)
	}

	activeOnly := false
	switch {
	case actor.IsAdmin():
	case actor.Kind == registry.KindManager && team.ManagerID != nil && *team.ManagerID == actor.User.ID:
	case actor.Kind == registry.KindCoach && team.CoachID != nil && *team.CoachID == actor.Coach.ID:
	case actor.Kind == registry.KindPlayer:
		ids, err := repo.TeamIDsForPlayer(actor.Player.ID)
		if err != nil {
			return nil, apperr.Wrap("load player teams", err)
		}
		if !slices.Contains(ids, team.ID) {
			return nil, apperr.Forbidden("you are not on team %q", team.Name)
		}
		activeOnly = true
	default:
		return nil, apperr.Forbidden("team %q is not visible to you", team.Name)
	}

	players, err := repo.GetTeamMembers(team.ID, activeOnly)
	if err != nil {
		return nil, apperr.Wrap("load roster", err)
	}
	return &Roster{Team: team, Players: players}, nil
}

// ListPlayers is the directory coaches and managers pick from. Only admins
// see retired players.
func (s *Service) ListPlayers(ctx context.Context, actor *registry.Actor, page, limit int) ([]registry.Player, int64, error) {
	if actor.Kind == registry.KindPlayer || actor.Kind == registry.KindNone {
		return nil, 0, apperr.Forbidden("the player directory is for staff")
	}
	players, total, err := registry.NewRepository(s.db.WithContext(ctx)).ListPlayers(page, limit, !actor.IsAdmin())
	if err != nil {
		return nil, 0, apperr.Wrap("list players", err)
	}
	return players, total, nil
}

func (s *Service) ListCoaches(ctx context.Context, sportID *uint, page, limit int) ([]registry.Coach, int64, error) {
	coaches, total, err := registry.NewRepository(s.db.WithContext(ctx)).ListCoaches(sportID, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap("list coaches", err)
	}
	return coaches, total, nil
}

// ManagerSports lists the sports a manager may run.
func (s *Service) ManagerSports(ctx context.Context, actor *registry.Actor) ([]registry.ManagerSport, error) {
	manager, err := actor.AsManager()
	if err != nil {
		return nil, err
	}
	list, err := registry.NewRepository(s.db.WithContext(ctx)).ListManagerSports(manager.ID)
	if err != nil {
		return nil, apperr.Wrap("list manager sports", err)
	}
	return list, nil
}
