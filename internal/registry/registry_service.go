package registry

import (
	"context"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
)

// RankingInvalidator drops cached rankings. Callers invoke it after a
// profile change has committed.
type RankingInvalidator interface {
	Invalidate(ctx context.Context)
}

// DiscardRankings is a RankingInvalidator for setups without a cache.
type DiscardRankings struct{}

func (DiscardRankings) Invalidate(context.Context) {}

// Service holds the admin and profile operations of the registry.
type Service struct {
	db          *gorm.DB
	provisioner *Provisioner
	roles       *user.Service
	rankings    RankingInvalidator
}

// NewService builds the registry service; rankings may be nil.
func NewService(db *gorm.DB, provisioner *Provisioner, roles *user.Service, rankings RankingInvalidator) *Service {
	if rankings == nil {
		rankings = DiscardRankings{}
	}
	return &Service{db: db, provisioner: provisioner, roles: roles, rankings: rankings}
}

// AssignManagerSport authorizes a manager for a sport. Admin only.
func (s *Service) AssignManagerSport(ctx context.Context, actor *Actor, managerUserID, sportID uint) (*ManagerSport, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("only admins can assign managers to sports")
	}
	var assignment *ManagerSport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		manager, err := repo.GetManagerByUserID(managerUserID)
		if err != nil {
			return apperr.Wrap("load manager", err)
		}
		if manager == nil {
			return apperr.NotFound("manager profile for user %d not found", managerUserID)
		}
		sp, err := sport.NewSportRepository(tx).GetSportByID(sportID)
		if err != nil {
			return apperr.Wrap("load sport", err)
		}
		if sp == nil {
			return apperr.NotFound("sport %d not found", sportID)
		}
		existing, err := repo.GetManagerSport(manager.ID, sp.ID)
		if err != nil {
			return apperr.Wrap("load assignment", err)
		}
		if existing != nil {
			return apperr.Conflict("manager is already assigned to %s", sp.Name)
		}
		assignment = &ManagerSport{
			ManagerID:    manager.ID,
			SportID:      sp.ID,
			AssignedByID: &actor.User.ID,
		}
		if err := repo.AssignManagerSport(assignment); err != nil {
			return apperr.Wrap("assign manager sport", err)
		}
		assignment.Sport = *sp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// RemoveManagerSport revokes a manager's grant for a sport. Admin only.
func (s *Service) RemoveManagerSport(ctx context.Context, actor *Actor, assignmentID uint) (*ManagerSport, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("only admins can remove manager sport assignments")
	}
	var assignment *ManagerSport
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		var err error
		if assignment, err = repo.GetManagerSportByID(assignmentID); err != nil {
			return apperr.Wrap("load assignment", err)
		}
		if assignment == nil {
			return apperr.NotFound("manager sport assignment %d not found", assignmentID)
		}
		if err := repo.DeleteManagerSport(assignment.ID); err != nil {
			return apperr.Wrap("remove manager sport", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

type SeedCoachInput struct {
	UserID          uint
	SportID         uint
	ExperienceYears int
	Specialization  string
}

// SeedCoach creates a coach profile for an existing user and switches the
// user's role to coach. Admin only.
func (s *Service) SeedCoach(ctx context.Context, actor *Actor, in SeedCoachInput) (*Coach, error) {
	if !actor.IsAdmin() {
		return nil, apperr.Forbidden("only admins can create coaches directly")
	}
	var coach *Coach
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := user.NewUserRepository(tx).GetUserByID(in.UserID)
		if err != nil {
			return apperr.Wrap("load user", err)
		}
		if u == nil {
			return apperr.NotFound("user %d not found", in.UserID)
		}
		sp, err := sport.NewSportRepository(tx).GetSportByID(in.SportID)
		if err != nil {
			return apperr.Wrap("load sport", err)
		}
		if sp == nil {
			return apperr.NotFound("sport %d not found", in.SportID)
		}

		if coach, err = s.provisioner.ProvisionCoach(tx, u, sp.ID, nil); err != nil {
			return err
		}
		coach.ExperienceYears = in.ExperienceYears
		coach.Specialization = in.Specialization
		if err := tx.Model(coach).Updates(map[string]any{
			"experience_years": in.ExperienceYears,
			"specialization":   in.Specialization,
		}).Error; err != nil {
			return apperr.Wrap("update coach", err)
		}
		coach.PrimarySport = *sp
		return s.roles.ChangeRole(ctx, tx, u, user.RoleCoach, &actor.User)
	})
	if err != nil {
		return nil, err
	}
	return coach, nil
}

// ProfileScope returns the filter an actor is allowed to see:
//
//	admin   -> every profile
//	manager -> profiles on teams they manage
//	coach   -> their students
//	player  -> their own profiles
func ProfileScope(actor *Actor) (ProfileFilter, error) {
	switch {
	case actor.IsAdmin():
		return ProfileFilter{}, nil
	case actor.Kind == KindManager:
		id := actor.User.ID
		return ProfileFilter{ManagerUserID: &id}, nil
	case actor.Kind == KindCoach:
		id := actor.Coach.ID
		return ProfileFilter{CoachID: &id}, nil
	case actor.Kind == KindPlayer:
		id := actor.Player.ID
		return ProfileFilter{PlayerID: &id}, nil
	}
	return ProfileFilter{}, apperr.Forbidden("no profile to scope by")
}

// ListProfiles applies the caller's scope, then the optional sport filter.
func (s *Service) ListProfiles(ctx context.Context, actor *Actor, sportID *uint, page, limit int) ([]PlayerSportProfile, int64, error) {
	filter, err := ProfileScope(actor)
	if err != nil {
		return nil, 0, err
	}
	filter.SportID = sportID
	profiles, total, err := NewRepository(s.db.WithContext(ctx)).ListProfiles(filter, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap("list profiles", err)
	}
	return profiles, total, nil
}

// ProfileUpdate holds the mutable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	IsActive    *bool
	CareerScore *float64
	TeamID      *uint
	ClearTeam   bool
}

// UpdateProfile edits a profile within the caller's authority: coaches edit
// activity and score of their own students, managers move profiles onto or off
// their own teams, admins may do both.
func (s *Service) UpdateProfile(ctx context.Context, actor *Actor, profileID uint, in ProfileUpdate) (*PlayerSportProfile, error) {
	if actor.Kind == KindPlayer {
		return nil, apperr.Forbidden("players cannot edit sport profiles")
	}
	statsChange := in.IsActive != nil || in.CareerScore != nil
	teamChange := in.TeamID != nil || in.ClearTeam

	var profile *PlayerSportProfile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewRepository(tx)
		var err error
		if profile, err = repo.GetProfileByID(profileID); err != nil {
			return apperr.Wrap("load profile", err)
		}
		if profile == nil {
			return apperr.NotFound("profile %d not found", profileID)
		}

		admin := actor.IsAdmin()
		if statsChange && !admin {
			if actor.Kind != KindCoach || profile.CoachID == nil || *profile.CoachID != actor.Coach.ID {
				return apperr.Forbidden("only the player's coach can change activity or score")
			}
		}
		if teamChange && !admin {
			if actor.Kind != KindManager {
				return apperr.Forbidden("only managers can change a profile's team")
			}
			if in.ClearTeam && profile.Team != nil && !managedBy(profile.Team, actor.User.ID) {
				return apperr.Forbidden("profile is on a team you do not manage")
			}
		}

		if in.IsActive != nil {
			profile.IsActive = *in.IsActive
		}
		if in.CareerScore != nil {
			profile.CareerScore = *in.CareerScore
		}
		if in.ClearTeam {
			profile.TeamID = nil
		}
		if in.TeamID != nil {
			team, err := repo.GetTeamByID(*in.TeamID)
			if err != nil {
				return apperr.Wrap("load team", err)
			}
			if team == nil {
				return apperr.NotFound("team %d not found", *in.TeamID)
			}
			if !admin && !managedBy(team, actor.User.ID) {
				return apperr.Forbidden("you do not manage team %q", team.Name)
			}
			if team.SportID == nil || *team.SportID != profile.SportID {
				return apperr.Validation("team %q does not play this profile's sport", team.Name)
			}
			profile.TeamID = &team.ID
		}
		profile.Team = nil
		if err := repo.UpdateProfile(profile); err != nil {
			return apperr.Wrap("update profile", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if statsChange {
		s.rankings.Invalidate(ctx)
	}
	return profile, nil
}

func managedBy(team *Team, userID uint) bool {
	return team.ManagerID != nil && *team.ManagerID == userID
}
