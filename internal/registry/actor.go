package registry

import (
	"context"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
)

// ProfileKind tags which profile an Actor carries.
type ProfileKind string

const (
	KindNone    ProfileKind = "none"
	KindPlayer  ProfileKind = "player"
	KindCoach   ProfileKind = "coach"
	KindManager ProfileKind = "manager"
	KindAdmin   ProfileKind = "admin"
)

// Actor is the authenticated caller, resolved once per request. Exactly one
// of the profile pointers matching Kind is set.
type Actor struct {
	User    user.User
	Kind    ProfileKind
	Player  *Player
	Coach   *Coach
	Manager *Manager
	Admin   *Admin
}

func (a *Actor) UserID() uint { return a.User.ID }

// IsAdmin reports whether the actor may bypass ownership checks.
func (a *Actor) IsAdmin() bool {
	return a != nil && a.User.Role == user.RoleAdmin
}

// HasRole reports whether the actor's role is one of roles.
func (a *Actor) HasRole(roles ...user.Role) bool {
	for _, r := range roles {
		if a.User.Role == r {
			return true
		}
	}
	return false
}

func (a *Actor) AsCoach() (*Coach, error) {
	if a.Kind != KindCoach || a.Coach == nil {
		return nil, apperr.Forbidden("a coach profile is required")
	}
	return a.Coach, nil
}

func (a *Actor) AsPlayer() (*Player, error) {
	if a.Kind != KindPlayer || a.Player == nil {
		return nil, apperr.Forbidden("a player profile is required")
	}
	return a.Player, nil
}

func (a *Actor) AsManager() (*Manager, error) {
	if a.Kind != KindManager || a.Manager == nil {
		return nil, apperr.Forbidden("a manager profile is required")
	}
	return a.Manager, nil
}

// ResolveActor loads the user and the profile tied to its role. A role whose
// profile is missing resolves to KindNone.
func ResolveActor(ctx context.Context, db *gorm.DB, userID uint) (*Actor, error) {
	db = db.WithContext(ctx)
	u, err := user.NewUserRepository(db).GetUserByID(userID)
	if err != nil {
		return nil, apperr.Wrap("load user", err)
	}
	if u == nil {
		return nil, apperr.NotFound("user %d not found", userID)
	}

	actor := &Actor{User: *u, Kind: KindNone}
	repo := NewRepository(db)
	switch u.Role {
	case user.RolePlayer:
		if actor.Player, err = repo.GetPlayerByUserID(u.ID); actor.Player != nil {
			actor.Kind = KindPlayer
		}
	case user.RoleCoach:
		if actor.Coach, err = repo.GetCoachByUserID(u.ID); actor.Coach != nil {
			actor.Kind = KindCoach
		}
	case user.RoleManager:
		if actor.Manager, err = repo.GetManagerByUserID(u.ID); actor.Manager != nil {
			actor.Kind = KindManager
		}
	case user.RoleAdmin:
		if actor.Admin, err = repo.GetAdminByUserID(u.ID); actor.Admin != nil {
			actor.Kind = KindAdmin
		}
	}
	if err != nil {
		return nil, apperr.Wrap("load profile", err)
	}
	return actor, nil
}
