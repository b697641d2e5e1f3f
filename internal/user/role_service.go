package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/utils"
	"gorm.io/gorm"
)

// Provisioner creates the profile records a role implies. It runs inside the
// transaction that assigned the role.
type Provisioner interface {
	Provision(ctx context.Context, tx *gorm.DB, u *User) error
}

// Service owns role assignment and registration.
type Service struct {
	db          *gorm.DB
	provisioner Provisioner
	now         func() time.Time
}

// NewService wires the role service. provisioner may be nil.
func NewService(db *gorm.DB, provisioner Provisioner) *Service {
	return &Service{db: db, provisioner: provisioner, now: time.Now}
}

// ChangeRole writes the new role, appends a RoleHistory row and runs
// provisioning for the new role. It enforces no business rules; callers do.
// tx must be the caller's open transaction.
func (s *Service) ChangeRole(ctx context.Context, tx *gorm.DB, u *User, newRole Role, changedBy *User) error {
	if !newRole.Valid() {
		return apperr.Validation("unknown role %q", newRole)
	}
	tx = tx.WithContext(ctx)
	repo := NewUserRepository(tx)

	previous := u.Role
	if err := repo.UpdateRole(u.ID, newRole); err != nil {
		return apperr.Wrap("update role", err)
	}
	u.Role = newRole

	entry := &RoleHistory{
		UserID:       u.ID,
		PreviousRole: previous,
		NewRole:      newRole,
		ChangedOn:    s.now(),
	}
	if changedBy != nil {
		entry.ChangedByID = &changedBy.ID
	}
	if err := repo.AppendRoleHistory(entry); err != nil {
		return apperr.Wrap("record role history", err)
	}
	return s.provision(ctx, tx, u)
}

func (s *Service) provision(ctx context.Context, tx *gorm.DB, u *User) error {
	if s.provisioner == nil {
		return nil
	}
	if err := s.provisioner.Provision(ctx, tx, u); err != nil {
		return apperr.Wrap("provision profile", err)
	}
	return nil
}

// RegisterInput carries the fields of a new account.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      Role
}

// Register creates a user, records the initial role and provisions the
// matching profile in one transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" || in.Email == "" || in.Password == "" {
		return nil, apperr.Validation("username, email and password are required")
	}
	if in.Role == "" {
		in.Role = RolePlayer
	}
	if !in.Role.Valid() {
		return nil, apperr.Validation("unknown role %q", in.Role)
	}

	hashed, err := utils.HashPassword(in.Password)
	if errors.Is(err, utils.ErrPasswordTooShort) {
		return nil, apperr.Validation("%v", err)
	}
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	u := &User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  hashed,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Role:      in.Role,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewUserRepository(tx)
		existing, err := repo.GetUserByUsername(u.Username)
		if err != nil {
			return apperr.Wrap("lookup username", err)
		}
		if existing != nil {
			return apperr.Conflict("username %q is already taken", u.Username)
		}
		if existing, err = repo.GetUserByEmail(u.Email); err != nil {
			return apperr.Wrap("lookup email", err)
		} else if existing != nil {
			return apperr.Conflict("email %q is already registered", u.Email)
		}

		if err := repo.CreateUser(u); err != nil {
			return apperr.Wrap("create user", err)
		}
		if err := repo.AppendRoleHistory(&RoleHistory{
			UserID:    u.ID,
			NewRole:   u.Role,
			ChangedOn: s.now(),
		}); err != nil {
			return apperr.Wrap("record role history", err)
		}
		return s.provision(ctx, tx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks a username/email and password pair.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*User, error) {
	u, err := NewUserRepository(s.db.WithContext(ctx)).GetUserByLogin(strings.TrimSpace(identifier))
	if err != nil {
		return nil, apperr.Wrap("lookup user", err)
	}
	if u == nil || !utils.CheckPassword(u.Password, password) {
		return nil, apperr.Forbidden("invalid credentials")
	}
	return u, nil
}
