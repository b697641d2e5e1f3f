package user

import (
	"errors"

	"gorm.io/gorm"
)

// UserRepository defines the data operations on users and their role history.
type UserRepository interface {
	CreateUser(u *User) error
	GetUserByID(id uint) (*User, error)
	GetUserByUsername(username string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	GetUserByLogin(identifier string) (*User, error)
	UpdateRole(userID uint, role Role) error
	AppendRoleHistory(h *RoleHistory) error
	ListRoleHistory(userID uint) ([]RoleHistory, error)
	ListUsersByRole(role Role, page, limit int) ([]User, int64, error)
	WithTransaction(txFunc func(UserRepository) error) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(u *User) error {
	return r.db.Create(u).Error
}

func (r *userRepository) first(query string, args ...any) (*User, error) {
	var u User
	if err := r.db.Where(query, args...).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetUserByID(id uint) (*User, error) {
	return r.first("id = ?", id)
}

func (r *userRepository) GetUserByUsername(username string) (*User, error) {
	return r.first("username = ?", username)
}

func (r *userRepository) GetUserByEmail(email string) (*User, error) {
	return r.first("email = ?", email)
}

// GetUserByLogin accepts either a username or an email.
func (r *userRepository) GetUserByLogin(identifier string) (*User, error) {
	return r.first("username = ? OR email = ?", identifier, identifier)
}

func (r *userRepository) UpdateRole(userID uint, role Role) error {
	res := r.db.Model(&User{}).Where("id = ?", userID).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepository) AppendRoleHistory(h *RoleHistory) error {
	return r.db.Create(h).Error
}

func (r *userRepository) ListRoleHistory(userID uint) ([]RoleHistory, error) {
	var history []RoleHistory
	err := r.db.Where("user_id = ?", userID).Order("changed_on asc, id asc").Find(&history).Error
	return history, err
}

func (r *userRepository) ListUsersByRole(role Role, page, limit int) ([]User, int64, error) {
	var users []User
	var total int64
	query := r.db.Model(&User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := query.Order("id asc").Offset(offset).Limit(limit).Find(&users).Error
	return users, total, err
}

func (r *userRepository) WithTransaction(txFunc func(UserRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return txFunc(&userRepository{db: tx})
	})
}
