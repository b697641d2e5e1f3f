package user

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role is the single mutable role a user holds.
type Role string

const (
	RolePlayer  Role = "player"
	RoleCoach   Role = "coach"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePlayer, RoleCoach, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// ParseRole normalizes s into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

type User struct {
	gorm.Model
	Username  string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;size:254;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	Role      Role   `gorm:"type:varchar(20);not null;index" json:"role"`
}

// RoleHistory is the append-only audit trail of role transitions.
type RoleHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	User         User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`
	PreviousRole Role      `gorm:"type:varchar(20)" json:"previous_role"`
	NewRole      Role      `gorm:"type:varchar(20);not null" json:"new_role"`
	ChangedByID  *uint     `json:"changed_by_id,omitempty"`
	ChangedBy    *User     `gorm:"constraint:OnDelete:SET NULL;" json:"-"`
	ChangedOn    time.Time `gorm:"not null" json:"changed_on"`
}

func (RoleHistory) TableName() string { return "role_histories" }

// Models lists the tables owned by this package, in migration order.
func Models() []any {
	return []any{&User{}, &RoleHistory{}}
}
