package notify

import "time"

// Notification is one inbox entry for a user.
type Notification struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	UserID    uint       `json:"user_id" gorm:"not null;index"`
	Title     string     `json:"title" gorm:"size:200;not null"`
	Message   string     `json:"message" gorm:"not null"`
	Type      string     `json:"type" gorm:"size:50;not null;index"`
	CreatedAt time.Time  `json:"created_at" gorm:"index"`
	ReadAt    *time.Time `json:"read_at"`
}

// Models lists the tables owned by this package.
func Models() []any {
	return []any{&Notification{}}
}
