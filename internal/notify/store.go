package notify

import (
	"context"
	"errors"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"gorm.io/gorm"
)

// Store keeps notifications in the database and serves the inbox.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

var _ Notifier = (*Store)(nil)

func (s *Store) Notify(ctx context.Context, ev Event) error {
	if ev.UserID == 0 {
		return errors.New("notification without recipient")
	}
	return s.db.WithContext(ctx).Create(&Notification{
		UserID:    ev.UserID,
		Title:     ev.Title,
		Message:   ev.Message,
		Type:      ev.Type,
		CreatedAt: s.now(),
	}).Error
}

// List returns userID's notifications, newest first.
func (s *Store) List(ctx context.Context, userID uint, unreadOnly bool, page, limit int) ([]Notification, int64, error) {
	var items []Notification
	var total int64
	query := s.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap("count notifications", err)
	}
	err := query.Order("created_at desc, id desc").Offset((page - 1) * limit).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, 0, apperr.Wrap("list notifications", err)
	}
	return items, total, nil
}

// MarkRead stamps read_at. Only the recipient may do so; a second call keeps
// the first timestamp.
func (s *Store) MarkRead(ctx context.Context, userID, notificationID uint) (*Notification, error) {
	var n Notification
	if err := s.db.WithContext(ctx).First(&n, notificationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("notification %d not found", notificationID)
		}
		return nil, apperr.Wrap("load notification", err)
	}
	if n.UserID != userID {
		return nil, apperr.Forbidden("notification belongs to another user")
	}
	if n.ReadAt != nil {
		return &n, nil
	}
	now := s.now()
	if err := s.db.WithContext(ctx).Model(&n).Update("read_at", now).Error; err != nil {
		return nil, apperr.Wrap("mark notification read", err)
	}
	n.ReadAt = &now
	return &n, nil
}
