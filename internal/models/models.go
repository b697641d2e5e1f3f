// Package models collects every persisted type for migration.
package models

import (
	"github.com/DhavalSuthar-24/clubhouse/internal/leaderboard"
	"github.com/DhavalSuthar-24/clubhouse/internal/match"
	"github.com/DhavalSuthar-24/clubhouse/internal/notify"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/session"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"github.com/DhavalSuthar-24/clubhouse/internal/workflow"
	"gorm.io/gorm"
)

// All returns the models in dependency order.
func All() []any {
	var all []any
	for _, group := range [][]any{
		user.Models(),
		sport.Models(),
		registry.Models(),
		workflow.Models(),
		session.Models(),
		match.Models(),
		leaderboard.Models(),
		notify.Models(),
	} {
		all = append(all, group...)
	}
	return all
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
