package session

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/logging"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Row rejection reasons reported by ImportAttendance.
const (
	ReasonPlayerNotFound = "Player not found"
	ReasonIneligible     = "Player not under this coach/sport or inactive"
	ReasonNotIntegers    = "attended and score must be integers"
	ReasonOutOfRange     = "attended must be 0/1; score 1-10"
	reasonNotSaved       = "row could not be saved"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

type CreateInput struct {
	SportID     uint
	TeamID      *uint
	SessionDate time.Time
	Title       string
	Notes       string
}

// CreateSession schedules a session in the coach's primary sport.
func (s *Service) CreateSession(ctx context.Context, actor *registry.Actor, in CreateInput) (*CoachingSession, error) {
	coach, err := actor.AsCoach()
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("session title is required")
	}
	if in.SessionDate.IsZero() {
		return nil, apperr.Validation("session date is required")
	}

	db := s.db.WithContext(ctx)
	sp, err := sport.NewSportRepository(db).GetSportByID(in.SportID)
	if err != nil {
		return nil, apperr.Wrap("load sport", err)
	}
	if sp == nil {
		return nil, apperr.NotFound("sport %d not found", in.SportID)
	}
	if coach.PrimarySportID != sp.ID {
		return nil, apperr.Forbidden("session sport must match the coach's primary sport")
	}
	if in.TeamID != nil {
		team, err := registry.NewRepository(db).GetTeamByID(*in.TeamID)
		if err != nil {
			return nil, apperr.Wrap("load team", err)
		}
		if team == nil {
			return nil, apperr.NotFound("team %d not found", *in.TeamID)
		}
		if team.SportID != nil && *team.SportID != sp.ID {
			return nil, apperr.Validation("team sport must match session sport")
		}
	}

	date := in.SessionDate.UTC()
	session := &CoachingSession{
		CoachID:     coach.ID,
		SportID:     sp.ID,
		TeamID:      in.TeamID,
		SessionDate: date,
		Day:         dayOf(date),
		Title:       title,
		Notes:       in.Notes,
	}
	if err := db.Create(session).Error; err != nil {
		return nil, apperr.Wrap("create session", err)
	}
	session.Sport = sp
	return session, nil
}

func (s *Service) loadSession(db *gorm.DB, id uint) (*CoachingSession, error) {
	var session CoachingSession
	err := db.Preload("Sport").Preload("Team").First(&session, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("session %d not found", id)
	}
	if err != nil {
		return nil, apperr.Wrap("load session", err)
	}
	return &session, nil
}

// ownSession loads a session the actor may run: its coach or an admin.
func (s *Service) ownSession(ctx context.Context, actor *registry.Actor, id uint) (*CoachingSession, error) {
	session, err := s.loadSession(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return session, nil
	}
	if actor.Kind != registry.KindCoach || actor.Coach.ID != session.CoachID {
		return nil, apperr.Forbidden("only the session's coach can manage it")
	}
	return session, nil
}

// GetSession returns a session with its attendance. Coaches see their own,
// players the sessions they attended, admins all.
func (s *Service) GetSession(ctx context.Context, actor *registry.Actor, id uint) (*CoachingSession, error) {
	db := s.db.WithContext(ctx)
	session, err := s.loadSession(db, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(db, actor, session) {
		return nil, apperr.Forbidden("session %d is not visible to you", id)
	}
	if err := db.Preload("Player").Where("session_id = ?", session.ID).
		Order("player_id").Find(&session.Attendances).Error; err != nil {
		return nil, apperr.Wrap("load attendance", err)
	}
	return session, nil
}

func (s *Service) canView(db *gorm.DB, actor *registry.Actor, session *CoachingSession) bool {
	switch {
	case actor.IsAdmin():
		return true
	case actor.Kind == registry.KindCoach:
		return actor.Coach.ID == session.CoachID
	case actor.Kind == registry.KindPlayer:
		var n int64
		db.Model(&SessionAttendance{}).Where("session_id = ? AND player_id = ?", session.ID, actor.Player.ID).Count(&n)
		return n > 0
	case actor.User.Role == user.RoleManager:
		if session.Team == nil || session.Team.ManagerID == nil {
			return false
		}
		return *session.Team.ManagerID == actor.User.ID
	}
	return false
}

// ListSessions pages through the sessions visible to actor, newest first.
func (s *Service) ListSessions(ctx context.Context, actor *registry.Actor, page, limit int) ([]CoachingSession, int64, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&CoachingSession{})
	switch {
	case actor.IsAdmin():
	case actor.Kind == registry.KindCoach:
		query = query.Where("coach_id = ?", actor.Coach.ID)
	case actor.Kind == registry.KindPlayer:
		query = query.Where("id IN (?)", db.Model(&SessionAttendance{}).
			Select("session_id").Where("player_id = ?", actor.Player.ID))
	case actor.User.Role == user.RoleManager:
		query = query.Where("team_id IN (?)", db.Model(&registry.Team{}).
			Select("id").Where("manager_id = ?", actor.User.ID))
	default:
		return nil, 0, apperr.Forbidden("sessions are not visible to this role")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Wrap("count sessions", err)
	}
	var sessions []CoachingSession
	err := query.Preload("Sport").Preload("Team").
		Order("session_date desc, id desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, apperr.Wrap("list sessions", err)
	}
	return sessions, total, nil
}

// eligiblePlayers are active players with an active profile under coachID in
// sportID.
func eligiblePlayers(db *gorm.DB, coachID, sportID uint) ([]registry.Player, error) {
	var players []registry.Player
	err := db.Model(&registry.Player{}).
		Joins("JOIN player_sport_profiles psp ON psp.player_id = players.id").
		Where("psp.coach_id = ? AND psp.sport_id = ? AND psp.is_active = ? AND players.is_active = ?",
			coachID, sportID, true, true).
		Order("players.player_id").
		Find(&players).Error
	return players, err
}

// AttendanceTemplate writes a CSV with one absent row per eligible player.
func (s *Service) AttendanceTemplate(ctx context.Context, actor *registry.Actor, sessionID uint, w io.Writer) error {
	session, err := s.ownSession(ctx, actor, sessionID)
	if err != nil {
		return err
	}
	players, err := eligiblePlayers(s.db.WithContext(ctx), session.CoachID, session.SportID)
	if err != nil {
		return apperr.Wrap("load eligible players", err)
	}
	codes := make([]string, len(players))
	for i, p := range players {
		codes[i] = p.PlayerID
	}
	return writeTemplate(w, codes)
}

type RowError struct {
	Row      int    `json:"row"`
	PlayerID string `json:"player_id"`
	Error    string `json:"error"`
}

type ImportResult struct {
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors"`
}

// rowRejected aborts one row's transaction with a reportable reason.
type rowRejected string

func (r rowRejected) Error() string { return string(r) }

// ImportAttendance applies parsed rows to a session. Every row commits or
// fails on its own; rejected rows are reported, not fatal.
func (s *Service) ImportAttendance(ctx context.Context, actor *registry.Actor, sessionID uint, rows []AttendanceRow) (*ImportResult, error) {
	session, err := s.ownSession(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}
	result := &ImportResult{Errors: []RowError{}}
	for _, row := range rows {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.importRow(tx, session, row)
		})
		var rejected rowRejected
		switch {
		case err == nil:
			result.Updated++
		case errors.As(err, &rejected):
			result.Errors = append(result.Errors, RowError{Row: row.Row, PlayerID: row.PlayerID, Error: string(rejected)})
		default:
			logging.L().Warn().Err(err).Uint("session_id", session.ID).Int("row", row.Row).
				Msg("attendance row not saved")
			result.Errors = append(result.Errors, RowError{Row: row.Row, PlayerID: row.PlayerID, Error: reasonNotSaved})
		}
	}
	return result, nil
}

func (s *Service) importRow(tx *gorm.DB, session *CoachingSession, row AttendanceRow) error {
	repo := registry.NewRepository(tx)
	player, err := repo.GetPlayerByCode(row.PlayerID)
	if err != nil {
		return err
	}
	if player == nil {
		return rowRejected(ReasonPlayerNotFound)
	}
	profile, err := repo.GetProfile(player.ID, session.SportID)
	if err != nil {
		return err
	}
	if !player.IsActive || profile == nil || !profile.IsActive ||
		profile.CoachID == nil || *profile.CoachID != session.CoachID {
		return rowRejected(ReasonIneligible)
	}

	attended, score, reason := parseMarks(row.Attended, row.Score)
	if reason != "" {
		return rowRejected(reason)
	}
	rating := 0
	if attended {
		rating = score
	}

	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "player_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"attended", "rating", "updated_at"}),
	}).Create(&SessionAttendance{
		SessionID: session.ID,
		PlayerID:  player.ID,
		Attended:  attended,
		Rating:    rating,
	}).Error
	if err != nil {
		return err
	}
	return s.recomputeDaily(tx, player.ID, session)
}

// parseMarks validates the attended flag and score. Every row carries a
// score in 1..10, even for an absent player whose rating is then stored as 0.
func parseMarks(attendedRaw, scoreRaw string) (attended bool, score int, reason string) {
	a, errA := strconv.Atoi(attendedRaw)
	score, errS := strconv.Atoi(scoreRaw)
	if errA != nil || errS != nil {
		return false, 0, ReasonNotIntegers
	}
	if (a != 0 && a != 1) || score < 1 || score > 10 {
		return false, 0, ReasonOutOfRange
	}
	return a == 1, score, ""
}

// recomputeDaily rebuilds the player's score for the session's day from all
// attended sessions that day.
func (s *Service) recomputeDaily(tx *gorm.DB, playerID uint, session *CoachingSession) error {
	var agg struct {
		Avg sql.NullFloat64
		N   int
	}
	err := tx.Model(&SessionAttendance{}).
		Select("AVG(session_attendances.rating) AS avg, COUNT(*) AS n").
		Joins("JOIN coaching_sessions ON coaching_sessions.id = session_attendances.session_id").
		Where("session_attendances.player_id = ? AND session_attendances.attended = ?", playerID, true).
		Where("coaching_sessions.day = ? AND coaching_sessions.deleted_at IS NULL", session.Day).
		Scan(&agg).Error
	if err != nil {
		return err
	}
	score := 0.0
	if agg.Avg.Valid {
		score = agg.Avg.Float64
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "player_id"}, {Name: "day"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "sessions_attended", "updated_at"}),
	}).Create(&DailyPerformanceScore{
		PlayerID:         playerID,
		Day:              session.Day,
		Score:            score,
		SessionsAttended: agg.N,
		UpdatedAt:        s.now(),
	}).Error
}

// DailyScores returns a player's most recent daily scores. The player, any
// of their coaches and admins may read them.
func (s *Service) DailyScores(ctx context.Context, actor *registry.Actor, playerID uint, limit int) ([]DailyPerformanceScore, error) {
	db := s.db.WithContext(ctx)
	switch {
	case actor.IsAdmin():
	case actor.Kind == registry.KindPlayer && actor.Player.ID == playerID:
	case actor.Kind == registry.KindCoach:
		var n int64
		db.Model(&registry.PlayerSportProfile{}).
			Where("player_id = ? AND coach_id = ?", playerID, actor.Coach.ID).Count(&n)
		if n == 0 {
			return nil, apperr.Forbidden("player %d is not your student", playerID)
		}
	default:
		return nil, apperr.Forbidden("daily scores are not visible to you")
	}
	if limit < 1 || limit > 366 {
		limit = 30
	}
	var scores []DailyPerformanceScore
	if err := db.Where("player_id = ?", playerID).Order("day desc").Limit(limit).Find(&scores).Error; err != nil {
		return nil, apperr.Wrap("list daily scores", err)
	}
	return scores, nil
}
