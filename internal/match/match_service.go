package match

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/logging"
	"github.com/DhavalSuthar-24/clubhouse/internal/notify"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LeaderboardRefresher is told when match results change.
type LeaderboardRefresher interface {
	Invalidate(ctx context.Context)
	Recalculate(ctx context.Context) error
}

type Service struct {
	db    *gorm.DB
	board LeaderboardRefresher
	emit  notify.Emitter
	now   func() time.Time
}

// NewService wires the tournament service. board and emit may be nil.
func NewService(db *gorm.DB, board LeaderboardRefresher, emit notify.Emitter) *Service {
	if emit == nil {
		emit = notify.Discard{}
	}
	return &Service{db: db, board: board, emit: emit, now: time.Now}
}

type TournamentInput struct {
	Name          string
	SportID       uint
	ManagerUserID uint // required when an admin creates on behalf of a manager
	StartDate     time.Time
	EndDate       time.Time
	Location      string
}

// CreateTournament opens a tournament owned by a manager assigned to its
// sport.
func (s *Service) CreateTournament(ctx context.Context, actor *registry.Actor, in TournamentInput) (*Tournament, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("tournament name is required")
	}
	if !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate) {
		return nil, apperr.Validation("end date is before start date")
	}

	db := s.db.WithContext(ctx)
	var managerID uint
	switch {
	case actor.IsAdmin():
		if in.ManagerUserID == 0 {
			return nil, apperr.Validation("manager_user_id is required when an admin creates a tournament")
		}
		mu, err := user.NewUserRepository(db).GetUserByID(in.ManagerUserID)
		if err != nil {
			return nil, apperr.Wrap("load manager", err)
		}
		if mu == nil || mu.Role != user.RoleManager {
			return nil, apperr.Validation("user %d is not a manager", in.ManagerUserID)
		}
		managerID = mu.ID
	case actor.User.Role == user.RoleManager:
		managerID = actor.User.ID
	default:
		return nil, apperr.Forbidden("only managers and admins can create tournaments")
	}

	sp, err := sport.NewSportRepository(db).GetSportByID(in.SportID)
	if err != nil {
		return nil, apperr.Wrap("load sport", err)
	}
	if sp == nil {
		return nil, apperr.NotFound("sport %d not found", in.SportID)
	}
	assigned, err := registry.NewRepository(db).IsManagerAssignedToSport(managerID, sp.ID)
	if err != nil {
		return nil, apperr.Wrap("check manager sport", err)
	}
	if !assigned {
		return nil, apperr.Forbidden("manager is not assigned to %s", sp.Name)
	}

	t := &Tournament{
		Name:        name,
		SportID:     sp.ID,
		ManagerID:   managerID,
		CreatedByID: actor.User.ID,
		StartDate:   datatypes.Date(in.StartDate),
		EndDate:     datatypes.Date(in.EndDate),
		Location:    in.Location,
		Status:      StatusUpcoming,
	}
	if err := NewGormMatchRepository(db).CreateTournament(t); err != nil {
		return nil, apperr.Wrap("create tournament", err)
	}
	t.Sport = sp
	return t, nil
}

func loadTournament(repo MatchRepository, id uint) (*Tournament, error) {
	t, err := repo.GetTournamentByID(id)
	if err != nil {
		return nil, apperr.Wrap("load tournament", err)
	}
	if t == nil {
		return nil, apperr.NotFound("tournament %d not found", id)
	}
	return t, nil
}

func ownsTournament(actor *registry.Actor, t *Tournament) error {
	if actor.IsAdmin() || (actor.User.Role == user.RoleManager && t.ManagerID == actor.User.ID) {
		return nil
	}
	return apperr.Forbidden("only the tournament's manager can change it")
}

// GetTournament returns a tournament with its registered teams.
func (s *Service) GetTournament(ctx context.Context, id uint) (*Tournament, error) {
	return loadTournament(NewGormMatchRepository(s.db.WithContext(ctx)), id)
}

// ListTournaments pages through the tournaments visible to actor: admins see
// all, managers their own, coaches and players those their teams play in.
func (s *Service) ListTournaments(ctx context.Context, actor *registry.Actor, sportID *uint, status TournamentStatus, page, limit int) ([]Tournament, int64, error) {
	db := s.db.WithContext(ctx)
	filter := TournamentFilter{SportID: sportID, Status: status}
	switch {
	case actor.IsAdmin():
	case actor.User.Role == user.RoleManager:
		filter.ManagerID = &actor.User.ID
	case actor.Kind == registry.KindCoach:
		filter.TeamIDsQuery = db.Model(&registry.Team{}).Select("id").Where("coach_id = ?", actor.Coach.ID)
	case actor.Kind == registry.KindPlayer:
		filter.TeamIDsQuery = db.Model(&registry.PlayerSportProfile{}).Select("team_id").
			Where("player_id = ? AND team_id IS NOT NULL", actor.Player.ID)
	default:
		return nil, 0, apperr.Forbidden("tournaments are not visible to this role")
	}
	items, total, err := NewGormMatchRepository(db).ListTournaments(filter, page, limit)
	if err != nil {
		return nil, 0, apperr.Wrap("list tournaments", err)
	}
	return items, total, nil
}

// SetStatus moves a tournament through upcoming, ongoing and completed.
func (s *Service) SetStatus(ctx context.Context, actor *registry.Actor, id uint, status TournamentStatus) (*Tournament, error) {
	if !status.Valid() {
		return nil, apperr.Validation("unknown tournament status %q", status)
	}
	repo := NewGormMatchRepository(s.db.WithContext(ctx))
	t, err := loadTournament(repo, id)
	if err != nil {
		return nil, err
	}
	if err := ownsTournament(actor, t); err != nil {
		return nil, err
	}
	if err := repo.UpdateTournamentStatus(id, status); err != nil {
		return nil, apperr.Wrap("update tournament status", err)
	}
	t.Status = status
	return t, nil
}

// RegisterTeam enters a team of the tournament's sport. Registering twice is
// a Conflict.
func (s *Service) RegisterTeam(ctx context.Context, actor *registry.Actor, tournamentID, teamID uint) (*TournamentTeam, error) {
	var (
		entry *TournamentTeam
		event *notify.Event
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewGormMatchRepository(tx)
		t, err := loadTournament(repo, tournamentID)
		if err != nil {
			return err
		}
		if err := ownsTournament(actor, t); err != nil {
			return err
		}
		team, err := registry.NewRepository(tx).GetTeamByID(teamID)
		if err != nil {
			return apperr.Wrap("load team", err)
		}
		if team == nil {
			return apperr.NotFound("team %d not found", teamID)
		}
		if team.SportID == nil || *team.SportID != t.SportID {
			return apperr.Validation("team sport must match tournament sport")
		}
		registered, err := repo.IsTeamRegistered(t.ID, team.ID)
		if err != nil {
			return apperr.Wrap("check registration", err)
		}
		if registered {
			return apperr.Conflict("team %q is already registered in %q", team.Name, t.Name)
		}

		entry = &TournamentTeam{TournamentID: t.ID, TeamID: team.ID, RegisteredAt: s.now()}
		if err := repo.RegisterTeam(entry); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("team %q is already registered in %q", team.Name, t.Name)
			}
			return apperr.Wrap("register team", err)
		}
		entry.Team = team
		if team.Coach != nil {
			event = &notify.Event{
				UserID:  team.Coach.UserID,
				Title:   "Tournament registration",
				Message: fmt.Sprintf("%s has been registered for %s", team.Name, t.Name),
				Type:    notify.TypeTournament,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if event != nil {
		s.emit.Emit(ctx, *event)
	}
	return entry, nil
}

type MatchInput struct {
	MatchNumber int
	Team1ID     uint
	Team2ID     uint
	MatchDate   time.Time
	Venue       string
}

// CreateMatch schedules a fixture between two distinct registered teams.
func (s *Service) CreateMatch(ctx context.Context, actor *registry.Actor, tournamentID uint, in MatchInput) (*TournamentMatch, error) {
	if in.MatchNumber < 1 {
		return nil, apperr.Validation("match_number must be positive")
	}
	if in.Team1ID == in.Team2ID {
		return nil, apperr.Validation("a match needs two different teams")
	}
	var m *TournamentMatch
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewGormMatchRepository(tx)
		t, err := loadTournament(repo, tournamentID)
		if err != nil {
			return err
		}
		if err := ownsTournament(actor, t); err != nil {
			return err
		}
		for _, teamID := range []uint{in.Team1ID, in.Team2ID} {
			ok, err := repo.IsTeamRegistered(t.ID, teamID)
			if err != nil {
				return apperr.Wrap("check registration", err)
			}
			if !ok {
				return apperr.Validation("team %d is not registered in this tournament", teamID).
					With("team_id", fmt.Sprint(teamID))
			}
		}
		taken, err := repo.MatchNumberTaken(t.ID, in.MatchNumber)
		if err != nil {
			return apperr.Wrap("check match number", err)
		}
		if taken {
			return apperr.Conflict("match %d already exists in this tournament", in.MatchNumber)
		}

		m = &TournamentMatch{
			TournamentID: t.ID,
			MatchNumber:  in.MatchNumber,
			Team1ID:      in.Team1ID,
			Team2ID:      in.Team2ID,
			MatchDate:    in.MatchDate.UTC(),
			Venue:        in.Venue,
		}
		if err := repo.CreateMatch(m); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("match %d already exists in this tournament", in.MatchNumber)
			}
			return apperr.Wrap("create match", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListMatches returns a tournament's fixtures by match number.
func (s *Service) ListMatches(ctx context.Context, tournamentID uint) ([]TournamentMatch, error) {
	repo := NewGormMatchRepository(s.db.WithContext(ctx))
	if _, err := loadTournament(repo, tournamentID); err != nil {
		return nil, err
	}
	matches, err := repo.ListMatches(tournamentID)
	if err != nil {
		return nil, apperr.Wrap("list matches", err)
	}
	return matches, nil
}

// ResultInput carries a partial result update; nil fields keep their value.
type ResultInput struct {
	ScoreTeam1      *int
	ScoreTeam2      *int
	IsCompleted     *bool
	ManOfTheMatchID *uint
}

// RecordResult saves scores and the best player. A completed match with a
// best player awards an Achievement once, however often it is re-saved.
func (s *Service) RecordResult(ctx context.Context, actor *registry.Actor, matchID uint, in ResultInput) (*TournamentMatch, error) {
	var (
		m      *TournamentMatch
		events []notify.Event
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := NewGormMatchRepository(tx)
		var err error
		if m, err = repo.GetMatchByID(matchID); err != nil {
			return apperr.Wrap("load match", err)
		}
		if m == nil {
			return apperr.NotFound("match %d not found", matchID)
		}
		if err := ownsTournament(actor, m.Tournament); err != nil {
			return err
		}

		if in.ScoreTeam1 != nil {
			m.ScoreTeam1 = *in.ScoreTeam1
		}
		if in.ScoreTeam2 != nil {
			m.ScoreTeam2 = *in.ScoreTeam2
		}
		if m.ScoreTeam1 < 0 || m.ScoreTeam2 < 0 {
			return apperr.Validation("scores cannot be negative")
		}
		if in.IsCompleted != nil {
			m.IsCompleted = *in.IsCompleted
		}
		if in.ManOfTheMatchID != nil {
			players := registry.NewRepository(tx)
			p, err := players.GetPlayerByID(*in.ManOfTheMatchID)
			if err != nil {
				return apperr.Wrap("load player", err)
			}
			if p == nil {
				return apperr.NotFound("player %d not found", *in.ManOfTheMatchID)
			}
			profile, err := players.GetProfile(p.ID, m.Tournament.SportID)
			if err != nil {
				return apperr.Wrap("load profile", err)
			}
			if profile == nil {
				return apperr.Validation("player %s has no profile in this tournament's sport", p.PlayerID).
					With("player_id", p.PlayerID)
			}
			m.ManOfTheMatchID = &p.ID
			m.ManOfTheMatch = p
		}
		if err := repo.UpdateMatchResult(m); err != nil {
			return apperr.Wrap("save match result", err)
		}

		if !m.IsCompleted || m.ManOfTheMatchID == nil {
			return nil
		}
		award := s.manOfTheMatch(m)
		created, err := repo.FirstOrCreateAchievement(award)
		if err != nil {
			return apperr.Wrap("award achievement", err)
		}
		if created && m.ManOfTheMatch != nil {
			events = append(events, notify.Event{
				UserID:  m.ManOfTheMatch.UserID,
				Title:   award.Title,
				Message: award.Description,
				Type:    notify.TypeTournament,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.emit.Emit(ctx, events...)
	s.refreshLeaderboard(ctx, m.ID)
	return m, nil
}

func (s *Service) manOfTheMatch(m *TournamentMatch) *Achievement {
	day := m.MatchDate
	if day.IsZero() {
		day = s.now()
	}
	day = day.UTC()
	sportID := m.Tournament.SportID
	return &Achievement{
		PlayerID:       *m.ManOfTheMatchID,
		SportID:        &sportID,
		MatchID:        &m.ID,
		TournamentName: m.Tournament.Name,
		Title:          "Man of the Match - " + m.Tournament.Name,
		Description:    fmt.Sprintf("Man of the Match in %s vs %s", teamName(m.Team1), teamName(m.Team2)),
		DateAwarded:    datatypes.Date(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)),
	}
}

func teamName(t *registry.Team) string {
	if t == nil {
		return "TBD"
	}
	return t.Name
}

func (s *Service) refreshLeaderboard(ctx context.Context, matchID uint) {
	if s.board == nil {
		return
	}
	s.board.Invalidate(ctx)
	if err := s.board.Recalculate(ctx); err != nil {
		logging.L().Warn().Err(err).Uint("match_id", matchID).Msg("leaderboard recalculation failed")
	}
}

// Achievements lists a player's awards, newest first.
func (s *Service) Achievements(ctx context.Context, playerID uint) ([]Achievement, error) {
	items, err := NewGormMatchRepository(s.db.WithContext(ctx)).ListAchievements(playerID)
	if err != nil {
		return nil, apperr.Wrap("list achievements", err)
	}
	return items, nil
}
