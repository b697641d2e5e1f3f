// Package leaderboard ranks players per sport and across the club.
package leaderboard

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/match"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AchievementPoints is added to a player's score per achievement.
const AchievementPoints = 10

type Service struct {
	db    *gorm.DB
	stats *sport.Registry
	cache *Cache
	now   func() time.Time
}

// NewService builds the aggregator; cache may be nil.
func NewService(db *gorm.DB, stats *sport.Registry, cache *Cache) *Service {
	return &Service{db: db, stats: stats, cache: cache, now: time.Now}
}

// Invalidate drops cached leaderboards.
func (s *Service) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx)
}

// SportRankings ranks every active profile of a sport on each metric of the
// sport's descriptor. Sports without a descriptor rank nothing.
func (s *Service) SportRankings(ctx context.Context, sportID uint) (*SportRanking, error) {
	var cached SportRanking
	if s.cache.get(ctx, sportKey(sportID), &cached) {
		return &cached, nil
	}

	db := s.db.WithContext(ctx)
	sp, err := sport.NewSportRepository(db).GetSportByID(sportID)
	if err != nil {
		return nil, apperr.Wrap("load sport", err)
	}
	if sp == nil {
		return nil, apperr.NotFound("sport %d not found", sportID)
	}
	ranking, err := s.rank(db, sp)
	if err != nil {
		return nil, err
	}
	s.cache.set(ctx, sportKey(sportID), ranking)
	return ranking, nil
}

func (s *Service) rank(db *gorm.DB, sp *sport.Sport) (*SportRanking, error) {
	ranking := &SportRanking{SportID: sp.ID, Sport: sp.Name, Metrics: []MetricRanking{}}
	desc, ok := s.stats.Lookup(sp.Name)
	if !ok {
		return ranking, nil
	}

	var profiles []registry.PlayerSportProfile
	err := db.Preload("Player").
		Where("sport_id = ? AND is_active = ?", sp.ID, true).
		Order("id asc").Find(&profiles).Error
	if err != nil {
		return nil, apperr.Wrap("load profiles", err)
	}
	byID := make(map[uint]*registry.PlayerSportProfile, len(profiles))
	ids := make([]uint, 0, len(profiles))
	for i := range profiles {
		byID[profiles[i].ID] = &profiles[i]
		ids = append(ids, profiles[i].ID)
	}
	rows, err := desc.Load(db, ids)
	if err != nil {
		return nil, apperr.Wrap("load stats", err)
	}
	ranking.TotalPlayers = len(rows)

	for _, m := range desc.Metrics {
		entries := make([]RankedProfile, 0, len(rows))
		for _, st := range rows {
			p := byID[st.Profile()]
			entry := RankedProfile{ProfileID: p.ID, PlayerID: p.PlayerID, Value: st.Values()[m.Name]}
			if p.Player != nil {
				entry.PlayerCode = p.Player.PlayerID
			}
			entries = append(entries, entry)
		}
		sortByMetric(entries, m.Order)
		for i := range entries {
			entries[i].Rank = i + 1
		}
		order := "desc"
		if m.Order == sport.LowerIsBetter {
			order = "asc"
		}
		ranking.Metrics = append(ranking.Metrics, MetricRanking{Metric: m.Name, Order: order, Entries: entries})
	}
	return ranking, nil
}

// sortByMetric orders best first. For LowerIsBetter a zero value means "not
// recorded" and goes last. Ties keep profile id order.
func sortByMetric(entries []RankedProfile, order sport.Order) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Value != b.Value {
			if order == sport.LowerIsBetter {
				if a.Value == 0 || b.Value == 0 {
					return b.Value == 0
				}
				return a.Value < b.Value
			}
			return a.Value > b.Value
		}
		return a.ProfileID < b.ProfileID
	})
}

// PlayerRanks returns the profile's rank per metric and how many profiles
// were ranked in its sport.
func (s *Service) PlayerRanks(ctx context.Context, profileID uint) (map[string]int, int, error) {
	profile, err := registry.NewRepository(s.db.WithContext(ctx)).GetProfileByID(profileID)
	if err != nil {
		return nil, 0, apperr.Wrap("load profile", err)
	}
	if profile == nil {
		return nil, 0, apperr.NotFound("profile %d not found", profileID)
	}
	ranking, err := s.SportRankings(ctx, profile.SportID)
	if err != nil {
		return nil, 0, err
	}
	ranks := make(map[string]int, len(ranking.Metrics))
	for _, m := range ranking.Metrics {
		for _, e := range m.Entries {
			if e.ProfileID == profileID {
				ranks[m.Metric] = e.Rank
				break
			}
		}
	}
	return ranks, ranking.TotalPlayers, nil
}

// Global returns the top active players by score.
func (s *Service) Global(ctx context.Context, limit int) ([]GlobalRow, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	var rows []GlobalRow
	if s.cache.get(ctx, globalKey(limit), &rows) {
		return rows, nil
	}

	err := s.db.WithContext(ctx).Model(&LeaderboardEntry{}).
		Select("leaderboard_entries.player_id, players.player_id AS player_code, users.username, leaderboard_entries.score").
		Joins("JOIN players ON players.id = leaderboard_entries.player_id AND players.deleted_at IS NULL").
		Joins("JOIN users ON users.id = players.user_id").
		Where("players.is_active = ?", true).
		Order("leaderboard_entries.score desc, leaderboard_entries.player_id asc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, apperr.Wrap("load leaderboard", err)
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	if rows == nil {
		rows = []GlobalRow{}
	}
	s.cache.set(ctx, globalKey(limit), rows)
	return rows, nil
}

// Recalculate rebuilds every player's score as the rounded sum of their
// profiles' career scores plus AchievementPoints per achievement.
func (s *Service) Recalculate(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var career []struct {
			PlayerID uint
			Total    float64
		}
		if err := tx.Model(&registry.PlayerSportProfile{}).
			Select("player_id, COALESCE(SUM(career_score), 0) AS total").
			Group("player_id").Scan(&career).Error; err != nil {
			return err
		}
		var awards []struct {
			PlayerID uint
			N        int
		}
		if err := tx.Model(&match.Achievement{}).
			Select("player_id, COUNT(*) AS n").
			Group("player_id").Scan(&awards).Error; err != nil {
			return err
		}

		totals := make(map[uint]float64)
		for _, c := range career {
			totals[c.PlayerID] += c.Total
		}
		for _, a := range awards {
			totals[a.PlayerID] += float64(a.N * AchievementPoints)
		}

		var playerIDs []uint
		if err := tx.Model(&registry.Player{}).Order("id").Pluck("id", &playerIDs).Error; err != nil {
			return err
		}
		if len(playerIDs) == 0 {
			return nil
		}
		now := s.now()
		entries := make([]LeaderboardEntry, 0, len(playerIDs))
		for _, id := range playerIDs {
			entries = append(entries, LeaderboardEntry{
				PlayerID:  id,
				Score:     int(math.Round(totals[id])),
				UpdatedAt: now,
			})
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "updated_at"}),
		}).CreateInBatches(&entries, 200).Error
	})
	if err != nil {
		return apperr.Wrap("recalculate leaderboard", err)
	}
	s.cache.Invalidate(ctx)
	return nil
}

// Dashboard is a player's overview: every sport profile with stats and
// ranks, their achievements and global score.
type Dashboard struct {
	Player       *registry.Player    `json:"player"`
	Profiles     []ProfileBlock      `json:"profiles"`
	Achievements []match.Achievement `json:"achievements"`
	Score        int                 `json:"score"`
}

// PlayerDashboard is visible to the player, their coaches and admins.
func (s *Service) PlayerDashboard(ctx context.Context, actor *registry.Actor, playerID uint) (*Dashboard, error) {
	db := s.db.WithContext(ctx)
	repo := registry.NewRepository(db)
	player, err := repo.GetPlayerByID(playerID)
	if err != nil {
		return nil, apperr.Wrap("load player", err)
	}
	if player == nil {
		return nil, apperr.NotFound("player %d not found", playerID)
	}

	switch {
	case actor.IsAdmin():
	case actor.Kind == registry.KindPlayer && actor.Player.ID == player.ID:
	case actor.Kind == registry.KindCoach:
		var n int64
		db.Model(&registry.PlayerSportProfile{}).
			Where("player_id = ? AND coach_id = ?", player.ID, actor.Coach.ID).Count(&n)
		if n == 0 {
			return nil, apperr.Forbidden("player %s is not your student", player.PlayerID)
		}
	default:
		return nil, apperr.Forbidden("dashboard is not visible to you")
	}

	profiles, _, err := repo.ListProfiles(registry.ProfileFilter{PlayerID: &player.ID}, 1, 0)
	if err != nil {
		return nil, apperr.Wrap("load profiles", err)
	}
	dash := &Dashboard{Player: player, Profiles: make([]ProfileBlock, 0, len(profiles))}
	for _, p := range profiles {
		block := ProfileBlock{Profile: p, Stats: map[string]float64{}, Ranks: map[string]int{}}
		if p.Sport != nil {
			if desc, ok := s.stats.Lookup(p.Sport.Name); ok {
				rows, err := desc.Load(db, []uint{p.ID})
				if err != nil {
					return nil, apperr.Wrap("load stats", err)
				}
				if len(rows) > 0 {
					block.Stats = rows[0].Values()
				}
			}
		}
		if block.Ranks, block.TotalPlayers, err = s.PlayerRanks(ctx, p.ID); err != nil {
			return nil, err
		}
		dash.Profiles = append(dash.Profiles, block)
	}

	if dash.Achievements, err = match.NewGormMatchRepository(db).ListAchievements(player.ID); err != nil {
		return nil, apperr.Wrap("load achievements", err)
	}
	var entry LeaderboardEntry
	if err := db.Where("player_id = ?", player.ID).Limit(1).Find(&entry).Error; err != nil {
		return nil, apperr.Wrap("load score", err)
	}
	dash.Score = entry.Score
	return dash, nil
}

// CoachDashboard is visible to the coach and admins. Students are the
// players with an active profile under the coach, in player id order.
func (s *Service) CoachDashboard(ctx context.Context, actor *registry.Actor, coachID uint) (*CoachDashboard, error) {
	db := s.db.WithContext(ctx)
	coach, err := registry.NewRepository(db).GetCoachByID(coachID)
	if err != nil {
		return nil, apperr.Wrap("load coach", err)
	}
	if coach == nil {
		return nil, apperr.NotFound("coach %d not found", coachID)
	}
	if !actor.IsAdmin() && (actor.Kind != registry.KindCoach || actor.Coach.ID != coach.ID) {
		return nil, apperr.Forbidden("dashboard is not visible to you")
	}

	dash := &CoachDashboard{Coach: coach, Teams: []registry.Team{}, Players: []Student{}}
	if err := db.Preload("Sport").Where("coach_id = ?", coach.ID).Order("id asc").Find(&dash.Teams).Error; err != nil {
		return nil, apperr.Wrap("load teams", err)
	}

	var profiles []registry.PlayerSportProfile
	err = db.Preload("Player.User").Preload("Sport").Preload("Team").
		Where("coach_id = ? AND is_active = ?", coach.ID, true).
		Order("player_id asc, id asc").Find(&profiles).Error
	if err != nil {
		return nil, apperr.Wrap("load students", err)
	}
	stats, err := s.loadStats(db, profiles)
	if err != nil {
		return nil, err
	}

	index := make(map[uint]int)
	for _, p := range profiles {
		i, seen := index[p.PlayerID]
		if !seen {
			student := Student{ID: p.PlayerID, Profiles: []StudentProfile{}}
			if p.Player != nil {
				student.UserID = p.Player.UserID
				student.PlayerCode = p.Player.PlayerID
				student.Username = p.Player.User.Username
				student.Email = p.Player.User.Email
			}
			i = len(dash.Players)
			index[p.PlayerID] = i
			dash.Players = append(dash.Players, student)
		}
		sp := StudentProfile{
			ID:          p.ID,
			Sport:       p.Sport,
			IsActive:    p.IsActive,
			JoinedDate:  p.JoinedDate,
			CareerScore: p.CareerScore,
			Stats:       stats[p.ID],
		}
		if sp.Stats == nil {
			sp.Stats = map[string]float64{}
		}
		if p.Team != nil {
			sp.Team = &TeamRef{ID: p.Team.ID, Name: p.Team.Name}
		}
		dash.Players[i].Profiles = append(dash.Players[i].Profiles, sp)
	}
	dash.TotalStudents = len(dash.Players)
	dash.TotalTeams = len(dash.Teams)
	return dash, nil
}

// loadStats reads stat rows for profiles, one query per sport descriptor.
func (s *Service) loadStats(db *gorm.DB, profiles []registry.PlayerSportProfile) (map[uint]map[string]float64, error) {
	bySport := make(map[string][]uint)
	for _, p := range profiles {
		if p.Sport != nil {
			bySport[p.Sport.Name] = append(bySport[p.Sport.Name], p.ID)
		}
	}
	out := make(map[uint]map[string]float64, len(profiles))
	for name, ids := range bySport {
		desc, ok := s.stats.Lookup(name)
		if !ok {
			continue
		}
		rows, err := desc.Load(db, ids)
		if err != nil {
			return nil, apperr.Wrap("load stats", err)
		}
		for _, st := range rows {
			out[st.Profile()] = st.Values()
		}
	}
	return out, nil
}
