package session

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/testutil"
	"github.com/DhavalSuthar-24/clubhouse/internal/testutil/fixtures"
	"gorm.io/gorm"
)

func TestParseAttendanceCSV(t *testing.T) {
	rows, err := ParseAttendanceCSV(strings.NewReader(" score ,player_id,attended\n7,P2600001,1\n\n,P2600002,0\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0] != (AttendanceRow{Row: 2, PlayerID: "P2600001", Attended: "1", Score: "7"}) {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].Row != 3 || rows[1].Score != "" {
		t.Fatalf("row 1 = %+v", rows[1])
	}

	bad := []string{
		"",
		"player_id,attended\nP1,1\n",
		"player_id,attended,score,notes\n",
		"player_id,attended,attended\n",
		"Player_ID,attended,score\n",
	}
	for _, in := range bad {
		if _, err := ParseAttendanceCSV(strings.NewReader(in)); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("ParseAttendanceCSV(%q) error = %v, want validation", in, err)
		}
	}
}

func TestParseMarks(t *testing.T) {
	tests := []struct {
		attended, score string
		want            bool
		wantScore       int
		reason          string
	}{
		{"1", "7", true, 7, ""},
		{"0", "4", false, 4, ""},
		{"0", "", false, 0, ReasonNotIntegers},
		{"0", "0", false, 0, ReasonOutOfRange},
		{"0", "11", false, 0, ReasonOutOfRange},
		{"1", "", false, 0, ReasonNotIntegers},
		{"yes", "7", false, 0, ReasonNotIntegers},
		{"1", "7.5", false, 0, ReasonNotIntegers},
		{"2", "5", false, 0, ReasonOutOfRange},
		{"1", "0", false, 0, ReasonOutOfRange},
		{"1", "11", false, 0, ReasonOutOfRange},
	}
	for _, tt := range tests {
		got, score, reason := parseMarks(tt.attended, tt.score)
		if reason != tt.reason || (reason == "" && (got != tt.want || score != tt.wantScore)) {
			t.Errorf("parseMarks(%q, %q) = %v, %d, %q", tt.attended, tt.score, got, score, reason)
		}
	}
}

type harness struct {
	env   *fixtures.Env
	svc   *Service
	coach *registry.Coach
	cu    uint
	sport *sport.Sport
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t, append(fixtures.Models(), Models()...)...)
	env := fixtures.New(t, db)
	football := env.Sport("Football", sport.TypeTeam)
	cu, coach := env.Coach("carl", football.ID)
	return &harness{env: env, svc: NewService(db), coach: coach, cu: cu.ID, sport: football}
}

func (h *harness) session(t *testing.T, at time.Time) *CoachingSession {
	t.Helper()
	s, err := h.svc.CreateSession(context.Background(), h.env.Actor(h.cu), CreateInput{
		SportID: h.sport.ID, SessionDate: at, Title: "Drills",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

func dailyScore(t *testing.T, db *gorm.DB, playerID uint, s *CoachingSession) *DailyPerformanceScore {
	t.Helper()
	var d DailyPerformanceScore
	if err := db.Where("player_id = ? AND day = ?", playerID, s.Day).Take(&d).Error; err != nil {
		t.Fatalf("daily score: %v", err)
	}
	return &d
}

func TestCreateSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cricket := h.env.Sport("Cricket", sport.TypeTeam)
	mu, _ := h.env.Manager("max", cricket.ID)
	cricketTeam := h.env.Team("Blues", cricket.ID, mu.ID, nil)

	at := time.Date(2026, 5, 3, 23, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	s := h.session(t, at)
	if s.SessionDate.Location() != time.UTC {
		t.Fatalf("session date not UTC: %v", s.SessionDate)
	}
	if got := time.Time(s.Day).Format("2006-01-02"); got != "2026-05-03" {
		t.Fatalf("day = %s", got)
	}

	_, err := h.svc.CreateSession(ctx, h.env.Actor(h.cu), CreateInput{SportID: cricket.ID, SessionDate: at, Title: "x"})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("foreign sport error = %v", err)
	}
	_, err = h.svc.CreateSession(ctx, h.env.Actor(h.cu), CreateInput{SportID: h.sport.ID, TeamID: &cricketTeam.ID, SessionDate: at, Title: "x"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("team sport mismatch error = %v", err)
	}
	pu, _ := h.env.Player("pat")
	_, err = h.svc.CreateSession(ctx, h.env.Actor(pu.ID), CreateInput{SportID: h.sport.ID, SessionDate: at, Title: "x"})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("player create error = %v", err)
	}
}

func TestImportAttendance(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, p1 := h.env.Player("pat")
	_, p2 := h.env.Player("pia")
	_, outsider := h.env.Player("sam")
	h.env.Student(p1.ID, h.coach)
	h.env.Student(p2.ID, h.coach)

	morning := h.session(t, time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	evening := h.session(t, time.Date(2026, 4, 1, 18, 0, 0, 0, time.UTC))
	actor := h.env.Actor(h.cu)

	csv := "player_id,attended,score\n" +
		p1.PlayerID + ",1,8\n" +
		p2.PlayerID + ",0,3\n" +
		outsider.PlayerID + ",1,5\n" +
		"P9999999,1,5\n" +
		p1.PlayerID + ",1,x\n" +
		p2.PlayerID + ",1,12\n"
	rows, err := ParseAttendanceCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := h.svc.ImportAttendance(ctx, actor, morning.ID, rows)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Updated != 2 {
		t.Fatalf("updated = %d, errors %+v", res.Updated, res.Errors)
	}
	want := []RowError{
		{Row: 4, PlayerID: outsider.PlayerID, Error: ReasonIneligible},
		{Row: 5, PlayerID: "P9999999", Error: ReasonPlayerNotFound},
		{Row: 6, PlayerID: p1.PlayerID, Error: ReasonNotIntegers},
		{Row: 7, PlayerID: p2.PlayerID, Error: ReasonOutOfRange},
	}
	if len(res.Errors) != len(want) {
		t.Fatalf("errors = %+v", res.Errors)
	}
	for i := range want {
		if res.Errors[i] != want[i] {
			t.Errorf("error %d = %+v, want %+v", i, res.Errors[i], want[i])
		}
	}
	if d := dailyScore(t, h.env.DB, p1.ID, morning); d.Score != 8 {
		t.Fatalf("p1 daily = %v", d.Score)
	}
	if d := dailyScore(t, h.env.DB, p2.ID, morning); d.Score != 0 || d.SessionsAttended != 0 {
		t.Fatalf("absent daily = %+v", d)
	}

	rows, _ = ParseAttendanceCSV(strings.NewReader("player_id,attended,score\n" + p1.PlayerID + ",1,6\n"))
	if _, err := h.svc.ImportAttendance(ctx, actor, evening.ID, rows); err != nil {
		t.Fatalf("import evening: %v", err)
	}
	if d := dailyScore(t, h.env.DB, p1.ID, morning); d.Score != 7 || d.SessionsAttended != 2 {
		t.Fatalf("mean over the day = %+v", d)
	}

	rows, _ = ParseAttendanceCSV(strings.NewReader("player_id,attended,score\n" + p1.PlayerID + ",0,5\n"))
	if _, err := h.svc.ImportAttendance(ctx, actor, morning.ID, rows); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if d := dailyScore(t, h.env.DB, p1.ID, morning); d.Score != 6 {
		t.Fatalf("after marking absent = %v", d.Score)
	}
	var n int64
	h.env.DB.Model(&SessionAttendance{}).Where("session_id = ? AND player_id = ?", morning.ID, p1.ID).Count(&n)
	if n != 1 {
		t.Fatalf("attendance rows = %d, want upsert", n)
	}
}

func TestImportRejectsAbsentRowsWithoutScore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, p1 := h.env.Player("pat")
	_, p2 := h.env.Player("pia")
	h.env.Student(p1.ID, h.coach)
	h.env.Student(p2.ID, h.coach)
	s := h.session(t, time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC))

	rows, err := ParseAttendanceCSV(strings.NewReader("player_id,attended,score\n" +
		p1.PlayerID + ",0,0\n" +
		p2.PlayerID + ",0,\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	res, err := h.svc.ImportAttendance(ctx, h.env.Actor(h.cu), s.ID, rows)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	want := []RowError{
		{Row: 2, PlayerID: p1.PlayerID, Error: ReasonOutOfRange},
		{Row: 3, PlayerID: p2.PlayerID, Error: ReasonNotIntegers},
	}
	if res.Updated != 0 || len(res.Errors) != len(want) {
		t.Fatalf("import = %+v", res)
	}
	for i := range want {
		if res.Errors[i] != want[i] {
			t.Errorf("error %d = %+v, want %+v", i, res.Errors[i], want[i])
		}
	}

	var attendance, daily int64
	h.env.DB.Model(&SessionAttendance{}).Where("session_id = ?", s.ID).Count(&attendance)
	h.env.DB.Model(&DailyPerformanceScore{}).Where("day = ?", s.Day).Count(&daily)
	if attendance != 0 || daily != 0 {
		t.Fatalf("rejected rows wrote %d attendance and %d daily rows", attendance, daily)
	}
}

func TestImportAttendanceAuthorization(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.session(t, time.Now())
	ou, _ := h.env.Coach("olga", h.sport.ID)
	au := h.env.Admin("root")

	if _, err := h.svc.ImportAttendance(ctx, h.env.Actor(ou.ID), s.ID, nil); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("other coach error = %v", err)
	}
	res, err := h.svc.ImportAttendance(ctx, h.env.Actor(au.ID), s.ID, nil)
	if err != nil || res.Updated != 0 || res.Errors == nil {
		t.Fatalf("admin import = %+v, %v", res, err)
	}
	if _, err := h.svc.ImportAttendance(ctx, h.env.Actor(au.ID), 404, nil); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("missing session error = %v", err)
	}
}

func TestAttendanceTemplate(t *testing.T) {
	h := newHarness(t)
	_, p1 := h.env.Player("pat")
	_, p2 := h.env.Player("pia")
	h.env.Player("sam")
	h.env.Student(p2.ID, h.coach)
	h.env.Student(p1.ID, h.coach)
	s := h.session(t, time.Now())

	var buf bytes.Buffer
	if err := h.svc.AttendanceTemplate(context.Background(), h.env.Actor(h.cu), s.ID, &buf); err != nil {
		t.Fatalf("template: %v", err)
	}
	want := "player_id,attended,score\n" + p1.PlayerID + ",0,1\n" + p2.PlayerID + ",0,1\n"
	if buf.String() != want {
		t.Fatalf("template =\n%s\nwant\n%s", buf.String(), want)
	}

	rows, err := ParseAttendanceCSV(&buf)
	if err != nil {
		t.Fatalf("template does not parse: %v", err)
	}
	res, err := h.svc.ImportAttendance(context.Background(), h.env.Actor(h.cu), s.ID, rows)
	if err != nil || res.Updated != 2 {
		t.Fatalf("template import = %+v, %v", res, err)
	}
}

func TestListSessionsScope(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	s := h.session(t, time.Now())
	h.session(t, time.Now().Add(time.Hour))
	ou, _ := h.env.Coach("olga", h.sport.ID)
	pu, p := h.env.Player("pat")
	h.env.Student(p.ID, h.coach)

	rows, _ := ParseAttendanceCSV(strings.NewReader("player_id,attended,score\n" + p.PlayerID + ",1,9\n"))
	if _, err := h.svc.ImportAttendance(ctx, h.env.Actor(h.cu), s.ID, rows); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		userID uint
		want   int64
	}{
		{"own coach", h.cu, 2},
		{"other coach", ou.ID, 0},
		{"attending player", pu.ID, 1},
	}
	for _, tt := range tests {
		_, total, err := h.svc.ListSessions(ctx, h.env.Actor(tt.userID), 1, 20)
		if err != nil || total != tt.want {
			t.Errorf("%s: total = %d, %v; want %d", tt.name, total, err, tt.want)
		}
	}
	got, err := h.svc.GetSession(ctx, h.env.Actor(pu.ID), s.ID)
	if err != nil || len(got.Attendances) != 1 || got.Attendances[0].Rating != 9 {
		t.Fatalf("player view = %+v, %v", got, err)
	}
	if _, err := h.svc.GetSession(ctx, h.env.Actor(ou.ID), s.ID); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("other coach view error = %v", err)
	}
	scores, err := h.svc.DailyScores(ctx, h.env.Actor(pu.ID), p.ID, 0)
	if err != nil || len(scores) != 1 || scores[0].Score != 9 {
		t.Fatalf("daily scores = %+v, %v", scores, err)
	}
}
