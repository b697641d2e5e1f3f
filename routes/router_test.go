package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/DhavalSuthar-24/clubhouse/internal/models"
	"github.com/DhavalSuthar-24/clubhouse/internal/testutil"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"github.com/DhavalSuthar-24/clubhouse/pkg/token"
	"github.com/DhavalSuthar-24/clubhouse/utils"
)

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

type club struct {
	t    *testing.T
	deps *Deps
	r    *gin.Engine
}

func newClub(t *testing.T) *club {
	t.Helper()
	gin.SetMode(gin.TestMode)
	utils.PasswordCost = bcrypt.MinCost

	db := testutil.NewDB(t, models.All()...)
	issuer, err := token.NewIssuer("test-secret", time.Hour, "clubhouse-test")
	if err != nil {
		t.Fatalf("issuer: %v", err)
	}
	deps := Wire(db, issuer, Options{DefaultSport: "Cricket", Log: zerolog.Nop()})
	return &club{t: t, deps: deps, r: SetupRoutes(deps)}
}

func (c *club) do(method, path, bearer string, body any) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w.Code, env
}

func (c *club) decode(env envelope, dest any) {
	c.t.Helper()
	if err := json.Unmarshal(env.Data, dest); err != nil {
		c.t.Fatalf("decode %s: %v", env.Data, err)
	}
}

// signup registers through the public endpoint and returns the access token.
func (c *club) signup(username, role string) string {
	c.t.Helper()
	code, env := c.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    username + "@club.test",
		"password": "password123",
		"role":     role,
	})
	if code != http.StatusCreated {
		c.t.Fatalf("register %s = %d %s", username, code, env.Message)
	}
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	c.decode(env, &auth)
	return auth.AccessToken
}

func (c *club) login(identifier, password string) (int, string) {
	c.t.Helper()
	code, env := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"login_identifier": identifier,
		"password":         password,
	})
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	if code == http.StatusOK {
		c.decode(env, &auth)
	}
	return code, auth.AccessToken
}

func TestHealth(t *testing.T) {
	c := newClub(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	c.r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("health = %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request id header")
	}
}

func TestSignupLoginAndMe(t *testing.T) {
	c := newClub(t)
	c.signup("ann", "player")

	if code, _ := c.login("ann@club.test", "wrong-password"); code != http.StatusUnauthorized {
		t.Fatalf("bad password login = %d", code)
	}
	code, tok := c.login("ann", "password123")
	if code != http.StatusOK || tok == "" {
		t.Fatalf("login = %d", code)
	}

	code, env := c.do(http.MethodGet, "/api/auth/me", tok, nil)
	if code != http.StatusOK {
		t.Fatalf("me = %d %s", code, env.Message)
	}
	var me struct {
		Kind   string `json:"kind"`
		Player *struct {
			PlayerID string `json:"player_id"`
		} `json:"player"`
	}
	c.decode(env, &me)
	if me.Kind != "player" || me.Player == nil || me.Player.PlayerID == "" {
		t.Fatalf("me = %+v", me)
	}

	if code, _ := c.do(http.MethodGet, "/api/auth/me", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous me = %d", code)
	}
	if code, _ := c.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "sneaky", "email": "sneaky@club.test", "password": "password123", "role": "admin",
	}); code != http.StatusBadRequest {
		t.Fatalf("admin self-signup = %d", code)
	}
}

func TestPromotionOverHTTP(t *testing.T) {
	c := newClub(t)
	playerTok := c.signup("ann", "player")
	managerTok := c.signup("max", "manager")

	code, env := c.do(http.MethodGet, "/api/sports?search=cricket", "", nil)
	if code != http.StatusOK {
		t.Fatalf("list sports = %d", code)
	}
	var sports []struct {
		ID uint `json:"ID"`
	}
	c.decode(env, &sports)
	if len(sports) != 1 {
		t.Fatalf("default sport missing: %s", env.Data)
	}
	sportID := sports[0].ID

	if code, _ := c.do(http.MethodPost, "/api/sports", managerTok, map[string]string{
		"name": "Hockey", "sport_type": "team",
	}); code != http.StatusForbidden {
		t.Fatalf("manager create sport = %d", code)
	}

	code, env = c.do(http.MethodPost, "/api/promotions", playerTok, map[string]any{"sport_id": sportID})
	if code != http.StatusCreated {
		t.Fatalf("request promotion = %d %s", code, env.Message)
	}
	var req struct {
		ID uint `json:"ID"`
	}
	c.decode(env, &req)

	path := "/api/promotions/" + strconv.FormatUint(uint64(req.ID), 10)
	if code, _ := c.do(http.MethodPost, path+"/approve", playerTok, nil); code != http.StatusForbidden {
		t.Fatalf("player approve = %d", code)
	}
	if code, env := c.do(http.MethodPost, path+"/approve", managerTok, map[string]string{"remarks": "welcome"}); code != http.StatusOK {
		t.Fatalf("manager approve = %d %s", code, env.Message)
	}
	if code, env := c.do(http.MethodPost, path+"/approve", managerTok, nil); code != http.StatusConflict {
		t.Fatalf("second approve = %d (%s)", code, env.Kind)
	}

	// The old token still carries the player role; the middleware reloads
	// the user so the new profile is visible at once.
	code, env = c.do(http.MethodGet, "/api/auth/me", playerTok, nil)
	if code != http.StatusOK {
		t.Fatalf("me after promotion = %d", code)
	}
	var me struct {
		Kind string `json:"kind"`
	}
	c.decode(env, &me)
	if me.Kind != "coach" {
		t.Fatalf("kind after promotion = %q", me.Kind)
	}

	u, err := user.NewUserRepository(c.deps.DB).GetUserByLogin("ann")
	if err != nil || u == nil || u.Role != user.RoleCoach {
		t.Fatalf("stored user = %+v, %v", u, err)
	}

	code, env = c.do(http.MethodGet, "/api/notifications", playerTok, nil)
	if code != http.StatusOK {
		t.Fatalf("notifications = %d", code)
	}
	var inbox []struct {
		Type string `json:"type"`
	}
	c.decode(env, &inbox)
	if len(inbox) == 0 || inbox[0].Type != "promotion" {
		t.Fatalf("inbox = %s", env.Data)
	}

	code, env = c.do(http.MethodGet, "/api/coach/dashboard", playerTok, nil)
	if code != http.StatusOK {
		t.Fatalf("coach dashboard = %d %s", code, env.Message)
	}
	var board struct {
		Coach struct {
			ID uint `json:"ID"`
		} `json:"coach"`
		TotalStudents int `json:"total_students"`
		TotalTeams    int `json:"total_teams"`
	}
	c.decode(env, &board)
	if board.Coach.ID == 0 || board.TotalStudents != 0 || board.TotalTeams != 0 {
		t.Fatalf("new coach dashboard = %s", env.Data)
	}
	if code, _ := c.do(http.MethodGet, "/api/coach/dashboard", managerTok, nil); code != http.StatusForbidden {
		t.Fatalf("manager coach dashboard = %d", code)
	}
	other := "/api/coaches/" + strconv.FormatUint(uint64(board.Coach.ID), 10) + "/dashboard"
	if code, _ := c.do(http.MethodGet, other, managerTok, nil); code != http.StatusForbidden {
		t.Fatalf("manager viewing coach dashboard = %d", code)
	}
}
