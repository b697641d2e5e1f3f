package auth

import (
	"net/http"

	"github.com/DhavalSuthar-24/clubhouse/internal/apperr"
	"github.com/DhavalSuthar-24/clubhouse/internal/common"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"github.com/DhavalSuthar-24/clubhouse/pkg/responses"
	"github.com/DhavalSuthar-24/clubhouse/pkg/token"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthController struct {
	db     *gorm.DB
	roles  *user.Service
	issuer *token.Issuer
}

func NewAuthController(db *gorm.DB, roles *user.Service, issuer *token.Issuer) *AuthController {
	return &AuthController{db: db, roles: roles, issuer: issuer}
}

func (ac *AuthController) issue(c *gin.Context, status int, message string, u *user.User) {
	accessToken, expiresAt, err := ac.issuer.Generate(u.ID, string(u.Role))
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Access token generation failed")
		return
	}
	responses.SendSuccess(c, status, message, AuthResponse{
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
		User:        FilterUserRecord(u),
	})
}

// @Summary      Register a new user
// @Description  Creates a player (default) or manager account and provisions its profile.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        user  body  RegisterRequest  true  "User registration details"
// @Success      201   {object} responses.SuccessResponse{data=AuthResponse}
// @Failure      400   {object} responses.ErrorResponse "Validation error"
// @Failure      409   {object} responses.ErrorResponse "Username or email already taken"
// @Router       /auth/register [post]
func (ac *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if !common.BindJSON(c, &req) {
		return
	}
	u, err := ac.roles.Register(c.Request.Context(), user.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      user.Role(req.Role),
	})
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	ac.issue(c, http.StatusCreated, "User registered successfully", u)
}

// @Summary      Login user
// @Description  Authenticate with email or username and password.
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        credentials  body  LoginRequest  true  "Login credentials"
// @Success      200   {object} responses.SuccessResponse{data=AuthResponse}
// @Failure      400   {object} responses.ErrorResponse "Invalid input"
// @Failure      401   {object} responses.ErrorResponse "Invalid credentials"
// @Router       /auth/login [post]
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if !common.BindJSON(c, &req) {
		return
	}
	u, err := ac.roles.Authenticate(c.Request.Context(), req.LoginIdentifier, req.Password)
	if err != nil {
		if apperr.IsKind(err, apperr.KindForbidden) {
			responses.Unauthorized(c, "Invalid credentials")
			return
		}
		responses.SendAppError(c, err)
		return
	}
	ac.issue(c, http.StatusOK, "Login successful", u)
}

// @Summary      Current user
// @Description  Returns the caller, the profile matching their role and their role history.
// @Tags         Auth
// @Produce      json
// @Success      200 {object} responses.SuccessResponse{data=MeResponse}
// @Failure      401 {object} responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /auth/me [get]
func (ac *AuthController) GetProfile(c *gin.Context) {
	actor, ok := common.MustActor(c)
	if !ok {
		return
	}
	history, err := user.NewUserRepository(ac.db.WithContext(c.Request.Context())).ListRoleHistory(actor.User.ID)
	if err != nil {
		responses.SendError(c, http.StatusInternalServerError, "Failed to load role history")
		return
	}
	responses.SendSuccess(c, http.StatusOK, "", MeResponse{
		User:        FilterUserRecord(&actor.User),
		Kind:        actor.Kind,
		Player:      actor.Player,
		Coach:       actor.Coach,
		Manager:     actor.Manager,
		RoleHistory: history,
	})
}

// @Summary      Create a user
// @Description  Admin creates a player, manager or admin account.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        user  body  CreateUserRequest  true  "Account details"
// @Success      201   {object} responses.SuccessResponse{data=UserResponse}
// @Failure      403   {object} responses.ErrorResponse
// @Failure      409   {object} responses.ErrorResponse
// @Security     ApiKeyAuth
// @Router       /admin/users [post]
func (ac *AuthController) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if !common.BindJSON(c, &req) {
		return
	}
	u, err := ac.roles.Register(c.Request.Context(), user.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      user.Role(req.Role),
	})
	if err != nil {
		responses.SendAppError(c, err)
		return
	}
	responses.SendSuccess(c, http.StatusCreated, "User created", FilterUserRecord(u))
}
