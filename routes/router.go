package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/DhavalSuthar-24/clubhouse/internal/auth"
	"github.com/DhavalSuthar-24/clubhouse/internal/leaderboard"
	"github.com/DhavalSuthar-24/clubhouse/internal/logging"
	"github.com/DhavalSuthar-24/clubhouse/internal/match"
	"github.com/DhavalSuthar-24/clubhouse/internal/middleware"
	"github.com/DhavalSuthar-24/clubhouse/internal/notify"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/internal/session"
	"github.com/DhavalSuthar-24/clubhouse/internal/sport"
	"github.com/DhavalSuthar-24/clubhouse/internal/team"
	"github.com/DhavalSuthar-24/clubhouse/internal/user"
	"github.com/DhavalSuthar-24/clubhouse/internal/workflow"
	"github.com/DhavalSuthar-24/clubhouse/pkg/rmiddleware"
	"github.com/DhavalSuthar-24/clubhouse/pkg/token"
	"github.com/DhavalSuthar-24/clubhouse/pkg/validator"
)

// Options configures Wire.
type Options struct {
	DefaultSport string
	Cache        *leaderboard.Cache
	// Sinks receive every notification after the database inbox.
	Sinks       []notify.Notifier
	Log         zerolog.Logger
	FrontendURL string
}

// Deps are the services behind the HTTP surface.
type Deps struct {
	DB          *gorm.DB
	Issuer      *token.Issuer
	Log         zerolog.Logger
	FrontendURL string

	Stats       *sport.Registry
	Provisioner *registry.Provisioner
	Roles       *user.Service
	Registry    *registry.Service
	Engine      *workflow.Engine
	Sessions    *session.Service
	Matches     *match.Service
	Leaderboard *leaderboard.Service
	Teams       *team.Service
	Inbox       *notify.Store
}

// Wire builds every service over db.
func Wire(db *gorm.DB, issuer *token.Issuer, opts Options) *Deps {
	stats := sport.DefaultRegistry()
	prov := registry.NewProvisioner(registry.NewIDGenerator(), stats, opts.DefaultSport)
	roles := user.NewService(db, prov)
	inbox := notify.NewStore(db)
	emit := notify.NewDispatcher(opts.Log, append([]notify.Notifier{inbox}, opts.Sinks...)...)
	board := leaderboard.NewService(db, stats, opts.Cache)

	return &Deps{
		DB:          db,
		Issuer:      issuer,
		Log:         opts.Log,
		FrontendURL: opts.FrontendURL,
		Stats:       stats,
		Provisioner: prov,
		Roles:       roles,
		Registry:    registry.NewService(db, prov, roles, board),
		Engine:      workflow.NewEngine(db, roles, prov, emit, board),
		Sessions:    session.NewService(db),
		Matches:     match.NewService(db, board, emit),
		Leaderboard: board,
		Teams:       team.NewService(db),
		Inbox:       inbox,
	}
}

func SetupRoutes(d *Deps) *gin.Engine {
	validator.UseJSONNames()

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), logging.GinLogger(d.Log))
	r.Use(cors.New(corsConfig(d.FrontendURL)))

	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger route
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	authMW := middleware.AuthMiddleware(d.Issuer, d.DB)

	auth.RegisterAuthRoutes(api, d.DB, d.Roles, d.Issuer, authMW)
	sport.RegisterSportRoutes(api, d.DB, d.Stats, authMW, rmiddleware.AdminMiddleware())
	team.TeamRoutes(api, d.Teams, d.Registry, authMW)
	workflow.WorkflowRoutes(api, d.Engine, authMW)
	session.SessionRoutes(api, d.Sessions, authMW)
	match.MatchRoutes(api, d.Matches, authMW)
	leaderboard.LeaderboardRoutes(api, d.Leaderboard, authMW)
	notify.NotificationRoutes(api, d.Inbox, authMW)

	return r
}

func corsConfig(frontendURL string) cors.Config {
	cfg := cors.DefaultConfig()
	if frontendURL == "" || frontendURL == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = []string{frontendURL}
		cfg.AllowCredentials = true
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	cfg.ExposeHeaders = []string{middleware.RequestIDHeader, "Content-Disposition"}
	return cfg
}
