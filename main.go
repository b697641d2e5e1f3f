package main

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/rs/zerolog"

	"github.com/DhavalSuthar-24/clubhouse/config"
	_ "github.com/DhavalSuthar-24/clubhouse/docs"
	"github.com/DhavalSuthar-24/clubhouse/internal/leaderboard"
	"github.com/DhavalSuthar-24/clubhouse/internal/logging"
	"github.com/DhavalSuthar-24/clubhouse/internal/models"
	"github.com/DhavalSuthar-24/clubhouse/internal/notify"
	"github.com/DhavalSuthar-24/clubhouse/internal/registry"
	"github.com/DhavalSuthar-24/clubhouse/pkg/token"
	"github.com/DhavalSuthar-24/clubhouse/routes"
)

// @title Clubhouse REST API
// @version 1.0
// @description Sports club backend: players, coaches, managers, teams, tournaments and leaderboards.
// @host localhost:8088
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	if err := config.Initialize(); err != nil {
		logging.L().Fatal().Err(err).Msg("failed to initialize application")
	}
	cfg := config.GetConfig()

	log := logging.New(cfg.App.Env, cfg.App.LogLevel)
	logging.SetDefault(log)

	if err := models.Migrate(config.DB); err != nil {
		log.Fatal().Err(err).Msg("AutoMigrate failed")
	}
	log.Info().Msg("AutoMigrate successful")

	issuer, err := token.NewIssuer(cfg.JWT.AccessTokenSecret, cfg.AccessTokenTTL(), cfg.JWT.Issuer)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid JWT settings")
	}

	deps := routes.Wire(config.DB, issuer, routes.Options{
		DefaultSport: cfg.Club.DefaultSport,
		Cache:        leaderboard.NewCache(config.Redis, cfg.Redis.CacheTTL),
		Sinks:        snsSinks(cfg, log),
		Log:          log,
		FrontendURL:  cfg.App.FrontendURL,
	})

	if cfg.App.SeedDemo {
		seeded, err := registry.SeedDemo(context.Background(), config.DB, deps.Roles, deps.Provisioner)
		if err != nil {
			log.Fatal().Err(err).Msg("demo seed failed")
		}
		if seeded {
			log.Info().Str("password", registry.DemoPassword).Msg("demo club seeded")
		}
	}

	r := routes.SetupRoutes(deps)

	log.Info().Str("port", cfg.App.Port).Str("env", cfg.App.Env).Msg("starting server")
	if err := r.Run(":" + cfg.App.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to run server")
	}
}

// snsSinks forwards notifications to SNS when a topic is configured.
func snsSinks(cfg *config.Config, log zerolog.Logger) []notify.Notifier {
	if cfg.Notify.SNSTopicARN == "" {
		return nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Notify.AWSRegion))
	if err != nil {
		log.Warn().Err(err).Msg("aws config unavailable, SNS notifications disabled")
		return nil
	}
	log.Info().Str("topic", cfg.Notify.SNSTopicARN).Msg("publishing notifications to SNS")
	return []notify.Notifier{notify.NewSNSPublisher(awsCfg, cfg.Notify.SNSTopicARN)}
}
