// Package app assembles codebattle's components from configuration and runs
// the terminal game.
package app

import (
	"context"
	"fmt"

	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/cory-johannsen/codebattle/internal/config"
	"github.com/cory-johannsen/codebattle/internal/game/battle"
	"github.com/cory-johannsen/codebattle/internal/game/dice"
	"github.com/cory-johannsen/codebattle/internal/game/enemy"
	"github.com/cory-johannsen/codebattle/internal/llm"
	"github.com/cory-johannsen/codebattle/internal/observability"
	"github.com/cory-johannsen/codebattle/internal/portrait"
	"github.com/cory-johannsen/codebattle/internal/profile"
	"github.com/cory-johannsen/codebattle/internal/scripting"
	"github.com/cory-johannsen/codebattle/internal/storage/postgres"
	"github.com/cory-johannsen/codebattle/internal/storage/redis"
)

// ProviderSet builds an App from a Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideStore,
	ProvideStarter,
	ProvideProfileService,
	ProvideDiceSource,
	ProvideRoller,
	ProvideEnemyProvider,
	ProvidePortraitResolver,
	ProvideSink,
	ProvideSettings,
	ProvideController,
	NewApp,
)

// App holds the assembled components used by every command.
type App struct {
	Config     config.Config
	Logger     *zap.Logger
	Profiles   *profile.Service
	Controller *battle.Controller
	Events     *battle.ChannelSink
}

// NewApp groups the assembled components.
func NewApp(cfg config.Config, logger *zap.Logger, profiles *profile.Service, ctrl *battle.Controller, events *battle.ChannelSink) *App {
	return &App{Config: cfg, Logger: logger, Profiles: profiles, Controller: ctrl, Events: events}
}

// ProvideLogger builds the structured logger.
//
// Postcondition: The cleanup flushes buffered entries.
func ProvideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// ProvideStore opens the configured profile backend.
//
// Postcondition: Returns a usable Store and a cleanup releasing its
// connections, or a non-nil error.
func ProvideStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (profile.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return profile.NewMemoryStore(), func() {}, nil
	case "file":
		store, err := profile.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		logger.Info("database connected", zap.String("host", cfg.Database.Host))
		return postgres.NewProfileRepository(pool.DB()), pool.Close, nil
	case "redis":
		client, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		logger.Info("redis connected", zap.String("addr", cfg.Redis.Addr))
		return redis.NewProfileStore(client, cfg.Redis.KeyPrefix, cfg.Redis.TTL), func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// ProvideStarter returns the configured starting character.
func ProvideStarter(cfg config.Config) (profile.Profile, error) {
	if cfg.Player.StarterPath == "" {
		return profile.Default(), nil
	}
	return profile.LoadStarter(cfg.Player.StarterPath)
}

// ProvideProfileService binds the store to the configured profile id.
func ProvideProfileService(store profile.Store, cfg config.Config, starter profile.Profile, logger *zap.Logger) *profile.Service {
	return profile.NewService(store, cfg.Player.ProfileID, starter, logger)
}

// ProvideDiceSource returns a seeded source when battle.seed is set, and
// crypto randomness otherwise.
func ProvideDiceSource(cfg config.Config) dice.Source {
	if cfg.Battle.Seed != 0 {
		return dice.NewSeededSource(cfg.Battle.Seed)
	}
	return dice.NewCryptoSource()
}

// ProvideRoller wraps src with debug logging for content rolls.
func ProvideRoller(src dice.Source, logger *zap.Logger) *dice.Roller {
	return dice.NewLoggedRoller(src, logger)
}

// ProvideEnemyProvider composes the configured definition source and decider.
//
// Postcondition: The cleanup closes any scripting VM.
func ProvideEnemyProvider(cfg config.Config, roller *dice.Roller, logger *zap.Logger) (enemy.Provider, func(), error) {
	pc := cfg.Provider
	var model *llm.EnemyProvider
	if pc.Definitions == "llm" || pc.Decisions == "llm" {
		msgs := llm.NewMessageCreator(pc.Anthropic.APIKey(), pc.Anthropic.MaxRetries)
		model = llm.NewEnemyProvider(msgs, pc.Anthropic.Model, pc.Anthropic.MaxTokens, logger.Named("llm"))
	}

	var defs enemy.DefinitionSource
	switch pc.Definitions {
	case "roster":
		templates, err := enemy.LoadTemplates(pc.RosterDir)
		if err != nil {
			return nil, nil, fmt.Errorf("loading enemy roster: %w", err)
		}
		logger.Info("loaded enemy roster", zap.Int("count", len(templates)))
		defs = enemy.NewRoster(templates, roller)
	case "llm":
		defs = model
	default:
		return nil, nil, fmt.Errorf("unknown definition source %q", pc.Definitions)
	}

	cleanup := func() {}
	var decider enemy.Decider
	switch pc.Decisions {
	case "tactician":
		decider = enemy.Tactician{}
	case "script":
		script, err := scripting.LoadDecisionScript(pc.ScriptPath, pc.InstructionLimit, roller, logger.Named("lua"))
		if err != nil {
			return nil, nil, fmt.Errorf("loading enemy script: %w", err)
		}
		decider = script
		cleanup = script.Close
	case "llm":
		decider = model
	default:
		return nil, nil, fmt.Errorf("unknown decision source %q", pc.Decisions)
	}
	return enemy.Compose(defs, decider), cleanup, nil
}

// ProvidePortraitResolver returns a resolver that generates portraits when
// enabled and a key is present, and draws placeholders otherwise.
func ProvidePortraitResolver(cfg config.Config, logger *zap.Logger) *portrait.Resolver {
	pc := cfg.Portrait
	var gen portrait.Generator
	if pc.Enabled {
		if key := pc.APIKey(); key != "" {
			gen = portrait.NewHTTPGenerator(pc.Endpoint, pc.Model, pc.RequestSize, key, pc.Timeout)
		} else {
			logger.Warn("portrait generation enabled but no api key set, using placeholders",
				zap.String("api_key_env", pc.APIKeyEnv),
			)
		}
	}
	return portrait.NewResolver(gen, pc.Size, logger.Named("portrait"))
}

// ProvideSink creates the presentation event channel.
func ProvideSink(cfg config.Config) *battle.ChannelSink {
	return battle.NewChannelSink(cfg.Battle.EventBuffer)
}

// ProvideSettings maps battle timeouts onto controller settings.
func ProvideSettings(cfg config.Config) battle.Settings {
	return battle.Settings{
		DefinitionTimeout: cfg.Battle.DefinitionTimeout,
		DecisionTimeout:   cfg.Battle.DecisionTimeout,
		SaveTimeout:       cfg.Battle.SaveTimeout,
		PortraitTimeout:   cfg.Battle.PortraitTimeout,
	}
}

// ProvideController assembles the battle controller.
func ProvideController(
	provider enemy.Provider,
	src dice.Source,
	profiles *profile.Service,
	portraits *portrait.Resolver,
	sink *battle.ChannelSink,
	settings battle.Settings,
	logger *zap.Logger,
) *battle.Controller {
	return battle.NewController(provider, src, profiles, portraits, sink, settings, logger.Named("battle"))
}
