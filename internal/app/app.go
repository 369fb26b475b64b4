package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/onboarding-agent/internal/agent"
	"github.com/Rrens/onboarding-agent/internal/api"
	"github.com/Rrens/onboarding-agent/internal/api/handler"
	"github.com/Rrens/onboarding-agent/internal/config"
	"github.com/Rrens/onboarding-agent/internal/domain"
	"github.com/Rrens/onboarding-agent/internal/llm"
	"github.com/Rrens/onboarding-agent/internal/llm/anthropic"
	"github.com/Rrens/onboarding-agent/internal/llm/deepseek"
	"github.com/Rrens/onboarding-agent/internal/llm/gemini"
	"github.com/Rrens/onboarding-agent/internal/llm/ollama"
	"github.com/Rrens/onboarding-agent/internal/llm/openai"
	"github.com/Rrens/onboarding-agent/internal/repository/mongo"
	"github.com/Rrens/onboarding-agent/internal/repository/mysql"
	"github.com/Rrens/onboarding-agent/internal/repository/postgres"
	"github.com/Rrens/onboarding-agent/internal/repository/redis"
	"github.com/Rrens/onboarding-agent/internal/repository/sqlite"
	"github.com/Rrens/onboarding-agent/internal/seating"
	"github.com/Rrens/onboarding-agent/internal/service"
	"github.com/rs/zerolog/log"
)

// App owns every resource built from configuration. Close releases them in
// reverse order of creation.
type App struct {
	Config    *config.Config
	LLM       *llm.Router
	DB        *postgres.DB
	Redis     *redis.Client
	Store     domain.SessionStore
	Gateway   seating.Gateway
	Router    *agent.Router
	Chat      *service.ChatService
	Employees *service.EmployeeService

	closers []func()
}

// Build connects every backend named by cfg and assembles the services
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config

	a.LLM = NewLLMRouter(cfg)
	provider, err := a.LLM.Resolve("")
	if err != nil {
		return fmt.Errorf("failed to select LLM provider: %w", err)
	}

	if needsPostgres(cfg) {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = db
		a.onClose(db.Close)
		log.Info().Msg("Connected to PostgreSQL")
	}

	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = rc
		a.onClose(func() { rc.Close() })
		log.Info().Msg("Connected to Redis")
	}

	if a.Store, err = a.sessionStore(ctx); err != nil {
		return err
	}

	var attacher service.SeatAttacher
	if a.Gateway, attacher, err = a.seatGateway(ctx); err != nil {
		return err
	}

	toolbox := agent.NewToolbox(seating.NewAssignSeatingTool(a.Gateway))
	a.Router = agent.NewRouter(provider, toolbox, agent.OptionsFromConfig(cfg))
	a.Chat = service.NewChatService(a.Router, a.Store)

	if a.DB != nil {
		a.Employees = service.NewEmployeeService(postgres.NewEmployeeRepository(a.DB.Pool), attacher)
	}

	log.Info().
		Str("provider", provider.Name()).
		Str("store", cfg.Store.Backend).
		Str("tool_source", cfg.Agent.ToolSource).
		Str("context_mode", cfg.Agent.ContextMode).
		Msg("Agent ready")
	return nil
}

// NewLLMRouter registers every provider that has credentials
func NewLLMRouter(cfg *config.Config) *llm.Router {
	router := llm.NewRouter(cfg.LLM.DefaultProvider)

	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.Ollama.Host != "" {
		router.Register(ollama.NewProvider(cfg.LLM.Ollama.Host, cfg.LLM.Ollama.DefaultModel))
	}
	if cfg.LLM.OpenAI.APIKey != "" {
		router.Register(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model, cfg.LLM.OpenAI.BaseURL))
	}
	if cfg.LLM.Anthropic.APIKey != "" {
		router.Register(anthropic.NewProvider(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model))
	}
	if cfg.LLM.DeepSeek.APIKey != "" {
		router.Register(deepseek.NewProvider(cfg.LLM.DeepSeek.APIKey, cfg.LLM.DeepSeek.Model))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		router.Register(gemini.NewProvider(cfg.LLM.Gemini))
	}

	return router
}

func needsPostgres(cfg *config.Config) bool {
	return cfg.Store.Backend == "postgres" ||
		(cfg.Agent.ToolSource == "in_process" && cfg.Seating.Backend == "postgres")
}

func (a *App) sessionStore(ctx context.Context) (domain.SessionStore, error) {
	cfg := a.Config

	var store domain.SessionStore
	switch cfg.Store.Backend {
	case "postgres":
		store = postgres.NewSessionStore(a.DB.Pool)
	case "sqlite":
		s, err := sqlite.Open(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		a.onClose(func() { s.Close() })
		store = s
	case "mongo":
		s, err := mongo.Connect(ctx, cfg.Store.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.onClose(func() { s.Close() })
		store = s
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}

	if cfg.Store.Cache.Enabled {
		if a.Redis == nil {
			return nil, errors.New("store.cache requires redis.enabled")
		}
		store = redis.NewSessionCache(a.Redis, store, cfg.Store.Cache.TTL)
	}
	return store, nil
}

func (a *App) seatGateway(ctx context.Context) (seating.Gateway, service.SeatAttacher, error) {
	cfg := a.Config

	if cfg.Agent.ToolSource == "remote_service" {
		gw, err := seating.DialMCPGateway(ctx, cfg.Seating.RemoteURL, cfg.Agent.ToolTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to seating service: %w", err)
		}
		a.onClose(func() { gw.Close() })
		return gw, nil, nil
	}

	gw, attacher, err := a.LocalSeating(ctx)
	if err != nil {
		return nil, nil, err
	}
	return gw, attacher, nil
}

// LocalSeating builds the database backed seating service
func (a *App) LocalSeating(ctx context.Context) (*seating.Service, service.SeatAttacher, error) {
	cfg := a.Config
	mode := seating.ClaimMode(cfg.Seating.ClaimMode)

	switch cfg.Seating.Backend {
	case "postgres":
		if a.DB == nil {
			db, err := postgres.NewDB(ctx, cfg.Database)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
			}
			a.DB = db
			a.onClose(db.Close)
		}
		repo := postgres.NewSeatRepository(a.DB.Pool)
		return seating.NewService(repo, mode, cfg.Agent.ToolTimeout), repo, nil
	case "mysql":
		repo, err := mysql.Open(ctx, cfg.Seating.MySQL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MySQL: %w", err)
		}
		a.onClose(func() { repo.Close() })
		return seating.NewService(repo, mode, cfg.Agent.ToolTimeout), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported seating backend: %s", cfg.Seating.Backend)
	}
}

// HTTPDependencies exposes the services to the HTTP API
func (a *App) HTTPDependencies() api.Dependencies {
	deps := api.Dependencies{
		Chat:  a.Chat,
		LLM:   a.LLM,
		Ready: map[string]handler.Pinger{},
	}
	if a.Employees != nil {
		deps.Employees = a.Employees
	}
	if a.DB != nil {
		deps.Ready["database"] = a.DB
	}
	if a.Redis != nil {
		deps.Ready["redis"] = a.Redis
		deps.Limiter = redis.NewTurnLimiter(a.Redis, a.Config.RateLimit.RequestsPerMinute, a.Config.RateLimit.Burst)
	}
	return deps
}

func (a *App) onClose(fn func()) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
