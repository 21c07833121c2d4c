package studysync

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lborres/studysync/ai"
	"github.com/lborres/studysync/core"
	"github.com/lborres/studysync/pkg/cache"
	"github.com/lborres/studysync/pkg/crypto"
	"github.com/lborres/studysync/pkg/metrics"
	"github.com/lborres/studysync/services"
)

// interfaces
type (
	StorageAdapter = core.StorageAdapter
	ViewCache      = core.ViewCache
	TextGenerator  = core.TextGenerator

	PasswordHandler = crypto.PasswordHandler
)

// HTTPAdapter binds the StudySync actions to a web framework
type HTTPAdapter interface {
	RegisterRoutes(app *StudySync) error
}

// structs
type (
	SessionConfig = core.SessionConfig
	CacheConfig   = core.CacheConfig
	RouteTable    = core.RouteTable
)

type (
	User        = core.User
	Material    = core.Material
	Flashcard   = core.Flashcard
	SessionUser = core.SessionUser
	Form        = core.Form
)

const (
	defaultBasePath  = "/api"
	defaultSecretLen = 32
)

// Constructors & helpers (convenience re-exports)
var (
	NewInMemoryViewCache = cache.NewInMemoryViewCache
	NewArgon2            = crypto.NewArgon2
	DefaultSessionConfig = core.DefaultSessionConfig
	DefaultRouteTable    = core.DefaultRouteTable
)

var (
	ErrUserExists   = core.ErrUserExists
	ErrUserNotFound = core.ErrUserNotFound
	ErrNotFound     = core.ErrNotFound
)

var (
	ErrDBAdapterRequired   = core.ErrDBAdapterRequired
	ErrHTTPAdapterRequired = core.ErrHTTPAdapterRequired
	ErrAIProviderRequired  = core.ErrAIProviderRequired
	ErrSecretRequired      = core.ErrSecretRequired
	ErrSecretTooShort      = core.ErrSecretTooShort
)

type Config struct {
	// Secret signs session tokens; at least 32 bytes
	Secret string

	Database StorageAdapter
	HTTP     HTTPAdapter
	AI       TextGenerator

	// Views caches list views. Defaults to an in-memory cache unless
	// DisableViewCache is set.
	Views            ViewCache
	DisableViewCache bool
	CacheConfig      *CacheConfig

	SessionConfig  *SessionConfig
	PasswordHasher PasswordHandler
	Routes         *RouteTable
	BasePath       string

	Logger  *zap.Logger
	Metrics *metrics.Metrics

	// Clock replaces time.Now for token issue and expiry
	Clock func() time.Time
}

// StudySync holds the wired actions. Transports call into it.
type StudySync struct {
	Auth       *services.AuthService
	Materials  *services.MaterialService
	Flashcards *services.FlashcardService
	AI         *services.AIService
	Dashboard  *services.DashboardService

	Sessions  *services.SessionManager
	Endpoints *services.EndpointRegistry
	Routes    RouteTable
	BasePath  string

	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

func New(config Config) (*StudySync, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < defaultSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, defaultSecretLen)
	}
	if config.Database == nil {
		return nil, ErrDBAdapterRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}
	if config.AI == nil {
		return nil, ErrAIProviderRequired
	}

	// Set Defaults

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	views := config.Views
	if views == nil && !config.DisableViewCache {
		cacheConfig := CacheConfig{TTL: 5 * time.Minute, MaxSize: 500}
		if config.CacheConfig != nil {
			cacheConfig = *config.CacheConfig
		}
		views = NewInMemoryViewCache(cacheConfig)
	}

	sessionConfig := DefaultSessionConfig()
	if config.SessionConfig != nil {
		sessionConfig = *config.SessionConfig
	}

	passwordHasher := config.PasswordHasher
	if passwordHasher == nil {
		passwordHasher = NewArgon2()
	}

	routes := DefaultRouteTable()
	if config.Routes != nil {
		routes = *config.Routes
	}

	basePath := config.BasePath
	if basePath == "" {
		basePath = defaultBasePath
	}

	var signerOpts []crypto.SignerOption
	if config.Clock != nil {
		signerOpts = append(signerOpts, crypto.WithClock(config.Clock))
	}
	signer, err := crypto.NewTokenSigner(config.Secret, signerOpts...)
	if err != nil {
		return nil, err
	}

	sessions := services.NewSessionManager(sessionConfig, signer)
	auth := services.NewAuthService(config.Database, passwordHasher, sessions, logger.Named("auth"), config.Metrics)
	bridge := ai.NewBridge(config.AI)

	app := &StudySync{
		Auth:       auth,
		Materials:  services.NewMaterialService(config.Database, auth, views, logger.Named("materials"), config.Metrics),
		Flashcards: services.NewFlashcardService(config.Database, auth, views, logger.Named("flashcards"), config.Metrics),
		AI:         services.NewAIService(config.Database, config.Database, bridge, auth, views, logger.Named("ai"), config.Metrics),
		Dashboard:  services.NewDashboardService(config.Database, config.Database, auth, views, logger.Named("dashboard"), config.Metrics),
		Sessions:   sessions,
		Endpoints:  services.NewEndpointRegistry(),
		Routes:     routes,
		BasePath:   basePath,
		Logger:     logger,
		Metrics:    config.Metrics,
	}

	if err := config.HTTP.RegisterRoutes(app); err != nil {
		return nil, err
	}

	return app, nil
}
