package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	appControllers "github.com/shreyescodes/erp-portal/internal/app/controllers"
	appMigrations "github.com/shreyescodes/erp-portal/internal/app/migrations"
	appRepos "github.com/shreyescodes/erp-portal/internal/app/repositories"
	appRoutes "github.com/shreyescodes/erp-portal/internal/app/routes"
	appServices "github.com/shreyescodes/erp-portal/internal/app/services"
	"github.com/shreyescodes/erp-portal/internal/config"
	"github.com/shreyescodes/erp-portal/internal/db"
	appMiddleware "github.com/shreyescodes/erp-portal/internal/middleware"
	pkgAuth "github.com/shreyescodes/erp-portal/internal/pkg/auth"
	"github.com/shreyescodes/erp-portal/internal/pkg/email"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
	"github.com/shreyescodes/erp-portal/internal/pkg/helpers"
	"github.com/shreyescodes/erp-portal/internal/pkg/logger"
	"github.com/shreyescodes/erp-portal/internal/pkg/metrics"
	"github.com/shreyescodes/erp-portal/internal/pkg/ratelimit"
	"github.com/shreyescodes/erp-portal/internal/pkg/validation"
	"github.com/shreyescodes/erp-portal/internal/pkg/websocket"
	"github.com/shreyescodes/erp-portal/internal/seed"
)

// multipartOverhead leaves room for form fields and part headers next to a
// file of the maximum upload size.
const multipartOverhead = 1 << 20

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	MediaStore     filestorage.MediaStore
	Hub            *websocket.Hub
	Metrics        *metrics.Metrics
	Limiter        *ratelimit.RedisLimiter // nil when rate limiting is off
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	lgr := logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  strings.ToLower(cfg.Logging.Format) == "text",
		Service: "erp-portal",
	})

	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection, runs migrations and
// seeds the default admin.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool
	lgr.Info().Msg("Database connection successfully established.")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool, lgr)
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	admin := seed.Admin{
		Name:     cfg.Admin.Name,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
		Branch:   cfg.Admin.Branch,
		USN:      cfg.Admin.USN,
	}
	if err := seed.CreateDefaultAdmin(ctx, appRepos.NewUserRepository(dbPool), admin, logger.Component("seed")); err != nil {
		// A failed seed leaves the portal usable for existing accounts
		lgr.Error().Err(err).Msg("Failed to create default admin, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		validation.Register(v)
	}

	deps.Repos = appRepos.NewRepositories(dbPool)

	var err error
	deps.MediaStore, err = filestorage.New(filestorage.Config{
		Type:      cfg.Storage.Type,
		BasePath:  cfg.Storage.BasePath,
		BaseURL:   cfg.Storage.BaseURL,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		lgr.Error().Err(err).Str("type", cfg.Storage.Type).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 168*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	mailLogger := logger.Component("email")
	smtp := email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		BaseURL:   cfg.Server.BaseURL,
	}
	if !smtp.Configured() {
		lgr.Warn().Msg("SMTP not configured, notification emails will be skipped")
	}
	mailer := email.NewAsyncEmailService(email.NewEmailService(smtp, mailLogger), mailLogger)

	deps.Hub = websocket.NewHub(logger.Component("feed"))
	deps.Metrics = metrics.New(deps.Hub.ClientCount)

	deps.Services = appServices.NewServices(deps.Repos, appServices.Collaborators{
		JWTService:     deps.JWTService,
		MediaStore:     deps.MediaStore,
		Mailer:         mailer,
		Events:         websocket.MultiPublisher(deps.Hub, deps.Metrics),
		Logger:         lgr,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	})

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Repos.UserRepository, logger.Component("auth"))

	feed := websocket.NewHandler(deps.Hub, cfg.Server.AllowedOrigins, logger.Component("feed"))
	deps.Controllers = appRoutes.Controllers{
		Auth:        appControllers.NewAuthController(deps.Services.AuthService, lgr),
		User:        appControllers.NewUserController(deps.Services.UserService, lgr),
		Content:     appControllers.NewContentController(deps.Services.ContentService, lgr),
		Opportunity: appControllers.NewOpportunityController(deps.Services.OpportunityService, lgr),
		Complaint:   appControllers.NewComplaintController(deps.Services.ComplaintService, lgr),
		Search:      appControllers.NewSearchController(deps.Services.SearchService, lgr),
		Feed:        feed.HandleConnection,
	}

	if cfg.RateLimit.Enabled {
		deps.Limiter, err = ratelimit.NewRedisLimiter(ctx, ratelimit.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
			Limit:    cfg.RateLimit.MaxRequests,
			Window:   helpers.ParseDuration(cfg.RateLimit.Window, 15*time.Minute),
		})
		if err != nil {
			lgr.Error().Err(err).Str("addr", cfg.RateLimit.RedisAddr).Msg("Failed to connect to rate limit store")
			return nil, fmt.Errorf("failed to initialize rate limiter: %w", err)
		}
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.MaxMultipartMemory = cfg.MaxUploadBytes()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.CORS(cfg.Server.AllowedOrigins),
		appMiddleware.Metrics(deps.Metrics),
		appMiddleware.BodyLimit(cfg.MaxUploadBytes()+multipartOverhead),
	)
	if deps.Limiter != nil {
		router.Use(appMiddleware.RateLimit(deps.Limiter, deps.Metrics, logger.Component("ratelimit")))
	}

	appRoutes.SetupSwagger(router, strings.TrimPrefix(strings.TrimPrefix(cfg.Server.BaseURL, "https://"), "http://"))
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"clients":   deps.Hub.ClientCount(),
		})
	})
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))

	return router
}
