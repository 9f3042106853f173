package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Varun5711/authlocal/internal/auth"
	"github.com/Varun5711/authlocal/internal/config"
	"github.com/Varun5711/authlocal/internal/database"
	"github.com/Varun5711/authlocal/internal/events"
	"github.com/Varun5711/authlocal/internal/handlers"
	"github.com/Varun5711/authlocal/internal/logger"
	"github.com/Varun5711/authlocal/internal/metrics"
	"github.com/Varun5711/authlocal/internal/middleware"
	usermodel "github.com/Varun5711/authlocal/internal/models/user"
	"github.com/Varun5711/authlocal/internal/redis"
	"github.com/Varun5711/authlocal/internal/server"
	"github.com/Varun5711/authlocal/internal/service"
	"github.com/Varun5711/authlocal/internal/storage"
)

type flagValues struct {
	appURL     string
	port       int
	secret     string
	tokenTTL   string
	bcryptCost int
}

// NewRootCmd creates the auth-local command.
func NewRootCmd() *cobra.Command {
	var flags flagValues

	cmd := &cobra.Command{
		Use:   "auth-local",
		Short: "Start a local auth unit that checks email and password against the user store.",
		Long: `Start a local auth unit. Users sign in with their email and password and are
redirected to the app unit with a signed JSON Web Token.

Each option can be overwritten with an environment variable by converting the
option to uppercase, replacing dashes with underscores and prefixing it with
STF_AUTH_LOCAL_ (e.g. STF_AUTH_LOCAL_SECRET). Legacy variables SECRET and PORT
are still accepted.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := applyFlags(cmd.Flags(), flags, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, logger.New("auth-local"))
		},
	}

	cmd.Flags().StringVarP(&flags.appURL, "app-url", "a", "", "URL to the app unit.")
	cmd.Flags().IntVarP(&flags.port, "port", "p", 7120, "The port to bind to.")
	cmd.Flags().StringVarP(&flags.secret, "secret", "s", "",
		"The secret to use for auth JSON Web Tokens. Anyone who knows this token can freely enter the system if they want, so keep it safe.")
	cmd.Flags().StringVar(&flags.tokenTTL, "token-ttl", "24h", "How long issued tokens stay valid.")
	cmd.Flags().IntVar(&flags.bcryptCost, "bcrypt-cost", auth.DefaultCost, "Work factor of password hashes.")

	cmd.AddCommand(NewHashPasswordCmd(), NewMigrateCmd())

	return cmd
}

// applyFlags overrides environment configuration with flags the user set.
func applyFlags(fs *pflag.FlagSet, flags flagValues, cfg *config.Config) error {
	if fs.Changed("app-url") {
		cfg.Auth.AppURL = flags.appURL
	}
	if fs.Changed("port") {
		cfg.Server.Port = flags.port
	}
	if fs.Changed("secret") {
		cfg.Auth.Secret = flags.secret
	}
	if fs.Changed("token-ttl") {
		ttl, err := time.ParseDuration(flags.tokenTTL)
		if err != nil {
			return fmt.Errorf("invalid --token-ttl: %w", err)
		}
		cfg.Auth.TokenTTL = ttl
	}
	if fs.Changed("bcrypt-cost") {
		cfg.Auth.BcryptCost = flags.bcryptCost
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	log.SetStdLog()

	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	tokens, err := auth.NewJWTManager(cfg.Auth.Secret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	appURL, err := url.Parse(cfg.Auth.AppURL)
	if err != nil {
		return fmt.Errorf("invalid app url: %w", err)
	}

	srv := server.New(":"+strconv.Itoa(cfg.Server.Port), nil, log, cfg.Server.ShutdownTimeout)
	defer srv.Release()

	users, groups, err := openStore(ctx, cfg, log, srv)
	if err != nil {
		return err
	}

	m := metrics.New()

	serviceOpts := []service.Option{service.WithLogger(log), service.WithMetrics(m)}

	var limiter *middleware.RateLimiter
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.NewRedisClient(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		srv.OnShutdown(func() {
			if err := redisClient.Close(); err != nil {
				log.Warn("Failed to close Redis: %v", err)
			}
		})

		limiter = middleware.NewRateLimiter(redisClient.GetClient(), cfg.RateLimit.Requests, cfg.RateLimit.Window)
		limiter.OnLimit(m.RecordRateLimited)
		limiter.TrustProxyHops(cfg.Server.TrustedProxyHops)
		log.Info("Rate limiting logins to %d per %s", cfg.RateLimit.Requests, cfg.RateLimit.Window)

		if cfg.Redis.AttemptStream != "" {
			producer := events.NewAttemptProducer(redisClient.GetClient(), cfg.Redis.AttemptStream, cfg.Redis.AttemptStreamMaxLen)
			serviceOpts = append(serviceOpts, service.WithAttemptPublisher(producer))
			log.Info("Publishing login attempts to stream %s", cfg.Redis.AttemptStream)
		}
	}

	authService := service.NewAuthService(users, hasher, tokens, serviceOpts...)

	srv.SetHandler(handlers.NewRouter(handlers.RouterConfig{
		Auth:        handlers.NewAuthHandler(authService, appURL, log),
		Contact:     handlers.NewContactHandler(groups, log),
		Log:         log,
		Metrics:     m.Handler(),
		RateLimiter: limiter,
		StaticDir:   cfg.Server.StaticDir,

		TrustedProxyHops: cfg.Server.TrustedProxyHops,
	}))

	log.Info("Issuing tokens valid for %s (bcrypt cost %d)", cfg.Auth.TokenTTL, hasher.Cost())

	if err := srv.Run(ctx); err != nil {
		return err
	}

	log.Info("Auth unit stopped")
	return nil
}

// openStore connects the configured credential store. Resources it opens are
// released by srv after shutdown.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger, srv *server.Server) (storage.UserStore, storage.GroupStore, error) {
	switch cfg.Store.Backend {
	case "memory":
		mem := storage.NewMemoryStorage()
		if cfg.Store.UsersFile != "" {
			f, err := os.Open(cfg.Store.UsersFile)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open users file: %w", err)
			}
			defer f.Close()

			n, err := mem.LoadUsers(f)
			if err != nil {
				return nil, nil, err
			}
			log.Info("Loaded %d users from %s", n, cfg.Store.UsersFile)
		}
		if cfg.Store.ContactEmail != "" {
			mem.SetRootGroup(usermodel.Group{
				ID:    "root",
				Name:  "Common",
				Owner: usermodel.Contact{Name: cfg.Store.ContactName, Email: cfg.Store.ContactEmail},
			})
		}
		log.Warn("Using in-memory user store")
		return mem, mem, nil

	default:
		db, err := database.NewDBManager(ctx, database.Config{
			PrimaryDSN:      cfg.Database.PrimaryDSN,
			ReplicaDSNs:     cfg.Database.ReplicaDSNs,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			ConnectRetries:  cfg.Database.ConnectRetries,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		srv.OnShutdown(func() {
			log.Info("Closing database connections %v", db.Stats())
			db.Close()
		})
		return storage.NewUserStorage(db), storage.NewGroupStorage(db), nil
	}
}
