package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ledenhub/ledenhub/internal/auth"
	"github.com/ledenhub/ledenhub/internal/client"
	"github.com/ledenhub/ledenhub/internal/gate"
	"github.com/ledenhub/ledenhub/internal/logger"
	"github.com/ledenhub/ledenhub/internal/server"
	"github.com/ledenhub/ledenhub/internal/store"
	memorystore "github.com/ledenhub/ledenhub/internal/store/memory"
	postgresstore "github.com/ledenhub/ledenhub/internal/store/postgres"
	"github.com/ledenhub/ledenhub/internal/telemetry"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"LEDENHUB_LISTEN"`
	Cert   string `help:"path to TLS cert file, serves plain HTTP when empty" default:"" env:"LEDENHUB_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"LEDENHUB_TLS_KEY"`

	ParentDomain string   `help:"registered domain tenant subdomains live under" default:"ledenhub.nl" env:"LEDENHUB_PARENT_DOMAIN"`
	CORSOrigins  []string `help:"allowed CORS origins, one wildcard each" default:"https://*.ledenhub.nl" env:"LEDENHUB_CORS_ORIGINS"`

	// Development and operational modes
	NoAuth      bool    `help:"disable authentication, every request is anonymous (development only)" default:"false" env:"LEDENHUB_NO_AUTH"`
	Tracing     bool    `help:"enable tracing and metrics export" default:"false" env:"LEDENHUB_TRACING"`
	SampleRatio float64 `help:"fraction of root traces sampled" default:"1" env:"LEDENHUB_TRACE_SAMPLE_RATIO"`
	Seed        string  `help:"YAML file of organisations and users to create on startup" type:"existingfile" env:"LEDENHUB_SEED"`

	// Store configuration
	StoreType      string             `help:"store type (memory or postgres)" default:"memory" env:"LEDENHUB_STORE_TYPE" enum:"memory,postgres"`
	TenantCacheTTL time.Duration      `help:"organisation cache lifetime, 0 disables" default:"5s" env:"LEDENHUB_TENANT_CACHE_TTL"`
	Postgres       PostgresStoreFlags `embed:"" prefix:"postgres-"`
	Auth           AuthFlags          `embed:"" prefix:"auth-"`
	Gate           GateFlags          `embed:"" prefix:"gate-"`
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	// Connection Pool Configuration
	MaxConns        int32         `help:"maximum number of connections in pool" default:"20"`
	MinConns        int32         `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime time.Duration `help:"maximum connection lifetime" default:"1h"`
	MaxConnIdleTime time.Duration `help:"maximum connection idle time" default:"30m"`
	StartupTimeout  time.Duration `help:"how long to wait for the database on startup" default:"30s"`

	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"LEDENHUB_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

func (s *PostgresStoreFlags) poolConfig() *postgresstore.PoolConfig {
	return &postgresstore.PoolConfig{
		ConnString:      s.ConnString,
		MaxConns:        s.MaxConns,
		MinConns:        s.MinConns,
		MaxConnLifetime: s.MaxConnLifetime,
		MaxConnIdleTime: s.MaxConnIdleTime,
		StartupTimeout:  s.StartupTimeout,
	}
}

// AuthFlags configures verification of identity provider tokens.
type AuthFlags struct {
	Issuer   string        `help:"expected token issuer" env:"LEDENHUB_AUTH_ISSUER"`
	JWKSURL  string        `help:"issuer JWKS URL, defaults to <issuer>/.well-known/jwks.json" name:"jwks-url" env:"LEDENHUB_AUTH_JWKS_URL"`
	Audience string        `help:"expected token audience" env:"LEDENHUB_AUTH_AUDIENCE"`
	Leeway   time.Duration `help:"clock skew allowance" default:"30s" env:"LEDENHUB_AUTH_LEEWAY"`
	KeyTTL   time.Duration `help:"how long fetched signing keys are trusted" default:"1h" env:"LEDENHUB_AUTH_KEY_TTL"`
	CacheDir string        `help:"directory for the JWKS HTTP cache, in memory when empty" env:"LEDENHUB_AUTH_CACHE_DIR"`
}

func (a *AuthFlags) validate() error {
	if a.Issuer == "" {
		return errors.New("token issuer is required (--auth-issuer or LEDENHUB_AUTH_ISSUER) unless --no-auth is set")
	}
	return nil
}

// GateFlags configures the billing gate.
type GateFlags struct {
	AllowList string `help:"YAML file with paths restricted tenants may still write to" type:"existingfile" env:"LEDENHUB_GATE_ALLOW_LIST"`
}

func (g *GateFlags) allowList() (gate.AllowList, error) {
	if g.AllowList == "" {
		return gate.DefaultAllowList(), nil
	}
	return gate.LoadAllowList(g.AllowList)
}

type stores struct {
	organisations store.OrganisationStore
	users         store.UserStore
	members       store.MemberStore
	close         func()
}

func (c *ServerCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	if c.Tracing {
		log.Info().Float64("sample_ratio", c.SampleRatio).Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "ledenhub-server",
			Version:     globals.Version,
			SampleRatio: c.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without it")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
	}

	st, err := c.openStores(ctx, log)
	if err != nil {
		return err
	}
	defer st.close()

	if c.Seed != "" {
		if err := seedFromFile(ctx, c.Seed, st); err != nil {
			return fmt.Errorf("failed to seed stores: %w", err)
		}
		log.Info().Str("file", c.Seed).Msg("Seed applied")
	}

	allow, err := c.Gate.allowList()
	if err != nil {
		return err
	}

	var verifier auth.TokenVerifier
	if c.NoAuth {
		log.Warn().Msg("Authentication is disabled (--no-auth). This should only be used in development!")
	} else {
		if err := c.Auth.validate(); err != nil {
			return err
		}
		httpClient := client.NewCachingHTTPClient(client.Config{
			Timeout:  10 * time.Second,
			CacheDir: c.Auth.CacheDir,
			Tracing:  c.Tracing,
		})
		verifier = auth.NewJWTVerifier(auth.VerifierConfig{
			Issuer:   c.Auth.Issuer,
			JWKSURL:  c.Auth.JWKSURL,
			Audience: c.Auth.Audience,
			Leeway:   c.Auth.Leeway,
		}, auth.NewJWKSCache(httpClient, c.Auth.KeyTTL))
	}

	handler, err := server.New(server.Config{
		Logger:        log,
		Organisations: store.NewOrganisationCache(st.organisations, c.TenantCacheTTL),
		Users:         st.users,
		ParentDomain:  c.ParentDomain,
		Verifier:      verifier,
		AllowList:     allow,
		CORSOrigins:   c.CORSOrigins,
		Tracing:       c.Tracing,
	})
	if err != nil {
		return err
	}

	if c.Cert != "" || c.Key != "" {
		if err := checkTLSFiles(c.Cert, c.Key); err != nil {
			return err
		}
	}

	log.Info().
		Str("addr", c.Listen).
		Str("parent_domain", c.ParentDomain).
		Str("store", c.StoreType).
		Bool("auth", !c.NoAuth).
		Bool("tls", c.Cert != "").
		Msg("Listening")

	return serve(ctx, log, configureHTTPServer(c.Listen, handler), c.Cert, c.Key)
}

func (c *ServerCmd) openStores(ctx context.Context, log zerolog.Logger) (*stores, error) {
	switch c.StoreType {
	case "postgres":
		pool, err := openPostgres(ctx, &c.Postgres)
		if err != nil {
			return nil, err
		}

		if c.Postgres.AutoMigrate {
			if err := postgresstore.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info().Msg("Database migrations completed")
		}

		log.Info().Msg("Using PostgreSQL stores with shared connection pool")
		return &stores{
			organisations: postgresstore.NewOrganisationStore(pool),
			users:         postgresstore.NewUserStore(pool),
			members:       postgresstore.NewMemberStore(pool),
			close:         pool.Close,
		}, nil

	default:
		users := memorystore.NewUserStore()
		log.Info().Msg("Using in-memory stores")
		return &stores{
			organisations: memorystore.NewOrganisationStore(),
			users:         users,
			members:       users.Members(),
			close:         func() {},
		}, nil
	}
}

func openPostgres(ctx context.Context, flags *PostgresStoreFlags) (*pgxpool.Pool, error) {
	if err := flags.validate(); err != nil {
		return nil, err
	}
	pool, err := postgresstore.NewPool(ctx, flags.poolConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

func checkTLSFiles(cert, key string) error {
	if cert == "" || key == "" {
		return errors.New("both TLS certificate and key are required (--cert and --key)")
	}
	if _, err := os.Stat(cert); err != nil {
		return fmt.Errorf("TLS certificate not found at %s: %w", cert, err)
	}
	if _, err := os.Stat(key); err != nil {
		return fmt.Errorf("TLS key not found at %s: %w", key, err)
	}
	return nil
}

// MigrateCmd applies the embedded migrations without starting the server.
type MigrateCmd struct {
	Postgres PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	pool, err := openPostgres(ctx, &c.Postgres)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := postgresstore.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info().Msg("Database migrations completed")
	return nil
}
