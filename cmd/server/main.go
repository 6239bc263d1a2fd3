package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/blogkit/session-server/identity"
	"github.com/blogkit/session-server/internal/config"
	"github.com/blogkit/session-server/internal/postgres"
	"github.com/blogkit/session-server/ledger"
	"github.com/blogkit/session-server/server"
	"github.com/blogkit/session-server/session"
	"github.com/blogkit/session-server/token"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(os.Stdout)

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.GetConfig()
	if err != nil {
		return errors.Wrap(err, "load config")
	}
	displayAppname("Session Server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := postgres.Migrate(ctx, cfg.Database.DSN); err != nil {
		return errors.Wrap(err, "migrate")
	}

	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return errors.Wrap(err, "connect postgres")
	}
	defer pool.Close()

	revoked, err := buildLedger(ctx, cfg, pool)
	if err != nil {
		return errors.Wrap(err, "build revocation ledger")
	}

	accessCodec := token.NewCodec(cfg.Tokens.AccessSecret, cfg.Tokens.AccessTTL.Std(), cfg.Tokens.Issuer)
	refreshCodec := token.NewCodec(cfg.Tokens.RefreshSecret, cfg.Tokens.RefreshTTL.Std(), cfg.Tokens.Issuer)

	sessions, err := session.NewService(session.Repos{
		Identities: identity.NewPostgresRepo(pool, cfg.Database.QueryTimeout.Std()),
		Revoked:    revoked,
	}, accessCodec, refreshCodec)
	if err != nil {
		return errors.Wrap(err, "build session service")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.New(cfg, sessions, pool),
		ReadTimeout:  cfg.Server.ReadTimeout.Std(),
		WriteTimeout: cfg.Server.WriteTimeout.Std(),
	}

	go listenAndServe(srv)
	waitForStopSignal()
	cancel() // stops the sweeper

	return shutdown(srv, cfg.Server.ShutdownTimeout.Std())
}

// buildLedger selects the revocation backend. The in-memory and Postgres
// backends need the background sweeper; Redis evicts through native TTLs.
func buildLedger(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (ledger.Ledger, error) {
	switch cfg.Ledger.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, cfg.Database.ConnectTimeout.Std())
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, errors.Wrap(err, "redis ping")
		}
		return ledger.NewRedis(client), nil
	case "memory":
		l := ledger.NewInMemory()
		go ledger.RunSweeper(ctx, l, cfg.Ledger.SweepInterval.Std())
		return l, nil
	case "postgres":
		l := ledger.NewPostgres(pool, cfg.Database.QueryTimeout.Std())
		go ledger.RunSweeper(ctx, l, cfg.Ledger.SweepInterval.Std())
		return l, nil
	default:
		return nil, errors.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}

func listenAndServe(srv *http.Server) {
	log.Info().Str("addr", srv.Addr).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("server.ListenAndServe")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
