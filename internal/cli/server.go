package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trivia-match-service/internal/app"
	"trivia-match-service/internal/config"
	"trivia-match-service/internal/domain"
	filesource "trivia-match-service/internal/infra/file"
	pgsource "trivia-match-service/internal/infra/postgres"
	redissource "trivia-match-service/internal/infra/redis"
	"trivia-match-service/internal/logger"
	httptransport "trivia-match-service/internal/transport/http"
	"trivia-match-service/internal/transport/tcp"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, tcpAddr, httpPort *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the trivia match server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *tcpAddr, *httpPort)
		},
	}
}

func runServer(ctx context.Context, configPath, tcpAddrFlag, httpPortFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if tcpAddrFlag != "" {
		cfg.Server.TCPAddr = tcpAddrFlag
	}
	if httpPortFlag != "" {
		cfg.Server.HTTPPort = httpPortFlag
	}
	if cfg.Server.HTTPPort == "" {
		cfg.Server.HTTPPort = "8080"
	}

	// The bank loads once at startup; failing to load it is fatal, the
	// server never serves without questions.
	bank, err := loadBank(ctx, cfg, log)
	if err != nil {
		return err
	}
	log.Info().Int("questions", bank.Size()).Msg("question bank loaded")

	matchmaker := app.NewMatchmaker(bank, matchmakerConfig(cfg), log)
	playerIDs := domain.NewIDAllocator()

	handshakeTimeout := config.Duration(cfg.Game.HandshakeTimeout, 10*time.Second)
	tcpServer := tcp.NewServer(tcp.Config{
		Addr:                 cfg.Server.TCPAddr,
		HandshakeTimeout:     handshakeTimeout,
		InboundQueueCapacity: cfg.Game.AnswerQueueCapacity,
	}, matchmaker, playerIDs, log)

	wsHandler := httptransport.NewWSHandler(httptransport.Config{
		HandshakeTimeout:     handshakeTimeout,
		InboundQueueCapacity: cfg.Game.AnswerQueueCapacity,
	}, matchmaker, playerIDs, log)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.HTTPPort,
		Handler: httptransport.NewRouter(wsHandler),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return matchmaker.Run(gctx)
	})
	g.Go(func() error {
		return tcpServer.Run(gctx)
	})
	g.Go(func() error {
		log.Info().Str("port", cfg.Server.HTTPPort).Msg("http dispatcher listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownTimeout, 5*time.Second))
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func matchmakerConfig(cfg config.Config) app.MatchmakerConfig {
	return app.MatchmakerConfig{
		GameSize:          cfg.Matchmaking.GameSize,
		QueueCapacity:     cfg.Matchmaking.QueueCapacity,
		QuestionsPerMatch: cfg.Game.QuestionsPerMatch,
		Match: app.MatchConfig{
			QuestionTime:        config.Duration(cfg.Game.QuestionTime, 30*time.Second),
			BetweenQuestions:    config.Duration(cfg.Game.BetweenQuestions, 3*time.Second),
			AnswerQueueCapacity: cfg.Game.AnswerQueueCapacity,
		},
	}
}

// loadBank builds the configured question source, loads the bank through it
// and releases the source's resources: nothing rereads questions after boot.
func loadBank(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app.QuestionBank, error) {
	ids := domain.NewIDAllocator()

	switch cfg.Questions.Source {
	case "", "file":
		path := cfg.Questions.Path
		if path == "" {
			path = "config/questions.json"
		}
		return app.LoadBank(ctx, filesource.NewQuestionLoader(path), ids)

	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, fmt.Errorf("questions source is postgres but no url configured")
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		return app.LoadBank(ctx, pgsource.NewQuestionLoader(pool), ids)

	case "redis":
		if cfg.Redis.Addr == "" {
			return nil, fmt.Errorf("questions source is redis but no addr configured")
		}
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		return app.LoadBank(ctx, redissource.NewQuestionLoader(client, cfg.Questions.Key), ids)

	default:
		return nil, fmt.Errorf("unknown questions source %q", cfg.Questions.Source)
	}
}
