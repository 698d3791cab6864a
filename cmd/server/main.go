package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"campusvoice/internal/appeal"
	"campusvoice/internal/comment"
	"campusvoice/internal/identity"
	issuehandler "campusvoice/internal/issue/handler"
	issuemetrics "campusvoice/internal/issue/metrics"
	"campusvoice/internal/issue/moderation"
	issueservice "campusvoice/internal/issue/service"
	issuestore "campusvoice/internal/issue/store"
	"campusvoice/internal/media"
	"campusvoice/internal/notification"
	"campusvoice/internal/platform/config"
	"campusvoice/internal/platform/httpserver"
	"campusvoice/internal/platform/logger"
	"campusvoice/internal/platform/metrics"
	platformredis "campusvoice/internal/platform/redis"
	"campusvoice/internal/token"
	httptransport "campusvoice/internal/transport/http"
	id "campusvoice/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// issueStore is the full issue persistence surface main wires together; both
// the in-memory and postgres stores satisfy it.
type issueStore interface {
	issueservice.Store
	DeleteByAuthor(ctx context.Context, userID id.UserID) (int, error)
	RemoveVotesBy(ctx context.Context, userID id.UserID) (int, error)
	AdjustCommentCount(ctx context.Context, issueID id.IssueID, delta int) error
}

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		issues        issueStore
		comments      comment.Store
		notifications notification.Store
		appeals       appeal.Store
	)
	if cfg.PostgresURL != "" {
		db, err := sql.Open("pgx", cfg.PostgresURL)
		if err != nil {
			log.Error("failed to open postgres", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres unreachable", slog.String("error", err.Error()))
			os.Exit(1)
		}

		pgIssues := issuestore.NewPostgres(db)
		pgComments := comment.NewPostgresStore(db)
		pgNotifications := notification.NewPostgresStore(db)
		pgAppeals := appeal.NewPostgresStore(db)
		for _, migrate := range []func(context.Context) error{
			pgIssues.Migrate, pgComments.Migrate, pgNotifications.Migrate, pgAppeals.Migrate,
		} {
			if err := migrate(ctx); err != nil {
				log.Error("migration failed", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}
		issues, comments, notifications, appeals = pgIssues, pgComments, pgNotifications, pgAppeals
		log.Info("using postgres stores")
	} else {
		issues = issuestore.NewInMemory()
		comments = comment.NewInMemoryStore()
		notifications = notification.NewInMemoryStore()
		appeals = appeal.NewInMemoryStore()
		log.Warn("POSTGRES_URL not set, using in-memory stores")
	}

	var sessions identity.SessionStore
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = identity.NewRedisSessionStore(redisClient.Client)
		log.Info("using redis session store")
	} else {
		sessions = identity.NewInMemorySessionStore()
		log.Warn("REDIS_URL not set, sessions will not survive restarts")
	}

	publisherOpts := []notification.Option{notification.WithAsyncBuffer(256)}
	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := notification.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("failed to connect to kafka", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer sink.Close()
		publisherOpts = append(publisherOpts, notification.WithSink(sink))
		log.Info("mirroring notifications to kafka", slog.String("topic", cfg.Kafka.Topic))
	}
	notifier := notification.NewPublisher(notifications, log, publisherOpts...)
	defer notifier.Close()

	platformMetrics := metrics.New()
	tokens := token.NewService(cfg.JWTSigningKey, "campusvoice")
	engine := moderation.NewEngine(cfg.ReportedThreshold, cfg.DeleteThreshold)

	issueSvc := issueservice.New(issues, notifier, engine, issuemetrics.New(prometheus.DefaultRegisterer), log)
	commentSvc := comment.NewService(comments, issues, notifier, cfg.ReportedThreshold, log)
	identitySvc := identity.NewService(sessions, tokens, issues, comments, notifications, cfg, platformMetrics, log)
	appealSvc := appeal.NewService(appeals, identitySvc, notifier, log)

	issueHandler := issuehandler.New(issueSvc, log)
	commentHandler := comment.NewHandler(commentSvc, log)
	identityHandler := identity.NewHandler(identitySvc, log)
	appealHandler := appeal.NewHandler(appealSvc, log)
	notificationHandler := notification.NewHandler(notifications, log)

	authenticated := []httptransport.AuthenticatedRegistrar{
		identityHandler, issueHandler, commentHandler, notificationHandler,
	}
	if cfg.MediaUploadURL != "" {
		uploader := media.NewHTTPUploader(cfg.MediaUploadURL, cfg.MediaMaxBytes)
		authenticated = append(authenticated, media.NewHandler(uploader, cfg.MediaMaxBytes, log))
		log.Info("media uploads enabled", slog.String("endpoint", cfg.MediaUploadURL))
	} else {
		log.Warn("MEDIA_UPLOAD_URL not set, attachment uploads are disabled")
	}

	router := httptransport.New(httptransport.Handlers{
		Public: []httptransport.PublicRegistrar{
			identityHandler, issueHandler, commentHandler, appealHandler,
		},
		Authenticated: authenticated,
		Admin: []httptransport.AdminRegistrar{
			identityHandler, issueHandler, appealHandler,
		},
	}, tokens, identitySvc, platformMetrics, log, healthHandler(redisClient))

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("starting campusvoice", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

func healthHandler(redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			if err := redisClient.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
