package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"squad-service/internal/config"
	"squad-service/internal/db"
	"squad-service/internal/feed"
	grpcsvc "squad-service/internal/grpc"
	"squad-service/internal/handlers"
	"squad-service/internal/metrics"
	"squad-service/internal/middleware"
	"squad-service/internal/notify"
	"squad-service/internal/observability"
	"squad-service/internal/rabbitmq"
	"squad-service/internal/repositories"
	"squad-service/internal/services"
	"squad-service/internal/telemetry"
)

var (
	_ services.FriendNotifier = (*notify.Targeter)(nil)
	_ services.EventNotifier  = (*notify.Targeter)(nil)
	_ feed.EventWatcher       = (*notify.Targeter)(nil)
	_ feed.InviteMaterializer = (*services.FriendService)(nil)
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(cfg.DSN)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	publisher := newPublisher(cfg.AMQPURL, cfg.EventsExchange, "event")
	defer publisher.Close()
	auditPublisher := newPublisher(cfg.AMQPURL, cfg.LogsExchange, "audit")
	defer auditPublisher.Close()

	observability.InitMetrics(prometheus.DefaultRegisterer)
	metrics.RegisterDomainMetrics()

	profileRepo := repositories.NewProfileRepository(database)
	friendRepo := repositories.NewFriendRepository(database, publisher)
	inviteRepo := repositories.NewInviteRepository(database)
	eventRepo := repositories.NewEventRepository(database)
	topicRepo := repositories.NewTopicRepository(database)
	memberRepo := repositories.NewMembershipRepository(database, publisher)

	dispatcher := notify.NewDispatcher(newPushGateway(ctx, cfg.FCMCredentialsFile), newSMSGateway(cfg), cfg.NotifyConcurrency, logger)
	targeter := notify.NewTargeter(profileRepo, friendRepo, eventRepo, memberRepo, topicRepo, dispatcher, cfg.AppURL, logger)

	friendService := services.NewFriendService(profileRepo, friendRepo, inviteRepo, targeter)
	rsvpService := services.NewRSVPService(eventRepo, memberRepo, friendRepo, targeter)
	graphService := services.NewGraphService(profileRepo, friendRepo)
	profileService := services.NewProfileService(profileRepo, friendRepo, inviteRepo)

	changes := feed.NewRouter(friendService, targeter, logger)
	startChangeConsumer(ctx, cfg, changes)

	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, cfg.ServiceName, cfg.Environment)
	friendHandler := handlers.NewFriendHandler(friendService, graphService, auditEmitter)
	profileHandler := handlers.NewProfileHandler(profileService)
	eventHandler := handlers.NewEventHandler(rsvpService, auditEmitter)
	hookHandler := handlers.NewHookHandler(changes, cfg.HookSecret)

	if _, err := grpcsvc.StartGRPCServer(ctx, cfg.GRPCAddr, database); err != nil {
		slog.Error("failed to start gRPC server", "error", err)
		os.Exit(1)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), middleware.RequestID(), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/hooks/changes", hookHandler.Changes)

	auth := r.Group("", middleware.JWTAuth(cfg.JWTSecret))
	auth.POST("/friends/request", friendHandler.SendRequest)
	auth.POST("/friends/:id/action", friendHandler.Action)
	auth.GET("/friends/network", friendHandler.Network)
	auth.GET("/profiles/lookup", profileHandler.Lookup)
	auth.GET("/profiles/:id", profileHandler.Get)
	auth.POST("/events/:id/rsvp", eventHandler.RSVP)
	auth.POST("/events/:id/invite", eventHandler.Invite)
	auth.POST("/events/:id/chat-seen", eventHandler.ChatSeen)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
}

func newPublisher(amqpURL, exchange, purpose string) rabbitmq.Publisher {
	if amqpURL == "" {
		slog.Warn("warning: AMQP_URL not set; publishing disabled", "purpose", purpose)
		return rabbitmq.NewNoopPublisher()
	}
	pub, err := rabbitmq.NewPublisher(amqpURL, exchange)
	if err != nil {
		slog.Warn("warning: failed to initialize RabbitMQ publisher", "purpose", purpose, "error", err)
		return rabbitmq.NewNoopPublisher()
	}
	return pub
}

func newPushGateway(ctx context.Context, credentialsFile string) notify.PushGateway {
	if credentialsFile == "" {
		slog.Warn("warning: FCM_CREDENTIALS_FILE not set; push notifications disabled")
		return notify.NewNoopPush()
	}
	raw, err := os.ReadFile(credentialsFile)
	if err != nil {
		slog.Warn("warning: failed to read FCM credentials; push notifications disabled", "error", err)
		return notify.NewNoopPush()
	}
	client, err := notify.NewFCMClient(ctx, raw)
	if err != nil {
		slog.Warn("warning: failed to initialize FCM; push notifications disabled", "error", err)
		return notify.NewNoopPush()
	}
	return client
}

func newSMSGateway(cfg *config.Config) notify.SMSGateway {
	if !cfg.TwilioEnabled() {
		slog.Warn("warning: Twilio not configured; SMS invites disabled")
		return notify.NewNoopSMS()
	}
	return notify.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFrom)
}

func startChangeConsumer(ctx context.Context, cfg *config.Config, router *feed.Router) {
	if cfg.AMQPURL == "" {
		slog.Warn("warning: AMQP_URL not set; change feed consumer disabled")
		return
	}
	consumer, err := rabbitmq.NewConsumer(cfg.AMQPURL, cfg.ChangesExchange, cfg.ChangesQueue, "#")
	if err != nil {
		slog.Warn("warning: failed to initialize change feed consumer", "error", err)
		return
	}
	go func() {
		defer consumer.Close()
		if err := consumer.Run(ctx, router.HandleDelivery); err != nil {
			slog.Error("change feed consumer stopped", "error", err)
		}
	}()
}
