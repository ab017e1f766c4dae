package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/timeless-backend/internal/clients/codegen"
	"github.com/yungbote/timeless-backend/internal/clients/requirements"
	"github.com/yungbote/timeless-backend/internal/handlers"
	"github.com/yungbote/timeless-backend/internal/llm"
	"github.com/yungbote/timeless-backend/internal/pkg/logger"
	"github.com/yungbote/timeless-backend/internal/platform/envutil"
	"github.com/yungbote/timeless-backend/internal/realtime"
	"github.com/yungbote/timeless-backend/internal/realtime/bus"
	"github.com/yungbote/timeless-backend/internal/server"
	"github.com/yungbote/timeless-backend/internal/services"
	"github.com/yungbote/timeless-backend/internal/store"
)

func main() {
	// Logger
	logMode := envutil.Str("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	port := envutil.Str("PORT", "8080")
	summaryInterval := envutil.Int("SUMMARY_INTERVAL", 5)
	broadcastInterval := envutil.Duration("BROADCAST_INTERVAL", time.Second)
	regRetryInterval := envutil.Duration("REGISTRATION_RETRY_INTERVAL", 5*time.Second)
	collaboratorTimeout := time.Duration(envutil.Int("COLLABORATOR_TIMEOUT_SECONDS", 5)) * time.Second
	codegenTimeout := time.Duration(envutil.Int("CODEGEN_TIMEOUT_SECONDS", 300)) * time.Second
	requirementsURL := envutil.Str("REQUIREMENTS_SERVICE_URL", "http://localhost:8001")
	codegenURL := envutil.Str("CODEGEN_SERVICE_URL", "http://localhost:8002")

	// Store
	meetingStore := store.NewMeetingStore(log)

	// SSE
	log.Info("Setting up SSE hub now...")
	sseHub := realtime.NewSSEHub(log)

	var emitter services.SSEEmitter = &services.HubEmitter{Hub: sseHub}
	if os.Getenv("REDIS_ADDR") != "" {
		sseBus, busErr := bus.NewRedisBus(log)
		if busErr != nil {
			log.Warn("Redis SSE bus init failed; falling back to in-process hub", "error", busErr)
		} else {
			if fwdErr := sseBus.StartForwarder(context.Background(), sseHub.Broadcast); fwdErr != nil {
				log.Warn("Redis SSE forwarder failed; falling back to in-process hub", "error", fwdErr)
			} else {
				emitter = &services.RedisEmitter{Bus: sseBus}
				defer sseBus.Close()
			}
		}
	}

	// Clients
	log.Info("Setting up collaborator clients from main...")
	llmClient, err := llm.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init LLM client", "error", err)
		os.Exit(1)
	}
	reqClient, err := requirements.NewClient(log, requirementsURL, collaboratorTimeout)
	if err != nil {
		log.Error("Could not init requirements client", "error", err)
		os.Exit(1)
	}
	cgClient, err := codegen.NewClient(log, codegenURL, codegenTimeout)
	if err != nil {
		log.Error("Could not init codegen client", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up services from main...")
	notifier := services.NewMeetingNotifier(emitter)
	summarizer := services.NewNotebookSummarizer(log, meetingStore, llmClient, summaryInterval)
	classifier := services.NewPhaseClassifier(log, meetingStore, llmClient)
	meetingService := services.NewMeetingService(log, meetingStore, summarizer, classifier, reqClient, cgClient, notifier, services.MeetingServiceConfig{
		RegistrationRetryInterval: regRetryInterval,
		CodegenTimeout:            codegenTimeout,
	})
	broadcaster := services.NewStateBroadcaster(log, meetingStore, sseHub, broadcastInterval)

	// Handlers
	log.Info("Setting up handlers from main...")
	meetingHandler := handlers.NewMeetingHandler(log, meetingService)
	sseHandler := handlers.NewSSEHandler(log, sseHub, meetingService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		MeetingHandler: meetingHandler,
		SSEHandler:     sseHandler,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: ":" + port, Handler: router}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return broadcaster.Run(gctx)
	})
	g.Go(func() error {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Warn("Server stopped", "error", err)
	}
}
