package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"servicemarket/internal/adapter/api"
	"servicemarket/internal/adapter/api/handler"
	apimiddleware "servicemarket/internal/adapter/api/middleware"
	"servicemarket/internal/adapter/api/router"
	"servicemarket/internal/adapter/repository"
	"servicemarket/internal/domain/service"
	"servicemarket/internal/infrastructure/firebase"
	"servicemarket/internal/infrastructure/ratelimit"
	"servicemarket/internal/infrastructure/storage"
	"servicemarket/internal/infrastructure/websocket"
	"servicemarket/internal/jobs"
	"servicemarket/internal/usecase"
	"servicemarket/pkg/config"
	"servicemarket/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opt := credentials(cfg)

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Messaging: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	origins := splitOrigins(cfg.AllowedOrigins)

	fileStorage, err := newFileStorage(ctx, cfg, origins, opt)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}
	defer fileStorage.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	listingRepo := repository.NewFirestoreListingRepository(firestoreClient)
	followRepo := repository.NewFirestoreFollowRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)

	firebaseAuthClient := firebase.NewAuthClient(authClient, cfg.FirebaseAPIKey)

	limiter := ratelimit.NewRateLimiter()
	limiter.SetLimit(ratelimit.ActionSendMessage, ratelimit.PerMinute(int(cfg.SendRatePerMinute)))
	limiter.StartCleanupRoutine(10*time.Minute, ctx.Done())

	pushNotifier := firebase.NewPushNotifier(messagingClient, userRepo)
	wsManager := websocket.NewManager(chatRepo, pushNotifier, limiter)
	wsManager.StartCleanupRoutine(10*time.Minute, time.Hour, ctx.Done())

	authUseCase := usecase.NewAuthUseCase(userRepo, firebaseAuthClient)
	userUseCase := usecase.NewUserUseCase(userRepo, firebaseAuthClient, fileStorage)
	listingUseCase := usecase.NewListingUseCase(listingRepo, userRepo, fileStorage)
	followUseCase := usecase.NewFollowUseCase(followRepo, userRepo)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, listingRepo, limiter)

	maxUpload := cfg.MaxUploadMB << 20

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: origins}))
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMB*(usecase.MaxListingImages+1))))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)

	router.Setup(e, router.Handlers{
		Auth:      handler.NewAuthHandler(authUseCase),
		User:      handler.NewUserHandler(userUseCase, maxUpload),
		Listing:   handler.NewListingHandler(listingUseCase, maxUpload),
		Follow:    handler.NewFollowHandler(followUseCase),
		Chat:      handler.NewChatHandler(chatUseCase),
		WebSocket: handler.NewWebSocketHandler(wsManager, origins),
		Health:    handler.NewHealthHandler(firebaseAuthClient),
	}, authMiddleware, limiter)

	scheduler := cron.New()
	repairJob := jobs.NewSummaryRepairJob(chatRepo)
	if _, err := repairJob.Schedule(scheduler, cfg.RepairCron); err != nil {
		log.Fatalf("Failed to schedule summary repair: %v", err)
	}
	scheduler.Start()

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	<-scheduler.Stop().Done()
	wsManager.Shutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

// credentials prefers inline service account JSON over a key file.
func credentials(cfg *config.Config) option.ClientOption {
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	}

	if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
		log.Fatalf("Service account file does not exist: %s", cfg.ServiceAccountPath)
	}
	logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
	return option.WithCredentialsFile(cfg.ServiceAccountPath)
}

func newFileStorage(ctx context.Context, cfg *config.Config, origins []string, opt option.ClientOption) (service.FileStorage, error) {
	switch cfg.StorageProvider {
	case "cloudinary":
		return storage.NewCloudinaryClient(cfg.CloudinaryURL)
	case "gcs", "":
		return storage.NewCloudStorageClient(ctx, cfg.StorageBucket, origins, opt)
	default:
		return nil, errors.New("unknown storage provider " + cfg.StorageProvider)
	}
}

func splitOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
