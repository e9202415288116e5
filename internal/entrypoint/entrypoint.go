package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/auth"
	"github.com/mrlokans/secrets/internal/config"
	"github.com/mrlokans/secrets/internal/database"
	"github.com/mrlokans/secrets/internal/database/users"
	http_controllers "github.com/mrlokans/secrets/internal/http"
	"github.com/mrlokans/secrets/internal/oauth2"
	"github.com/mrlokans/secrets/internal/oauth2/providers"
	"github.com/mrlokans/secrets/internal/scheduler"
	"github.com/mrlokans/secrets/internal/secrets"
	"github.com/mrlokans/secrets/internal/tasks"
	"github.com/mrlokans/secrets/internal/tokenstore"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT; SIGKILL can't be caught
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests first so no new revocations are enqueued
	// while the task queue drains.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting secrets v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	store := users.NewRepository(db.DB)
	if count, err := store.Count(context.Background()); err == nil && count == 0 {
		log.Printf("No users found. Visit /register or run 'create-user' to create one.")
	}

	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for sessions: %v", err)
	}

	serializer := auth.NewSerializer(store)
	sessions, err := auth.NewSessionManager(sqlDB, serializer, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize session manager: %v", err)
	}
	gate := auth.NewGate(sessions)
	strategies := auth.Strategies{
		Local:     auth.NewLocalVerifier(store, cfg.Auth),
		Federated: auth.NewFederatedReconciler(store),
	}

	var tokens *tokenstore.TokenStore
	if cfg.TokenStore.EncryptionKey != "" {
		tokens, err = tokenstore.NewFromKey(db.DB, cfg.TokenStore.EncryptionKey)
		if err != nil {
			log.Fatalf("Failed to initialize token store: %v", err)
		}
	} else {
		log.Printf("TOKEN_ENCRYPTION_KEY is not set. Provider tokens will not be stored or revoked on logout.")
	}

	var google *providers.GoogleProvider
	var googleFlow *oauth2.FlowHandler
	if cfg.GoogleEnabled() {
		google = providers.NewGoogleProvider(
			cfg.Google.ClientID,
			cfg.Google.ClientSecret,
			cfg.Google.CallbackURL,
			providers.WithUserInfoURL(cfg.Google.UserInfoURL),
		)
		var saver oauth2.TokenSaver
		if tokens != nil {
			saver = tokens
		}
		googleFlow = oauth2.NewFlowHandler(google, saver)
		log.Printf("Google sign-in enabled, callback %s", cfg.Google.CallbackURL)
	} else {
		log.Printf("Google sign-in disabled. Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET to enable.")
	}

	// Revocation needs both a stored token and a provider to send it to.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var revoker auth.TokenRevoker
	if cfg.Tasks.Enabled && tokens != nil && google != nil {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewRevokeProviderTokenQueue(tokens, google))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
		revoker = taskClient
	}

	var sweeper *scheduler.SessionSweepScheduler
	if cfg.SessionSweep.Enabled {
		targets := []scheduler.Target{{Name: "sessions", Sweep: sessions.SweepExpired}}
		if tokens != nil {
			targets = append(targets, scheduler.Target{Name: "provider tokens", Sweep: tokens.DeleteExpired})
		}
		sweeper = scheduler.NewSessionSweepScheduler(cfg.SessionSweep.Schedule, targets...)
		if err := sweeper.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start session sweeper: %v", err)
		}
	}

	csrfSecret, generated, err := resolveCSRFSecret(cfg.Auth.SessionSecret)
	if err != nil {
		log.Fatalf("Failed to generate CSRF secret: %v", err)
	}
	if generated {
		log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:      db,
		Secrets:       secrets.NewService(store),
		Strategies:    strategies,
		Gate:          gate,
		Sessions:      sessions,
		GoogleFlow:    googleFlow,
		TokenRevoker:  revoker,
		CSRFSecret:    csrfSecret,
		SecureCookies: cfg.Auth.SecureCookies,
		TemplatesPath: cfg.UI.TemplatesPath,
		StaticPath:    cfg.UI.StaticPath,
		Version:       version,
	})

	onShutdown := func(ctx context.Context) {
		if sweeper != nil {
			sweeper.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// resolveCSRFSecret decodes a hex secret, falls back to the raw bytes for
// non-hex values and generates a random one when none is configured.
func resolveCSRFSecret(configured string) (secret []byte, generated bool, err error) {
	if configured != "" {
		if decoded, err := hex.DecodeString(configured); err == nil {
			return decoded, false, nil
		}
		return []byte(configured), false, nil
	}

	encoded, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, false, err
	}
	decoded, err := hex.DecodeString(encoded)
	if err != nil {
		return nil, false, err
	}
	return decoded, true, nil
}
