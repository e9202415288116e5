package http

import (
	"html/template"
	"log"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/secrets/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	router.Use(cfg.Sessions.SessionLoadSave())
	authMiddleware := auth.NewMiddleware(cfg.Gate)
	router.Use(authMiddleware.Handler())

	html := false
	if cfg.TemplatesPath != "" {
		tmpl, err := template.ParseGlob(filepath.Join(cfg.TemplatesPath, "*.html"))
		if err != nil {
			log.Printf("Templates not loaded from %s, pages answer with JSON: %v", cfg.TemplatesPath, err)
		} else {
			router.SetHTMLTemplate(tmpl)
			html = true
		}
	}

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	authController := auth.NewAuthController(auth.ControllerOptions{
		Strategies:    cfg.Strategies,
		Gate:          cfg.Gate,
		Sessions:      cfg.Sessions,
		Google:        cfg.GoogleFlow,
		Revoker:       cfg.TokenRevoker,
		TemplatesPath: cfg.TemplatesPath,
	})
	authController.RegisterRoutes(router)

	health := NewHealthController(cfg.Version, healthChecks(cfg)...)
	router.GET("/health", health.Status)

	secretsController := NewSecretsController(cfg.Secrets, html)
	router.GET("/", secretsController.Home)

	protected := router.Group("/", authMiddleware.RequireAuth())
	protected.GET("/secrets", secretsController.SecretsPage)
	protected.GET("/submit", secretsController.SubmitPage)
	protected.POST("/submit", secretsController.Submit)

	return router
}

func healthChecks(cfg RouterConfig) []HealthCheck {
	checks := []HealthCheck{{Name: "database"}, {Name: "sessions"}}
	if cfg.Database != nil {
		checks[0].Check = cfg.Database.Ping
	}
	if cfg.Sessions != nil {
		checks[1].Check = cfg.Sessions.Ping
	}
	return checks
}
