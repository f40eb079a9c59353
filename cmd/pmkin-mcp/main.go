// Package main is the entry point for the pmkin-mcp server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jamesprial/pmkin-mcp/internal/auth"
	"github.com/jamesprial/pmkin-mcp/internal/config"
	"github.com/jamesprial/pmkin-mcp/internal/graphql"
	"github.com/jamesprial/pmkin-mcp/internal/pmkin"
	"github.com/jamesprial/pmkin-mcp/internal/safety"
	"github.com/jamesprial/pmkin-mcp/internal/telemetry"
	"github.com/jamesprial/pmkin-mcp/internal/tools"
	"github.com/mark3labs/mcp-go/server"
)

const defaultConfigPath = "config.yaml"

func main() {
	loaded, err := config.LoadDotEnv()
	if err != nil {
		log.Printf("warning: %v", err)
	}
	for _, p := range loaded {
		log.Printf("loaded environment from %q", p)
	}

	cfg := loadConfig()
	config.ApplyEnvOverrides(cfg)

	tokenBefore := cfg.Server.AuthToken
	token, err := config.EnsureAuthToken(cfg)
	if err != nil {
		log.Printf("warning: could not generate auth token: %v; running without authentication", err)
	} else if tokenBefore == "" {
		log.Printf("generated auth token (set PMKIN_MCP_AUTH_TOKEN to persist): %s", token)
	}

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Printf("warning: tracing disabled: %v", err)
		shutdownTracing = func(context.Context) error { return nil }
	} else if cfg.Telemetry.Endpoint != "" {
		log.Printf("exporting traces to %s", cfg.Telemetry.Endpoint)
	}

	// Open audit log writer if enabled.
	var auditLogger *safety.AuditLogger
	if cfg.Audit.Enabled {
		f, err := os.OpenFile(cfg.Audit.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			log.Printf("warning: could not open audit log %q: %v; audit logging disabled", cfg.Audit.LogPath, err)
		} else {
			auditLogger = safety.NewAuditLogger(f)
			defer f.Close()
		}
	}

	categoryFilter := safety.NewFilter(
		cfg.Safety.Categories.Allowlist,
		cfg.Safety.Categories.Denylist,
	)

	if cfg.GraphQL.URL == "" {
		cfg.GraphQL.URL = config.DefaultGraphQLURL
	}
	gqlClient, err := graphql.NewHTTPClient(cfg.GraphQL)
	if err != nil {
		log.Fatalf("failed to create GraphQL client (set PMKIN_TOKEN): %v", err)
	}
	content := pmkin.New(gqlClient)

	mcpServer := server.NewMCPServer(
		"pmkin-mcp",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	var registrations []tools.Registration
	registrations = append(registrations, pmkin.ContentTools(content, categoryFilter, auditLogger)...)
	registrations = append(registrations, graphql.GraphQLTools(gqlClient, auditLogger)...)
	tools.RegisterAll(mcpServer, registrations)

	// Build Streamable HTTP server and wrap with auth middleware.
	httpHandler := server.NewStreamableHTTPServer(mcpServer)
	authMiddleware := auth.NewAuthMiddleware(cfg.Server.AuthToken)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           authMiddleware(httpHandler),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("pmkin-mcp listening on %s (content API %s)", addr, cfg.GraphQL.URL)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-stop
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("tracing shutdown error: %v", err)
	}
	log.Println("server stopped")
}

// loadConfig reads the config file named by PMKIN_MCP_CONFIG_PATH, or
// config.yaml. If the file cannot be read, DefaultConfig is returned.
func loadConfig() *config.Config {
	path := os.Getenv("PMKIN_MCP_CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("could not load config from %q (%v), using defaults", path, err)
		return config.DefaultConfig()
	}

	log.Printf("loaded config from %q", path)
	return cfg
}
