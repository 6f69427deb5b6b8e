package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/maheswari8074/3d-transformations/internal/auth"
	"github.com/maheswari8074/3d-transformations/internal/collab"
	"github.com/maheswari8074/3d-transformations/internal/config"
	"github.com/maheswari8074/3d-transformations/internal/db"
	"github.com/maheswari8074/3d-transformations/internal/document"
	"github.com/maheswari8074/3d-transformations/internal/engine"
	"github.com/maheswari8074/3d-transformations/internal/export"
	mw "github.com/maheswari8074/3d-transformations/internal/middleware"
	"github.com/maheswari8074/3d-transformations/internal/script"
	"github.com/maheswari8074/3d-transformations/internal/session"
	"github.com/maheswari8074/3d-transformations/internal/transform"
	"github.com/maheswari8074/3d-transformations/internal/typeid"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	store := db.NewStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	// Snapshot loader for the collaboration hub
	loader := func(sessionID string) (*document.Snapshot, error) {
		// Use a background context since this runs in the hub goroutine
		row, err := store.LatestSnapshot(context.Background(), sessionID)
		if err != nil {
			if db.IsNoRows(err) {
				return nil, collab.ErrNoSnapshot
			}
			return nil, err
		}
		return &document.Snapshot{
			SessionID: row.SessionID,
			Version:   int(row.Version),
			Model:     row.Model,
			Applied:   int(row.Applied),
			SavedAt:   row.CreatedAt.UTC().Format(time.RFC3339),
		}, nil
	}

	// Snapshot saver for the collaboration hub
	saver := func(sessionID string, snap *document.Snapshot) error {
		err := store.SaveSnapshot(context.Background(), db.SnapshotRow{
			ID:        typeid.NewSnapshotID(),
			SessionID: sessionID,
			Version:   int32(snap.Version),
			Model:     snap.Model,
			Applied:   int32(snap.Applied),
		})
		if err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		return nil
	}

	keys := engine.KeyMap{
		TranslateStep: cfg.TranslateStep,
		RotateStep:    cfg.RotateStep,
		ScaleUp:       cfg.ScaleUp,
		ScaleDown:     cfg.ScaleDown,
		ShearAmount:   cfg.ShearAmount,
	}
	hub := collab.NewHub(loader, saver, collab.HubOptions{
		Fixture:      transform.Cube(cfg.CubeHalfSize),
		Keys:         keys,
		SaveInterval: cfg.SaveInterval,
	})
	go hub.Run()

	authService := auth.NewService(cfg.JWTSecret)
	sessionService := session.NewService(store, hub, authService, script.NewLimitedRunner(cfg.ScriptTimeout, cfg.ScriptMaxConcurrent))
	sessionHandler := session.NewHandler(sessionService)
	authHandler := auth.NewHandler(authService, sessionService)
	exportHandler := export.NewHandler(sessionService.Points, cfg.ExportDir)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Public session routes
	r.HandleFunc("/api/sessions", sessionHandler.List).Methods("GET")
	r.HandleFunc("/api/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/sessions/{sessionId}", sessionHandler.Get).Methods("GET")
	r.HandleFunc("/api/sessions/{sessionId}/state", sessionHandler.State).Methods("GET")
	r.HandleFunc("/api/sessions/{sessionId}/join", authHandler.Join).Methods("POST", "OPTIONS")

	// Routes that need a token bound to the session
	api := r.PathPrefix("/api/sessions/{sessionId}").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("", sessionHandler.Delete).Methods("DELETE", "OPTIONS")
	api.HandleFunc("/transforms", sessionHandler.Transforms).Methods("POST", "OPTIONS")
	api.HandleFunc("/reset", sessionHandler.Reset).Methods("POST", "OPTIONS")
	api.HandleFunc("/script", sessionHandler.Script).Methods("POST", "OPTIONS")
	api.HandleFunc("/export.stl", exportHandler.ExportSTL).Methods("GET")

	// WebSocket endpoint
	r.HandleFunc("/ws/sessions/{sessionId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, cfg.OriginHosts())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to save all dirty sessions
		slog.Info("saving all sessions...")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, origins []string) {
	sessionID := mux.Vars(r)["sessionId"]

	// Browsers cannot set headers on websocket upgrades, so the token
	// travels as a query parameter.
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if claims.SessionID != sessionID {
		http.Error(w, "token is not valid for this session", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, claims.UserID(), claims.DisplayName, sessionID, clientID)

	if err := hub.Register(client); err != nil {
		slog.Error("register client", "error", err, "session", sessionID)
		conn.Close(websocket.StatusTryAgainLater, "session unavailable")
		return
	}

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
