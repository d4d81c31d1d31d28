package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"

	"tush00nka/filestash/internal/handler"
	"tush00nka/filestash/internal/service"
	"tush00nka/filestash/internal/ws"
)

const shutdownTimeout = 30 * time.Second

type Server struct {
	router  *mux.Router
	hub     *ws.Hub
	origins []string
	logger  *slog.Logger
}

type Handlers struct {
	Users  *handler.UserHandler
	Files  *handler.FileHandler
	Search *handler.SearchHandler
}

func NewServer(users service.UserService, h Handlers, hub *ws.Hub, origins []string, logger *slog.Logger) *Server {
	router := mux.NewRouter()
	router.HandleFunc("/ping", handler.Ping).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	private := api.NewRoute().Subrouter()
	private.Use(handler.RequireUser(users))

	h.Users.RegisterRoutes(api, private)
	h.Files.RegisterRoutes(router, private)
	h.Search.RegisterRoutes(private)

	// swag serves the registered docs at /swagger/doc.json
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return &Server{router: router, hub: hub, origins: origins, logger: logger}
}

// Handler wraps the router with recovery, CORS and access logging.
func (s *Server) Handler() http.Handler {
	cors := handlers.CORS(
		handlers.AllowedOrigins(s.origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With"}),
		handlers.AllowCredentials(),
	)
	recovery := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))

	return RequestLog(s.logger)(recovery(cors(s.router)))
}

// Run serves on port until SIGINT or SIGTERM, then drains connections.
func (s *Server) Run(port string) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		Addr:              ":" + port,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		s.logger.Info("shutdown signal received, draining connections", "signal", sig.String())
	}

	s.hub.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	s.logger.Info("server stopped")
	return nil
}
