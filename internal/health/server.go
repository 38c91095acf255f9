package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/speedwagon-io/weatherflux/internal/inventory"
	"github.com/speedwagon-io/weatherflux/internal/lib/logger/sl"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

type ComponentHealth struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status     Status            `json:"status"`
	Components []ComponentHealth `json:"components"`
	Timestamp  time.Time         `json:"timestamp"`
}

type HealthChecker interface {
	Name() string
	Check(ctx context.Context) (Status, string)
}

// DeviceLister is the part of the inventory the /devices endpoint reads.
type DeviceLister interface {
	List(ctx context.Context) ([]inventory.Device, error)
}

// Endpoints feeds the informational routes. Nil members are served as 404.
type Endpoints struct {
	Stats     func() any
	SeenIDs   func() []string
	Inventory DeviceLister
	Metrics   http.Handler
}

type DevicesResponse struct {
	Seen      []string           `json:"seen"`
	Inventory []inventory.Device `json:"inventory,omitempty"`
}

type Server struct {
	log       *slog.Logger
	address   string
	endpoints Endpoints
	server    *http.Server
	checkers  []HealthChecker
	mu        sync.RWMutex
}

func NewServer(log *slog.Logger, address string, endpoints Endpoints) *Server {
	return &Server{
		log:       log,
		address:   address,
		endpoints: endpoints,
		checkers:  make([]HealthChecker, 0),
	}
}

func (s *Server) AddChecker(checker HealthChecker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers = append(s.checkers, checker)
}

// Handler returns the router serving every endpoint.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Get("/live", s.handleLive)

	if s.endpoints.Stats != nil {
		r.Get("/stats", s.handleStats)
	}
	if s.endpoints.SeenIDs != nil || s.endpoints.Inventory != nil {
		r.Get("/devices", s.handleDevices)
	}
	if s.endpoints.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.endpoints.Metrics)
	}

	return r
}

func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.address,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.log.Info("starting health server", slog.String("address", s.address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("health server error", sl.Err(err))
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	checkers := make([]HealthChecker, len(s.checkers))
	copy(checkers, s.checkers)
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:     StatusHealthy,
		Components: make([]ComponentHealth, 0, len(checkers)),
		Timestamp:  time.Now().UTC(),
	}

	for _, checker := range checkers {
		status, message := checker.Check(ctx)
		response.Components = append(response.Components, ComponentHealth{
			Name:    checker.Name(),
			Status:  status,
			Message: message,
		})

		if status == StatusUnhealthy {
			response.Status = StatusUnhealthy
		} else if status == StatusDegraded && response.Status == StatusHealthy {
			response.Status = StatusDegraded
		}
	}

	statusCode := http.StatusOK
	if response.Status == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	s.writeJSON(w, statusCode, response)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.endpoints.Stats())
}

func (s *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	response := DevicesResponse{Seen: []string{}}
	if s.endpoints.SeenIDs != nil {
		response.Seen = s.endpoints.SeenIDs()
	}

	if s.endpoints.Inventory != nil {
		devices, err := s.endpoints.Inventory.List(r.Context())
		if err != nil {
			s.log.Error("failed to list device inventory", sl.Err(err))
			http.Error(w, "inventory unavailable", http.StatusInternalServerError)
			return
		}
		response.Inventory = devices
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Debug("failed to encode response", sl.Err(err))
	}
}
