package health

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/opd-ai/go-elastic/pkg/engine"
	"github.com/opd-ai/go-elastic/pkg/i18n"
	"github.com/opd-ai/go-elastic/pkg/logging"
	"github.com/opd-ai/go-elastic/pkg/status"
)

// Stats is the body of the /stats endpoint.
type Stats struct {
	Language string           `json:"language"`
	Status   []status.Line    `json:"status"`
	Snapshot *engine.Snapshot `json:"snapshot"`
}

// StatsHandler serves the status board and a snapshot as JSON. The lang
// query parameter selects the label language; bodies=false drops the body
// list.
func StatsHandler(sim status.Source, board *status.Board, tr *i18n.Translator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}

		translator := tr
		if lang := r.URL.Query().Get("lang"); lang != "" {
			t, err := i18n.New(lang)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			translator = t
		}

		snap := sim.Snapshot()
		if v := r.URL.Query().Get("bodies"); v != "" {
			include, err := strconv.ParseBool(v)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bodies must be a boolean"})
				return
			}
			if !include {
				snap.Bodies = nil
			}
		}

		writeJSON(w, http.StatusOK, Stats{
			Language: translator.Language().String(),
			Status:   board.Lines(translator),
			Snapshot: snap,
		})
	}
}

// Server serves /health, /ready and /stats.
type Server struct {
	server *http.Server
	logger *logging.Logger
	addr   string
}

// NewServer creates a server for the port. stats may be nil.
func NewServer(port int, checker *HealthChecker, stats http.Handler, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.LivenessHandler)
	mux.HandleFunc("/ready", checker.ReadinessHandler)
	if stats != nil {
		mux.Handle("/stats", stats)
	}

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger.WithComponent("health"),
	}
}

// Handler returns the request router.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the listening address once Start has succeeded.
func (s *Server) Addr() string {
	return s.addr
}

// Start binds the port and serves in a goroutine started by launcher. Bind
// errors are returned directly.
func (s *Server) Start(ctx context.Context, launcher engine.Launcher) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return logging.WrapError(err, "failed to listen on %s", s.server.Addr)
	}
	s.addr = ln.Addr().String()

	err = launcher.StartGoroutine(ctx, "health-server", func(ctx context.Context) {
		s.logger.Info(ctx, "health server listening", "addr", s.addr)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, "health server failed", err)
		}
	})
	if err != nil {
		ln.Close()
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
