// Package server exposes the exporter's HTTP surface: the Prometheus
// scrape endpoint and the per-site health check.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/danielhfingal/tesla-powerwall-fingal/internal/errors"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/logger"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/metrics"
	"github.com/danielhfingal/tesla-powerwall-fingal/internal/poll"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	listenAddr     string
	sessions       []*poll.Session
	sink           metrics.Sink
	metricsHandler http.Handler
	staleAfter     time.Duration
	clock          poll.Clock

	httpServer *http.Server
}

type clockFunc func() time.Time

func (f clockFunc) Now() time.Time { return f() }

func New(listenAddr string, sessions []*poll.Session, sink metrics.Sink, metricsHandler http.Handler, staleAfter time.Duration) *Server {
	s := &Server{
		listenAddr:     listenAddr,
		sessions:       sessions,
		sink:           sink,
		metricsHandler: metricsHandler,
		staleAfter:     staleAfter,
		clock:          clockFunc(time.Now),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", metricsHandler)

	s.httpServer = &http.Server{
		Addr:              listenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Run serves until ctx is canceled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logger.Info().Str("listen", s.listenAddr).Msg("http server started")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return errors.New().Wrap(errors.ErrServeHTTP, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.New().Wrap(errors.ErrShutdownFailed, err)
	}

	return nil
}

type siteHealth struct {
	Status       string `json:"status"`
	SiteID       string `json:"site_id"`
	Mode         string `json:"mode"`
	SinceSuccess string `json:"since_last_success,omitempty"`
	Error        string `json:"error,omitempty"`
}

// handleHealthz reports per-site staleness. Checking also flips the
// liveness gauge, keeping it consistent with reality even when no poll
// has completed recently.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	now := s.clock.Now()

	checked := s.sessions
	if siteID := r.URL.Query().Get("site_id"); siteID != "" {
		checked = nil
		for _, sess := range s.sessions {
			if sess.SiteID == siteID {
				checked = []*poll.Session{sess}
				break
			}
		}
		if checked == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"status": "error",
				"error":  "unknown site_id: " + siteID,
			})
			return
		}
	}

	anyStale := false
	health := make([]siteHealth, 0, len(checked))

	for _, sess := range checked {
		stale := sess.Liveness().IsStale(now, s.staleAfter)

		h := siteHealth{
			Status: "ok",
			SiteID: sess.SiteID,
			Mode:   sess.Mode.String(),
		}

		if stale {
			anyStale = true
			h.Status = "stale"
			h.SinceSuccess = sess.Liveness().SinceSuccess(now).Truncate(time.Second).String()
			h.Error = fmt.Sprintf("no successful poll in %s", h.SinceSuccess)
			s.sink.SetGauge(metrics.MetricExporterUp, 0, metrics.Labels{"site_id": sess.SiteID})
		} else {
			s.sink.SetGauge(metrics.MetricExporterUp, 1, metrics.Labels{"site_id": sess.SiteID})
		}

		health = append(health, h)
	}

	status := http.StatusOK
	if anyStale {
		status = http.StatusServiceUnavailable
	}

	if len(health) == 1 {
		writeJSON(w, status, health[0])
		return
	}

	overall := "ok"
	if anyStale {
		overall = "stale"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": overall,
		"sites":  health,
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error().Err(err).Msg("failed to write response")
	}
}
