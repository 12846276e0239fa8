package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flashbots/go-utils/httplogger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/atomic"

	"github.com/attestia/agent-trust-registry/api"
	"github.com/attestia/agent-trust-registry/common"
	"github.com/attestia/agent-trust-registry/metrics"
)

// Server wires the registry handler into an HTTP listener with health
// endpoints, request logging and an optional metrics sidecar listener.
type Server struct {
	cfg     *api.HTTPServerConfig
	isReady atomic.Bool
	handler *Handler

	srv        *http.Server
	metricsSrv *metrics.MetricsServer
}

// New creates a server from the given configuration and handler.
func New(cfg *api.HTTPServerConfig, handler *Handler) (*Server, error) {
	metricsSrv, err := metrics.New(common.PackageName, cfg.MetricsAddr)
	if err != nil {
		return nil, err
	}

	if cfg.MaxRequestBodySize > 0 {
		handler.maxBody = cfg.MaxRequestBodySize
	}

	srv := &Server{
		cfg:        cfg,
		handler:    handler,
		metricsSrv: metricsSrv,
	}
	srv.isReady.Store(true)

	srv.srv = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.getRouter(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return srv, nil
}

func (srv *Server) getRouter() http.Handler {
	mux := chi.NewRouter()

	// Admin operations
	mux.With(srv.httpLogger).Post("/api/admin/initialize", srv.handler.HandleInitialize)
	mux.With(srv.httpLogger).Post("/api/admin/pause", srv.handler.HandleSetPaused)
	mux.With(srv.httpLogger).Post("/api/admin/transfer", srv.handler.HandleTransferAdmin)
	mux.With(srv.httpLogger).Post("/api/admin/advance-epoch", srv.handler.HandleAdvanceEpoch)
	mux.With(srv.httpLogger).Post("/api/admin/authorities", srv.handler.HandleAddAuthority)
	mux.With(srv.httpLogger).Delete("/api/admin/authorities/{pubkey}", srv.handler.HandleRemoveAuthority)

	// Agent and attestation operations
	mux.With(srv.httpLogger).Post("/api/agents", srv.handler.HandleRegisterAgent)
	mux.With(srv.httpLogger).Post("/api/agents/{pubkey}/refresh", srv.handler.HandleRefreshSignals)
	mux.With(srv.httpLogger).Post("/api/agents/{pubkey}/flag", srv.handler.HandleFlagAgent)
	mux.With(srv.httpLogger).Post("/api/agents/{pubkey}/unflag", srv.handler.HandleUnflagAgent)
	mux.With(srv.httpLogger).Post("/api/attestations", srv.handler.HandleSubmitAttestation)
	mux.With(srv.httpLogger).Post("/api/attestations/{agent}/revoke", srv.handler.HandleRevokeAttestation)

	// Evidence storage
	mux.With(srv.httpLogger).Post("/api/evidence/{type}", srv.handler.HandleStoreEvidence)
	mux.With(srv.httpLogger).Get("/api/public/evidence/{type}/{id}", srv.handler.HandleFetchEvidence)

	// Public reads
	mux.With(srv.httpLogger).Get("/api/public/config", srv.handler.HandleConfig)
	mux.With(srv.httpLogger).Get("/api/public/authorities/{pubkey}", srv.handler.HandleGetAuthority)
	mux.With(srv.httpLogger).Get("/api/public/agents/{pubkey}", srv.handler.HandleGetAgent)
	mux.With(srv.httpLogger).Get("/api/public/agents/{pubkey}/attestations", srv.handler.HandleGetAgentAttestations)
	mux.With(srv.httpLogger).Get("/api/public/attestations/{agent}/{authority}", srv.handler.HandleGetAttestation)

	// Health and diagnostic endpoints
	mux.With(srv.httpLogger).Get("/livez", srv.handleLivenessCheck)
	mux.With(srv.httpLogger).Get("/readyz", srv.handleReadinessCheck)
	mux.With(srv.httpLogger).Get("/drain", srv.handleDrain)
	mux.With(srv.httpLogger).Get("/undrain", srv.handleUndrain)

	if srv.cfg.EnablePprof {
		srv.cfg.Log.Info("pprof API enabled")
		mux.Mount("/debug", middleware.Profiler())
	}
	return mux
}

func (srv *Server) httpLogger(next http.Handler) http.Handler {
	return httplogger.LoggingMiddlewareSlog(srv.cfg.Log, next)
}

func (srv *Server) handleLivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"alive"}`))
}

func (srv *Server) handleReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"not ready"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

func (srv *Server) handleDrain(w http.ResponseWriter, r *http.Request) {
	if !srv.isReady.Swap(false) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"already draining"}`))
		return
	}

	srv.cfg.Log.Info("Server marked as not ready")

	// Wait out the drain duration without blocking the request handler, so
	// load balancers see the readiness change before shutdown proceeds.
	go func() {
		time.Sleep(srv.cfg.DrainDuration)
		srv.cfg.Log.Info("Drain period completed")
	}()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"draining"}`))
}

func (srv *Server) handleUndrain(w http.ResponseWriter, r *http.Request) {
	if srv.isReady.Swap(true) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"already ready"}`))
		return
	}

	srv.cfg.Log.Info("Server marked as ready")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// RunInBackground starts the API listener and, if configured, the metrics
// listener. It returns immediately.
func (srv *Server) RunInBackground() {
	if srv.cfg.MetricsAddr != "" {
		go func() {
			srv.cfg.Log.With("metricsAddress", srv.cfg.MetricsAddr).Info("Starting metrics server")
			err := srv.metricsSrv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				srv.cfg.Log.Error("Metrics server failed", "err", err)
			}
		}()
	}

	go func() {
		srv.cfg.Log.Info("Starting HTTP server", "listenAddress", srv.cfg.ListenAddr)
		if err := srv.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srv.cfg.Log.Error("HTTP server failed", "err", err)
		}
	}()
}

// Shutdown gracefully stops the API and metrics listeners.
func (srv *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
	defer cancel()
	if err := srv.srv.Shutdown(ctx); err != nil {
		srv.cfg.Log.Error("Graceful HTTP server shutdown failed", "err", err)
	} else {
		srv.cfg.Log.Info("HTTP server gracefully stopped")
	}

	if len(srv.cfg.MetricsAddr) != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), srv.cfg.GracefulShutdownDuration)
		defer cancel()

		if err := srv.metricsSrv.Shutdown(ctx); err != nil {
			srv.cfg.Log.Error("Graceful metrics server shutdown failed", "err", err)
		} else {
			srv.cfg.Log.Info("Metrics server gracefully stopped")
		}
	}
}
