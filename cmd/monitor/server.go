package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/matiks/matiks-monitor/internal/models"
	"github.com/matiks/matiks-monitor/internal/monitoring"
	"github.com/matiks/matiks-monitor/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type nextRunner interface {
	NextRun() time.Time
}

type server struct {
	ctx       context.Context
	monitor   *monitoring.Service
	scheduler nextRunner
}

type statusResponse struct {
	LastRun *models.RunStatus  `json:"last_run"`
	NextRun *time.Time         `json:"next_run,omitempty"`
	Metrics monitoring.Metrics `json:"metrics"`
}

func newRouter(s *server) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/status", s.statusHandler).Methods("GET")
	router.HandleFunc("/", s.dashboardHandler).Methods("GET")
	router.HandleFunc("/dashboard", s.dashboardHandler).Methods("GET")
	router.HandleFunc("/trigger", s.triggerHandler).Methods("POST")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	return router
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *server) statusHandler(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{Metrics: s.monitor.Snapshot()}

	last, err := s.monitor.LastStatus(r.Context())
	switch {
	case err == nil:
		resp.LastRun = last
	case !errors.Is(err, storage.ErrNotFound):
		logrus.WithError(err).Error("Failed to read last run status")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if s.scheduler != nil {
		if next := s.scheduler.NextRun(); !next.IsZero() {
			resp.NextRun = &next
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	page, err := s.monitor.Dashboard(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "dashboard has not been rendered yet", http.StatusNotFound)
		return
	}
	if err != nil {
		logrus.WithError(err).Error("Failed to load dashboard")
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}

func (s *server) triggerHandler(w http.ResponseWriter, r *http.Request) {
	go func() {
		if _, err := s.monitor.RunMonitoring(s.ctx); err != nil {
			logrus.Errorf("Manual monitoring trigger failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Monitoring cycle triggered"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to write response")
	}
}
