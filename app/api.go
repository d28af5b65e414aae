package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/aquaregwatch/regwatch/config"
	"github.com/aquaregwatch/regwatch/lib/scheduler"
	"github.com/aquaregwatch/regwatch/lib/store"
)

// NewAPI serves the read-only surface: health, metrics, source states, and
// the persisted snapshot/event history. Management UIs live on the other
// side of this boundary.
func NewAPI(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, st *store.Store, sched *scheduler.Scheduler) *http.Server {
	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	srv := &http.Server{Addr: addr, Handler: router(cfg, log, st, sched)}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go srv.ListenAndServe()
			return nil
		},
		OnStop: srv.Shutdown,
	})

	return srv
}

func router(cfg *config.Config, log *zap.Logger, st *store.Store, sched *scheduler.Scheduler) http.Handler {
	ctrl := &controller{log: log, cfg: cfg, store: st, sched: sched}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/sources", ctrl.listSources)
		r.Get("/snapshots", ctrl.listSnapshots)
		r.Get("/sources/{source_id}/events", ctrl.listEvents)
		r.Post("/sources/reload", ctrl.reloadSources)
	})

	return r
}

type controller struct {
	log   *zap.Logger
	cfg   *config.Config
	store *store.Store
	sched *scheduler.Scheduler
}

func (ctrl *controller) reject(w http.ResponseWriter, status int, err error) {
	if err != nil {
		http.Error(w, err.Error(), status)
	} else {
		w.WriteHeader(status)
	}
}

func (ctrl *controller) resolve(w http.ResponseWriter, status int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		ctrl.log.Sugar().Errorw("request failed", "err", err)
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}

func (ctrl *controller) listSources(w http.ResponseWriter, r *http.Request) {
	ctrl.resolve(w, http.StatusOK, ctrl.sched.SourceStates())
}

func (ctrl *controller) listSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := ctrl.store.Snapshots(r.Context())
	if err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, snaps)
}

func (ctrl *controller) listEvents(w http.ResponseWriter, r *http.Request) {
	sourceID := chi.URLParam(r, "source_id")
	if sourceID == "" {
		ctrl.reject(w, http.StatusBadRequest, errors.New("source_id is required"))
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	events, err := ctrl.store.Events(r.Context(), sourceID, limit)
	if err != nil {
		ctrl.reject(w, http.StatusInternalServerError, err)
		return
	}
	ctrl.resolve(w, http.StatusOK, events)
}

func (ctrl *controller) reloadSources(w http.ResponseWriter, r *http.Request) {
	sources, err := ctrl.cfg.ReloadSources()
	if err != nil {
		ctrl.reject(w, http.StatusUnprocessableEntity, err)
		return
	}
	ctrl.sched.Reload(sources)
	ctrl.resolve(w, http.StatusOK, map[string]any{
		"generation": ctrl.cfg.Generation(),
		"sources":    len(sources),
	})
}
