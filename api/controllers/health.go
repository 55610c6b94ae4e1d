package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/photoalbum-backend/api/responses"
	"github.com/angelmondragon/photoalbum-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/photoalbum-backend/pkg/errors"
	"github.com/angelmondragon/photoalbum-backend/pkg/logger"
)

const (
	envHeader           = "X-Photoalbum-Env"
	readinessTimeout    = 3 * time.Second
	readinessStatusOK   = "ok"
	readinessStatusDown = "down"
)

// Pinger is anything readiness can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessCheck names one dependency probed by HealthReady. Checks with a
// nil Pinger are skipped.
type ReadinessCheck struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

func HealthReady(cfg *config.Config, logg *logger.Logger, checks ...ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		statuses := make(map[string]string, len(checks))
		var firstErr error
		for _, check := range checks {
			if check.Pinger == nil {
				continue
			}
			if err := check.Pinger.Ping(ctx); err != nil {
				statuses[check.Name] = readinessStatusDown
				if firstErr == nil {
					firstErr = pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.Name+" unavailable")
				}
				continue
			}
			statuses[check.Name] = readinessStatusOK
		}

		if firstErr != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.As(firstErr).WithDetails(statuses))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": statuses})
	}
}
