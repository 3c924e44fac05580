package controllers

import (
	"context"
	"net/http"

	"github.com/replate-app/replate-backend/api/responses"
	"github.com/replate-app/replate-backend/pkg/config"
	pkgerrors "github.com/replate-app/replate-backend/pkg/errors"
	"github.com/replate-app/replate-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Replate-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the backing stores answer a ping.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Replate-Env", cfg.App.Env)

		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

// HealthDeps adapts concrete stores into the readiness probe set.
func HealthDeps(db pinger, cache pinger) map[string]pinger {
	return map[string]pinger{
		"database": db,
		"redis":    cache,
	}
}
