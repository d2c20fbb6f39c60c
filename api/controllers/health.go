package controllers

import (
	"context"
	"net/http"

	"github.com/tastebite/tastebite-backend/api/responses"
	"github.com/tastebite/tastebite-backend/pkg/config"
	pkgerrors "github.com/tastebite/tastebite-backend/pkg/errors"
	"github.com/tastebite/tastebite-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tastebite-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the datasources answer a ping. A nil
// pinger (redis disabled in dev) is skipped.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers ...pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Tastebite-Env", cfg.App.Env)
		for _, p := range pingers {
			if p == nil {
				continue
			}
			if err := p.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "datasource unavailable"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
