package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/dlemos/billingsync-backend/api/responses"
	"github.com/dlemos/billingsync-backend/pkg/config"
	pkgerrors "github.com/dlemos/billingsync-backend/pkg/errors"
	"github.com/dlemos/billingsync-backend/pkg/logger"
)

const readyCheckTimeout = 2 * time.Second

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BillingSync-Env", cfg.App.Env)
		responses.WriteSuccess(w, "live")
	}
}

// HealthReady verifies the datastore and Redis are reachable.
func HealthReady(cfg *config.Config, logg *logger.Logger, db, cache pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-BillingSync-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		if db != nil {
			if err := db.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
				return
			}
		}
		if cache != nil {
			if err := cache.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unreachable"))
				return
			}
		}
		responses.WriteSuccess(w, "ready")
	}
}
