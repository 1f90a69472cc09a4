package http

import (
	"encoding/json"
	"net/http"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/itsgate/pkg/domain/model"
	"github.com/m-mizutani/itsgate/pkg/domain/types"
)

// healthHandler reports liveness and the size of the loaded rule base
func healthHandler(ruleCount func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := &model.HealthStatus{
			Status:  "healthy",
			Service: types.ServiceName,
			Version: types.Version,
		}
		if ruleCount != nil {
			status.Rules = ruleCount()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(status); err != nil {
			ctxlog.From(r.Context()).Error("Failed to encode health response", "error", err)
		}
	}
}
