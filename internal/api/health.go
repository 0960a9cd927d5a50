// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/gatekeeper/internal/platform/constants"
	"github.com/taibuivan/gatekeeper/internal/platform/respond"
)

// probeTimeout bounds each readiness probe.
const probeTimeout = 2 * time.Second

// HealthProbe is one named backing service checked by /ready.
type HealthProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthDependencies lists the probes of the selected storage driver.
// The in-memory driver has none and is always ready.
type HealthDependencies struct {
	Probes []HealthProbe
}

type probeResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

// NewHealthHandlers creates the /health and /ready http.HandlerFuncs.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) (liveness, readiness http.HandlerFunc) {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return handler.liveness, handler.readiness
}

// GET /health. The process is alive if it can answer.
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{constants.FieldStatus: "ok"})
}

/*
GET /ready.

Response:
  - 200: every probe answered ("ready")
  - 503: at least one probe failed ("degraded"), with per-probe results
*/
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	results := make([]probeResult, 0, len(handler.dependencies.Probes))
	ready := true

	for _, probe := range handler.dependencies.Probes {
		result := handler.run(request.Context(), probe)
		ready = ready && result.IsOK
		results = append(results, result)
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	respond.JSON(writer, code, respond.SuccessEnvelope{Data: map[string]any{
		constants.FieldStatus: status,
		constants.FieldChecks: results,
	}})
}

func (handler *healthHandler) run(ctx context.Context, probe HealthProbe) probeResult {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := probe.Check(probeCtx); err != nil {
		handler.logger.Error("readiness_check_failed", slog.String("dependency", probe.Name), slog.Any("error", err))
		return probeResult{Name: probe.Name, Error: err.Error()}
	}
	return probeResult{Name: probe.Name, IsOK: true}
}
