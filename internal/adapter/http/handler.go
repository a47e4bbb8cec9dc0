package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"sourplanet/internal/app/auth"
	"sourplanet/internal/app/ports"
	"sourplanet/internal/app/replay"
	"sourplanet/internal/app/session"
	"sourplanet/internal/app/status"
	"sourplanet/internal/domain/planet"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

const playerIDHeader = "X-Player-ID"
const playerKeyHeader = "X-Player-Key"

type Handler struct {
	RegisterUC auth.RegisterUseCase
	AuthUC     auth.VerifyUseCase
	SessionUC  session.UseCase
	StatusUC   status.UseCase
	ReplayUC   replay.UseCase
	Upgrades   []planet.UpgradeDefinition
	KPI        kpiSnapshotProvider

	// Metrics serves the Prometheus exposition format on /metrics when set.
	Metrics http.Handler
	Limiter *RateLimiter
	// Origins is the CORS allow list. Empty allows any origin.
	Origins []string
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.Origins))

	var mws []app.HandlerFunc
	if h.Limiter != nil {
		mws = append(mws, h.Limiter.Middleware())
	}
	planetAPI := s.Group("/api/planet", mws...)
	planetAPI.POST("/register", h.register)
	planetAPI.POST("/sync", h.action(session.ActionSync))
	planetAPI.POST("/click", h.action(session.ActionClick))
	planetAPI.POST("/purchase", h.action(session.ActionPurchase))
	planetAPI.POST("/bonus/start", h.action(session.ActionStartBonus))
	planetAPI.POST("/bonus/rearm", h.action(session.ActionRearmBonus))
	planetAPI.GET("/status", h.status)
	planetAPI.GET("/events", h.events)
	planetAPI.GET("/catalog", h.catalog)

	s.GET("/ops/kpi", h.kpi)
	if h.Metrics != nil {
		s.GET("/metrics", adaptor.HertzHandler(h.Metrics))
	}
}

type actionRequest struct {
	UpgradeID string `json:"upgrade_id,omitempty"`
	Clicks    int    `json:"clicks,omitempty"`
}

func (h Handler) action(kind session.ActionType) app.HandlerFunc {
	return func(c context.Context, ctx *app.RequestContext) {
		playerID, err := h.requireAuthenticatedPlayer(c, ctx)
		if err != nil {
			writeError(ctx, err)
			return
		}

		var body actionRequest
		if err := decodeJSON(ctx, &body); err != nil {
			writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
			return
		}
		if hasJSONField(ctx.Request.Body(), "dt") {
			writeActionRejected(ctx, consts.StatusBadRequest, "dt_managed_by_server", "elapsed time is measured by the server", map[string]any{"field": "dt"})
			return
		}

		resp, err := h.SessionUC.Execute(c, session.Request{
			PlayerID:  playerID,
			Action:    kind,
			UpgradeID: body.UpgradeID,
			Clicks:    body.Clicks,
		})
		if err != nil {
			if writeActionRejectedFromErr(ctx, err) {
				return
			}
			writeError(ctx, err)
			return
		}

		ctx.JSON(consts.StatusOK, resp)
	}
}

func (h Handler) status(c context.Context, ctx *app.RequestContext) {
	playerID, err := h.requireAuthenticatedPlayer(c, ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}

	resp, err := h.StatusUC.Execute(c, status.Request{PlayerID: playerID})
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) events(c context.Context, ctx *app.RequestContext) {
	playerID, err := h.requireAuthenticatedPlayer(c, ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	occurredFrom, _ := strconv.ParseInt(string(ctx.Query("occurred_from")), 10, 64)
	occurredTo, _ := strconv.ParseInt(string(ctx.Query("occurred_to")), 10, 64)
	resp, err := h.ReplayUC.Execute(c, replay.Request{
		PlayerID:     playerID,
		Limit:        limit,
		OccurredFrom: occurredFrom,
		OccurredTo:   occurredTo,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

type catalogEntry struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	BaseCost        float64 `json:"base_cost"`
	CostMultiplier  float64 `json:"cost_multiplier"`
	ProductionBonus float64 `json:"production_bonus"`
	RequiresID      string  `json:"requires_id,omitempty"`
	RequiresCount   int     `json:"requires_count,omitempty"`
	MinEvents       int64   `json:"min_events,omitempty"`
}

func (h Handler) catalog(_ context.Context, ctx *app.RequestContext) {
	out := make([]catalogEntry, 0, len(h.Upgrades))
	for _, def := range h.Upgrades {
		out = append(out, catalogEntry{
			ID:              def.ID,
			Name:            def.Name,
			BaseCost:        def.BaseCost,
			CostMultiplier:  def.CostMultiplier,
			ProductionBonus: def.ProductionBonus,
			RequiresID:      def.Unlock.RequiresID,
			RequiresCount:   def.Unlock.RequiresCount,
			MinEvents:       def.Unlock.MinEvents,
		})
	}
	ctx.JSON(consts.StatusOK, map[string]any{"upgrades": out})
}

func (h Handler) register(c context.Context, ctx *app.RequestContext) {
	resp, err := h.RegisterUC.Execute(c, auth.RegisterRequest{})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, resp)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func hasJSONField(body []byte, key string) bool {
	if len(body) == 0 {
		return false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return false
	}
	_, ok := m[key]
	return ok
}

var ErrMissingPlayerIDHeader = errors.New("missing x-player-id header")
var ErrMissingPlayerKeyHeader = errors.New("missing x-player-key header")
var ErrMissingPlayerCredentials = errors.New("missing player credentials")

func (h Handler) requireAuthenticatedPlayer(c context.Context, ctx *app.RequestContext) (string, error) {
	playerID := strings.TrimSpace(string(ctx.GetHeader(playerIDHeader)))
	playerKey := strings.TrimSpace(string(ctx.GetHeader(playerKeyHeader)))
	if playerID == "" && playerKey == "" {
		return "", ErrMissingPlayerCredentials
	}
	if playerID == "" {
		return "", ErrMissingPlayerIDHeader
	}
	if playerKey == "" {
		return "", ErrMissingPlayerKeyHeader
	}
	if err := h.AuthUC.Execute(c, auth.VerifyRequest{
		PlayerID:  playerID,
		PlayerKey: playerKey,
	}); err != nil {
		return "", err
	}
	return playerID, nil
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, ErrMissingPlayerCredentials):
		writeErrorBody(ctx, consts.StatusBadRequest, "missing_player_credentials", err.Error())
	case errors.Is(err, ErrMissingPlayerIDHeader):
		writeErrorBody(ctx, consts.StatusBadRequest, "missing_player_id", err.Error())
	case errors.Is(err, ErrMissingPlayerKeyHeader):
		writeErrorBody(ctx, consts.StatusBadRequest, "missing_player_key", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeErrorBody(ctx, consts.StatusUnauthorized, "invalid_player_credentials", err.Error())
	case errors.Is(err, session.ErrUnsupportedAction):
		writeErrorBody(ctx, consts.StatusBadRequest, "unsupported_action", err.Error())
	case errors.Is(err, session.ErrInvalidRequest),
		errors.Is(err, auth.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest),
		errors.Is(err, status.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeActionRejectedFromErr reports a domain refusal. The player's state was not changed.
func writeActionRejectedFromErr(ctx *app.RequestContext, err error) bool {
	var rejected *session.ActionRejectedError
	if !errors.As(err, &rejected) || rejected == nil {
		return false
	}
	writeActionRejected(ctx, consts.StatusConflict, rejected.Kind(), rejected.Error(), map[string]any{
		"action": string(rejected.Action),
	})
	return true
}

func writeActionRejected(ctx *app.RequestContext, status int, code, message string, details map[string]any) {
	ctx.JSON(status, map[string]any{
		"result_code": "REJECTED",
		"error": map[string]any{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}
