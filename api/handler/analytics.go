package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todoboard/pkg/httpcontext"
	analyticsUC "github.com/fastygo/todoboard/usecase/analytics"
)

type AnalyticsHandler struct {
	baseHandler
	uc *analyticsUC.UseCase
}

func NewAnalyticsHandler(uc *analyticsUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Completion statistics
// @Tags analytics
// @Router /api/analytics/completion-stats/ [get]
func (h *AnalyticsHandler) CompletionStats(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) {
		return h.uc.CompletionStats(c)
	})
}

// @Summary Productivity patterns
// @Tags analytics
// @Router /api/analytics/productivity-patterns/ [get]
func (h *AnalyticsHandler) ProductivityPatterns(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) {
		return h.uc.ProductivityPatterns(c)
	})
}

// @Summary Planned duration analysis
// @Tags analytics
// @Router /api/analytics/duration-analysis/ [get]
func (h *AnalyticsHandler) DurationAnalysis(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) {
		return h.uc.DurationAnalysis(c)
	})
}

// @Summary Daily activity heatmap
// @Tags analytics
// @Router /api/analytics/activity-heatmap/ [get]
func (h *AnalyticsHandler) ActivityHeatmap(ctx *fasthttp.RequestCtx) {
	h.serve(ctx, func(c context.Context) (interface{}, error) {
		return h.uc.ActivityHeatmap(c)
	})
}

func (h *AnalyticsHandler) serve(ctx *fasthttp.RequestCtx, compute func(context.Context) (interface{}, error)) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	data, err := compute(stdCtx)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, data)
}
