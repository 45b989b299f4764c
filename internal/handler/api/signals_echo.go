package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"FinSignal/internal/domain/models"
	domrepo "FinSignal/internal/domain/repository"
	apimetrics "FinSignal/internal/service/metrics"
	"FinSignal/internal/usecase"
	xhttp "FinSignal/pkg/http"
	xlogger "FinSignal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalReader is the read side the handler serves.
type SignalReader interface {
	ListSignals(ctx context.Context, req models.ListSignalsRequest) ([]models.TradingSignal, error)
	GetSignal(ctx context.Context, id int64) (*models.TradingSignal, error)
	GetLatestRegime(ctx context.Context, req models.LatestRegimeRequest) (*models.MarketRegime, error)
	ListLatestRegimes(ctx context.Context, symbol string) ([]models.MarketRegime, error)
	LastRun(ctx context.Context) (*models.RunSummary, error)
}

// RunStarter starts a pipeline run in the background and returns its id.
type RunStarter interface {
	Start(trigger string, symbols []string, ivs []domrepo.Interval) string
}

type SignalsEchoHandler struct {
	logger *xlogger.Logger
	query  SignalReader
	runs   RunStarter
	mw     []echo.MiddlewareFunc
}

func NewSignalsEchoHandler(logger *xlogger.Logger, query SignalReader, runs RunStarter) *SignalsEchoHandler {
	apimetrics.Register()
	return &SignalsEchoHandler{logger: logger, query: query, runs: runs}
}

// Use adds middlewares to the /api group. Must be called before RegisterRoutes.
func (h *SignalsEchoHandler) Use(m ...echo.MiddlewareFunc) { h.mw = append(h.mw, m...) }

func (h *SignalsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.mw...)
	g.GET("/signals", observe("signals", h.ListSignals))
	g.GET("/signals/:id", observe("signal", h.GetSignal))
	g.GET("/regimes", observe("regimes", h.ListRegimes))
	g.GET("/regimes/latest", observe("regime_latest", h.LatestRegime))
	g.GET("/pipeline/last-run", observe("last_run", h.LastRun))
	g.POST("/pipeline/run", observe("run", h.RunPipeline))
}

func (h *SignalsEchoHandler) ListSignals(c echo.Context) error {
	req := &models.ListSignalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.query.ListSignals(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "list signals", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SignalsEchoHandler) GetSignal(c echo.Context) error {
	req := &models.GetSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	sig, err := h.query.GetSignal(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, "get signal", err)
	}
	return xhttp.SuccessResponse(c, sig)
}

func (h *SignalsEchoHandler) LatestRegime(c echo.Context) error {
	req := &models.LatestRegimeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	r, err := h.query.GetLatestRegime(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, "latest regime", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, r)
}

// ListRegimes returns the newest regime of every interval for one symbol.
func (h *SignalsEchoHandler) ListRegimes(c echo.Context) error {
	symbol := strings.TrimSpace(c.QueryParam("symbol"))
	if symbol == "" {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("symbol is required"))
	}
	rows, err := h.query.ListLatestRegimes(c.Request().Context(), symbol)
	if err != nil {
		return h.fail(c, "list regimes", err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SignalsEchoHandler) LastRun(c echo.Context) error {
	run, err := h.query.LastRun(c.Request().Context())
	if err != nil {
		return h.fail(c, "last run", err)
	}
	return xhttp.SuccessResponse(c, run)
}

// RunPipeline starts a run and answers before it finishes.
func (h *SignalsEchoHandler) RunPipeline(c echo.Context) error {
	req := &models.RunPipelineRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var ivs []domrepo.Interval
	if len(req.Intervals) > 0 {
		parsed, err := domrepo.ParseIntervals(req.Intervals)
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
		}
		ivs = parsed
	}
	symbols := make([]string, 0, len(req.Symbols))
	for _, s := range req.Symbols {
		symbols = append(symbols, strings.ToUpper(strings.TrimSpace(s)))
	}

	id := h.runs.Start(usecase.TriggerAPI, symbols, ivs)
	h.logger.Info("pipeline run requested", xlogger.String("run_id", id), xlogger.Strings("symbols", symbols))
	return xhttp.AcceptedResponse(c, map[string]string{"run_id": id})
}

func (h *SignalsEchoHandler) fail(c echo.Context, op string, err error) error {
	if errors.Is(err, domrepo.ErrNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("%s: not found", op))
	}
	h.logger.Error(op+" failed", xlogger.String("path", c.Path()), xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError(op+" failed").WithError(err))
}

func observe(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		apimetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if err != nil || c.Response().Status >= 400 {
			apimetrics.APIErrors.WithLabelValues(endpoint).Inc()
		}
		return err
	}
}
