package api

import (
	"strings"
	"time"

	"TradeAgent/internal/backtest"
	models "TradeAgent/internal/domain/models"
	domrepo "TradeAgent/internal/domain/repository"
	"TradeAgent/internal/usecase"
	xhttp "TradeAgent/pkg/http"
	xlogger "TradeAgent/pkg/logger"
	"TradeAgent/pkg/queue"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler exposes the analysis API over Echo.
type AnalysisHandler struct {
	logger   *xlogger.Logger
	analyze  *usecase.AnalyzeUseCase
	plans    *usecase.PlanUseCase
	backtest *usecase.BacktestUseCase
	candles  *usecase.CandlesUseCase
	jobs     queue.QueueService // optional, async backtests
}

func NewAnalysisHandler(
	logger *xlogger.Logger,
	analyze *usecase.AnalyzeUseCase,
	plans *usecase.PlanUseCase,
	backtest *usecase.BacktestUseCase,
	candles *usecase.CandlesUseCase,
) *AnalysisHandler {
	return &AnalysisHandler{
		logger:   logger,
		analyze:  analyze,
		plans:    plans,
		backtest: backtest,
		candles:  candles,
	}
}

// SetJobQueue enables the async backtest endpoint.
func (h *AnalysisHandler) SetJobQueue(q queue.QueueService) { h.jobs = q }

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/facts", h.Facts)
	g.POST("/analyze", h.Analyze)
	g.GET("/plan", h.Plan)
	g.GET("/candles", h.Candles)
	g.GET("/backtest/vector", h.BacktestVector)
	g.GET("/backtest/plan", h.BacktestPlan)
	g.POST("/backtest/enqueue", h.BacktestEnqueue)
}

// Facts serves the latest facts payload, cache first.
func (h *AnalysisHandler) Facts(c echo.Context) error {
	req := &models.FactsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var asOf time.Time
	if req.AsOf != "" {
		t, ok := xhttp.ParseTime(req.AsOf)
		if !ok {
			return xhttp.BadRequestResponse(c, "as_of must be RFC3339 or unix seconds")
		}
		asOf = t
	}

	res, err := h.analyze.GetFactsAt(c.Request().Context(), req.Symbol, req.Version, asOf)
	if err != nil {
		h.logger.Error("facts usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

// Analyze forces a fresh analysis run instead of serving stored facts.
func (h *AnalysisHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	params := usecase.AnalyzeParams{
		Symbol:   req.Symbol,
		Lookback: req.Lookback,
		Version:  req.Version,
	}
	for _, raw := range strings.Split(req.Intervals, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		tf := domrepo.NormalizeTimeframe(raw)
		if !domrepo.IsValidTimeframe(tf) {
			return xhttp.BadRequestResponse(c, "unknown interval "+raw)
		}
		params.Intervals = append(params.Intervals, tf)
	}

	res, err := h.analyze.ComputeFactsWith(c.Request().Context(), params)
	if err != nil {
		h.logger.Error("analyze usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Plan(c echo.Context) error {
	req := &models.PlanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.plans.BuildPlan(c.Request().Context(), req.Symbol, req.Version)
	if err != nil {
		h.logger.Error("plan usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	params := usecase.GetCandlesParams{
		Symbol:    req.Symbol,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
		Limit:     req.Limit,
	}
	if req.From != "" {
		t, ok := xhttp.ParseTime(req.From)
		if !ok {
			return xhttp.BadRequestResponse(c, "from must be RFC3339 or unix seconds")
		}
		params.From = t
	}
	if req.To != "" {
		t, ok := xhttp.ParseTime(req.To)
		if !ok {
			return xhttp.BadRequestResponse(c, "to must be RFC3339 or unix seconds")
		}
		params.To = t
	}

	res, err := h.candles.GetCandles(c.Request().Context(), params)
	if err != nil {
		h.logger.Error("candles usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) BacktestVector(c echo.Context) error {
	p, verr := h.backtestParams(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.backtest.RunVector(c.Request().Context(), *p)
	if err != nil {
		h.logger.Error("vector backtest error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) BacktestPlan(c echo.Context) error {
	p, verr := h.backtestParams(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.backtest.RunPlan(c.Request().Context(), *p)
	if err != nil {
		h.logger.Error("plan backtest error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// BacktestEnqueue schedules a backtest on the job queue. The run lands
// in the backtest_runs table when a worker picks it up.
func (h *AnalysisHandler) BacktestEnqueue(c echo.Context) error {
	if h.jobs == nil {
		return xhttp.NotFoundResponse(c, "job queue disabled")
	}
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	kind := c.QueryParam("kind")
	if kind != "plan" {
		kind = "vector"
	}

	payload := usecase.BacktestJobPayload{
		Symbol:  req.Symbol,
		TF:      req.TF,
		N:       req.N,
		Mode:    req.Mode,
		FeeBps:  req.FeeBps,
		Version: req.Version,
		Kind:    kind,
	}
	if err := h.jobs.PublishMessage(c.Request().Context(), usecase.BacktestJobType, payload); err != nil {
		h.logger.Error("backtest enqueue error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, payload)
}

func (h *AnalysisHandler) backtestParams(c echo.Context) (*usecase.BacktestParams, interface{}) {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return nil, verr
	}
	return &usecase.BacktestParams{
		Symbol:  req.Symbol,
		TF:      domrepo.NormalizeTimeframe(req.TF),
		N:       req.N,
		Mode:    backtestMode(req.Mode),
		FeeBps:  req.FeeBps,
		Version: req.Version,
	}, nil
}

// Request validation already constrains the mode; combined is the
// fallback for an empty value.
func backtestMode(s string) backtest.Mode {
	switch m := backtest.Mode(s); m {
	case backtest.ModeSRTrend, backtest.ModeRSIInertia, backtest.ModeCombined:
		return m
	default:
		return backtest.ModeCombined
	}
}
