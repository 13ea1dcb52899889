package api

import (
	"errors"
	"net/http"
	"time"

	"PortfolioLedger/internal/ledger"
	"PortfolioLedger/internal/model"
	"PortfolioLedger/internal/performance"
	"PortfolioLedger/internal/service"
	"PortfolioLedger/internal/store"
	"PortfolioLedger/internal/strategy"

	"github.com/gin-gonic/gin"
)

const sourceAPI = "API"

// writeError maps service errors onto status codes.
func (s *Server) writeError(c *gin.Context, err error) {
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		details := make(map[string]interface{}, len(verrs))
		for k, v := range verrs {
			details[k] = v
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: "VALIDATION_ERROR", Message: "Invalid input", Details: details}})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorDetail{Code: "PORTFOLIO_NOT_FOUND", Message: err.Error()}})
	case errors.Is(err, service.ErrInflexible):
		c.JSON(http.StatusConflict, ErrorResponse{Error: ErrorDetail{Code: "PORTFOLIO_INFLEXIBLE", Message: err.Error()}})
	case errors.Is(err, performance.ErrInsufficientData), errors.Is(err, performance.ErrTooFewPoints):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: ErrorDetail{Code: "INSUFFICIENT_DATA", Message: err.Error()}})
	case errors.Is(err, service.ErrEmptyFile),
		errors.Is(err, ledger.ErrNegativeHolding),
		errors.Is(err, ledger.ErrUnknownSymbol),
		errors.Is(err, ledger.ErrNameMismatch),
		errors.Is(err, ledger.ErrInvalidNumber):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: "INVALID_LEDGER", Message: err.Error()}})
	default:
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{Code: "INTERNAL_ERROR", Message: err.Error()}})
	}
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

// dateParam parses an optional yyyy-mm-dd value, defaulting to today.
func (s *Server) dateParam(raw string) (time.Time, error) {
	if raw == "" {
		return model.Day(s.now()), nil
	}
	return model.ParseDate(raw)
}

func (s *Server) toOrder(r OrderRequest) (service.Order, model.ValidationErrors) {
	errs := model.ValidationErrors{}
	o := service.Order{Symbol: r.Symbol, Quantity: r.Quantity, FeePercent: r.FeePercent, Kind: model.Buy, Source: sourceAPI}
	if r.Date != "" {
		d, err := model.ParseDate(r.Date)
		if err != nil {
			errs.Add("date", err.Error())
		}
		o.Date = d
	}
	if r.Type != "" {
		k, err := model.ParseKind(r.Type)
		if err != nil {
			errs.Add("kind", err.Error())
		}
		o.Kind = k
	}
	return o, errs
}

// listPortfolios handles GET /api/v1/portfolios
func (s *Server) listPortfolios(c *gin.Context) {
	names, err := s.svc.Portfolios()
	if err != nil {
		s.writeError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, PortfolioListResponse{Portfolios: names})
}

// createPortfolio handles POST /api/v1/portfolios
func (s *Server) createPortfolio(c *gin.Context) {
	var req CreatePortfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	typ, err := model.ParsePortfolioType(req.Type)
	if err != nil {
		s.writeError(c, model.ValidationErrors{"type": err.Error()})
		return
	}
	orders := make([]service.Order, 0, len(req.Transactions))
	for _, r := range req.Transactions {
		o, errs := s.toOrder(r)
		if len(errs) > 0 {
			s.writeError(c, errs)
			return
		}
		if o.Kind != model.Buy {
			s.writeError(c, model.ValidationErrors{"kind": "a new portfolio can only be created with purchases"})
			return
		}
		orders = append(orders, o)
	}
	name, err := s.svc.CreatePortfolio(typ, orders)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedResponse{Portfolio: name})
}

// importPortfolio handles POST /api/v1/portfolios/import?type=
func (s *Server) importPortfolio(c *gin.Context) {
	typ, err := model.ParsePortfolioType(c.DefaultQuery("type", string(model.Flexible)))
	if err != nil {
		s.writeError(c, model.ValidationErrors{"type": err.Error()})
		return
	}
	name, err := s.svc.Import(typ, c.Request.Body)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedResponse{Portfolio: name})
}

// composition handles GET /api/v1/portfolios/:name/composition
func (s *Server) composition(c *gin.Context) {
	positions, err := s.svc.Composition(c.Param("name"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"portfolio": c.Param("name"), "positions": positions})
}

// value handles GET /api/v1/portfolios/:name/value?date=
func (s *Server) value(c *gin.Context) {
	date, err := s.dateParam(c.Query("date"))
	if err != nil {
		s.writeError(c, model.ValidationErrors{"date": err.Error()})
		return
	}
	v, err := s.svc.Value(c.Param("name"), date)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// costBasis handles GET /api/v1/portfolios/:name/cost-basis?date=
func (s *Server) costBasis(c *gin.Context) {
	date, err := s.dateParam(c.Query("date"))
	if err != nil {
		s.writeError(c, model.ValidationErrors{"date": err.Error()})
		return
	}
	cb, err := s.svc.CostBasis(c.Param("name"), date)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, CostBasisResponse{Portfolio: c.Param("name"), Date: model.FormatDate(date), CostBasis: cb})
}

// performance handles GET /api/v1/portfolios/:name/performance?start=&end=
func (s *Server) performance(c *gin.Context) {
	errs := model.ValidationErrors{}
	start, err := model.ParseDate(c.Query("start"))
	if err != nil {
		errs.Add("start", err.Error())
	}
	end, err := model.ParseDate(c.Query("end"))
	if err != nil {
		errs.Add("end", err.Error())
	}
	if len(errs) > 0 {
		s.writeError(c, errs)
		return
	}
	res, err := s.svc.Performance(c.Param("name"), start, end)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// trade handles POST /api/v1/portfolios/:name/transactions
func (s *Server) trade(c *gin.Context) {
	var req OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}
	o, errs := s.toOrder(req)
	if len(errs) > 0 {
		s.writeError(c, errs)
		return
	}
	tx, err := s.svc.Trade(c.Param("name"), o)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// applyDCA handles POST /api/v1/strategies/dca
func (s *Server) applyDCA(c *gin.Context) {
	var req DCARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	errs := model.ValidationErrors{}
	plan := strategy.Plan{
		Amount:      req.Amount,
		FeePercent:  req.FeePercent,
		Allocations: strategy.MergeAllocations(req.Allocations),
	}
	switch {
	case req.Date != "" && req.Start != "":
		errs.Add("dates", "give either date or start, not both")
	case req.Date != "":
		d, err := model.ParseDate(req.Date)
		if err != nil {
			errs.Add("dates", err.Error())
		}
		plan.Date = d
	case req.Start != "":
		sched := &strategy.Schedule{}
		var err error
		if sched.Start, err = model.ParseDate(req.Start); err != nil {
			errs.Add("dates", err.Error())
		}
		if req.End != "" {
			if sched.End, err = model.ParseDate(req.End); err != nil {
				errs.Add("dates", err.Error())
			}
		}
		if sched.Granularity, err = model.ParseGranularity(req.Frequency); err != nil {
			errs.Add("frequency", err.Error())
		}
		plan.Schedule = sched
	default:
		errs.Add("dates", "date or start is required")
	}

	var typ model.PortfolioType
	if req.Portfolio == "" {
		t, err := model.ParsePortfolioType(req.Type)
		if err != nil {
			errs.Add("type", err.Error())
		}
		typ = t
	}
	if len(errs) > 0 {
		s.writeError(c, errs)
		return
	}

	run, err := s.svc.ApplyStrategy(service.StrategyRequest{Portfolio: req.Portfolio, Type: typ, Plan: plan, Trigger: model.TriggerManual})
	if err != nil {
		s.writeError(c, err)
		return
	}
	status := http.StatusOK
	if run.Created {
		status = http.StatusCreated
	}
	c.JSON(status, run)
}
