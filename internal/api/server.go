// Package api serves portfolio operations over HTTP.
package api

import (
	"io"
	"net/http"
	"time"

	"PortfolioLedger/internal/model"
	"PortfolioLedger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

// Portfolios is the service surface exposed over HTTP.
type Portfolios interface {
	Portfolios() ([]string, error)
	CreatePortfolio(typ model.PortfolioType, orders []service.Order) (string, error)
	Import(typ model.PortfolioType, r io.Reader) (string, error)
	Trade(name string, o service.Order) (model.Transaction, error)
	Composition(name string) (map[string]model.Position, error)
	Value(name string, date time.Time) (*service.Valuation, error)
	CostBasis(name string, date time.Time) (float64, error)
	Performance(name string, start, end time.Time) (*model.PerformanceResult, error)
	ApplyStrategy(req service.StrategyRequest) (*model.StrategyRun, error)
}

// Server routes requests to a Portfolios service.
type Server struct {
	router  *gin.Engine
	svc     Portfolios
	origins []string
	log     zerolog.Logger
	now     func() time.Time
}

// NewServer builds the router. An empty origins list allows any origin.
func NewServer(svc Portfolios, origins []string, log zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		router:  gin.New(),
		svc:     svc,
		origins: origins,
		log:     log.With().Str("component", "api").Logger(),
		now:     time.Now,
	}
	s.router.Use(Logger(s.log))
	s.router.Use(ErrorHandler(s.log))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api/v1")
	{
		api.GET("/portfolios", s.listPortfolios)
		api.POST("/portfolios", s.createPortfolio)
		api.POST("/portfolios/import", s.importPortfolio)
		api.GET("/portfolios/:name/composition", s.composition)
		api.GET("/portfolios/:name/value", s.value)
		api.GET("/portfolios/:name/cost-basis", s.costBasis)
		api.GET("/portfolios/:name/performance", s.performance)
		api.POST("/portfolios/:name/transactions", s.trade)
		api.POST("/strategies/dca", s.applyDCA)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: ErrorDetail{Code: "NOT_FOUND", Message: "Not found"}})
	})
}

// Handler returns the router wrapped with CORS handling.
func (s *Server) Handler() http.Handler {
	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}).Handler(s.router)
}
