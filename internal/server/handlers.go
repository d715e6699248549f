package server

import (
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lox/casinoholdem/analysis"
	"github.com/lox/casinoholdem/internal/game"
	"github.com/lox/casinoholdem/internal/randutil"
	"github.com/lox/casinoholdem/poker"
)

// maxTrials bounds the simulations a single stateless request may ask for.
const maxTrials = 200_000

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })

	r.POST("/evaluate", s.handleEvaluate)
	r.POST("/equity", s.handleEquity)
	r.POST("/outs", s.handleOuts)

	sessions := r.Group("/sessions")
	sessions.POST("", s.handleCreateSession)
	sessions.GET("/:id", s.withSession(s.handleSnapshot))
	sessions.POST("/:id/start", s.withSession(s.handleStart))
	sessions.POST("/:id/call", s.withSession(s.handleCall))
	sessions.POST("/:id/fold", s.withSession(s.handleFold))
	sessions.GET("/:id/probabilities", s.withSession(s.handleProbabilities))
	sessions.POST("/:id/evaluate", s.withSession(s.handleCompare))
	sessions.GET("/:id/ws", s.withSession(s.handleWebSocket))

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"elapsed", time.Since(start))
	}
}

type sessionHandler func(*gin.Context, *game.Session)

func (s *Server) withSession(h sessionHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := s.store.Get(c.Param("id"))
		if err != nil {
			s.writeAPIError(c, err)
			return
		}
		h(c, session)
	}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	session := s.newSession()
	if err := s.store.Add(session); err != nil {
		s.writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusCreated, session.Snapshot())
}

func (s *Server) handleSnapshot(c *gin.Context, session *game.Session) {
	c.JSON(http.StatusOK, session.Snapshot())
}

func (s *Server) handleStart(c *gin.Context, session *game.Session) {
	s.respondAction(c, session, session.Start(c.Request.Context()))
}

func (s *Server) handleCall(c *gin.Context, session *game.Session) {
	s.respondAction(c, session, session.Call(c.Request.Context()))
}

func (s *Server) handleFold(c *gin.Context, session *game.Session) {
	s.respondAction(c, session, session.Fold())
}

func (s *Server) respondAction(c *gin.Context, session *game.Session, err error) {
	// A voided round still changed state that subscribers should see.
	if err == nil || errors.Is(err, poker.ErrEmptyDeck) {
		s.broadcast(session, nil, "")
	}
	if err != nil {
		s.writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// ProbabilitiesResponse reports the running round's odds.
type ProbabilitiesResponse struct {
	Vitoria   float64 `json:"vitoria"`
	Empate    float64 `json:"empate"`
	Derrota   float64 `json:"derrota"`
	PlayerWin float64 `json:"player_win"`
	DealerWin float64 `json:"dealer_win"`
	Hand      string  `json:"hand"`
	Outs      int     `json:"outs"`
}

func (s *Server) handleProbabilities(c *gin.Context, session *game.Session) {
	stats, err := session.Stats()
	if err != nil {
		s.writeAPIError(c, err)
		return
	}
	playerWin := math.Round(stats.Equity.Equity()*100) / 100
	c.JSON(http.StatusOK, ProbabilitiesResponse{
		Vitoria:   stats.Equity.WinPct,
		Empate:    stats.Equity.TiePct,
		Derrota:   stats.Equity.LossPct,
		PlayerWin: playerWin,
		DealerWin: math.Round((1-playerWin)*100) / 100,
		Hand:      stats.Hand,
		Outs:      stats.Outs,
	})
}

func (s *Server) handleCompare(c *gin.Context, session *game.Session) {
	cmp, err := session.Compare()
	if err != nil {
		s.writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, cmp)
}

// EvaluateRequest asks for the rank of a card set.
type EvaluateRequest struct {
	Cards []poker.Card `json:"cards" binding:"required"`
}

// EvaluateResponse is a hand rank.
type EvaluateResponse struct {
	Category string `json:"category"`
	Rank     int    `json:"rank"`
	TieBreak []int  `json:"tie_break"`
}

func (s *Server) handleEvaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeAPIError(c, errInvalidJSON)
		return
	}
	rank, err := poker.EvaluateChecked(req.Cards)
	if err != nil {
		s.writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, EvaluateResponse{
		Category: rank.Category.String(),
		Rank:     int(rank.Category),
		TieBreak: rank.TieBreak,
	})
}

// EquityRequest asks for a Monte Carlo equity estimate.
type EquityRequest struct {
	Hole   []poker.Card `json:"hole"`
	Board  []poker.Card `json:"board"`
	Trials int          `json:"trials"`
	Seed   *int64       `json:"seed"`
}

func (s *Server) handleEquity(c *gin.Context) {
	var req EquityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeAPIError(c, errInvalidJSON)
		return
	}
	if req.Trials == 0 {
		req.Trials = s.rules.Simulations
	}
	if req.Trials < 0 || req.Trials > maxTrials {
		s.writeAPIError(c, errTrialsOutOfRange)
		return
	}

	rng := s.deriveRNG()
	if req.Seed != nil {
		rng = randutil.New(*req.Seed)
	}
	result, err := s.estimator.Estimate(c.Request.Context(), req.Hole, req.Board, req.Trials, rng)
	if err != nil {
		s.writeAPIError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// OutsRequest asks for the outs of a partial hand.
type OutsRequest struct {
	Hole  []poker.Card `json:"hole"`
	Board []poker.Card `json:"board"`
}

// OutsResponse lists the outs.
type OutsResponse struct {
	Count int          `json:"count"`
	Cards []poker.Card `json:"cards"`
}

func (s *Server) handleOuts(c *gin.Context) {
	var req OutsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeAPIError(c, errInvalidJSON)
		return
	}
	if len(req.Hole) > 2 || len(req.Board) > 5 {
		s.writeAPIError(c, poker.ErrInvalidCardSet)
		return
	}
	if err := poker.CheckCards(append(append([]poker.Card{}, req.Hole...), req.Board...)); err != nil {
		s.writeAPIError(c, err)
		return
	}

	outs := analysis.Outs(req.Hole, req.Board)
	if outs == nil {
		outs = []poker.Card{}
	}
	c.JSON(http.StatusOK, OutsResponse{Count: len(outs), Cards: outs})
}

var (
	errInvalidJSON      = errors.New("invalid json")
	errTrialsOutOfRange = errors.New("trials out of range")
)

// errorCode maps an error to its HTTP status and API error code.
func errorCode(err error) (int, string) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, "session_not_found"
	case errors.Is(err, ErrTooManySessions):
		return http.StatusServiceUnavailable, "too_many_sessions"
	case errors.Is(err, errInvalidJSON):
		return http.StatusBadRequest, "invalid_json"
	case errors.Is(err, errTrialsOutOfRange):
		return http.StatusBadRequest, "invalid_trials"
	case errors.Is(err, poker.ErrInvalidCardSet):
		return http.StatusBadRequest, "invalid_cards"
	case errors.Is(err, game.ErrInsufficientChips):
		return http.StatusConflict, "insufficient_chips"
	case errors.Is(err, game.ErrInvalidAction):
		return http.StatusConflict, "invalid_action"
	case errors.Is(err, game.ErrNoRound):
		return http.StatusConflict, "no_round"
	case errors.Is(err, poker.ErrEmptyDeck):
		return http.StatusConflict, "round_voided"
	}
	return http.StatusInternalServerError, "internal"
}

func (s *Server) writeAPIError(c *gin.Context, err error) {
	status, code := errorCode(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, ErrorData{Code: code, Message: "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, ErrorData{Code: code, Message: err.Error()})
}
