// Package server answers the Battlesnake HTTP API.
//
// Every /move builds a fresh grid from the request, drops the neck and unsafe
// directions and picks one of the rest at random. When a store is attached the
// game, each decision and the result are recorded; store failures are logged
// and never change the response.
package server

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/brensch/snekgrid/api"
	"github.com/brensch/snekgrid/config"
	"github.com/brensch/snekgrid/game"
	"github.com/brensch/snekgrid/rules"
	"github.com/brensch/snekgrid/store"
	"github.com/gin-gonic/gin"
)

const (
	apiVersion = "1"
	version    = "1.0.0"
)

// Server holds the per-process state shared by all handlers.
type Server struct {
	cfg    config.Config
	logger *slog.Logger
	db     *store.DB

	mu  sync.Mutex
	rng *rand.Rand
}

// New returns a Server. db may be nil to disable history.
func New(cfg config.Config, logger *slog.Logger, db *store.DB) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Server{
		cfg:    cfg,
		logger: logger,
		db:     db,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// Router returns the gin engine serving the API.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger(), serverHeader())

	router.GET("/", s.handleIndex)
	router.POST("/start", s.handleStart)
	router.POST("/move", s.handleMove)
	router.POST("/end", s.handleEnd)
	router.GET("/stats", s.handleStats)
	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func serverHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Server", "snekgrid/"+version)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"elapsed", time.Since(start),
		)
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.JSON(http.StatusOK, api.InfoResponse{
		APIVersion: apiVersion,
		Author:     s.cfg.Author,
		Color:      s.cfg.Color,
		Head:       s.cfg.Head,
		Tail:       s.cfg.Tail,
		Version:    version,
	})
}

func (s *Server) handleStart(c *gin.Context) {
	var req api.GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.logger.Info("game started", "game", req.Game.ID, "ruleset", req.Game.Ruleset.Name,
		"width", req.Board.Width, "height", req.Board.Height, "you", req.You.Name)

	if s.db != nil {
		err := s.db.StartGame(store.Game{
			ID:      req.Game.ID,
			Ruleset: req.Game.Ruleset.Name,
			Width:   req.Board.Width,
			Height:  req.Board.Height,
			YouID:   req.You.ID,
		})
		if err != nil {
			s.logger.Warn("record game start failed", "game", req.Game.ID, "err", err)
		}
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleMove(c *gin.Context) {
	start := time.Now()

	var req api.GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	decision, err := rules.Decide(&req, s.rng)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("rejecting move request", "game", req.Game.ID, "turn", req.Turn, "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if s.cfg.RenderTurns {
		s.logger.Debug("board", "game", req.Game.ID, "turn", req.Turn, "grid", decision.Grid.String())
	}

	elapsed := time.Since(start)
	safe := directionNames(decision.Safe)
	s.logger.Info("move",
		"game", req.Game.ID,
		"turn", req.Turn,
		"move", decision.Move.String(),
		"safe", safe,
		"health", req.You.Health,
		"elapsed", elapsed,
	)
	if s.cfg.MoveTimeout > 0 && elapsed > s.cfg.MoveTimeout {
		s.logger.Warn("slow move", "game", req.Game.ID, "turn", req.Turn, "elapsed", elapsed, "budget", s.cfg.MoveTimeout)
	}

	if s.db != nil {
		err := s.db.RecordTurn(store.Turn{
			GameID:    req.Game.ID,
			Turn:      req.Turn,
			YouID:     req.You.ID,
			Health:    req.You.Health,
			Length:    req.You.Length,
			Move:      decision.Move.String(),
			SafeMoves: safe,
			Board:     req.Board,
			Elapsed:   elapsed,
		})
		if err != nil {
			s.logger.Warn("record turn failed", "game", req.Game.ID, "turn", req.Turn, "err", err)
		}
	}

	resp := api.MoveResponse{Move: decision.Move.String()}
	if len(decision.Safe) == 0 {
		resp.Shout = "no way out"
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEnd(c *gin.Context) {
	var req api.GameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result := Result(&req)
	s.logger.Info("game ended", "game", req.Game.ID, "turn", req.Turn, "result", result)

	if s.db != nil {
		if err := s.db.FinishGame(req.Game.ID, result, time.Now()); err != nil {
			s.logger.Warn("record game end failed", "game", req.Game.ID, "err", err)
		}
	}
	c.Status(http.StatusOK)
}

func (s *Server) handleStats(c *gin.Context) {
	if s.db == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history disabled"})
		return
	}
	games, finished, wins, turns, err := s.db.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"games":    games,
		"finished": finished,
		"wins":     wins,
		"turns":    turns,
	})
}

// Result classifies a finished game from the final /end board.
func Result(req *api.GameRequest) string {
	if req.Board.SnakeByID(req.You.ID) != nil {
		return "won"
	}
	if len(req.Board.Snakes) == 0 {
		return "draw"
	}
	return "lost"
}

func directionNames(dirs []game.Direction) []string {
	names := make([]string, len(dirs))
	for i, d := range dirs {
		names[i] = d.String()
	}
	return names
}
