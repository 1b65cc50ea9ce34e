// Package api serves the results HTTP surface: launching analyses, polling
// their progress, streaming stage events over websocket, and downloading the
// emitted artifacts.
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/causalab/semdag-engine/internal/config"
)

type Handler struct {
	runs *RunManager
	hub  *Hub
	log  *zap.Logger
}

// SetupRouter wires the middleware stack and all routes. Run submission sits
// behind auth plus a low rate limit; reads are open.
func SetupRouter(runs *RunManager, hub *Hub, log *zap.Logger) *gin.Engine {
	r := gin.Default()

	// CORS, configurable via ALLOWED_ORIGINS (comma-separated; empty means *).
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &Handler{runs: runs, hub: hub, log: log}
	limiter := NewRateLimiter(10, 3)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", handler.handleHealth)
		v1.GET("/stream", hub.Subscribe)
		v1.GET("/runs", handler.handleListRuns)
		v1.GET("/runs/:id", handler.handleGetRun)
		v1.GET("/runs/:id/artifacts", handler.handleListArtifacts)
		v1.GET("/runs/:id/artifacts/:name", handler.handleGetArtifact)
		v1.GET("/configs", handler.handleListConfigs)

		v1.POST("/run", AuthMiddleware(log), limiter.Middleware(), handler.handleStartRun)
	}

	return r
}

func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "semdag-engine",
		"capabilities": gin.H{
			"k_hop_expansion":  true,
			"markov_blanket":   true,
			"evidence_dossier": true,
			"dagitty_scripts":  true,
		},
	})
}

// handleListConfigs returns the predefined exposure-outcome pairs.
func (h *Handler) handleListConfigs(c *gin.Context) {
	names := make([]string, 0, len(config.Predefined))
	for name := range config.Predefined {
		names = append(names, name)
	}
	sort.Strings(names)

	configs := make([]gin.H, 0, len(names))
	for _, name := range names {
		cfg := config.Predefined[name]
		configs = append(configs, gin.H{
			"name":         name,
			"description":  cfg.Description,
			"exposureCuis": cfg.ExposureCUIs,
			"outcomeCuis":  cfg.OutcomeCUIs,
		})
	}
	c.JSON(http.StatusOK, gin.H{"configs": configs})
}

// handleStartRun launches an analysis for a predefined configuration.
// POST /api/v1/run {"config": "depression_alzheimers", "degree": 3, ...}
func (h *Handler) handleStartRun(c *gin.Context) {
	var req struct {
		Config        string   `json:"config"`
		Predicates    []string `json:"predicates"`
		Degree        int      `json:"degree"`
		Threshold     int      `json:"threshold"`
		MarkovBlanket bool     `json:"markovBlanket"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Degree == 0 {
		req.Degree = 3
	}
	if req.Threshold == 0 {
		req.Threshold = 50
	}

	cfg, err := config.FromPredefined(req.Config, req.Predicates, req.Degree, req.Threshold)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID, err := h.runs.Launch(cfg, req.MarkovBlanket)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"runId":  runID,
		"status": runStatusRunning,
		"config": cfg.Name,
	})
}

func (h *Handler) handleGetRun(c *gin.Context) {
	state, ok := h.runs.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown run id"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *Handler) handleListRuns(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"runs": h.runs.List()})
}

func (h *Handler) handleListArtifacts(c *gin.Context) {
	runID := c.Param("id")
	if _, ok := h.runs.Get(runID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown run id"})
		return
	}

	entries, err := os.ReadDir(h.runs.RunDir(runID))
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"artifacts": []string{}})
		return
	}
	artifacts := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			artifacts = append(artifacts, e.Name())
		}
	}
	sort.Strings(artifacts)
	c.JSON(http.StatusOK, gin.H{"artifacts": artifacts})
}

func (h *Handler) handleGetArtifact(c *gin.Context) {
	runID := c.Param("id")
	if _, ok := h.runs.Get(runID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown run id"})
		return
	}

	// Base() strips any path traversal from the artifact name.
	name := filepath.Base(c.Param("name"))
	path := filepath.Join(h.runs.RunDir(runID), name)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown artifact"})
		return
	}
	c.File(path)
}
