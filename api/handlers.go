package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/qslib/internal/store"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListRuns(c *gin.Context) {
	filter := store.RunFilter{
		Dataset: strings.TrimSpace(c.Query("dataset")),
		System:  strings.TrimSpace(c.Query("system")),
	}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		if n > 100 {
			n = 100
		}
		filter.Limit = n
	}

	runs, err := s.store.ListRuns(c.Request.Context(), filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, err)
		return
	}

	out := make([]runPayload, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRunPayload(r))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetRun(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondError(c, http.StatusBadRequest, errors.New("missing run id"))
		return
	}

	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			respondError(c, http.StatusNotFound, err)
			return
		}
		respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, toRunPayload(run))
}

type runPayload struct {
	ID                 string    `json:"id"`
	Dataset            string    `json:"dataset"`
	System             string    `json:"system"`
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	TotalSamples       int       `json:"total_samples"`
	PerformanceSamples int       `json:"performance_samples"`
	Observations       int       `json:"observations"`
	Failures           int       `json:"failures"`
	Metric             float64   `json:"metric"`
	Formatted          string    `json:"formatted"`
}

func toRunPayload(r *store.RunRecord) runPayload {
	if r == nil {
		return runPayload{}
	}
	return runPayload{
		ID:                 r.ID,
		Dataset:            r.Dataset,
		System:             r.System,
		StartedAt:          r.StartedAt,
		FinishedAt:         r.FinishedAt,
		TotalSamples:       r.TotalSamples,
		PerformanceSamples: r.PerformanceSamples,
		Observations:       r.Observations,
		Failures:           r.Failures,
		Metric:             r.Metric,
		Formatted:          r.Formatted,
	}
}

func respondError(c *gin.Context, status int, err error) {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func apiKeyAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if provided == "" || provided != expected {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
