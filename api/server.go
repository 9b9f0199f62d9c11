// Package api serves stored accuracy runs over a small read-only HTTP API.
package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stellarlinkco/qslib/internal/store"
)

// Server is the read-only results API.
type Server struct {
	router *gin.Engine
	store  store.Store
}

// NewServer wires routes over the given run store. apiKey, when non-empty,
// guards every /api route via the X-API-Key header.
func NewServer(st store.Store, apiKey string) (*Server, error) {
	if st == nil {
		return nil, errors.New("api: nil store")
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	s := &Server{router: r, store: st}

	grp := r.Group("/api")
	if key := strings.TrimSpace(apiKey); key != "" {
		grp.Use(apiKeyAuthMiddleware(key))
	}
	grp.GET("/health", s.handleHealth)
	grp.GET("/runs", s.handleListRuns)
	grp.GET("/runs/:id", s.handleGetRun)

	return s, nil
}

// Run serves until the listener fails.
func (s *Server) Run(addr string) error {
	if s == nil || s.router == nil {
		return errors.New("api: nil server")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = ":8080"
	}
	return s.router.Run(addr)
}
