package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"printq/internal/queue"
)

func (s *Server) handleHealth(c *gin.Context) {
	if s.pinger != nil {
		if err := s.pinger.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Detail: err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleEnqueue(c *gin.Context) {
	var req EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("%w: decode body: %v", queue.ErrInvalidArgument, err))
		return
	}
	entry, err := s.svc.Enqueue(c.Request.Context(), req.JobRef)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, FromEntry(entry))
}

func (s *Server) handleList(c *gin.Context) {
	statuses, err := parseStatuses(c.QueryArray("status"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	entries, err := s.svc.List(c.Request.Context(), statuses...)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, EntryListResponse{Entries: FromEntries(entries)})
}

func (s *Server) handleActive(c *gin.Context) {
	entries, err := s.svc.Active(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, EntryListResponse{Entries: FromEntries(entries)})
}

func (s *Server) handleGet(c *gin.Context) {
	entry, err := s.svc.Get(c.Request.Context(), c.Param("jobRef"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, FromEntry(entry))
}

func (s *Server) handleTransition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, fmt.Errorf("%w: decode body: %v", queue.ErrInvalidArgument, err))
		return
	}
	next, ok := queue.ParseStatus(req.Status)
	if !ok {
		s.writeError(c, fmt.Errorf("%w: unknown status %q", queue.ErrInvalidArgument, req.Status))
		return
	}

	jobRef := c.Param("jobRef")
	var (
		entry queue.Entry
		err   error
	)
	if strings.TrimSpace(req.Expected) != "" {
		expected, ok := queue.ParseStatus(req.Expected)
		if !ok {
			s.writeError(c, fmt.Errorf("%w: unknown expected status %q", queue.ErrInvalidArgument, req.Expected))
			return
		}
		entry, err = s.svc.TransitionFrom(c.Request.Context(), jobRef, expected, next)
	} else {
		entry, err = s.svc.Transition(c.Request.Context(), jobRef, next)
	}
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, FromEntry(entry))
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.svc.Stats(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, FromStats(stats))
}

func (s *Server) handlePurge(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("before"))
	if raw == "" {
		s.writeError(c, fmt.Errorf("%w: before is required", queue.ErrInvalidArgument))
		return
	}
	before, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.writeError(c, fmt.Errorf("%w: before: %v", queue.ErrInvalidArgument, err))
		return
	}
	removed, err := s.svc.Purge(c.Request.Context(), before)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PurgeResponse{Removed: removed})
}

func parseStatuses(values []string) ([]queue.Status, error) {
	var statuses []queue.Status
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			status, ok := queue.ParseStatus(trimmed)
			if !ok {
				return nil, fmt.Errorf("%w: unknown status %q", queue.ErrInvalidArgument, trimmed)
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}
