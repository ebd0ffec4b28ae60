package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"netxlate/internal/core"
	"netxlate/internal/metrics"
	"netxlate/internal/session"

	"github.com/gin-gonic/gin"
)

// actionResponse is the body of every translate, explain and test-plan reply.
type actionResponse struct {
	Outcome string      `json:"outcome"`
	Text    string      `json:"text,omitempty"`
	Error   *core.Error `json:"error,omitempty"`
}

type osVariant struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type vendorInfo struct {
	Name   string      `json:"name"`
	Family string      `json:"family"`
	OS     []osVariant `json:"os"`
}

// statusFor maps an action outcome to its HTTP status.
func statusFor(result core.ActionResult) int {
	switch result.Outcome {
	case core.OutcomeBusy:
		return http.StatusConflict
	case core.OutcomeFailure:
		switch result.Kind() {
		case core.KindInput, core.KindModelConfig:
			return http.StatusBadRequest
		case core.KindBlockedContent:
			return http.StatusUnprocessableEntity
		default:
			return http.StatusBadGateway
		}
	default:
		return http.StatusOK
	}
}

func respondWithResult(c *gin.Context, result core.ActionResult) {
	c.JSON(statusFor(result), actionResponse{
		Outcome: result.Outcome.String(),
		Text:    result.Text,
		Error:   result.Err,
	})
}

func respondWithInputError(c *gin.Context, err error) {
	respondWithResult(c, core.Failure(core.ErrInputf("invalid request body: %v", err)))
}

// bindOptionalJSON binds a JSON body into v; an empty body leaves v unchanged.
func bindOptionalJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) lookupSession(c *gin.Context) (*session.Session, bool) {
	sess, ok := s.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return sess, true
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "version": core.Version})
}

func (s *Server) createSession(c *gin.Context) {
	sess, err := s.sessions.create()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	s.logger.Debug("Created session %s", sess.ID())
	c.JSON(http.StatusCreated, gin.H{"id": sess.ID()})
}

func (s *Server) getSession(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (s *Server) deleteSession(c *gin.Context) {
	if !s.sessions.delete(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) translate(c *gin.Context) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}
	var req core.TranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithInputError(c, err)
		return
	}
	respondWithResult(c, sess.Translate(c.Request.Context(), req))
}

func (s *Server) explain(c *gin.Context) {
	s.followOn(c, (*session.Session).Explain)
}

func (s *Server) testPlan(c *gin.Context) {
	s.followOn(c, (*session.Session).TestPlan)
}

func (s *Server) followOn(c *gin.Context, action func(*session.Session, context.Context, session.FollowOn) core.ActionResult) {
	sess, ok := s.lookupSession(c)
	if !ok {
		return
	}
	var req session.FollowOn
	if err := bindOptionalJSON(c, &req); err != nil {
		respondWithInputError(c, err)
		return
	}
	respondWithResult(c, action(sess, c.Request.Context(), req))
}

func (s *Server) listModels(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.ModelList())
}

func (s *Server) osVariants(vendor string) []osVariant {
	codes := s.catalog.OSVariantsFor(vendor)
	out := make([]osVariant, len(codes))
	for i, code := range codes {
		out[i] = osVariant{Code: code, Name: s.catalog.DisplayName(code)}
	}
	return out
}

func (s *Server) listVendors(c *gin.Context) {
	names := s.catalog.Vendors()
	data := make([]vendorInfo, 0, len(names))
	for _, name := range names {
		data = append(data, vendorInfo{
			Name:   name,
			Family: s.catalog.FamilyOf(name),
			OS:     s.osVariants(name),
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// listOSVariants returns the OS choices for ?vendor=, or all of them when absent or unknown.
func (s *Server) listOSVariants(c *gin.Context) {
	vendor := c.Query("vendor")
	c.JSON(http.StatusOK, gin.H{"vendor": vendor, "data": s.osVariants(vendor)})
}

func (s *Server) checkUpdate(c *gin.Context) {
	c.JSON(http.StatusOK, s.updates.Check(c.Request.Context()))
}

func (s *Server) getStatsData(c *gin.Context) {
	stats := s.metricsService.Snapshot()
	periodStats := metrics.PeriodStats(stats.RequestHistory, 24, 24*7, 24*30)

	c.JSON(http.StatusOK, gin.H{
		"currentTime":    time.Now().Format(core.TimeFormatDateTime),
		"currentQPS":     fmt.Sprintf("%.3f", s.metricsService.GetQPS()),
		"totalRequests":  stats.TotalRequests,
		"successful":     stats.SuccessfulRequests,
		"failed":         stats.FailedRequests,
		"totalRecords":   len(stats.RequestHistory),
		"stats24h":       periodStats[24],
		"stats7d":        periodStats[24*7],
		"stats30d":       periodStats[24*30],
		"activeSessions": s.sessions.len(),
		"defaultModel":   s.registry.Default(),
		"modelsDegraded": s.registry.Degraded(),
	})
}
