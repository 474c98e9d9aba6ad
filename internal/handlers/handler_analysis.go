package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/finpulse/fin_health_app/internal/apperrors"
	"github.com/finpulse/fin_health_app/internal/core/domain"
	portssvc "github.com/finpulse/fin_health_app/internal/core/ports/services"
	"github.com/finpulse/fin_health_app/internal/dto"
	"github.com/finpulse/fin_health_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// analysisHandler handles HTTP requests for scoring runs and their results.
type analysisHandler struct {
	scoringService portssvc.ScoringSvcFacade
}

func newAnalysisHandler(ss portssvc.ScoringSvcFacade) *analysisHandler {
	return &analysisHandler{scoringService: ss}
}

// RegisterAnalysisRoutes registers routes related to scoring runs, score history
// and anomalies.
func RegisterAnalysisRoutes(rg *gin.RouterGroup, scoringService portssvc.ScoringSvcFacade) {
	h := newAnalysisHandler(scoringService)

	companies := rg.Group("/companies/:company_id")
	{
		companies.POST("/analysis", h.analyzeCompany)
		companies.GET("/health-scores/latest", h.getLatestHealthScore)
		companies.GET("/health-scores", h.listHealthScores)
		companies.GET("/anomalies", h.listAnomalies)
	}
	rg.PATCH("/anomalies/:anomaly_id/resolve", h.resolveAnomaly)
}

func (h *analysisHandler) analyzeCompany(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var req dto.AnalyzeCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AnalyzeCompany", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("company_id", companyID))
	logger.Info("Received request to analyze company period", slog.Int("transaction_count", len(req.Transactions)))

	result, err := h.scoringService.AnalyzeCompanyPeriod(c.Request.Context(), req.ToAnalysisRequest(companyID, callerID, time.Now().UTC()))
	if err != nil {
		var missingInput *apperrors.MissingInputError
		var invalidAggregate *apperrors.InvalidAggregateError
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Company not found for analysis")
			c.JSON(http.StatusNotFound, gin.H{"error": "Company not found"})
		case errors.As(err, &missingInput), errors.Is(err, apperrors.ErrMissingInput):
			logger.Warn("Analysis rejected for missing input", slog.String("error", err.Error()))
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.As(err, &invalidAggregate), errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Analysis rejected for invalid input", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to analyze company period", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze company period"})
		}
		return
	}

	logger.Info("Analysis completed",
		slog.String("score_id", result.HealthScore.ScoreID),
		slog.String("risk_level", string(result.HealthScore.RiskLevel)),
	)
	c.JSON(http.StatusCreated, dto.ToAnalysisResponse(result))
}

func (h *analysisHandler) getLatestHealthScore(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	score, err := h.scoringService.GetLatestHealthScore(c.Request.Context(), companyID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("No health score found", slog.String("company_id", companyID))
			c.JSON(http.StatusNotFound, gin.H{"error": "No health score found for company"})
		} else {
			logger.Error("Failed to get latest health score", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve health score"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToHealthScoreResponse(score))
}

func (h *analysisHandler) listHealthScores(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var params dto.ListScoresParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	scores, err := h.scoringService.ListHealthScores(c.Request.Context(), companyID, params.Limit, params.Offset)
	if err != nil {
		logger.Error("Failed to list health scores", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list health scores"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListHealthScoreResponse(scores))
}

func (h *analysisHandler) listAnomalies(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("company_id")

	var params dto.ListAnomaliesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters: " + err.Error()})
		return
	}

	filter := portssvc.AnomalyFilter{
		UnresolvedOnly: params.UnresolvedOnly,
		Limit:          params.Limit,
		Offset:         params.Offset,
	}
	if params.Severity != nil {
		severity := domain.Severity(*params.Severity)
		filter.Severity = &severity
	}

	anomalies, err := h.scoringService.ListAnomalies(c.Request.Context(), companyID, filter)
	if err != nil {
		logger.Error("Failed to list anomalies", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list anomalies"})
		return
	}

	c.JSON(http.StatusOK, dto.ToListAnomalyResponse(anomalies))
}

func (h *analysisHandler) resolveAnomaly(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	anomalyID := c.Param("anomaly_id")

	var req dto.ResolveAnomalyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ResolveAnomaly", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	callerID, ok := middleware.GetCallerIDFromCtx(c.Request.Context())
	if !ok {
		logger.Error("Caller ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	anomaly, err := h.scoringService.ResolveAnomaly(c.Request.Context(), anomalyID, req.Notes, callerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Anomaly not found", slog.String("anomaly_id", anomalyID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Anomaly not found"})
		} else if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Anomaly already resolved", slog.String("anomaly_id", anomalyID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to resolve anomaly", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve anomaly"})
		}
		return
	}

	logger.Info("Anomaly resolved", slog.String("anomaly_id", anomalyID))
	c.JSON(http.StatusOK, dto.ToAnomalyResponse(anomaly))
}
