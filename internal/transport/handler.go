package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/clothing-inspector-go/internal/analyzer"
	"github.com/anime-shed/clothing-inspector-go/internal/config"
	apperrors "github.com/anime-shed/clothing-inspector-go/internal/errors"
	"github.com/anime-shed/clothing-inspector-go/internal/logger"
	"github.com/anime-shed/clothing-inspector-go/internal/observer"
	"github.com/anime-shed/clothing-inspector-go/internal/service"
	"github.com/anime-shed/clothing-inspector-go/pkg/models"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// RequestIDHeader carries the per-request correlation ID
const RequestIDHeader = "X-Request-ID"

const uploadField = "file"

// MetricsSource exposes the analysis counters served at /stats
type MetricsSource interface {
	GetMetrics() observer.Metrics
}

// PoolStatsSource exposes worker pool statistics served at /stats
type PoolStatsSource interface {
	Stats() analyzer.PoolStats
}

// StatsResponse is returned by the stats endpoint
type StatsResponse struct {
	Analysis   *observer.Metrics   `json:"analysis,omitempty"`
	WorkerPool *analyzer.PoolStats `json:"worker_pool,omitempty"`
}

// NewHandler builds the gin engine. metrics and pool may be nil.
func NewHandler(svc service.ClothingAnalysisService, metrics MetricsSource, pool PoolStatsSource, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		corsPolicy(),
		requestID(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.POST("/analyze", analyzeUpload(svc, cfg))
	r.POST("/analyze/url", analyzeURL(svc, cfg))
	r.GET("/stats", stats(metrics, pool))

	return r
}

func analyzeUpload(svc service.ClothingAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		fileHeader, err := c.FormFile(uploadField)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				respondError(c, http.StatusRequestEntityTooLarge, "request body too large", err)
				return
			}
			respondError(c, http.StatusBadRequest, "invalid request format",
				apperrors.NewValidationError("A file field named \"file\" is required", err))
			return
		}

		contentType := fileHeader.Header.Get("Content-Type")
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format",
				apperrors.NewValidationError("Could not read uploaded file", err))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format",
				apperrors.NewValidationError("Could not read uploaded file", err))
			return
		}

		logger.WithFields(logrus.Fields{
			"request_id":   service.RequestIDFromContext(ctx),
			"filename":     fileHeader.Filename,
			"content_type": contentType,
			"size_bytes":   len(data),
		}).Debug("Received upload")

		resp, err := svc.AnalyzeUpload(ctx, contentType, data)
		if err != nil {
			respondError(c, determineStatusCode(err), "analysis failed", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func analyzeURL(svc service.ClothingAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.URLAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		resp, err := svc.AnalyzeURL(ctx, req.URL)
		if err != nil {
			respondError(c, determineStatusCode(err), "analysis failed", err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Message: "Clothing Attribute Detection API is running",
		Version: Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

func stats(metrics MetricsSource, pool PoolStatsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		var resp StatsResponse
		if metrics != nil {
			m := metrics.GetMetrics()
			resp.Analysis = &m
		}
		if pool != nil {
			p := pool.Stats()
			resp.WorkerPool = &p
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Middleware and helper functions

// corsPolicy allows every origin with credentials by echoing the request
// origin back
func corsPolicy() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(service.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id":         c.GetString("request_id"),
			"method":             c.Request.Method,
			"path":               c.Request.URL.Path,
			"status":             c.Writer.Status(),
			"ip":                 c.ClientIP(),
			"processing_time_ms": time.Since(start).Milliseconds(),
		}).Info("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			respondError(c, http.StatusRequestEntityTooLarge, "request body too large",
				fmt.Errorf("content length %d exceeds limit of %d bytes", c.Request.ContentLength, maxBytes))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	fields := logrus.Fields{
		"request_id":  c.GetString("request_id"),
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}
	entry := logger.WithError(err).WithFields(fields)
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	detail := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		detail = appErr.Message
		if appErr.Details != "" {
			detail = fmt.Sprintf("%s: %s", appErr.Message, appErr.Details)
		}
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: detail,
	})
}
