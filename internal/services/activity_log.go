package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"RPG-CARDS/internal/ctxlog"
	"RPG-CARDS/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxLoggedBody = 10000

type ActivityLogService struct {
	db *gorm.DB
}

func NewActivityLogService(db *gorm.DB) *ActivityLogService {
	return &ActivityLogService{db: db}
}

// BuildLog turns a finished request into an activity log row.
func (s *ActivityLogService) BuildLog(c *gin.Context, statusCode int, responseTime time.Duration) *models.ActivityLog {
	clientIP := c.ClientIP()
	if clientIP == "" {
		clientIP = c.Request.RemoteAddr
	}

	queryParams := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			queryParams[key] = values[0]
		}
	}
	queryParamsJSON, _ := json.Marshal(queryParams)

	var requestBody string
	if body, exists := c.Get("request_body"); exists {
		if bodyStr, ok := body.(string); ok {
			requestBody = bodyStr
		}
	}

	now := time.Now()
	return &models.ActivityLog{
		ID:           uuid.New().String(),
		SessionID:    c.Param("sessionId"),
		Method:       c.Request.Method,
		Path:         c.Request.URL.Path,
		Route:        c.FullPath(),
		UserAgent:    c.Request.UserAgent(),
		IPAddress:    clientIP,
		RequestBody:  requestBody,
		QueryParams:  string(queryParamsJSON),
		StatusCode:   statusCode,
		ResponseTime: responseTime.Milliseconds(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *ActivityLogService) save(ctx context.Context, activityLog *models.ActivityLog) {
	// Save to database (don't block the request if this fails)
	go func() {
		if err := s.db.Create(activityLog).Error; err != nil {
			ctxlog.FromContext(ctx).Error("failed to save activity log", "error", err)
		}
	}()
}

func (s *ActivityLogService) GetAllLogs(limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(s.db, limit, offset)
}

func (s *ActivityLogService) GetLogsByMethod(method string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(s.db.Where("method = ?", strings.ToUpper(method)), limit, offset)
}

func (s *ActivityLogService) GetLogsBySession(sessionID string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(s.db.Where("session_id = ?", sessionID), limit, offset)
}

func (s *ActivityLogService) GetLogsByRoute(route string, limit int, offset int) ([]models.ActivityLog, int64, error) {
	return s.find(s.db.Where("route = ?", route), limit, offset)
}

func (s *ActivityLogService) find(query *gorm.DB, limit int, offset int) ([]models.ActivityLog, int64, error) {
	var logs []models.ActivityLog
	var total int64

	if err := query.Model(&models.ActivityLog{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count logs: %w", err)
	}

	// most recent first
	query = query.Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch logs: %w", err)
	}

	return logs, total, nil
}

// LoggingMiddleware logs every request through slog and, when a database is
// configured, stores it as an activity log.
func (s *ActivityLogService) LoggingMiddleware(base context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := ctxlog.FromContext(base)
		c.Request = c.Request.WithContext(ctxlog.WithLogger(c.Request.Context(), logger))

		if c.Request.Method != "GET" && c.Request.Body != nil {
			bodyBytes, err := io.ReadAll(c.Request.Body)
			if err == nil {
				// Restore the body for other handlers
				c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
				if len(bodyBytes) > maxLoggedBody {
					c.Set("request_body", fmt.Sprintf("[Large body: %d bytes] %s...", len(bodyBytes), string(bodyBytes[:100])))
				} else if len(bodyBytes) > 0 {
					c.Set("request_body", string(bodyBytes))
				}
			}
		}

		c.Next()

		duration := time.Since(start)
		logger.Info("request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", duration.Milliseconds(),
			"session_id", c.Param("sessionId"),
		)

		if s != nil && s.db != nil {
			s.save(base, s.BuildLog(c, c.Writer.Status(), duration))
		}
	}
}
