package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"RPG-CARDS/internal/models"
	"RPG-CARDS/internal/services"

	"github.com/gin-gonic/gin"
)

// Routes whose request bodies make up the data history.
var historyRoutes = []string{
	"/api/v1/sessions/:sessionId/paste",
	"/api/v1/sessions/:sessionId/rows",
	"/api/v1/sessions/:sessionId/template",
	"/api/v1/sessions/:sessionId/form",
}

type LogsHandler struct {
	activityLogService *services.ActivityLogService
}

func NewLogsHandler(activityLogService *services.ActivityLogService) *LogsHandler {
	return &LogsHandler{
		activityLogService: activityLogService,
	}
}

type LogsResponse struct {
	Logs       []models.ActivityLog `json:"logs"`
	Total      int64                `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"total_pages"`
}

// Pagination parses limit and page query parameters, clamping limit to
// 1..1000 and defaulting to 50 per page.
func Pagination(c *gin.Context) (limit, page, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}

	page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page <= 0 {
		page = 1
	}

	return limit, page, (page - 1) * limit
}

func (h *LogsHandler) available(c *gin.Context) bool {
	if h.activityLogService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Activity log is not configured"})
		return false
	}
	return true
}

// GetAllLogs returns activity logs with pagination, optionally filtered by
// method or session.
func (h *LogsHandler) GetAllLogs(c *gin.Context) {
	if !h.available(c) {
		return
	}

	limit, page, offset := Pagination(c)
	method := c.Query("method")
	sessionID := c.Query("session")

	var logs []models.ActivityLog
	var total int64
	var err error

	switch {
	case method != "":
		logs, total, err = h.activityLogService.GetLogsByMethod(method, limit, offset)
	case sessionID != "":
		logs, total, err = h.activityLogService.GetLogsBySession(sessionID, limit, offset)
	default:
		logs, total, err = h.activityLogService.GetAllLogs(limit, offset)
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, LogsResponse{
		Logs:       logs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	})
}

// GetLogStats returns request counts by method, route and status.
func (h *LogsHandler) GetLogStats(c *gin.Context) {
	if !h.available(c) {
		return
	}

	logs, total, err := h.activityLogService.GetAllLogs(0, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch log stats"})
		return
	}

	c.JSON(http.StatusOK, summarize(logs, total))
}

func summarize(logs []models.ActivityLog, total int64) gin.H {
	methodCounts := make(map[string]int)
	routeCounts := make(map[string]int)
	statusCounts := make(map[int]int)
	sessions := make(map[string]bool)

	for _, log := range logs {
		methodCounts[log.Method]++
		routeCounts[log.Route]++
		statusCounts[log.StatusCode]++
		if log.SessionID != "" {
			sessions[log.SessionID] = true
		}
	}

	return gin.H{
		"total_requests": total,
		"sessions":       len(sessions),
		"methods":        methodCounts,
		"routes":         routeCounts,
		"status_codes":   statusCounts,
	}
}

// GetHistory returns the data users sent to the editing routes.
func (h *LogsHandler) GetHistory(c *gin.Context) {
	if !h.available(c) {
		return
	}

	limit, _, _ := Pagination(c)
	history := make([]gin.H, 0)
	for _, route := range historyRoutes {
		logs, _, err := h.activityLogService.GetLogsByRoute(route, limit, 0)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch logs"})
			return
		}
		for _, log := range logs {
			if entry, ok := historyEntry(log); ok {
				history = append(history, entry)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"history": history,
		"total":   len(history),
	})
}

func historyEntry(log models.ActivityLog) (gin.H, bool) {
	if log.RequestBody == "" {
		return nil, false
	}

	entry := gin.H{
		"timestamp":     log.CreatedAt,
		"route":         log.Route,
		"session_id":    log.SessionID,
		"status_code":   log.StatusCode,
		"response_time": log.ResponseTime,
	}

	var userData any
	if err := json.Unmarshal([]byte(log.RequestBody), &userData); err == nil {
		entry["user_data"] = userData
	} else {
		entry["raw_body"] = log.RequestBody
	}
	return entry, true
}
