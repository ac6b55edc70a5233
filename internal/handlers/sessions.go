package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"RPG-CARDS/internal/ctxlog"
	"RPG-CARDS/internal/processor"
	"RPG-CARDS/internal/services"

	"github.com/gin-gonic/gin"
)

type TemplateRequest struct {
	Template string `json:"template"`
}

type PasteRequest struct {
	Data string `json:"data"`
}

type RowRequest struct {
	Values map[string]any `json:"values"`
}

type RowResponse struct {
	Index int                      `json:"index"`
	State services.SessionSnapshot `json:"session"`
}

type PasteResponse struct {
	Rows  int                      `json:"rows"`
	State services.SessionSnapshot `json:"session"`
}

type PreviewResponse struct {
	Documents []processor.MergedDocument `json:"documents"`
	Errors    []services.RowErrorView    `json:"errors"`
	OK        bool                       `json:"ok"`
}

type SessionHandler struct {
	store   *services.SessionStore
	exports *services.ExportService
	pdf     *services.PDFService
}

func NewSessionHandler(store *services.SessionStore, exports *services.ExportService, pdf *services.PDFService) *SessionHandler {
	return &SessionHandler{
		store:   store,
		exports: exports,
		pdf:     pdf,
	}
}

// CreateSession starts a session. The body may hold a card form; an empty
// body uses the default form.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var form *processor.CardForm
	if c.Request.ContentLength != 0 {
		f := processor.DefaultCardForm()
		if err := c.ShouldBindJSON(&f); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
		form = &f
	}

	sess, err := h.store.Create(c.Request.Context(), form)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sess.Snapshot())
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.store.Delete(c.Param("sessionId")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) UpdateForm(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var form processor.CardForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if err := sess.ApplyForm(c.Request.Context(), form); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *SessionHandler) UpdateTemplate(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if err := sess.ApplyTemplate(c.Request.Context(), req.Template); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *SessionHandler) AddRow(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req RowRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
			return
		}
	}

	index, err := sess.AddRow(stringValues(req.Values))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, RowResponse{Index: index, State: sess.Snapshot()})
}

func (h *SessionHandler) UpdateRow(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := rowIndex(c)
	if !ok {
		return
	}

	var req RowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if err := sess.UpdateRow(index, stringValues(req.Values)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, RowResponse{Index: index, State: sess.Snapshot()})
}

func (h *SessionHandler) DeleteRow(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	index, ok := rowIndex(c)
	if !ok {
		return
	}

	if err := sess.DeleteRow(index); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess.Snapshot())
}

func (h *SessionHandler) Paste(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	var req PasteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	rows, err := sess.Paste(c.Request.Context(), req.Data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, PasteResponse{Rows: rows, State: sess.Snapshot()})
}

func (h *SessionHandler) Preview(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	result, err := sess.Preview(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, PreviewResponse{
		Documents: result.Documents,
		Errors:    services.NewRowErrorViews(result.Errors),
		OK:        result.OK(),
	})
}

func (h *SessionHandler) Export(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	data, result, err := sess.Export(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", services.ExportFilename))
	c.Header("X-Skipped-Rows", strconv.Itoa(len(result.Errors)))
	c.Data(http.StatusOK, services.ExportContentType, data)
}

func (h *SessionHandler) Publish(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	result, err := h.exports.Publish(c.Request.Context(), sess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *SessionHandler) Print(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}

	pdf, err := h.pdf.PrintSession(c.Request.Context(), sess)
	if err != nil {
		writeError(c, err)
		return
	}
	defer pdf.Close()

	c.DataFromReader(http.StatusOK, -1, "application/pdf", pdf, map[string]string{
		"Content-Disposition": "attachment; filename=rpg-cards.pdf",
	})
}

func (h *SessionHandler) session(c *gin.Context) (*services.Session, bool) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID is required"})
		return nil, false
	}

	sess, err := h.store.Get(sessionID)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return sess, true
}

func rowIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Row index must be an integer"})
		return 0, false
	}
	return index, true
}

func stringValues(values map[string]any) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = processor.Stringify(v)
	}
	return out
}

// writeError maps service errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var templateErr *processor.TemplateParseError
	var ingestErr *processor.IngestParseError

	switch {
	case errors.As(err, &templateErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": templateErr.Error(), "template_error": templateErr})
	case errors.As(err, &ingestErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": ingestErr.Error()})
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, processor.ErrRowIndex):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, processor.ErrUnknownField):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrPublishingDisabled), errors.Is(err, services.ErrPrintingDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		ctxlog.FromContext(c.Request.Context()).Error("request failed", "route", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
