package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"RPG-CARDS/internal/ctxlog"
	"RPG-CARDS/internal/models"
	"RPG-CARDS/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ExportFilename    = "rpg-cards.json"
	ExportContentType = "application/json"
)

var ErrPublishingDisabled = errors.New("export publishing is not configured")

// ObjectStore is the part of the bucket client used for publishing.
type ObjectStore interface {
	Put(ctx context.Context, r io.Reader, objectName, contentType string) (*storage.UploadResult, error)
	Delete(ctx context.Context, objectName string) error
	SignedURL(objectName string, ttl time.Duration) (string, error)
}

type PublishResult struct {
	Export      models.PublishedExport `json:"export"`
	DownloadURL string                 `json:"download_url"`
	ExpiresAt   time.Time              `json:"expires_at"`
	RowErrors   []RowErrorView         `json:"row_errors"`
}

// ExportService uploads a session's export artifact and hands back a signed
// download link.
type ExportService struct {
	store     ObjectStore
	db        *gorm.DB
	signedTTL time.Duration
}

func NewExportService(store ObjectStore, db *gorm.DB, signedTTL time.Duration) *ExportService {
	return &ExportService{
		store:     store,
		db:        db,
		signedTTL: signedTTL,
	}
}

func (s *ExportService) Enabled() bool {
	return s != nil && s.store != nil
}

func (s *ExportService) Publish(ctx context.Context, sess *Session) (*PublishResult, error) {
	if !s.Enabled() {
		return nil, ErrPublishingDisabled
	}

	data, result, err := sess.Export(ctx)
	if err != nil {
		return nil, err
	}

	exportID := uuid.New().String()
	objectName := storage.ExportObjectName(exportID, ExportFilename, time.Now())

	upload, err := s.store.Put(ctx, bytes.NewReader(data), objectName, ExportContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to upload export: %w", err)
	}

	url, err := s.store.SignedURL(objectName, s.signedTTL)
	if err != nil {
		s.store.Delete(ctx, objectName)
		return nil, fmt.Errorf("failed to sign export URL: %w", err)
	}

	fieldsJSON, err := json.Marshal(sess.Snapshot().Fields)
	if err != nil {
		s.store.Delete(ctx, objectName)
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}

	record := models.PublishedExport{
		ID:          exportID,
		SessionID:   sess.ID,
		ObjectName:  objectName,
		FileSize:    upload.Size,
		CardCount:   len(result.Documents),
		SkippedRows: len(result.Errors),
		Fields:      string(fieldsJSON),
	}

	if s.db != nil {
		if err := s.db.Create(&record).Error; err != nil {
			// the artifact is still downloadable, only the audit row is missing
			ctxlog.FromContext(ctx).Error("failed to save export metadata", "export_id", exportID, "error", err)
		}
	}

	ctxlog.FromContext(ctx).Info("export published",
		"session_id", sess.ID,
		"export_id", exportID,
		"cards", record.CardCount,
		"skipped", record.SkippedRows,
	)

	return &PublishResult{
		Export:      record,
		DownloadURL: url,
		ExpiresAt:   time.Now().Add(s.signedTTL),
		RowErrors:   NewRowErrorViews(result.Errors),
	}, nil
}
