package minio

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/cfg"
	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/infrastructure"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/jitter"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	cleanupAttempts    = 3
	cleanupBaseBackoff = time.Second
	cleanupMaxBackoff  = 8 * time.Second
	cleanupTimeout     = 30 * time.Second
)

// MinioInfrastructure управляет загрузкой и очисткой изображений в MinIO.
type MinioInfrastructure struct {
	storage     usecase.ObjectStorage
	cfg         *cfg.MinIOCfg
	logger      logger.Logger
	shutdownCtx context.Context
	wg          sync.WaitGroup
}

func NewMinioInfrastructure(storage usecase.ObjectStorage, cfg *cfg.MinIOCfg, logger logger.Logger, shutdownCtx context.Context) *MinioInfrastructure {
	return &MinioInfrastructure{
		storage:     storage,
		cfg:         cfg,
		logger:      logger,
		shutdownCtx: shutdownCtx,
	}
}

// UploadImages загружает изображения параллельно, не более UploadImagesLimit одновременно.
// Ключи и URL возвращаются в порядке запроса. При первой ошибке остальные загрузки отменяются,
// а уже загруженные объекты удаляются в фоне.
func (m *MinioInfrastructure) UploadImages(ctx context.Context, req *usecase.UploadImagesReq) (*usecase.UploadImagesRes, error) {
	const op = "MinioInfrastructure.UploadImages"

	if len(req.Images) > m.cfg.UploadImagesLimit {
		return nil, e.Wrap(op, e.NewValidationError("images", e.ErrTooManyImages.Error()))
	}

	keys := make([]string, len(req.Images))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.UploadImagesLimit)
	for i, image := range req.Images {
		g.Go(func() error {
			if image.Size > m.cfg.MaxImageSize {
				return e.NewValidationError("images", fmt.Sprintf("%s: %s", image.Name, e.ErrFileTooLarge))
			}

			ext, err := infrastructure.GetExtensionFromMIME(image.MimeType)
			if err != nil {
				return e.NewValidationError("images", fmt.Sprintf("%s: %s %s", image.Name, err, image.MimeType))
			}

			objKey := fmt.Sprintf("%s/%s.%s", req.Prefix, uuid.NewString(), ext)
			obj := domain.NewImage(m.cfg.BucketName, objKey, bytes.NewReader(image.Data), image.Size, image.MimeType)

			key, err := m.storage.Upload(gctx, obj)
			if err != nil {
				return fmt.Errorf("upload %s failed: %w", image.Name, err)
			}

			keys[i] = key
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		m.CleanupImages(nonEmpty(keys))
		return nil, e.Wrap(op, err)
	}

	urls := make([]string, len(keys))
	for i, key := range keys {
		urls[i] = m.PublicURL(key)
	}

	return usecase.NewUploadImagesRes(keys, urls), nil
}

// PublicURL возвращает адрес объекта, по которому его читает клиент.
func (m *MinioInfrastructure) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", m.cfg.PublicURL, m.cfg.BucketName, key)
}

// CleanupImages запускает фоновую очистку указанных ключей MinIO.
func (m *MinioInfrastructure) CleanupImages(keys []string) {
	if len(keys) == 0 {
		return
	}
	m.wg.Add(1)
	go m.cleanupUploadedKeys(keys)
}

// cleanupUploadedKeys удаляет объекты с экспоненциальной задержкой и jitter.
func (m *MinioInfrastructure) cleanupUploadedKeys(keys []string) {
	defer m.wg.Done()
	const op = "MinioInfrastructure.cleanupUploadedKeys"
	m.logger.Infof("%s: cleaning up %d objects", op, len(keys))

	ctx, cancel := context.WithTimeout(m.shutdownCtx, cleanupTimeout)
	defer cancel()

	for _, key := range keys {
		for attempt := 0; attempt < cleanupAttempts; attempt++ {
			err := m.storage.Delete(ctx, m.cfg.BucketName, key)
			if err == nil {
				break
			}
			if attempt == cleanupAttempts-1 {
				m.logger.Errorf(e.Wrap(op, err), "giving up on orphaned object, key=%s", key)
				break
			}

			select {
			case <-time.After(jitter.ExponentialBackoff(cleanupBaseBackoff, cleanupMaxBackoff, attempt, jitter.DefaultJitter)):
			case <-ctx.Done():
				m.logger.Warnf("cleanup interrupted by shutdown, key=%s", key)
				return
			}
		}
	}
}

// WaitForCleanup ожидает завершения фоновых очисток с учётом таймаута завершения приложения.
func (m *MinioInfrastructure) WaitForCleanup(shutdownTimeoutCtx context.Context) error {
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-shutdownTimeoutCtx.Done():
		return fmt.Errorf("minio cleanup timeout during shutdown: %w", shutdownTimeoutCtx.Err())
	}
}

func nonEmpty(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}

	return out
}
