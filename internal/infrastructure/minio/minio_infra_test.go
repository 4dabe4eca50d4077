package minio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/admin-backend/internal/cfg"
	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	mu      sync.Mutex
	objects map[string]string
	deleted []string
	failOn  string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string]string{}}
}

func (s *memStorage) Upload(_ context.Context, image *domain.Image) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && image.ContentType == s.failOn {
		return "", errors.New("s3 unavailable")
	}
	s.objects[image.ObjectKey] = image.ContentType
	return image.ObjectKey, nil
}

func (s *memStorage) Delete(_ context.Context, _, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func newInfra(storage *memStorage) *MinioInfrastructure {
	return NewMinioInfrastructure(storage, &cfg.MinIOCfg{
		BucketName:        "product-images",
		PublicURL:         "http://localhost:9000",
		UploadImagesLimit: 3,
		MaxImageSize:      1024,
	}, logger.Nop(), context.Background())
}

func file(name, mime string) usecase.ImageFile {
	return *usecase.NewImageFile([]byte("img"), mime, 3, name, "")
}

func TestUploadImagesKeepsOrder(t *testing.T) {
	storage := newMemStorage()
	infra := newInfra(storage)

	res, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq("products/7", []usecase.ImageFile{
		file("a.png", "image/png"),
		file("b.jpg", "image/jpeg"),
		file("c.webp", "image/webp"),
	}))
	require.NoError(t, err)
	require.Len(t, res.ImagesKeys, 3)

	for i, ext := range []string{".png", ".jpg", ".webp"} {
		assert.True(t, strings.HasPrefix(res.ImagesKeys[i], "products/7/"))
		assert.True(t, strings.HasSuffix(res.ImagesKeys[i], ext))
		assert.Equal(t, "http://localhost:9000/product-images/"+res.ImagesKeys[i], res.URLs[i])
	}
	assert.Len(t, storage.objects, 3)
}

func TestUploadImagesValidation(t *testing.T) {
	infra := newInfra(newMemStorage())

	_, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq("p", []usecase.ImageFile{
		file("doc.pdf", "application/pdf"),
	}))
	assert.True(t, e.IsValidation(err))

	big := file("big.png", "image/png")
	big.Size = 4096
	_, err = infra.UploadImages(context.Background(), usecase.NewUploadImagesReq("p", []usecase.ImageFile{big}))
	assert.True(t, e.IsValidation(err))

	_, err = infra.UploadImages(context.Background(), usecase.NewUploadImagesReq("p", []usecase.ImageFile{
		file("1.png", "image/png"), file("2.png", "image/png"), file("3.png", "image/png"), file("4.png", "image/png"),
	}))
	assert.True(t, e.IsValidation(err))
}

func TestUploadImagesFailureCleansUp(t *testing.T) {
	storage := newMemStorage()
	storage.failOn = "image/webp"
	infra := newInfra(storage)

	_, err := infra.UploadImages(context.Background(), usecase.NewUploadImagesReq("p", []usecase.ImageFile{
		file("a.png", "image/png"),
		file("b.webp", "image/webp"),
	}))
	require.Error(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, infra.WaitForCleanup(ctx))

	storage.mu.Lock()
	defer storage.mu.Unlock()
	assert.Empty(t, storage.objects)
}
