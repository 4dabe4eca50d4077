package minio

import (
	"context"

	"github.com/DRSN-tech/admin-backend/internal/domain"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ImageRepo хранит файлы изображений товаров в бакете MinIO.
type ImageRepo struct {
	mc *minio.Client
}

func NewImageRepo(mc *minio.Client) *ImageRepo {
	return &ImageRepo{mc: mc}
}

// Upload загружает объект и возвращает его ключ.
func (i *ImageRepo) Upload(ctx context.Context, image *domain.Image) (string, error) {
	info, err := i.mc.PutObject(ctx, image.Bucket, image.ObjectKey, image.Body, image.Size, minio.PutObjectOptions{
		ContentType:  image.ContentType,
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Delete удаляет объект. Отсутствующий объект ошибкой не считается.
func (i *ImageRepo) Delete(ctx context.Context, bucket, key string) error {
	if err := i.mc.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil
		}
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
