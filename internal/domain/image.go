package domain

import "io"

// Image описывает загружаемый в S3 объект.
type Image struct {
	Bucket    string
	ObjectKey string
	Body      io.Reader
	// Передайте значение -1 в Size, если размер потока неизвестен
	// (внимание: при передаче значения -1 будет выделен большой объем памяти).
	Size        int64
	ContentType string
}

func NewImage(bucket string, objectKey string, body io.Reader, size int64, contentType string) *Image {
	return &Image{
		Bucket:      bucket,
		ObjectKey:   objectKey,
		Body:        body,
		Size:        size,
		ContentType: contentType,
	}
}
