package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DRSN-tech/admin-backend/pkg/e"
)

const maxCaptionLength = 200

// ProductImage — изображение товара, доступное по публичному URL.
type ProductImage struct {
	ID        int64
	ProductID int64
	ImageURL  string
	Caption   string
	ObjectKey string // ключ объекта в MinIO, пустой для внешних ссылок
	CreatedAt time.Time
}

// NewProductImage создаёт изображение, подставляя подпись по умолчанию.
func NewProductImage(productID int64, imageURL, caption, productName string) *ProductImage {
	caption = strings.TrimSpace(caption)
	if caption == "" {
		caption = DefaultCaption(productName)
	}

	return &ProductImage{
		ProductID: productID,
		ImageURL:  strings.TrimSpace(imageURL),
		Caption:   caption,
	}
}

func DefaultCaption(productName string) string {
	return fmt.Sprintf("Image of %s", productName)
}

func (i *ProductImage) Validate() error {
	v := &e.ValidationError{}

	u, err := url.Parse(i.ImageURL)
	if i.ImageURL == "" {
		v.Add("image_url", "can't be blank")
	} else if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		v.Add("image_url", "must be a valid URL")
	}

	if utf8.RuneCountInString(i.Caption) > maxCaptionLength {
		v.Add("caption", "is too long (maximum is 200 characters)")
	}

	return v.OrNil()
}
