package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/DRSN-tech/admin-backend/internal/usecase"
	"github.com/DRSN-tech/admin-backend/pkg/e"
	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Response — общий конверт ответа.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func NewErrorResponse(message string, details any) *ErrorResponse {
	return &ErrorResponse{
		Status:  statusError,
		Message: message,
		Details: details,
	}
}

// ToHTTPResponse сопоставляет ошибку с кодом, сообщением и деталями ответа.
func ToHTTPResponse(err error) (int, string, any) {
	var (
		validation *e.ValidationError
		notFound   *e.NotFoundError
		stock      *e.InsufficientStockError
	)

	switch {
	case errors.As(err, &validation):
		details := make([]string, 0, len(validation.Fields))
		for _, f := range validation.Fields {
			details = append(details, f.Field+" "+f.Message)
		}
		return http.StatusUnprocessableEntity, "Validation failed", details
	case errors.As(err, &notFound):
		return http.StatusNotFound, notFound.Error(), nil
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, e.ErrNotFound.Error(), nil
	case errors.As(err, &stock):
		return http.StatusConflict, stock.Error(), map[string]int64{"stock": stock.Stock}
	case errors.Is(err, e.ErrTokenRequired),
		errors.Is(err, e.ErrInvalidToken),
		errors.Is(err, e.ErrTokenExpired),
		errors.Is(err, e.ErrBadCredentials),
		errors.Is(err, e.ErrAdminNotResolved):
		return http.StatusUnauthorized, unwrapSentinel(err).Error(), nil
	case errors.Is(err, e.ErrExpectedMultipart),
		errors.Is(err, e.ErrMissingFields),
		errors.Is(err, e.ErrInvalidPrice),
		errors.Is(err, e.ErrPricePrecision),
		errors.Is(err, e.ErrTooManyImages),
		errors.Is(err, e.ErrNoImages),
		errors.Is(err, e.ErrFileTooLarge),
		errors.Is(err, e.ErrUnsupportedMediaType),
		errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, unwrapSentinel(err).Error(), nil
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error(), nil
	}
}

// unwrapSentinel возвращает самую внутреннюю ошибку цепочки, чтобы не отдавать клиенту служебные префиксы.
func unwrapSentinel(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg, details := ToHTTPResponse(err)
	writeJSON(w, code, NewErrorResponse(msg, details))
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, &Response{Status: statusSuccess, Message: message, Data: data})
}

func WritePage(w http.ResponseWriter, data any, p usecase.Pagination) {
	writeJSON(w, http.StatusOK, &Response{Status: statusSuccess, Data: data, Meta: toPaginationDTO(p)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeJSON читает тело запроса. Неизвестные поля игнорируются.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return e.Wrap(err.Error(), e.ErrStatusBadRequest)
	}

	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Wrap(name, e.ErrStatusBadRequest)
	}

	return id, nil
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}

	return v
}

func parsePage(r *http.Request, fallback int) usecase.Page {
	return usecase.NewPage(queryInt(r, "page", 1), queryInt(r, "per_page", 0), fallback)
}

// parsePrice разбирает цену вида "599.99". Не более двух знаков после запятой.
func parsePrice(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, e.ErrMissingFields
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, e.ErrInvalidPrice
	}

	if d.LessThan(decimal.Zero) || d.GreaterThan(decimal.NewFromInt(1_000_000_000)) {
		return decimal.Zero, e.ErrInvalidPrice
	}

	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return decimal.Zero, e.ErrPricePrecision
	}

	return d, nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}

	return r.ParseMultipartForm(maxMemory)
}

// parseImages читает файлы формы. Подписи берутся из полей captions по порядку файлов.
func parseImages(files []*multipart.FileHeader, captions []string, maxCount int, maxSize int64) ([]usecase.ImageFile, error) {
	if len(files) == 0 {
		return nil, e.ErrNoImages
	}
	if len(files) > maxCount {
		return nil, e.ErrTooManyImages
	}

	images := make([]usecase.ImageFile, 0, len(files))
	for i, fh := range files {
		data, mimeType, err := readFile(fh, maxSize)
		if err != nil {
			return nil, err
		}

		caption := ""
		if i < len(captions) {
			caption = captions[i]
		}
		images = append(images, *usecase.NewImageFile(data, mimeType, int64(len(data)), fh.Filename, caption))
	}

	return images, nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	if fh.Size > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxSize+1))
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}
