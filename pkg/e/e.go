package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect env variable")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrTooManyImages        = fmt.Errorf("too many images")
	ErrNoImages             = fmt.Errorf("no images provided")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")
	ErrInvalidGranularity   = fmt.Errorf("invalid granularity. Must be: hour, day, week, year")
	ErrInvalidDate          = fmt.Errorf("invalid date")

	// 401 Unauthorized
	ErrTokenRequired    = fmt.Errorf("token is required")
	ErrInvalidToken     = fmt.Errorf("invalid token")
	ErrTokenExpired     = fmt.Errorf("token expired")
	ErrBadCredentials   = fmt.Errorf("invalid email or password")
	ErrAdminNotResolved = fmt.Errorf("admin not found")

	// 404 Not Found
	ErrNotFound = fmt.Errorf("not found")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Фоновые задачи
	ErrUnknownJobType = fmt.Errorf("unknown job type")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
