package usecase

import (
	"strconv"

	"github.com/DRSN-tech/admin-backend/pkg/logger"
)

func nopLogger() logger.Logger {
	return logger.Nop()
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
