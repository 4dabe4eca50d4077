// Package jitter считает задержки повторов со случайной добавкой,
// чтобы повторы многих воркеров не приходили в одно и то же время.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultJitter — добавка до 50% от задержки.
const DefaultJitter = 0.5

// Duration возвращает d со случайной добавкой в диапазоне [d, d*(1+factor)].
func Duration(d time.Duration, factor float64) time.Duration {
	if d <= 0 || factor <= 0 {
		return d
	}

	return d + time.Duration(rand.Float64()*factor*float64(d))
}

// ExponentialBackoff удваивает base на каждую попытку (attempt с нуля), не превышая max,
// и добавляет jitter. Добавка может вывести результат за max не более чем на factor.
func ExponentialBackoff(base, max time.Duration, attempt int, factor float64) time.Duration {
	return Duration(Backoff(base, max, attempt), factor)
}

// Backoff — экспоненциальная задержка без jitter.
func Backoff(base, max time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	backoff := base
	for i := 0; i < attempt; i++ {
		if backoff >= max/2 {
			return max
		}
		backoff *= 2
	}
	if backoff > max {
		return max
	}

	return backoff
}
