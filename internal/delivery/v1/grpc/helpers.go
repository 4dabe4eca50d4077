package grpc

import (
	"context"
	"time"

	"github.com/DRSN-tech/admin-backend/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// loggingInterceptor пишет метод, код ответа и длительность вызова.
func loggingInterceptor(log logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		code := status.Code(err)
		if err != nil {
			log.Warnf("grpc %s %s %s: %v", info.FullMethod, code, time.Since(start), err)
		} else {
			log.Debugf("grpc %s %s %s", info.FullMethod, code, time.Since(start))
		}

		return resp, err
	}
}
