package plotter

import (
	"context"
	"errors"
	"strings"

	"orderclient/transport"
	"orderclient/types"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Service exposes a Line as the order service
type Service struct {
	line   *Line
	logger logrus.FieldLogger
}

// NewService creates the order service backed by line
func NewService(line *Line, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{line: line, logger: logger}
}

var _ transport.OrderServiceServer = (*Service)(nil)

// Order runs one order and streams its status events
func (s *Service) Order(req *types.OrderRequest, stream transport.OrderStatusSender) error {
	if strings.TrimSpace(req.Customer) == "" {
		return status.Error(codes.InvalidArgument, "customer is required")
	}
	if len(req.Functions) == 0 {
		return status.Error(codes.InvalidArgument, "at least one function is required")
	}

	logger := s.logger.WithFields(logrus.Fields{
		"order_id":  req.ID,
		"customer":  req.Customer,
		"functions": len(req.Functions),
	})
	logger.Info("order received")

	err := s.line.Run(stream.Context(), *req, func(ev types.StatusEvent) error {
		return stream.Send(&ev)
	})
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Info("order abandoned by client")
		return status.FromContextError(err).Err()
	}
	if err != nil {
		logger.WithError(err).Error("failed to stream order status")
		return err
	}
	return nil
}
