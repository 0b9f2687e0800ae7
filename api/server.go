package api

import (
	"context"
	"sync"
	"time"

	"orderclient/ordering"
	"orderclient/probe"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Server exposes the order session over HTTP
type Server struct {
	base    context.Context
	session *ordering.Session
	tester  *probe.Tester
	logger  logrus.FieldLogger

	inflight sync.WaitGroup
}

// NewServer creates the API. Orders submitted over HTTP run under base,
// so cancelling it aborts them. tester may be nil.
func NewServer(base context.Context, session *ordering.Session, tester *probe.Tester, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{base: base, session: session, tester: tester, logger: logger}
}

// NewRouter constructs a Gin engine with registered routes.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	RegisterHealthRoutes(r)
	s.RegisterOrderRoutes(r)
	s.RegisterProbeRoutes(r)
	return r
}

// Drain cancels the running order and waits for its cleanup
func (s *Server) Drain(ctx context.Context) error {
	s.session.Cancel()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("http request")
	}
}
