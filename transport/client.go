package transport

import (
	"context"
	"errors"
	"io"
	"sync"

	"orderclient/ordering"
	"orderclient/types"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

// Client opens order streams against the plotting service.
// Each order gets its own connection, closed with the stream.
type Client struct {
	dialOpts []grpc.DialOption
	logger   logrus.FieldLogger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithDialOptions appends options to every connection the client creates
func WithDialOptions(opts ...grpc.DialOption) ClientOption {
	return func(c *Client) { c.dialOpts = append(c.dialOpts, opts...) }
}

// WithClientLogger sets the logger for connection diagnostics
func WithClientLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client using plaintext connections
func NewClient(opts ...ClientOption) *Client {
	c := &Client{logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ordering.StreamOpener = (*Client)(nil)

// OpenOrderStream sends req to target and returns the status stream
func (c *Client) OpenOrderStream(ctx context.Context, target string, req types.OrderRequest) (ordering.StatusStream, error) {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, c.dialOpts...)

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, wrap("dial", err)
	}

	if req.ID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, OrderIDHeader, req.ID)
	}

	cs, err := conn.NewStream(ctx, &OrderServiceDesc.Streams[0], OrderMethod)
	if err != nil {
		conn.Close()
		return nil, wrap("open", err)
	}

	if err := cs.SendMsg(&req); err != nil {
		// io.EOF means the server ended the call; RecvMsg has the real status
		if errors.Is(err, io.EOF) {
			var ev types.StatusEvent
			if rerr := cs.RecvMsg(&ev); rerr != nil && !errors.Is(rerr, io.EOF) {
				err = rerr
			}
		}
		conn.Close()
		return nil, wrap("send", err)
	}
	if err := cs.CloseSend(); err != nil {
		conn.Close()
		return nil, wrap("send", err)
	}

	c.logger.WithFields(logrus.Fields{
		"target":   target,
		"order_id": req.ID,
	}).Debug("order stream opened")

	return &statusStream{conn: conn, cs: cs}, nil
}

type statusStream struct {
	conn *grpc.ClientConn
	cs   grpc.ClientStream

	once     sync.Once
	closeErr error
}

func (s *statusStream) Recv() (types.StatusEvent, error) {
	var ev types.StatusEvent
	if err := s.cs.RecvMsg(&ev); err != nil {
		if errors.Is(err, io.EOF) {
			return types.StatusEvent{}, io.EOF
		}
		return types.StatusEvent{}, wrap("recv", err)
	}
	return ev, nil
}

func (s *statusStream) Close() error {
	s.once.Do(func() {
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}
