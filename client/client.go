// Package client calls a remote inspection service, either with a connect
// client (Connect or gRPC protocol) or with a grpc-go connection.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	finov1 "github.com/sysdream/fino/api/finov1"
)

// Client is a remote inspection service.
type Client struct {
	httpClient connect.HTTPClient
	baseURL    string
	opts       []connect.ClientOption
	clients    sync.Map // procedure -> *connect.Client[Req, Res]

	conn *grpc.ClientConn
}

// Option configures a Client.
type Option func(*options)

type options struct {
	codec      finov1.Codec
	grpc       bool
	httpClient connect.HTTPClient
}

// WithCodec selects the message encoding (CBOR by default).
func WithCodec(c finov1.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithGRPCProtocol makes a connect client speak gRPC over cleartext HTTP/2
// instead of the Connect protocol.
func WithGRPCProtocol() Option {
	return func(o *options) { o.grpc = true }
}

// WithHTTPClient replaces the HTTP client of a connect client.
func WithHTTPClient(c connect.HTTPClient) Option {
	return func(o *options) { o.httpClient = c }
}

func buildOptions(opts []Option) *options {
	o := &options{codec: finov1.CBORCodec{}}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// New returns a connect client for the server at baseURL
// (e.g. "http://localhost:7700").
func New(baseURL string, opts ...Option) *Client {
	o := buildOptions(opts)
	c := &Client{
		httpClient: o.httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		opts:       []connect.ClientOption{connect.WithCodec(o.codec)},
	}
	if o.grpc {
		c.opts = append(c.opts, connect.WithGRPC())
		if c.httpClient == nil {
			c.httpClient = h2cClient()
		}
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c
}

// h2cClient speaks HTTP/2 without TLS, as gRPC requires.
func h2cClient() *http.Client {
	return &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}

// DialGRPC returns a client backed by a grpc-go connection to target
// ("host:port"). Only WithCodec applies.
func DialGRPC(target string, opts ...Option) (*Client, error) {
	o := buildOptions(opts)
	conn, err := grpc.NewClient(target,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(o.codec)),
	)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// Close releases the grpc-go connection, if any.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Code returns the status code of an error returned by any client.
func Code(err error) connect.Code {
	if err == nil {
		return 0
	}
	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return cerr.Code()
	}
	if s, ok := status.FromError(err); ok {
		return connect.Code(s.Code())
	}
	return connect.CodeUnknown
}

// call performs one unary call of procedure.
func call[Req, Res any](ctx context.Context, c *Client, procedure string, req *Req) (*Res, error) {
	if c.conn != nil {
		res := new(Res)
		if err := c.conn.Invoke(ctx, procedure, req, res); err != nil {
			return nil, err
		}
		return res, nil
	}
	cc, ok := c.clients.Load(procedure)
	if !ok {
		cc, _ = c.clients.LoadOrStore(procedure,
			connect.NewClient[Req, Res](c.httpClient, c.baseURL+procedure, c.opts...))
	}
	res, err := cc.(*connect.Client[Req, Res]).CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// At builds a reference to the value reached from handle h along path.
func At(h int, path ...int) finov1.Ref {
	return finov1.Ref{Handle: h, Path: path}
}
