// Package server exposes an inspect.Service over HTTP. Every operation is a
// unary procedure reachable with the Connect protocol (HTTP/1.1 or HTTP/2)
// and with gRPC over cleartext HTTP/2, encoded as CBOR or JSON.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	finov1 "github.com/sysdream/fino/api/finov1"
	"github.com/sysdream/fino/inspect"
)

var log = commonlog.GetLogger("fino.server")

// Server serves an inspection service.
type Server struct {
	svc     *inspect.Service
	mux     *http.ServeMux
	handler http.Handler
	http    *http.Server
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	interceptors      []connect.Interceptor
	readHeaderTimeout time.Duration
}

// WithInterceptors adds connect interceptors after the request logger.
func WithInterceptors(interceptors ...connect.Interceptor) Option {
	return func(c *serverConfig) { c.interceptors = append(c.interceptors, interceptors...) }
}

// WithReadHeaderTimeout bounds how long a client may take to send request
// headers.
func WithReadHeaderTimeout(d time.Duration) Option {
	return func(c *serverConfig) { c.readHeaderTimeout = d }
}

// New creates a Server for svc.
func New(svc *inspect.Service, opts ...Option) *Server {
	cfg := &serverConfig{readHeaderTimeout: 10 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &Server{
		svc: svc,
		mux: http.NewServeMux(),
	}
	interceptors := append([]connect.Interceptor{logRequests()}, cfg.interceptors...)
	register(s.mux, svc,
		connect.WithCodec(finov1.CBORCodec{}),
		connect.WithCodec(finov1.JSONCodec{}),
		connect.WithInterceptors(interceptors...),
	)
	s.handler = h2c.NewHandler(s.mux, &http2.Server{})
	s.http = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: cfg.readHeaderTimeout,
	}
	return s
}

// Handler returns the HTTP handler, accepting HTTP/1.1 and cleartext
// HTTP/2.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves on addr ("host:port" or ":port") until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Serve serves on l until Shutdown.
func (s *Server) Serve(l net.Listener) error {
	addr := l.Addr().String()
	log.Noticef("fino inspection server listening on %s", addr)
	log.Infof("  Connect: http://%s%s", addr, finov1.ListRootsProcedure)
	log.Infof("  gRPC:    grpc://%s", addr)
	if err := s.http.Serve(l); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting calls and waits for running ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
