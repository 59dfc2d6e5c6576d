// Package rpc exposes a topic over a Connect unary service. Messages use
// protobuf well-known wrapper types, so the service needs no generated code:
//
//	/broadcast.v1.TopicService/PostMessage  StringValue -> Empty
//	/broadcast.v1.TopicService/GetUpdate    Empty       -> StringValue
package rpc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/tailored-agentic-units/broadcast/topic"
)

// Connect procedure names.
const (
	ServiceName          = "broadcast.v1.TopicService"
	PostMessageProcedure = "/" + ServiceName + "/PostMessage"
	GetUpdateProcedure   = "/" + ServiceName + "/GetUpdate"
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHandlerOptions passes options to every connect handler.
func WithHandlerOptions(opts ...connect.HandlerOption) ServerOption {
	return func(s *Server) {
		s.handlerOptions = append(s.handlerOptions, opts...)
	}
}

// Server serves one Subject. Posts are serialized so each notification pass
// finishes before the next one starts.
type Server struct {
	subject topic.Subject
	cfg     Config

	limiter *rate.Limiter
	postMu  sync.Mutex

	logger         *slog.Logger
	handlerOptions []connect.HandlerOption
}

// NewServer creates a Server for subject.
func NewServer(subject topic.Subject, cfg *Config, opts ...ServerOption) *Server {
	limit := rate.Inf
	if cfg.PostRate > 0 {
		limit = rate.Limit(cfg.PostRate)
	}
	burst := cfg.PostBurst
	if burst < 1 {
		burst = 1
	}

	s := &Server{
		subject: subject,
		cfg:     *cfg,
		limiter: rate.NewLimiter(limit, burst),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the service path prefix and its http.Handler, ready to
// mount on a mux.
func (s *Server) Handler() (string, http.Handler) {
	mux := http.NewServeMux()
	mux.Handle(PostMessageProcedure, connect.NewUnaryHandler(
		PostMessageProcedure,
		s.postMessage,
		s.handlerOptions...,
	))
	mux.Handle(GetUpdateProcedure, connect.NewUnaryHandler(
		GetUpdateProcedure,
		s.getUpdate,
		s.handlerOptions...,
	))
	return "/" + ServiceName + "/", mux
}

// ListenAndServe serves on cfg.Address until ctx is cancelled, then shuts
// down gracefully within cfg.Timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	path, handler := s.Handler()
	mux := http.NewServeMux()
	mux.Handle(path, handler)

	srv := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: s.cfg.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	s.logger.InfoContext(ctx, "topic service listening", slog.String("address", s.cfg.Address))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("topic service shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("topic service: %w", err)
	}
}

func (s *Server) postMessage(
	ctx context.Context,
	req *connect.Request[wrapperspb.StringValue],
) (*connect.Response[emptypb.Empty], error) {
	msg := req.Msg.GetValue()
	if msg == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrEmptyMessage)
	}
	if !s.limiter.Allow() {
		return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
	}

	s.postMu.Lock()
	err := s.subject.PostMessage(msg)
	s.postMu.Unlock()

	if err != nil {
		s.logger.WarnContext(
			ctx,
			"post delivery failed",
			slog.String("peer", req.Peer().Addr),
			slog.String("error", err.Error()),
		)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.DebugContext(
		ctx,
		"message posted",
		slog.String("peer", req.Peer().Addr),
		slog.Int("length", len(msg)),
	)

	return connect.NewResponse(&emptypb.Empty{}), nil
}

func (s *Server) getUpdate(
	ctx context.Context,
	req *connect.Request[emptypb.Empty],
) (*connect.Response[wrapperspb.StringValue], error) {
	msg, ok := s.subject.GetUpdate(nil)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, ErrNoMessage)
	}
	return connect.NewResponse(wrapperspb.String(msg)), nil
}
