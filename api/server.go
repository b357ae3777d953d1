// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/luxfi/log"
)

const readHeaderTimeout = 10 * time.Second

// HTTPServer serves a handler until its context is cancelled.
type HTTPServer struct {
	done chan struct{}
}

func NewHTTPServer(ctx context.Context, logger log.Logger, ln net.Listener, handler http.Handler) *HTTPServer {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	h := &HTTPServer{
		done: make(chan struct{}),
	}
	go h.serve(logger, ln, srv)
	go h.waitForShutdown(ctx, srv)

	return h
}

// Wait blocks until the server stopped.
func (h *HTTPServer) Wait() {
	<-h.done
}

func (h *HTTPServer) waitForShutdown(ctx context.Context, srv *http.Server) {
	select {
	case <-h.done:
		return
	case <-ctx.Done():
		_ = srv.Close()
	}
}

func (h *HTTPServer) serve(logger log.Logger, ln net.Listener, srv *http.Server) {
	defer close(h.done)

	if err := srv.Serve(ln); err != nil {
		if errors.Is(err, net.ErrClosed) || errors.Is(err, http.ErrServerClosed) {
			logger.Info("HTTP server shutting down", log.Stringer("addr", ln.Addr()))
		} else {
			logger.Error("HTTP server shutting down due to error", log.Err(err))
		}
	}
}
