package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"francisco/internal/agent"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownGrace = 10 * time.Second

// RunStdio serves the MCP server over stdin/stdout until ctx is done or the
// client disconnects.
func RunStdio(ctx context.Context, s *mcp.Server) error {
	slog.Info("serving MCP over stdio")
	return s.Run(ctx, &mcp.StdioTransport{})
}

// HTTPServer serves MCP over streamable HTTP at /mcp, plus a server-sent
// events endpoint for direct streaming and a health check.
type HTTPServer struct {
	endpoints *Endpoints
	mux       *http.ServeMux
}

func NewHTTPServer(e *Endpoints, s *mcp.Server) *HTTPServer {
	h := &HTTPServer{
		endpoints: e,
		mux:       http.NewServeMux(),
	}
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s }, nil)

	h.mux.Handle("/mcp", mcpHandler)
	h.mux.HandleFunc("POST /v1/invoke", h.handleInvoke)
	h.mux.HandleFunc("GET /v1/status", h.handleStatus)
	h.mux.HandleFunc("GET /healthz", h.handleHealthz)
	return h
}

func (h *HTTPServer) Handler() http.Handler {
	return otelhttp.NewHandler(h.mux, "francisco.http")
}

// ListenAndServe blocks until ctx is cancelled, then drains in-flight
// requests for up to shutdownGrace.
func (h *HTTPServer) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return h.Serve(ctx, ln)
}

func (h *HTTPServer) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving MCP over http", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

type invokeRequest struct {
	Input   string         `json:"input"`
	Context map[string]any `json:"context,omitempty"`
}

func (h *HTTPServer) handleInvoke(w http.ResponseWriter, r *http.Request) {
	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: agent.KindInvalidRequest, Message: "invalid JSON body"})
		return
	}

	sse := newSSEWriter(w)
	res, errResp := h.endpoints.Stream(r.Context(), req.Input, req.Context, func(ev agent.Event) {
		switch ev.Type {
		case agent.EventToken:
			sse.send("token", map[string]any{"content": ev.Data})
		case agent.EventToolCall, agent.EventToolResult:
			sse.send(string(ev.Type), ev.Data)
		}
	})
	if errResp != nil {
		sse.send("error", errResp)
		return
	}
	sse.send("done", res)
}

func (h *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.endpoints.Status())
}

func (h *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
