// jsonlined accepts TCP connections and ingests newline-delimited JSON
// messages: frames are reassembled from the byte stream, bounded by a
// configurable size ceiling, decoded and counted. Clients exceeding the
// ceiling are disconnected; no responses are sent.
package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/katti/jsonline"
)

// ingestHandler wires one jsonline.Conn per accepted socket. Messages go
// to a fire-and-forget sink: a counter plus a debug log line.
type ingestHandler struct {
	ctx      context.Context
	cfg      config
	logger   jsonline.Logger
	received atomic.Int64
}

func (h *ingestHandler) Handle(conn *net.TCPConn) {
	c, err := jsonline.NewConn(conn,
		jsonline.CustomCodecOption(jsonline.JSONCodec{}),
		jsonline.MaxFrameSizeOption(h.cfg.MaxFrameBytes),
		jsonline.ReadChunkSizeOption(h.cfg.ReadChunkBytes),
		jsonline.BufferSizeOption(h.cfg.SendBuffer),
		jsonline.IdleTimeoutOption(h.cfg.idleTimeout()),
		jsonline.LoggerOption(h.logger),
		jsonline.OnMessageOption(func(message jsonline.Message) error {
			n := h.received.Add(1)
			h.logger.Debug("message ingested", "bytes", message.Length(), "total", n)
			return nil
		}),
	)
	if err != nil {
		h.logger.Error("failed to wrap connection", "error", err)
		conn.Close()
		return
	}

	_ = c.Run(h.ctx)
}

func main() {
	configPath := flag.String("config", "", "path to config.toml (optional)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		errLog := newLogger("error")
		errLog.Fatal().Err(err).Msg("invalid configuration")
	}

	log := newLogger(cfg.LogLevel)
	adapter := &zerologAdapter{log: log}

	addr, err := net.ResolveTCPAddr("tcp", cfg.ListenAddr)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.ListenAddr).Msg("resolve listen address")
	}

	server, err := jsonline.New(addr,
		jsonline.ServerLoggerOption(adapter),
		jsonline.ServerShutdownTimeoutOption(cfg.shutdownTimeout()),
	)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.ListenAddr).Msg("bind listener")
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info().Msg("shutting down server...")
		cancel()
	}()

	handler := &ingestHandler{ctx: ctx, cfg: cfg, logger: adapter}

	log.Info().Str("addr", server.Addr().String()).
		Int("max_frame_bytes", cfg.MaxFrameBytes).
		Msg("jsonlined listening")

	if err := server.Serve(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("server error")
	}

	stats := server.Stats()
	log.Info().
		Int64("connections_accepted", stats.Accepted).
		Int64("messages_ingested", handler.received.Load()).
		Msg("jsonlined stopped")
}
