// Package server hosts the request pipeline: framed transports that
// decode one command per frame, hand it to the engine, and write one
// serialized response back.
package server

import (
	"context"
	"time"

	"github.com/pouchkv/pouch/internal/config"
	"github.com/pouchkv/pouch/internal/engine"
	"github.com/pouchkv/pouch/pkg/command"
	"github.com/pouchkv/pouch/pkg/response"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxFrame caps one byte-stream read; a single read is one frame.
const maxFrame = 1024

// Server runs the enabled transports against one engine and journal.
type Server struct {
	log     *zap.Logger
	eng     *engine.Engine
	journal engine.Journal
	cfg     *config.Config
}

func New(log *zap.Logger, eng *engine.Engine, journal engine.Journal, cfg *config.Config) *Server {
	return &Server{log: log.Named("server"), eng: eng, journal: journal, cfg: cfg}
}

// Run starts the enabled listeners and blocks until the context is
// cancelled or a listener fails.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	if s.cfg.EnableTCP {
		g.Go(func() error { return s.serveTCP(ctx) })
	}
	if s.cfg.EnableWS {
		g.Go(func() error { return s.serveWS(ctx) })
	}
	return g.Wait()
}

// dispatch executes one decoded frame and returns the serialized
// response. A non-decodable frame yields the UnknownCommand response;
// fatal is non-nil only when the journal rejected the command, in
// which case the caller tears the connection down after writing resp.
func (s *Server) dispatch(connID string, frame []byte) (resp []byte, fatal error) {
	start := time.Now()

	cmd, err := command.Decode(frame)
	if err != nil {
		s.log.Debug("undecodable frame",
			zap.String("conn_id", connID), zap.Error(err))
		return mustEncode(response.Err{Error: response.ErrUnknownCommand}), nil
	}

	r, applyErr := s.eng.Apply(cmd, s.journal)

	s.log.Debug("command",
		zap.String("conn_id", connID),
		zap.String("action", string(cmd.Action())),
		zap.Duration("latency", time.Since(start)),
	)
	return mustEncode(r), applyErr
}

// mustEncode serializes a response the server itself constructed;
// these shapes cannot fail to marshal.
func mustEncode(r response.Response) []byte {
	data, err := response.Encode(r)
	if err != nil {
		panic(err)
	}
	return data
}
