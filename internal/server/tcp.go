package server

import (
	"context"
	"errors"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// serveTCP accepts plain TCP connections and runs one handler
// goroutine per connection until the context is cancelled.
func (s *Server) serveTCP(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.TCPAddr())
	if err != nil {
		return err
	}
	s.log.Info("TCP listener started", zap.String("addr", s.cfg.TCPAddr()))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil // shutting down
			}
			return err
		}
		go s.handleTCPConn(conn)
	}
}

// handleTCPConn runs the per-connection loop: one transport read (up
// to 1 KiB) is one frame, one frame is one command, one response line
// goes back. The connection closes when the remote closes, when a
// response write fails, or when the journal rejects a command.
func (s *Server) handleTCPConn(conn net.Conn) {
	connID := uuid.New().String()
	log := s.log.With(zap.String("conn_id", connID), zap.String("remote", conn.RemoteAddr().String()))
	log.Info("connection opened")
	defer func() {
		conn.Close()
		log.Info("connection closed")
	}()

	buf := make([]byte, maxFrame)
	for {
		n, err := conn.Read(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Debug("read ended", zap.Error(err))
			}
			return
		}
		if n == 0 {
			continue
		}

		resp, fatal := s.dispatch(connID, buf[:n])
		if _, err := conn.Write(append(resp, '\n')); err != nil {
			log.Warn("response write failed", zap.Error(err))
			return
		}
		if fatal != nil {
			log.Error("journal failure; dropping connection", zap.Error(fatal))
			return
		}
	}
}
