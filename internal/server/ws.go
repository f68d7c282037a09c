package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  maxFrame,
	WriteBufferSize: maxFrame,
	// The command protocol carries no browser credentials, so any
	// origin may connect.
	CheckOrigin: func(*http.Request) bool { return true },
}

// serveWS runs the HTTP server hosting the WebSocket endpoint. Each
// text message is one complete command; each response is one message.
func (s *Server) serveWS(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	r.GET("/ws", s.handleWS)

	srv := &http.Server{
		Addr:              s.cfg.WSAddr(),
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.log.Info("WS listener started", zap.String("addr", s.cfg.WSAddr()))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	connID := uuid.New().String()
	log := s.log.With(zap.String("conn_id", connID), zap.String("remote", ws.RemoteAddr().String()))
	log.Info("websocket opened")
	defer func() {
		ws.Close()
		log.Info("websocket closed")
	}()

	for {
		msgType, msg, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("read ended", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		resp, fatal := s.dispatch(connID, msg)
		if err := ws.WriteMessage(websocket.TextMessage, resp); err != nil {
			log.Warn("response write failed", zap.Error(err))
			return
		}
		if fatal != nil {
			log.Error("journal failure; dropping connection", zap.Error(fatal))
			return
		}
	}
}
