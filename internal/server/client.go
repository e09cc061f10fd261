package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"isekai-server/internal/domain"
	"isekai-server/internal/engine"
	"isekai-server/pkg/api"
	"isekai-server/pkg/logger"
)

// SessionState - жизненный цикл соединения
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateAuthenticating
	StateActive
	StateClosing
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Session - посредник между Websocket и GameService.
// Читает только run, пишет до входа run, после входа - только writePump.
type Session struct {
	game    *engine.GameService
	conn    *websocket.Conn
	net     engine.NetworkConfig
	limiter *rate.Limiter
	log     *logrus.Entry
	// plog - лог с player_id, пишут только горутины самой сессии
	plog *logrus.Entry

	state    atomic.Int32
	playerID domain.PlayerID

	stopOnce sync.Once
	done     chan struct{}
}

func NewSession(game *engine.GameService, conn *websocket.Conn, cfg engine.NetworkConfig) *Session {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	s := &Session{
		game:    game,
		conn:    conn,
		net:     cfg,
		limiter: rate.NewLimiter(limit, cfg.RateBurst),
		log:     logger.Component("session").WithField("remote", conn.RemoteAddr().String()),
		done:    make(chan struct{}),
	}
	s.plog = s.log
	s.state.Store(int32(StateConnecting))
	return s
}

func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Done закрывается, когда очистка сессии завершена
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close инициирует закрытие. Очистку выполнит run, ровно один раз.
func (s *Session) Close() {
	s.stopOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown")
		if err := s.conn.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
			s.log.WithError(err).Debug("write close frame failed")
		}
		if err := s.conn.Close(); err != nil {
			s.log.WithError(err).Debug("close connection failed")
		}
	})
}

// kick - переполнен исходящий буфер. Просто рвем сокет, остальное сделает run.
func (s *Session) kick() {
	s.stopOnce.Do(func() {
		if err := s.conn.Close(); err != nil {
			s.log.WithError(err).Debug("close connection failed")
		}
	})
}

// run - весь жизненный цикл: вход, чтение намерений, отключение
func (s *Session) run() {
	defer s.cleanup()

	s.conn.SetReadLimit(s.net.MaxMessageSize)
	s.state.Store(int32(StateAuthenticating))

	binding, ok := s.authenticate()
	if !ok {
		return
	}

	s.playerID = binding.PlayerID
	s.plog = s.log.WithField("player_id", binding.PlayerID)
	s.state.Store(int32(StateActive))

	go s.writePump(binding.Outbound)
	s.readPump()
}

// authenticate ждет REGISTER/LOGIN/INIT. Прочие сообщения отбрасываются.
func (s *Session) authenticate() (engine.Binding, bool) {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.net.HandshakeTimeout)); err != nil {
		s.log.WithError(err).Warn("failed to set handshake deadline")
	}

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.log.WithError(err).Debug("Handshake aborted")
			return engine.Binding{}, false
		}

		msg, err := api.DecodeClientMessage(data)
		if err != nil {
			s.log.WithError(err).Warn("Malformed handshake dropped")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.net.HandshakeTimeout)
		binding, err := s.game.Join(ctx, msg, s.kick)
		cancel()

		var loginErr *engine.LoginError
		switch {
		case err == nil:
			return binding, true
		case errors.Is(err, engine.ErrNotHandshake):
			s.log.WithField("type", msg.Type).Warn("Message before handshake dropped")
			continue
		case errors.As(err, &loginErr):
			s.log.WithError(err).Info("Login failed")
			s.writeDirect(api.LoginFailMessage{Type: api.MsgLoginFail, Reason: loginErr.Reason})
			return engine.Binding{}, false
		default:
			s.log.WithError(err).Error("Join failed")
			s.writeDirect(api.LoginFailMessage{Type: api.MsgLoginFail, Reason: api.ReasonServerError})
			return engine.Binding{}, false
		}
	}
}

// writeDirect - запись до запуска writePump (только LOGIN_FAIL)
func (s *Session) writeDirect(msg any) {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.net.WriteTimeout)); err != nil {
		s.log.WithError(err).Warn("failed to set write deadline")
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		s.log.WithError(err).Debug("write json message failed")
	}
}

// readPump читает намерения до ошибки сокета
func (s *Session) readPump() {
	if err := s.conn.SetReadDeadline(time.Now().Add(s.net.PongWait)); err != nil {
		s.plog.WithError(err).Warn("failed to set read deadline")
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.net.PongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.plog.WithError(err).Warn("WS error")
			}
			return
		}

		if !s.limiter.Allow() {
			s.plog.Warn("Rate limit exceeded, message dropped")
			continue
		}
		s.game.HandleMessage(s.playerID, data)
	}
}

// writePump отправляет исходящие из хаба + Ping. Канал закрывается при отписке.
func (s *Session) writePump(outbound <-chan []byte) {
	ticker := time.NewTicker((s.net.PongWait * 9) / 10)
	defer func() {
		ticker.Stop()
		// Ошибка записи должна разбудить readPump
		s.kick()
	}()

	for {
		select {
		case message, ok := <-outbound:
			if !ok {
				return
			}
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.net.WriteTimeout)); err != nil {
				s.plog.WithError(err).Warn("failed to set write deadline")
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.plog.WithError(err).Debug("write message failed")
				return
			}

		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(s.net.WriteTimeout)); err != nil {
				s.plog.WithError(err).Warn("failed to set ping write deadline")
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.plog.WithError(err).Debug("ping failed")
				return
			}
		}
	}
}

// cleanup зовется один раз из run: мир, хаб, сохранение, сокет
func (s *Session) cleanup() {
	s.state.Store(int32(StateClosing))
	if s.playerID != "" {
		s.game.Disconnect(s.playerID)
	}
	s.kick()
	s.state.Store(int32(StateClosed))
	close(s.done)
	s.plog.Info("Client disconnected")
}
