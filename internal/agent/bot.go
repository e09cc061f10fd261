// Package agent - headless клиент. Подключается к серверу по WebSocket
// так же, как обычный игрок: шлет намерения и читает сообщения мира.
// Используется в сквозных тестах и для ручной отладки.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"isekai-server/internal/domain"
	"isekai-server/pkg/api"
	"isekai-server/pkg/logger"
)

var ErrClosed = errors.New("bot connection closed")

// Envelope - одно входящее сообщение: тип и исходные байты
type Envelope struct {
	Type string
	Raw  json.RawMessage
}

// Decode раскладывает сообщение в конкретную структуру из api
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Raw, v)
}

// Bot - "Игрок-компьютер". Inbox наполняет отдельная горутина чтения.
type Bot struct {
	ID    domain.PlayerID
	Pos   domain.Position
	Inbox chan Envelope

	conn *websocket.Conn
	log  *logrus.Entry

	writeMu sync.Mutex
	done    chan struct{}
}

// Dial подключается к ws-эндпоинту (например ws://host/ws)
func Dial(ctx context.Context, url string) (*Bot, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	b := &Bot{
		Inbox: make(chan Envelope, 512),
		conn:  conn,
		log:   logger.Component("bot"),
		done:  make(chan struct{}),
	}
	go b.readLoop()
	return b, nil
}

func (b *Bot) readLoop() {
	defer close(b.done)
	defer close(b.Inbox)

	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			return
		}
		var head struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &head); err != nil {
			b.log.WithError(err).Warn("Bad message from server")
			continue
		}
		select {
		case b.Inbox <- Envelope{Type: head.Type, Raw: data}:
		default:
			b.log.WithField("type", head.Type).Warn("Bot inbox full, message dropped")
		}
	}
}

// Done закрывается, когда сервер закрыл соединение
func (b *Bot) Done() <-chan struct{} {
	return b.done
}

func (b *Bot) Close() error {
	b.writeMu.Lock()
	_ = b.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	b.writeMu.Unlock()
	return b.conn.Close()
}

// --- Отправка намерений ---

// Send отправляет намерение. Поля payload кладутся рядом с type.
func (b *Bot) Send(action domain.ActionType, payload any) error {
	msg := map[string]any{}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &msg); err != nil {
			return err
		}
	}
	msg["type"] = action.String()
	return b.SendRaw(msg)
}

// SendRaw пишет что угодно (для проверки реакции на мусор)
func (b *Bot) SendRaw(v any) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteJSON(v)
}

func (b *Bot) Register(username, password, class string) error {
	return b.Send(domain.ActionRegister, api.AuthPayload{Username: username, Password: password, Class: class})
}

func (b *Bot) Login(username, password string) error {
	return b.Send(domain.ActionLogin, api.AuthPayload{Username: username, Password: password})
}

func (b *Bot) Init(class string) error {
	return b.Send(domain.ActionInit, api.InitPayload{Class: class})
}

func (b *Bot) Move(x, y float64) error {
	return b.Send(domain.ActionMove, api.MovePayload{X: &x, Y: &y})
}

func (b *Bot) Attack() error { return b.Send(domain.ActionAttack, nil) }

func (b *Bot) Skill(name string) error {
	return b.Send(domain.ActionSkill, api.SkillPayload{Skill: name})
}

func (b *Bot) Chat(text string) error {
	return b.Send(domain.ActionChat, api.ChatPayload{Text: text})
}

func (b *Bot) Talk() error { return b.Send(domain.ActionTalkNPC, nil) }

// StepToward - один легальный шаг (не длиннее MaxMoveDistance) к цели.
// Позицию бот считает сам и подправляет по CORRECT_POSITION через Expect.
func (b *Bot) StepToward(target domain.Position) error {
	dist := b.Pos.DistanceTo(target)
	if dist == 0 {
		return nil
	}
	step := math.Min(dist, domain.MaxMoveDistance)
	next := domain.Position{
		X: b.Pos.X + (target.X-b.Pos.X)/dist*step,
		Y: b.Pos.Y + (target.Y-b.Pos.Y)/dist*step,
	}
	if err := b.Move(next.X, next.Y); err != nil {
		return err
	}
	b.Pos = next
	return nil
}

// --- Чтение ---

// Expect ждет сообщение типа msgType, пропуская остальные
func (b *Bot) Expect(msgType string, timeout time.Duration) (Envelope, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case env, ok := <-b.Inbox:
			if !ok {
				return Envelope{}, ErrClosed
			}
			b.track(env)
			if env.Type == msgType {
				return env, nil
			}
		case <-timer.C:
			return Envelope{}, fmt.Errorf("timeout waiting for %s", msgType)
		}
	}
}

// Next - следующее сообщение любого типа
func (b *Bot) Next(timeout time.Duration) (Envelope, error) {
	select {
	case env, ok := <-b.Inbox:
		if !ok {
			return Envelope{}, ErrClosed
		}
		b.track(env)
		return env, nil
	case <-time.After(timeout):
		return Envelope{}, errors.New("timeout waiting for message")
	}
}

// track обновляет ID и позицию бота по авторитетным сообщениям сервера
func (b *Bot) track(env Envelope) {
	switch env.Type {
	case api.MsgInit:
		var m api.InitMessage
		if env.Decode(&m) == nil {
			b.ID = domain.PlayerID(m.ID)
			if me, ok := m.State[m.ID]; ok {
				b.Pos = domain.Position{X: me.X, Y: me.Y}
			}
		}
	case api.MsgCorrectPosition:
		var m api.CorrectPositionMessage
		if env.Decode(&m) == nil {
			b.Pos = domain.Position{X: m.X, Y: m.Y}
		}
	}
}
