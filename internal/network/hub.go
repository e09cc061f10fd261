package network

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"isekai-server/internal/domain"
	"isekai-server/pkg/logger"
)

var ErrAlreadySubscribed = errors.New("player already has a connection")

// DefaultBuffer - сколько исходящих сообщений копится на сессию
const DefaultBuffer = 256

type subscriber struct {
	ch chan []byte
	// overflow вызывается, если буфер переполнен: сессия не успевает читать
	overflow func()
}

// Broadcaster занимается только рассылкой сообщений подписчикам.
// Доставка независима для каждого получателя: медленный клиент
// теряет сообщение и выкидывается, остальные получают свое.
type Broadcaster struct {
	mu sync.RWMutex
	// Мапа: PlayerID -> Личный канал
	subscribers map[domain.PlayerID]*subscriber
	order       []domain.PlayerID
	buffer      int
}

func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		subscribers: make(map[domain.PlayerID]*subscriber),
		buffer:      buffer,
	}
}

// Register создает личный канал игрока. Второй канал на тот же ID - ошибка.
// initial кладутся в канал раньше любой рассылки (так INIT всегда идет первым).
func (b *Broadcaster) Register(id domain.PlayerID, overflow func(), initial ...[]byte) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subscribers[id]; ok {
		return nil, ErrAlreadySubscribed
	}

	size := b.buffer
	if len(initial) > size {
		size = len(initial)
	}
	ch := make(chan []byte, size)
	for _, msg := range initial {
		ch <- msg
	}
	b.subscribers[id] = &subscriber{ch: ch, overflow: overflow}
	b.order = append(b.order, id)
	return ch, nil
}

// Unregister удаляет подписчика и закрывает его канал
func (b *Broadcaster) Unregister(id domain.PlayerID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subscribers[id]; ok {
		close(sub.ch)
		delete(b.subscribers, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// SendTo отправляет сообщение конкретному игроку (Unicast)
func (b *Broadcaster) SendTo(id domain.PlayerID, msg any) {
	data, err := encode(msg)
	if err != nil {
		return
	}

	b.mu.RLock()
	sub, ok := b.subscribers[id]
	var dropped *subscriber
	if ok && !deliver(sub, data) {
		dropped = sub
	}
	b.mu.RUnlock()

	if dropped != nil {
		b.kick(id, dropped)
	}
}

// Broadcast отправляет всем, кроме exclude (пустой exclude - всем)
func (b *Broadcaster) Broadcast(msg any, exclude domain.PlayerID) {
	data, err := encode(msg)
	if err != nil {
		return
	}

	type victim struct {
		id  domain.PlayerID
		sub *subscriber
	}
	var dropped []victim

	b.mu.RLock()
	for _, id := range b.order {
		if id == exclude {
			continue
		}
		sub := b.subscribers[id]
		if !deliver(sub, data) {
			dropped = append(dropped, victim{id, sub})
		}
	}
	b.mu.RUnlock()

	for _, v := range dropped {
		b.kick(v.id, v.sub)
	}
}

func deliver(sub *subscriber, data []byte) bool {
	select {
	case sub.ch <- data:
		return true
	default:
		return false
	}
}

// kick зовется вне блокировки: overflow обычно закрывает соединение,
// а очистка сессии сама придет в Unregister.
func (b *Broadcaster) kick(id domain.PlayerID, sub *subscriber) {
	logger.Log.WithFields(logrus.Fields{
		"component": "broadcaster",
		"player_id": id,
	}).Warn("Outbound buffer full, dropping connection")
	if sub.overflow != nil {
		sub.overflow()
	}
}

func encode(msg any) ([]byte, error) {
	if raw, ok := msg.([]byte); ok {
		return raw, nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to encode outbound message")
		return nil, err
	}
	return data, nil
}

// HasSubscriber - есть ли у игрока активное соединение
func (b *Broadcaster) HasSubscriber(id domain.PlayerID) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.subscribers[id]
	return ok
}

// SubscriberCount возвращает количество активных подписчиков.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
