package storage

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"isekai-server/internal/domain"
	"isekai-server/pkg/logger"
)

// Writer - единственный писатель сохранений. Все записи в Store идут
// через одну горутину, поэтому сохранения одного игрока не обгоняют друг друга.
// Несколько ожидающих сохранений одного игрока схлопываются в последнее.
type Writer struct {
	store   Store
	timeout time.Duration

	mu      sync.Mutex
	pending map[domain.PlayerID]domain.PlayerSave
	order   []domain.PlayerID
	waiters map[domain.PlayerID][]chan error
	closed  bool

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

// NewWriter запускает горутину записи. timeout - лимит на одну запись в Store.
func NewWriter(store Store, timeout time.Duration) *Writer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	w := &Writer{
		store:   store,
		timeout: timeout,
		pending: make(map[domain.PlayerID]domain.PlayerSave),
		waiters: make(map[domain.PlayerID][]chan error),
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue ставит сохранение в очередь и сразу возвращается.
// Безопасно звать под блокировкой реестра.
func (w *Writer) Enqueue(id domain.PlayerID, save domain.PlayerSave) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		logger.Log.WithField("player_id", id).Warn("Save dropped: writer closed")
		return
	}
	w.putLocked(id, save)
	w.mu.Unlock()
	w.signal()
}

// Save ставит сохранение в очередь и ждет, пока оно дойдет до Store.
func (w *Writer) Save(ctx context.Context, id domain.PlayerID, save domain.PlayerSave) error {
	ch := make(chan error, 1)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		// Горутина уже остановлена, пишем сами
		return w.write(ctx, id, save)
	}
	w.putLocked(id, save)
	w.waiters[id] = append(w.waiters[id], ch)
	w.mu.Unlock()
	w.signal()

	select {
	case err := <-ch:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) putLocked(id domain.PlayerID, save domain.PlayerSave) {
	if _, queued := w.pending[id]; !queued {
		w.order = append(w.order, id)
	}
	w.pending[id] = save
}

func (w *Writer) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Close дописывает очередь и останавливает горутину. Store не закрывает.
func (w *Writer) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	close(w.stop)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.flush()
		case <-w.stop:
			w.flush()
			return
		}
	}
}

type batchItem struct {
	id      domain.PlayerID
	save    domain.PlayerSave
	waiters []chan error
}

func (w *Writer) flush() {
	w.mu.Lock()
	batch := make([]batchItem, 0, len(w.order))
	for _, id := range w.order {
		batch = append(batch, batchItem{id: id, save: w.pending[id], waiters: w.waiters[id]})
	}
	w.order = nil
	w.pending = make(map[domain.PlayerID]domain.PlayerSave)
	w.waiters = make(map[domain.PlayerID][]chan error)
	w.mu.Unlock()

	for _, it := range batch {
		err := w.write(context.Background(), it.id, it.save)
		for _, ch := range it.waiters {
			ch <- err
		}
	}
}

func (w *Writer) write(ctx context.Context, id domain.PlayerID, save domain.PlayerSave) error {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	err := w.store.SavePlayer(ctx, id, save)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"component": "save_writer",
			"player_id": id,
			"error":     err,
		}).Error("Failed to save player")
	}
	return err
}
