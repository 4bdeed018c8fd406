// Пакет statefeed рассылает изменения состояния сессии подписчикам через вебсокеты.
// Публикация никогда не блокирует редактор: медленный подписчик теряет сообщения.
package statefeed

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gofrs/uuid"
)

const (
	pingPeriod = time.Second * 20
	timeout    = time.Minute

	DefaultBuffer = 16
)

type Feed struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]chan any
	buffer int
	closed bool
}

func New(buffer int) *Feed {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Feed{subs: make(map[uuid.UUID]chan any), buffer: buffer}
}

// Subscribe возвращает канал сообщений. Канал закрывается отменой подписки или закрытием ленты.
func (f *Feed) Subscribe() (<-chan any, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan any, f.buffer)
	if f.closed {
		close(ch)
		return ch, func() {}
	}
	id := uuid.Must(uuid.NewV4())
	f.subs[id] = ch
	return ch, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if c, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(c)
		}
	}
}

// Publish отправляет сообщение всем подписчикам и возвращает число подписчиков, для которых оно потеряно.
func (f *Feed) Publish(msg any) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	dropped := 0
	for id, ch := range f.subs {
		select {
		case ch <- msg:
		default:
			dropped++
			slog.Debug("State feed subscriber is slow, message dropped", "subscriber", id)
		}
	}
	return dropped
}

func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close закрывает все подписки. Повторный вызов ничего не делает.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for id, ch := range f.subs {
		delete(f.subs, id)
		close(ch)
	}
}

// Serve принимает вебсокет-соединение и пишет в него сообщения ленты, начиная с initial.
// Возвращается после закрытия соединения клиентом или закрытия ленты.
func (f *Feed) Serve(w http.ResponseWriter, req *http.Request, initial any) {
	c, err := websocket.Accept(w, req, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Open websocket connection", "err", err)
		return
	}
	defer c.CloseNow()

	ch, cancel := f.Subscribe()
	defer cancel()

	ctx := c.CloseRead(req.Context())

	if initial != nil {
		if err := write(ctx, c, initial); err != nil {
			slog.Debug("Write initial state", "err", err)
			return
		}
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				c.Close(websocket.StatusNormalClosure, "session closed")
				return
			}
			if err := write(ctx, c, msg); err != nil {
				slog.Debug("Write state to websocket", "err", err)
				return
			}
		case <-ticker.C:
			pingCtx, pingCancel := context.WithTimeout(ctx, timeout)
			err := c.Ping(pingCtx)
			pingCancel()
			if err != nil {
				slog.Debug("Ping to websocket failed", "err", err)
				c.Close(websocket.StatusNormalClosure, "Ping failed, connection closed")
				return
			}
		}
	}
}

func write(ctx context.Context, c *websocket.Conn, msg any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return wsjson.Write(ctx, c, msg)
}
