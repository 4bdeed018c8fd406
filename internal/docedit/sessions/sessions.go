// Пакет sessions хранит открытые сессии редактирования в памяти.
//
// Ядро редактора однопоточное, поэтому каждая сессия защищена собственным мьютексом
// и все обращения к редактору идут через Session.Do.
// Неиспользуемые сессии закрываются по истечении TTL.
package sessions

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/aisa-it/docedit/internal/docedit/editor"
	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/statefeed"
)

var (
	ErrTooManySessions = errors.New("too many editing sessions")
	ErrSessionClosed   = errors.New("editing session closed")
)

// Factory создает редактор для новой сессии.
type Factory func() (*editor.Editor, error)

type Session struct {
	ID         uuid.UUID
	DocumentID uuid.NullUUID
	Feed       *statefeed.Feed

	mu       sync.Mutex
	editor   *editor.Editor
	lastUsed time.Time
	closed   bool
}

// Do выполняет fn с эксклюзивным доступом к редактору сессии.
func (s *Session) Do(fn func(e *editor.Editor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.lastUsed = time.Now()
	return fn(s.editor)
}

func (s *Session) LastUsed() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.Feed.Close()
}

type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	factory  Factory
	ttl      time.Duration
	max      int

	// OnChange вызывается после каждой транзакции сессии под ее блокировкой.
	OnChange func(s *Session, e *editor.Editor, b *model.Batch)
	// OnCountChanged получает число открытых сессий.
	OnCountChanged func(n int)
}

func NewManager(factory Factory, ttl time.Duration, max int) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		factory:  factory,
		ttl:      ttl,
		max:      max,
	}
}

// Create открывает сессию и загружает в нее разметку. Ошибка загрузки не оставляет сессию открытой.
func (m *Manager) Create(documentID uuid.NullUUID, data string) (*Session, error) {
	m.mu.RLock()
	full := m.max > 0 && len(m.sessions) >= m.max
	m.mu.RUnlock()
	if full {
		return nil, ErrTooManySessions
	}

	e, err := m.factory()
	if err != nil {
		return nil, err
	}
	if err := e.LoadData(data); err != nil {
		return nil, err
	}

	s := &Session{
		ID:         uuid.Must(uuid.NewV4()),
		DocumentID: documentID,
		Feed:       statefeed.New(statefeed.DefaultBuffer),
		editor:     e,
		lastUsed:   time.Now(),
	}
	e.Model.OnChange(func(b *model.Batch) {
		if m.OnChange != nil {
			m.OnChange(s, e, b)
		}
	})

	m.mu.Lock()
	if m.max > 0 && len(m.sessions) >= m.max {
		m.mu.Unlock()
		return nil, ErrTooManySessions
	}
	m.sessions[s.ID] = s
	n := len(m.sessions)
	m.mu.Unlock()

	slog.Info("Editing session opened", "session", s.ID, "document", documentID.UUID, "sessions", n)
	m.countChanged(n)
	return s, nil
}

func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close закрывает сессию. Возвращает false, если сессии нет.
func (m *Manager) Close(id uuid.UUID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.close()
	slog.Info("Editing session closed", "session", id, "sessions", n)
	m.countChanged(n)
	return true
}

// Evict закрывает сессии, не использовавшиеся дольше TTL, и возвращает их число.
func (m *Manager) Evict(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	var expired []uuid.UUID
	m.mu.RLock()
	for id, s := range m.sessions {
		if now.Sub(s.LastUsed()) > m.ttl {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	closed := 0
	for _, id := range expired {
		if m.Close(id) {
			closed++
		}
	}
	if closed > 0 {
		slog.Info("Idle editing sessions evicted", "count", closed)
	}
	return closed
}

// CloseAll закрывает все сессии при остановке сервера.
func (m *Manager) CloseAll() {
	m.mu.RLock()
	ids := make([]uuid.UUID, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		m.Close(id)
	}
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) countChanged(n int) {
	if m.OnCountChanged != nil {
		m.OnCountChanged(n)
	}
}
