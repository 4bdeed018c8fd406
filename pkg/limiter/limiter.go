// Пакет limiter ограничивает число сессий редактирования и размер сохраняемых документов.
// По умолчанию действуют локальные лимиты из конфигурации, внешний сервис лимитов подключается по адресу.
package limiter

import (
	"log/slog"
	"net/url"

	"github.com/aisa-it/docedit/internal/docedit/config"
)

type LimiterInt interface {
	CanOpenSession(active int) bool
	CanSaveDocument(size int) bool
	GetRemainingSessions(active int) int
}

var Limiter LimiterInt = CommunityLimiter{}

func Init(cfg *config.Config) {
	Limiter = CommunityLimiter{MaxSessions: cfg.MaxSessions, MaxDocumentSize: cfg.MaxDocumentSize}
	if cfg.ExternalLimiterURL == "" {
		slog.Info("Using Community limiter")
		return
	}
	host, err := url.Parse(cfg.ExternalLimiterURL)
	if err != nil {
		slog.Error("Parse external limiter url, using Community limiter", "err", err)
		return
	}
	Limiter = NewExternalLimiter(host, cfg.ExternalLimiterToken)
}

// CommunityLimiter локальные лимиты. Нулевое значение означает отсутствие ограничения.
type CommunityLimiter struct {
	MaxSessions     int
	MaxDocumentSize int
}

func (c CommunityLimiter) CanOpenSession(active int) bool {
	return c.MaxSessions <= 0 || active < c.MaxSessions
}

func (c CommunityLimiter) CanSaveDocument(size int) bool {
	return c.MaxDocumentSize <= 0 || size <= c.MaxDocumentSize
}

func (c CommunityLimiter) GetRemainingSessions(active int) int {
	if c.MaxSessions <= 0 {
		return 99999999
	}
	return max(c.MaxSessions-active, 0)
}
