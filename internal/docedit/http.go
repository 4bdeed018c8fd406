// Пакет docedit предоставляет HTTP API сервера редактирования документов:
// хранилище документов, сессии редактирования, команды, события указателя и ленту состояния.
//
// Основные возможности:
//   - CRUD документов в хранилище (PostgreSQL или SQLite).
//   - Открытие сессии редактирования по документу или по произвольной разметке.
//   - Выполнение команд и передача событий указателя в сессию.
//   - Рассылка состояния команд по вебсокету.
package docedit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/aisa-it/docedit/internal/docedit/config"
	"github.com/aisa-it/docedit/internal/docedit/cronmanager"
	"github.com/aisa-it/docedit/internal/docedit/dao"
	"github.com/aisa-it/docedit/internal/docedit/dto"
	"github.com/aisa-it/docedit/internal/docedit/editor"
	"github.com/aisa-it/docedit/internal/docedit/metrics"
	"github.com/aisa-it/docedit/internal/docedit/model"
	"github.com/aisa-it/docedit/internal/docedit/plugins"
	policy "github.com/aisa-it/docedit/internal/docedit/redactor-policy"
	"github.com/aisa-it/docedit/internal/docedit/sessions"
)

const shutdownTimeout = 10 * time.Second

type Services struct {
	store    *dao.Store
	sessions *sessions.Manager
	metrics  *metrics.Metrics
	cfg      *config.Config
	options  config.EditorOptions

	registerer prometheus.Registerer
}

// ServerHeader middleware adds a `Server` header to the response.
func ServerHeader(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set(echo.HeaderServer, "DocEdit")
		return next(c)
	}
}

// NewServices создает сервисы API. Метрики редактора и HTTP регистрируются в reg.
func NewServices(db *gorm.DB, cfg *config.Config, options config.EditorOptions, reg prometheus.Registerer) (*Services, error) {
	m := metrics.New()
	if err := m.Register(reg); err != nil {
		return nil, err
	}
	s := &Services{
		store:      dao.NewStore(db),
		metrics:    m,
		cfg:        cfg,
		options:    options,
		registerer: reg,
	}
	s.sessions = sessions.NewManager(s.newEditor, time.Duration(cfg.SessionTTL)*time.Minute, cfg.MaxSessions)
	s.sessions.OnChange = s.publishState
	s.sessions.OnCountChanged = func(n int) {
		m.ActiveSessions.Set(float64(n))
	}
	return s, nil
}

func (s *Services) newEditor() (*editor.Editor, error) {
	opts := []editor.Option{
		editor.WithOptions(s.options),
		editor.WithPlugins(plugins.Default()...),
		editor.WithMetrics(s.metrics),
	}
	if !s.cfg.SanitizeDisabled {
		opts = append(opts, editor.WithSanitizer(policy.Sanitize))
	}
	return editor.New(opts...)
}

// publishState рассылает подписчикам сессии состояние команд после транзакции.
func (s *Services) publishState(sess *sessions.Session, e *editor.Editor, b *model.Batch) {
	if dropped := sess.Feed.Publish(stateMessage(e, b.Seq)); dropped > 0 {
		slog.Debug("State message dropped for slow subscribers", "session", sess.ID, "dropped", dropped)
	}
}

func stateMessage(e *editor.Editor, seq uint64) dto.StateMessage {
	return dto.StateMessage{
		Type:     dto.StateMessageType,
		Seq:      seq,
		Commands: e.Commands.States(),
	}
}

// NewEcho собирает HTTP-сервер API со всеми маршрутами.
func NewEcho(s *Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}

	// Global middlewares
	e.Use(ServerHeader)
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("5M"))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     5,
		MinLength: 2048,
		Skipper: func(c echo.Context) bool {
			return strings.HasSuffix(c.Path(), "/ws/")
		},
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "docedit",
		Registerer: s.registerer,
	}))
	e.Pre(middleware.AddTrailingSlash())

	e.Validator = NewRequestValidator()

	apiGroup := e.Group("/api/")

	s.AddDocumentServices(apiGroup)
	s.AddSessionServices(apiGroup)

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	return e
}

// Server запускает API, сервер метрик и задачи обслуживания. Возвращается после отмены ctx.
func Server(ctx context.Context, db *gorm.DB, cfg *config.Config, options config.EditorOptions) error {
	s, err := NewServices(db, cfg, options, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	e := NewEcho(s)

	cronManager := cronmanager.NewCronManager(cronmanager.JobRegistry{
		"session_eviction": cronmanager.Job{
			Func:     func() { s.sessions.Evict(time.Now()) },
			Schedule: cfg.EvictionSchedule,
		},
	})
	if err := cronManager.LoadJobs(); err != nil {
		return err
	}
	cronManager.Start()

	metricsServer := echo.New()
	metricsServer.HideBanner = true
	metricsServer.HidePort = true
	metricsServer.GET("/metrics", echoprometheus.NewHandler())

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Start API server", "addr", cfg.ListenAddr)
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := metricsServer.Start(cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server fail", "err", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		slog.Info("Shutting down gracefully")
		cronManager.Stop()
		s.sessions.CloseAll()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(e.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})
	return g.Wait()
}
