// Управление конфигурацией сервиса из переменных окружения.
// Содержит структуру Config для хранения параметров и функцию ReadConfig для их загрузки.
//
// Основные возможности:
//   - Загрузка конфигурации из переменных окружения с использованием тегов struct.
//   - Значения по умолчанию для параметров сервера и хранилища.
//   - Маскировка секретных значений в логах.
package config

import (
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":2112"`

	DatabaseDSN string `env:"DATABASE_URL" envDefault:"docedit.db"`

	// Время жизни неактивной сессии редактирования, в минутах.
	SessionTTL       int    `env:"SESSION_TTL" envDefault:"30"`
	EvictionSchedule string `env:"EVICTION_SCHEDULE" envDefault:"@every 1m"`
	MaxSessions      int    `env:"MAX_SESSIONS" envDefault:"100"`
	MaxDocumentSize  int    `env:"MAX_DOCUMENT_SIZE" envDefault:"1048576"`

	ExternalLimiterURL   string `env:"EXTERNAL_LIMITER_URL"`
	ExternalLimiterToken string `env:"EXTERNAL_LIMITER_TOKEN"`

	EditorConfigPath string `env:"EDITOR_CONFIG"`
	SanitizeDisabled bool   `env:"SANITIZE_DISABLED"`
}

// ReadConfig загружает конфигурацию из окружения процесса. При ошибке разбора приложение завершает работу.
func ReadConfig() *Config {
	config, err := parse(env.Options{})
	if err != nil {
		slog.Error("Parse config", "err", err)
		os.Exit(1)
	}
	logConfig(config, os.LookupEnv)
	return config
}

func parse(opts env.Options) (*Config, error) {
	config := &Config{}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return nil, err
	}

	if config.SessionTTL <= 0 {
		config.SessionTTL = 30
	}
	if config.MaxSessions < 0 {
		config.MaxSessions = 0
	}
	return config, nil
}

// logConfig пишет в лог значения, заданные в окружении. Секреты маскируются.
func logConfig(config *Config, lookup func(string) (string, bool)) {
	v := reflect.ValueOf(config).Elem()
	typeParam := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fName := typeParam.Field(i).Name
		fEnvTag := typeParam.Field(i).Tag.Get("env")

		logValue, ok := lookup(fEnvTag)
		if !ok || logValue == "" {
			continue
		}

		slog.Info("Set config value",
			slog.String("key", typeParam.Name()+"."+fName),
			slog.String("value", maskSecret(fName, logValue)),
			slog.String("source", "ENVIRONMENT"),
		)
	}
}

func maskSecret(field, value string) string {
	lower := strings.ToLower(field)
	if !strings.Contains(lower, "pass") && !strings.Contains(lower, "secret") && !strings.Contains(lower, "token") {
		return value
	}
	if len(value) <= 2 {
		return strings.Repeat("*", len(value))
	}
	return value[:1] + strings.Repeat("*", len(value)-2) + value[len(value)-1:]
}
