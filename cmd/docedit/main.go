// Сервер редактирования документов. Поднимает хранилище, HTTP API и сервер метрик.
//
// Пример запуска: go run main.go --trace
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aisa-it/docedit/internal/docedit"
	"github.com/aisa-it/docedit/internal/docedit/config"
	"github.com/aisa-it/docedit/internal/docedit/dao"
	"github.com/aisa-it/docedit/internal/docedit/gormlogger"
	"github.com/aisa-it/docedit/pkg/limiter"
)

var version string = "DEV"

func main() {
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	flag.Parse()

	PrintBanner()

	cfg := config.ReadConfig()

	if *trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	limiter.Init(cfg)

	editorOptions, err := config.LoadEditorOptions(cfg.EditorConfigPath)
	if err != nil {
		slog.Error("Load editor config", "path", cfg.EditorConfigPath, "err", err)
		os.Exit(1)
	}

	slog.Info("DocEdit start.")

	db, err := dao.Open(cfg.DatabaseDSN, gormlogger.NewGormLogger(slog.Default(), time.Second*4, *paramQueries))
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Fail set settings to conn pool", "err", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(time.Minute * 15)

	if !*noMigration {
		if err := dao.Migrate(db); err != nil {
			slog.Error("Migrate DB", "err", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := docedit.Server(ctx, db, cfg, editorOptions); err != nil {
		slog.Error("Server fail", "err", err)
		os.Exit(1)
	}
}

func PrintBanner() {
	banner := `
 ____             _____    _ _ _
|  _ \  ___   ___| ____|__| (_) |_
| | | |/ _ \ / __|  _| / _  | | __|
| |_| | (_) | (__| |__| (_| | | |_
|____/ \___/ \___|_____\__,_|_|\__| %s
Headless structured document editor
----------------------------------------------------
`
	colorReset := "\033[0m"
	colorYellow := "\033[33m"

	formattedVersion := version
	if version == "DEV" {
		formattedVersion = colorYellow + version + colorReset
	}
	fmt.Printf(banner, formattedVersion)
}
