package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"attendmap/internal/adapters/geonames"
	"attendmap/internal/adapters/repo"
	"attendmap/internal/adapters/twitter"
	"attendmap/internal/infra/config"
	"attendmap/internal/infra/db"
	applog "attendmap/internal/infra/log"
	"attendmap/internal/infra/metrics"
	"attendmap/internal/usecase/export"
	"attendmap/internal/usecase/match"
	"attendmap/internal/usecase/resolve"
	"attendmap/internal/usecase/scan"
	"attendmap/internal/usecase/sweep"
)

const commandHelp = `Команды:

    update
        Один проход сканирования: новые твиты сохраняются в базу

    geolocate [--all]
        Обновить геолокацию твитов без координат (--all — всех твитов)

    loop [<секунды>]
        Циклически выполнять update и geolocate, с паузой между циклами
        (по умолчанию 300 секунд)

    export { <формат> | help } [--all] [--latest]
        Вывести твиты в указанном формате. По умолчанию экспортируются
        только твиты с координатами (--all снимает фильтр); --latest
        оставляет по одному последнему твиту на автора

    shell
        Подсказка по интерактивному использованию

    help
        Показать эту справку
`

func main() {
	command := "help"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}
	args := os.Args[2:]

	switch command {
	case "help":
		fmt.Print(commandHelp)
		return
	case "shell":
		fmt.Println("Интерактивной оболочки нет: пакеты attendmap/internal/usecase/... импортируются напрямую.")
		return
	}

	cfg := config.Load()
	logger := applog.NewLogger(cfg.AppEnv)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Connect(cfg.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("attendmap: нет подключения к базе")
	}
	defer conn.Close()
	store := repo.NewSQLite(conn)

	matcher, err := match.NewMatcher(cfg.MatchPatterns)
	if err != nil {
		logger.Fatal().Err(err).Msg("attendmap: некорректные шаблоны текста")
	}
	geocoder := geonames.NewClient(cfg.Geonames.User, cfg.Geonames.BaseURL, cfg.Geonames.Timeout)
	resolver := resolve.NewService(matcher, geocoder, logger.With().Str("component", "resolve").Logger())
	sweeper := sweep.NewService(store, twitter.Parser{}, resolver, logger.With().Str("component", "sweep").Logger())

	switch command {
	case "update":
		scanner := newScanner(ctx, cfg, store, logger)
		count, err := scanner.ScanNew(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("update: сканирование не удалось")
		}
		logger.Info().Int("count", count).Msg("update: готово")

	case "geolocate":
		if err := sweeper.Reconcile(ctx, !hasFlag(args, "--all")); err != nil {
			logger.Fatal().Err(err).Msg("geolocate: обход не удался")
		}

	case "loop":
		interval := cfg.LoopInterval
		if len(args) > 0 {
			if secs, err := strconv.Atoi(args[0]); err == nil && secs > 0 {
				interval = time.Duration(secs) * time.Second
			}
		}
		metrics.StartServer(ctx, logger.With().Str("component", "metrics").Logger(), cfg.MetricsAddr)
		scanner := newScanner(ctx, cfg, store, logger)
		runLoop(ctx, logger, scanner, sweeper, interval)

	case "export":
		runExport(logger, store, args)

	default:
		logger.Fatal().Str("command", command).Msg("неизвестная команда")
	}
}

func newScanner(ctx context.Context, cfg config.AppConfig, store *repo.SQLite, logger zerolog.Logger) *scan.Service {
	token, err := twitter.AccessToken(ctx, cfg.Twitter.AppKey, cfg.Twitter.AppSecret, cfg.Twitter.BaseURL, store)
	if err != nil {
		logger.Fatal().Err(err).Msg("attendmap: нет доступа к Twitter API")
	}
	search := twitter.NewClient(token, cfg.Twitter.BaseURL, cfg.Twitter.Timeout)
	return scan.NewService(search, store, store, cfg.SearchQuery, logger.With().Str("component", "scan").Logger())
}

// runLoop крутится до SIGINT/SIGTERM. Пауза фиксированная, без backoff:
// затянувшийся сбой внешнего сервиса будет повторяться каждый цикл.
func runLoop(ctx context.Context, logger zerolog.Logger, scanner *scan.Service, sweeper *sweep.Service, interval time.Duration) {
	for {
		cycle := logger.With().Str("cycle", uuid.NewString()).Logger()
		count, err := scanner.ScanNew(ctx)
		if err != nil {
			cycle.Error().Err(err).Msg("loop: сканирование не удалось")
		} else {
			cycle.Info().Int("count", count).Msg("loop: сканирование завершено")
		}
		if err := sweeper.Reconcile(ctx, true); err != nil {
			cycle.Error().Err(err).Msg("loop: обход не удался")
		}
		cycle.Info().Dur("sleep", interval).Msg("loop: пауза")
		select {
		case <-ctx.Done():
			logger.Info().Msg("loop: остановлен")
			return
		case <-time.After(interval):
		}
	}
}

func runExport(logger zerolog.Logger, store *repo.SQLite, args []string) {
	format := "help"
	var flags []string
	if len(args) > 0 {
		format = args[0]
		flags = args[1:]
	}
	if format == "help" {
		fmt.Println("Поддерживаемые форматы:", strings.Join(export.Formats(), " "))
		return
	}
	exporter, ok := export.Registry[format]
	if !ok {
		logger.Fatal().Str("format", format).Msg("export: неизвестный формат")
	}
	tweets, err := store.ListForExport(!hasFlag(flags, "--all"), hasFlag(flags, "--latest"))
	if err != nil {
		logger.Fatal().Err(err).Msg("export: выборка не удалась")
	}
	out, err := exporter.Format(tweets)
	if err != nil {
		logger.Fatal().Err(err).Str("format", format).Msg("export: сериализация не удалась")
	}
	os.Stdout.Write(out)
	if len(out) > 0 && out[len(out)-1] != '\n' {
		fmt.Println()
	}
}

func hasFlag(args []string, flag string) bool {
	for _, arg := range args {
		if arg == flag {
			return true
		}
	}
	return false
}
