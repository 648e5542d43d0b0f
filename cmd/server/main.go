package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salazarsebas/Cougr/internal/api"
	"github.com/salazarsebas/Cougr/internal/auth"
	"github.com/salazarsebas/Cougr/internal/cache"
	"github.com/salazarsebas/Cougr/internal/config"
	"github.com/salazarsebas/Cougr/internal/eventbus"
	"github.com/salazarsebas/Cougr/internal/game"
	"github.com/salazarsebas/Cougr/internal/logging"
	"github.com/salazarsebas/Cougr/internal/observability"
	"github.com/salazarsebas/Cougr/internal/storage"
	"github.com/salazarsebas/Cougr/internal/tetris"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML-конфигурации (или ENV TETRIS_CONFIG)")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🎮 Запуск Tetris Game Server...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{} // дефолты + переменные окружения
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	backend := cfg.Storage.GetBackend()
	logging.Info("📡 Конфигурация сервера: REST API=%s, storage=%s", restPort, backend)

	// === OBSERVABILITY ===
	ctx := context.Background()
	shutdownTelemetry, err := observability.InitTelemetry(ctx, "tetris-server")
	if err != nil {
		// Телеметрия не критична для игрового цикла.
		logging.Warn("Телеметрия не инициализирована: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === ХРАНИЛИЩЕ ПАРТИЙ ===
	var repo storage.SessionRepo
	switch backend {
	case "memory":
		repo = storage.NewMemorySessionRepo()
	case "badger":
		dataPath := cfg.Storage.DataPath
		if dataPath == "" {
			dataPath = "./data/sessions"
		}
		repo, err = storage.NewBadgerSessionRepo(dataPath)
	case "maria":
		repo, err = storage.NewMariaSessionRepo(cfg.Storage.Maria)
	case "mongo":
		repo, err = storage.NewMongoSessionRepo(cfg.Storage.Mongo)
	default:
		log.Fatalf("❌ Неизвестный бэкенд хранения: %s", backend)
	}
	if err != nil {
		logging.Error("❌ Ошибка инициализации хранилища %s: %v", backend, err)
		log.Fatalf("❌ Ошибка инициализации хранилища %s: %v", backend, err)
	}
	defer repo.Close()
	logging.Info("💾 Хранилище партий: %s", backend)

	// === КЕШ СНАПШОТОВ (опционально) ===
	var snapCache cache.SnapshotCache
	if cfg.Redis.Addr != "" {
		snapCache, err = cache.NewRedisSnapshotCache(cfg.Redis)
		if err != nil {
			// Сервер работоспособен и без кеша.
			logging.Warn("Redis кеш недоступен (%v), продолжаем без кеша", err)
			snapCache = nil
		} else {
			defer snapCache.Close()
			logging.Info("⚡ Redis кеш снапшотов: %s", cfg.Redis.Addr)
		}
	}

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		retention := time.Duration(cfg.EventBus.Retention) * time.Hour
		bus, err = eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.Stream, retention)
		if err != nil {
			logging.Warn("JetStream недоступен (%v), используется in-memory шина", err)
			bus = eventbus.NewMemoryBus(1024)
		} else {
			logging.Info("📨 Шина событий: NATS JetStream %s", cfg.EventBus.URL)
		}
	} else {
		bus = eventbus.NewMemoryBus(1024)
		logging.Info("📨 Шина событий: in-memory")
	}
	defer bus.Close()

	// === АУТЕНТИФИКАЦИЯ ===
	if cfg.Auth.JWTSecret != "" {
		if err := auth.SetJWTSecret(cfg.Auth.JWTSecret); err != nil {
			log.Fatalf("❌ Некорректный JWT секрет: %v", err)
		}
	}
	userRepo := auth.NewMemoryUserRepo()
	if err := userRepo.EnsureDefaultAdmin(cfg.Auth.AdminPassword); err != nil {
		log.Fatalf("❌ Ошибка создания учетки admin: %v", err)
	}

	// === ИГРОВОЙ СЕРВИС ===
	gen := tetris.NewRandomGenerator(time.Now().UnixNano())
	sessions := game.NewSessionService(repo, snapCache, bus, gen)

	// === REST API ===
	restServer := api.NewRestServer(api.Config{
		Port:     restPort,
		Sessions: sessions,
		UserRepo: userRepo,
	})

	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ Ошибка REST сервера: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены и готовы принимать соединения")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   🔐 JWT аутентификация активирована")
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)
	logging.Info("💡 Примеры использования REST API:")
	logging.Info("   curl http://localhost%s/health", restPort)
	logging.Info("   curl -X POST http://localhost%s/api/auth/login -H 'Content-Type: application/json' -d '{\"username\":\"admin\",\"password\":\"ChangeMe123!\"}'", restPort)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Warn("Телеметрия не остановлена корректно: %v", err)
	}

	logging.Info("👋 Сервер успешно остановлен")
}
