package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/salazarsebas/Cougr/internal/eventbus"
)

const defaultNATSURL = "nats://127.0.0.1:4222"

// event-cli — служебная утилита для наблюдения за игровыми событиями
// (session_created, lines_cleared, level_up, game_over) в JetStream.
func main() {
	var (
		natsURL    = flag.String("nats", defaultNATSURL, "адрес NATS сервера")
		stream     = flag.String("stream", "TETRIS_EVENTS", "имя JetStream стрима")
		eventTypes = flag.String("types", "", "фильтр типов событий (через запятую)")
		command    = flag.String("cmd", "tail", "команда: tail, stats")
		duration   = flag.Duration("for", 0, "длительность наблюдения (0 — до Ctrl-C)")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, 24*time.Hour)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к NATS: %v", err)
	}
	defer bus.Close()

	switch *command {
	case "tail":
		if err := tailEvents(bus, parseStringList(*eventTypes), *duration); err != nil {
			log.Fatalf("❌ Ошибка наблюдения: %v", err)
		}
	case "stats":
		showStats(bus)
	default:
		fmt.Printf("❌ Неизвестная команда: %s\n", *command)
		fmt.Println("Доступные команды: tail, stats")
		os.Exit(1)
	}
}

// tailEvents печатает события по мере поступления, как tail -f.
func tailEvents(bus eventbus.EventBus, types []string, duration time.Duration) error {
	fmt.Printf("🎬 Наблюдение за событиями (фильтр: %v)\n", types)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var count uint64
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: types}, func(ctx context.Context, ev *eventbus.Envelope) {
		printEvent(ev)
		atomic.AddUint64(&count, 1)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if duration > 0 {
		select {
		case <-sigCh:
		case <-time.After(duration):
		}
	} else {
		<-sigCh
	}

	fmt.Printf("\n📊 Всего событий: %d\n", atomic.LoadUint64(&count))
	return nil
}

// showStats печатает счетчики шины.
func showStats(bus eventbus.EventBus) {
	stats := bus.Metrics()
	fmt.Println("📊 Статистика шины событий")
	fmt.Printf("  Published: %d\n", stats.Published)
	fmt.Printf("  Consumed:  %d\n", stats.Consumed)
	fmt.Printf("  Dropped:   %d\n", stats.Dropped)
}

// printEvent выводит событие в читаемом формате.
func printEvent(ev *eventbus.Envelope) {
	timestamp := ev.Timestamp.Format("15:04:05")
	fmt.Printf("[%s] %s [%s] %s\n", timestamp, ev.Source, ev.EventType, ev.ID)

	// Полезная нагрузка — JSON; выводим ее компактно.
	var payload map[string]interface{}
	if err := json.Unmarshal(ev.Payload, &payload); err == nil {
		for k, v := range payload {
			fmt.Printf("  %s: %v\n", k, v)
		}
	}
}

// parseStringList парсит строку с разделителями-запятыми.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
