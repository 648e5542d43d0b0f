package game

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/salazarsebas/Cougr/internal/eventbus"
	"github.com/salazarsebas/Cougr/internal/logging"
	"github.com/salazarsebas/Cougr/internal/tetris"
)

// Типы событий, публикуемых сервисом партий.
const (
	EventSessionCreated = "session_created"
	EventLinesCleared   = "lines_cleared"
	EventLevelUp        = "level_up"
	EventGameOver       = "game_over"
)

// eventSource — имя сервиса-источника в конвертах событий.
const eventSource = "tetris_server"

// SessionEvent — полезная нагрузка событий партии.
type SessionEvent struct {
	SessionID    string `json:"session_id"`
	Score        uint32 `json:"score"`
	Level        uint32 `json:"level"`
	LinesCleared uint32 `json:"lines_cleared"`
	LinesDelta   uint32 `json:"lines_delta,omitempty"`
}

// publishEvent сериализует и публикует событие партии.
// Ошибки публикации не прерывают игровую операцию — только логируются.
func (svc *SessionService) publishEvent(ctx context.Context, eventType string, ev SessionEvent) {
	if svc.bus == nil {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		logging.Error("Ошибка сериализации события %s: %v", eventType, err)
		return
	}

	envelope := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		EventType: eventType,
		Version:   1,
		Payload:   payload,
	}
	if err := svc.bus.Publish(ctx, envelope); err != nil {
		logging.Warn("Событие %s не опубликовано: %v", eventType, err)
	}
}

// publishDiff публикует события по разнице двух снапшотов одной партии.
func (svc *SessionService) publishDiff(ctx context.Context, sessionID string, before, after tetris.Snapshot) {
	ev := SessionEvent{
		SessionID:    sessionID,
		Score:        after.Score,
		Level:        after.Level,
		LinesCleared: after.LinesCleared,
	}

	if after.LinesCleared > before.LinesCleared {
		ev.LinesDelta = after.LinesCleared - before.LinesCleared
		svc.publishEvent(ctx, EventLinesCleared, ev)
		svc.metrics.linesCleared.Add(float64(ev.LinesDelta))
	}
	if after.Level > before.Level {
		svc.publishEvent(ctx, EventLevelUp, ev)
	}
	if after.GameOver && !before.GameOver {
		svc.publishEvent(ctx, EventGameOver, ev)
		svc.metrics.gameOvers.Inc()
	}
}
