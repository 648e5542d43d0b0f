package game

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// serviceMetrics — Prometheus метрики игрового сервиса.
//
// Метрики:
// * tetris_operations_total{op,result} — counter
// * tetris_sessions_created_total — counter
// * tetris_lines_cleared_total — counter
// * tetris_game_overs_total — counter
type serviceMetrics struct {
	opsTotal        *prometheus.CounterVec
	sessionsCreated prometheus.Counter
	linesCleared    prometheus.Counter
	gameOvers       prometheus.Counter
}

var (
	metricsOnce   sync.Once
	sharedMetrics *serviceMetrics
)

// getServiceMetrics регистрирует метрики в дефолтном регистре один раз
// на процесс (сервисов может создаваться несколько, особенно в тестах).
func getServiceMetrics() *serviceMetrics {
	metricsOnce.Do(func() {
		sharedMetrics = &serviceMetrics{
			opsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "tetris_operations_total",
				Help: "Число игровых операций по типу и результату.",
			}, []string{"op", "result"}),
			sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "tetris_sessions_created_total",
				Help: "Число созданных партий.",
			}),
			linesCleared: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "tetris_lines_cleared_total",
				Help: "Суммарное число убранных линий.",
			}),
			gameOvers: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "tetris_game_overs_total",
				Help: "Число завершившихся партий.",
			}),
		}
		prometheus.MustRegister(
			sharedMetrics.opsTotal,
			sharedMetrics.sessionsCreated,
			sharedMetrics.linesCleared,
			sharedMetrics.gameOvers,
		)
	})
	return sharedMetrics
}

// observeOp инкрементирует счетчик операции с результатом ok/rejected.
func (m *serviceMetrics) observeOp(op string, success bool) {
	result := "ok"
	if !success {
		result = "rejected"
	}
	m.opsTotal.WithLabelValues(op, result).Inc()
}
