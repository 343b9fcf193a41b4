package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutor_availability/internal/service"
	"go.uber.org/zap"
)

// Materializer периодически досоздаёт инстансы активных правил
// повторения, чтобы слоты всегда существовали на весь горизонт правила
type Materializer struct {
	availability *service.AvailabilityService
	interval     time.Duration
	logger       *zap.Logger
	stopChan     chan struct{}
}

// NewMaterializer создаёт фоновый материализатор
func NewMaterializer(availability *service.AvailabilityService, interval time.Duration, logger *zap.Logger) *Materializer {
	return &Materializer{
		availability: availability,
		interval:     interval,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start запускает фоновую задачу материализации
func (m *Materializer) Start(ctx context.Context) {
	m.logger.Info("Starting background materializer",
		zap.Duration("interval", m.interval))

	go m.run(ctx)
}

// Stop останавливает фоновую задачу
func (m *Materializer) Stop() {
	m.logger.Info("Stopping background materializer")
	close(m.stopChan)
}

func (m *Materializer) run(ctx context.Context) {
	// Первый запуск сразу при старте
	m.materialize(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.materialize(ctx)
		case <-m.stopChan:
			m.logger.Info("Materializer task stopped")
			return
		case <-ctx.Done():
			m.logger.Info("Materializer task cancelled")
			return
		}
	}
}

func (m *Materializer) materialize(ctx context.Context) {
	created, err := m.availability.MaterializeActiveRules(ctx, time.Now())
	if err != nil {
		m.logger.Error("Failed to materialize recurrence rules", zap.Error(err))
		return
	}

	m.logger.Info("Materialization pass completed", zap.Int("slots_created", created))
}
