package processor

import (
	"context"

	"cedarworks/internal/app/erp/service"
	"cedarworks/pkg/logger"

	"github.com/robfig/cron/v3"
)

// CronScheduler по расписанию прогревает кеш курсов валют
type CronScheduler struct {
	cron     *cron.Cron
	ratesSvc service.RatesServiceInterface
}

func NewCronScheduler(ratesSvc service.RatesServiceInterface) *CronScheduler {
	return &CronScheduler{
		cron:     cron.New(),
		ratesSvc: ratesSvc,
	}
}

// Start регистрирует задачу и выполняет первичный прогрев кеша
func (s *CronScheduler) Start(ctx context.Context, schedule string) error {
	logger.Info().Str("schedule", schedule).Msg("starting rates refresh scheduler")

	_, err := s.cron.AddFunc(schedule, func() {
		s.refresh(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()

	// Первичный прогрев: страницы не должны ждать первого тика расписания
	s.refresh(ctx)

	return nil
}

func (s *CronScheduler) refresh(ctx context.Context) {
	if err := s.ratesSvc.RefreshLatest(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to refresh latest rates")
	}
	if err := s.ratesSvc.PrecomputePeriodAverages(ctx); err != nil {
		logger.Error().Err(err).Msg("failed to precompute period averages")
	}
}

// Stop останавливает планировщик дожидаясь завершения текущей задачи
func (s *CronScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info().Msg("rates refresh scheduler stopped")
}

func (s *CronScheduler) GetEntries() []cron.Entry {
	return s.cron.Entries()
}
