package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"cedarworks/internal/app/erp/entity"
	"cedarworks/internal/app/erp/repository"
	"cedarworks/pkg/logger"
	"cedarworks/pkg/metrics"

	"github.com/google/uuid"
)

const (
	DeleteModeSoft = "soft"
	DeleteModeHard = "hard"
)

// PriceService - движок истории цен
// История append-only: правка и добавление создают новую запись, флаг
// is_current переходит с предшественника. Записи аудита и события Kafka
// сопровождают каждую замену
type PriceService struct {
	priceRepo     repository.PriceRepository
	agreementRepo repository.AgreementRepository
	salesRepo     repository.SalesRepository // может быть nil - порт продаж внешний
	publisher     MessagePublisher
}

// NewPriceService создает новый движок истории цен с внедрением зависимостей
func NewPriceService(
	priceRepo repository.PriceRepository,
	agreementRepo repository.AgreementRepository,
	salesRepo repository.SalesRepository,
	publisher MessagePublisher,
) *PriceService {
	return &PriceService{
		priceRepo:     priceRepo,
		agreementRepo: agreementRepo,
		salesRepo:     salesRepo,
		publisher:     publisher,
	}
}

// === STANDARD PRICES ===

// AddStandardPrice добавляет запись стандартной цены
// price_usd вычисляется как price_local / exchange_rate. Если текущая
// запись по коду существует, выполняется замена в одной транзакции;
// добавление задним числом вставляется историческим без замены
func (s *PriceService) AddStandardPrice(ctx context.Context, req *entity.AddStandardPriceRequest, actor string) (*entity.StandardPrice, error) {
	if req.PriceLocal <= 0 {
		return nil, ErrInvalidPrice
	}
	if req.ExchangeRate <= 0 {
		return nil, ErrInvalidRate
	}
	if !IsKnownCurrency(req.LocalCurrency) {
		return nil, ErrUnknownCurrency
	}

	now := time.Now()
	rec := &entity.StandardPrice{
		ID:            uuid.New(),
		ProductID:     req.ProductID,
		ProductCode:   req.ProductCode,
		ProductName:   req.ProductName,
		PriceUSD:      req.PriceLocal / req.ExchangeRate,
		PriceLocal:    req.PriceLocal,
		LocalCurrency: req.LocalCurrency,
		ExchangeRate:  req.ExchangeRate,
		EffectiveDate: req.EffectiveDate,
		ChangeReason:  req.ChangeReason,
		IsCurrent:     true,
		CreatedBy:     actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	predecessor, err := s.priceRepo.CurrentByProductCode(ctx, req.ProductCode)
	if err != nil {
		if !errors.Is(err, repository.ErrPriceNotFound) {
			return nil, fmt.Errorf("failed to find current price: %w", err)
		}
		predecessor = nil
	}

	if predecessor == nil {
		// Первая цена продукта - записи аудита нет
		if err := s.priceRepo.Insert(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to insert price: %w", err)
		}
		return rec, nil
	}

	if rec.EffectiveDate.Before(predecessor.EffectiveDate) {
		// Добавление задним числом: запись историческая, текущая не меняется
		// Аудит все равно пишется - по знаку видно направление изменения
		// от вставленной записи к действующей
		rec.IsCurrent = false
		change := s.changeRecord(rec.ProductCode, nil, rec, predecessor, predecessor.EffectiveDate)
		change.ChangeReason = rec.ChangeReason
		change.ExchangeRateAtChange = rec.ExchangeRate
		if err := s.priceRepo.InsertHistorical(ctx, rec, change); err != nil {
			return nil, fmt.Errorf("failed to insert historical price: %w", err)
		}
		return rec, nil
	}

	// Обычная замена: предшественник теряет is_current в той же транзакции
	// При совпадении effective_date порядок решает created_at - новая
	// запись свежее и становится текущей
	change := s.changeRecord(rec.ProductCode, nil, predecessor, rec, now)
	if err := s.priceRepo.Supersede(ctx, rec, predecessor.ID, change); err != nil {
		return nil, fmt.Errorf("failed to supersede price: %w", err)
	}

	metrics.RecordSupersession("standard")
	s.publishPriceEvent(ctx, entity.PriceEvent{
		EventType:    entity.EventPriceSuperseded,
		ProductCode:  rec.ProductCode,
		OldPriceUSD:  predecessor.PriceUSD,
		NewPriceUSD:  rec.PriceUSD,
		Currency:     rec.LocalCurrency,
		ChangeReason: rec.ChangeReason,
		Timestamp:    now,
	})

	return rec, nil
}

// UpdatePrice семантически эквивалентен добавлению: создается новая
// запись, замещающая текущую по тому же коду. Исторические значения
// напрямую не правятся
func (s *PriceService) UpdatePrice(ctx context.Context, priceID uuid.UUID, req *entity.UpdatePriceRequest, actor string) (*entity.StandardPrice, error) {
	if req.PriceLocal <= 0 {
		return nil, ErrInvalidPrice
	}
	if req.ExchangeRate <= 0 {
		return nil, ErrInvalidRate
	}
	if !IsKnownCurrency(req.Currency) {
		return nil, ErrUnknownCurrency
	}

	orig, err := s.priceRepo.GetByID(ctx, priceID)
	if err != nil {
		if errors.Is(err, repository.ErrPriceNotFound) {
			return nil, ErrPriceNotFound
		}
		return nil, fmt.Errorf("failed to get price: %w", err)
	}

	addReq := &entity.AddStandardPriceRequest{
		ProductID:     orig.ProductID,
		ProductCode:   orig.ProductCode,
		ProductName:   orig.ProductName,
		PriceLocal:    req.PriceLocal,
		LocalCurrency: req.Currency,
		ExchangeRate:  req.ExchangeRate,
		EffectiveDate: time.Now(),
		ChangeReason:  req.ChangeReason,
	}

	return s.AddStandardPrice(ctx, addReq, actor)
}

// UpdateChangeReason правит причину изменения исторической записи -
// единственная разрешенная прямая правка
func (s *PriceService) UpdateChangeReason(ctx context.Context, priceID uuid.UUID, reason string) error {
	if err := s.priceRepo.UpdateChangeReason(ctx, priceID, reason); err != nil {
		if errors.Is(err, repository.ErrPriceNotFound) {
			return ErrPriceNotFound
		}
		return fmt.Errorf("failed to update change reason: %w", err)
	}
	return nil
}

// ListPrices возвращает либо по одной текущей записи на продукт,
// либо полную историю (самые свежие первыми)
// Неоднозначный is_current (две текущих строки) лечится на чтении:
// выигрывает самая свежая по effective_date затем created_at, остальные
// показываются историческими, в лог уходит предупреждение
func (s *PriceService) ListPrices(ctx context.Context, productCode string, includeHistory bool) ([]entity.StandardPrice, error) {
	if includeHistory {
		if productCode != "" {
			return s.priceRepo.ListByProductCode(ctx, productCode)
		}
		return s.priceRepo.ListAll(ctx)
	}

	current, err := s.priceRepo.ListCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list current prices: %w", err)
	}

	// Коэрция к согласованному виду: не больше одной текущей на код
	seen := make(map[string]int)
	result := make([]entity.StandardPrice, 0, len(current))
	for _, p := range current {
		if productCode != "" && p.ProductCode != productCode {
			continue
		}
		if idx, dup := seen[p.ProductCode]; dup {
			logger.Warn().
				Str("product_code", p.ProductCode).
				Msg("multiple current price rows detected, most recent wins")
			if moreRecent(p, result[idx]) {
				result[idx] = p
			}
			continue
		}
		seen[p.ProductCode] = len(result)
		result = append(result, p)
	}

	return result, nil
}

func moreRecent(a, b entity.StandardPrice) bool {
	if !a.EffectiveDate.Equal(b.EffectiveDate) {
		return a.EffectiveDate.After(b.EffectiveDate)
	}
	return a.CreatedAt.After(b.CreatedAt)
}

// DeletePrice удаляет запись цены
// soft только снимает is_current, строка остается для аудита;
// hard физически удаляет и при необходимости продвигает предыдущую
func (s *PriceService) DeletePrice(ctx context.Context, priceID uuid.UUID, mode string) error {
	switch mode {
	case DeleteModeSoft:
		if err := s.priceRepo.SetCurrent(ctx, priceID, false); err != nil {
			if errors.Is(err, repository.ErrPriceNotFound) {
				return ErrPriceNotFound
			}
			return fmt.Errorf("failed to soft delete price: %w", err)
		}
		return nil
	case DeleteModeHard:
		if err := s.priceRepo.HardDeleteAndPromote(ctx, priceID); err != nil {
			if errors.Is(err, repository.ErrPriceNotFound) {
				return ErrPriceNotFound
			}
			return fmt.Errorf("failed to hard delete price: %w", err)
		}
		return nil
	}
	return ErrInvalidDeleteMode
}

// ListPriceChanges возвращает записи аудита изменений цен
func (s *PriceService) ListPriceChanges(ctx context.Context, productCode string) ([]entity.PriceChangeRecord, error) {
	return s.priceRepo.ListChanges(ctx, productCode)
}

// VarianceAnalysis считает отклонение фактических цен от стандартных
// в окне [from, to). Продукты с менее чем двумя наблюдениями пропускаются.
// Отсутствие порта продаж - пустой результат, не ошибка
func (s *PriceService) VarianceAnalysis(ctx context.Context, from, to time.Time) ([]entity.PriceVariance, error) {
	if s.salesRepo == nil {
		return []entity.PriceVariance{}, nil
	}

	observations, err := s.salesRepo.Observations(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales observations: %w", err)
	}

	byProduct := make(map[string][]float64)
	for _, obs := range observations {
		byProduct[obs.ProductCode] = append(byProduct[obs.ProductCode], obs.ActualPrice)
	}

	result := make([]entity.PriceVariance, 0, len(byProduct))
	for code, prices := range byProduct {
		if len(prices) < 2 {
			continue
		}

		standard, err := s.priceRepo.CurrentByProductCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrPriceNotFound) {
				// Нет стандартной цены - сравнивать не с чем
				continue
			}
			return nil, fmt.Errorf("failed to get standard price for %s: %w", code, err)
		}
		if standard.PriceUSD == 0 {
			continue
		}

		sum := 0.0
		for _, p := range prices {
			sum += p
		}
		avg := sum / float64(len(prices))

		result = append(result, entity.PriceVariance{
			ProductCode:    code,
			StandardPrice:  standard.PriceUSD,
			AvgActualPrice: avg,
			VariancePct:    (avg - standard.PriceUSD) / standard.PriceUSD * 100,
			SampleCount:    len(prices),
			Currency:       "USD",
		})
	}

	// Обход map не упорядочен - API отдает стабильный порядок
	sort.Slice(result, func(i, j int) bool {
		return result[i].ProductCode < result[j].ProductCode
	})

	return result, nil
}

// === SUPPLIER AGREEMENTS ===

// AddAgreement добавляет ценовое соглашение с поставщиком
// Инварианты истории действуют в разрезе (product_code, supplier_id)
func (s *PriceService) AddAgreement(ctx context.Context, req *entity.AddAgreementRequest, actor string) (*entity.SupplierAgreement, error) {
	if req.PriceLocal <= 0 {
		return nil, ErrInvalidPrice
	}
	if req.ExchangeRate <= 0 {
		return nil, ErrInvalidRate
	}
	if !IsKnownCurrency(req.LocalCurrency) {
		return nil, ErrUnknownCurrency
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, ErrInvalidPeriod
	}

	now := time.Now()
	rec := &entity.SupplierAgreement{
		ID:              uuid.New(),
		ProductID:       req.ProductID,
		ProductCode:     req.ProductCode,
		ProductName:     req.ProductName,
		SupplierID:      req.SupplierID,
		SupplierName:    req.SupplierName,
		PriceUSD:        req.PriceLocal / req.ExchangeRate,
		PriceLocal:      req.PriceLocal,
		LocalCurrency:   req.LocalCurrency,
		ExchangeRate:    req.ExchangeRate,
		MinimumQuantity: req.MinimumQuantity,
		PaymentTerms:    req.PaymentTerms,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		EffectiveDate:   req.EffectiveDate,
		ChangeReason:    req.ChangeReason,
		IsCurrent:       true,
		IsActive:        true,
		CreatedBy:       actor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	predecessor, err := s.agreementRepo.CurrentByKey(ctx, req.ProductCode, req.SupplierID)
	if err != nil {
		if !errors.Is(err, repository.ErrAgreementNotFound) {
			return nil, fmt.Errorf("failed to find current agreement: %w", err)
		}
		predecessor = nil
	}

	if predecessor == nil {
		if err := s.agreementRepo.Insert(ctx, rec); err != nil {
			return nil, fmt.Errorf("failed to insert agreement: %w", err)
		}
		return rec, nil
	}

	if rec.EffectiveDate.Before(predecessor.EffectiveDate) {
		rec.IsCurrent = false
		change := s.agreementChangeRecord(rec, predecessor, predecessor.EffectiveDate)
		if err := s.agreementRepo.InsertHistorical(ctx, rec, change); err != nil {
			return nil, fmt.Errorf("failed to insert historical agreement: %w", err)
		}
		return rec, nil
	}

	change := s.agreementChangeRecord(predecessor, rec, now)
	if err := s.agreementRepo.Supersede(ctx, rec, predecessor.ID, change); err != nil {
		return nil, fmt.Errorf("failed to supersede agreement: %w", err)
	}

	metrics.RecordSupersession("supplier")
	s.publishPriceEvent(ctx, entity.PriceEvent{
		EventType:    entity.EventPriceSuperseded,
		ProductCode:  rec.ProductCode,
		OldPriceUSD:  predecessor.PriceUSD,
		NewPriceUSD:  rec.PriceUSD,
		Currency:     rec.LocalCurrency,
		ChangeReason: rec.ChangeReason,
		Timestamp:    now,
	})

	return rec, nil
}

// ListAgreements возвращает текущие либо все соглашения
func (s *PriceService) ListAgreements(ctx context.Context, includeHistory bool) ([]entity.SupplierAgreement, error) {
	if includeHistory {
		return s.agreementRepo.ListAll(ctx)
	}
	return s.agreementRepo.ListCurrent(ctx)
}

// DeleteAgreement - семантика DeletePrice для закупочной стороны
func (s *PriceService) DeleteAgreement(ctx context.Context, agreementID uuid.UUID, mode string) error {
	switch mode {
	case DeleteModeSoft:
		if err := s.agreementRepo.SetCurrent(ctx, agreementID, false); err != nil {
			if errors.Is(err, repository.ErrAgreementNotFound) {
				return ErrAgreementNotFound
			}
			return fmt.Errorf("failed to soft delete agreement: %w", err)
		}
		return nil
	case DeleteModeHard:
		if err := s.agreementRepo.HardDeleteAndPromote(ctx, agreementID); err != nil {
			if errors.Is(err, repository.ErrAgreementNotFound) {
				return ErrAgreementNotFound
			}
			return fmt.Errorf("failed to hard delete agreement: %w", err)
		}
		return nil
	}
	return ErrInvalidDeleteMode
}

// === HELPERS ===

// changeRecord собирает запись аудита: old - более ранняя запись,
// new - действующая после изменения
func (s *PriceService) changeRecord(productCode string, supplierID *uuid.UUID, old, new *entity.StandardPrice, changeDate time.Time) *entity.PriceChangeRecord {
	return &entity.PriceChangeRecord{
		ID:                   uuid.New(),
		ProductCode:          productCode,
		SupplierID:           supplierID,
		OldPriceUSD:          old.PriceUSD,
		NewPriceUSD:          new.PriceUSD,
		OldPriceLocal:        old.PriceLocal,
		NewPriceLocal:        new.PriceLocal,
		Currency:             new.LocalCurrency,
		ChangeDate:           changeDate,
		ChangeReason:         new.ChangeReason,
		ExchangeRateAtChange: new.ExchangeRate,
		CreatedAt:            time.Now(),
	}
}

func (s *PriceService) agreementChangeRecord(old, new *entity.SupplierAgreement, changeDate time.Time) *entity.PriceChangeRecord {
	supplierID := new.SupplierID
	return &entity.PriceChangeRecord{
		ID:                   uuid.New(),
		ProductCode:          new.ProductCode,
		SupplierID:           &supplierID,
		OldPriceUSD:          old.PriceUSD,
		NewPriceUSD:          new.PriceUSD,
		OldPriceLocal:        old.PriceLocal,
		NewPriceLocal:        new.PriceLocal,
		Currency:             new.LocalCurrency,
		ChangeDate:           changeDate,
		ChangeReason:         new.ChangeReason,
		ExchangeRateAtChange: new.ExchangeRate,
		CreatedAt:            time.Now(),
	}
}

// publishPriceEvent отправляет событие о замене цены в Kafka
// Ключ - product_code для партиционирования. Ошибка отправки логируется,
// но операцию не прерывает: цена уже записана
func (s *PriceService) publishPriceEvent(ctx context.Context, event entity.PriceEvent) {
	if s.publisher == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Error().Err(err).Msg("failed to marshal price event")
		return
	}

	if err := s.publisher.PublishMessage(ctx, event.ProductCode, data); err != nil {
		logger.Warn().Err(err).Str("product_code", event.ProductCode).
			Msg("failed to publish price event")
	}
}
