package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"cedarworks/internal/app/erp/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PriceRepositoryTestSuite тестовый suite для репозитория цен
type PriceRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	mock  sqlmock.Sqlmock
	repo  PriceRepository
	sqlDB *sql.DB
}

func TestPriceRepositorySuite(t *testing.T) {
	suite.Run(t, new(PriceRepositoryTestSuite))
}

func (s *PriceRepositoryTestSuite) SetupTest() {
	var err error
	s.sqlDB, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	dialector := postgres.New(postgres.Config{
		Conn:       s.sqlDB,
		DriverName: "postgres",
	})

	s.db, err = gorm.Open(dialector, &gorm.Config{})
	require.NoError(s.T(), err)

	s.repo = NewPriceRepository(s.db)
}

func (s *PriceRepositoryTestSuite) TearDownTest() {
	s.sqlDB.Close()
}

func priceRows(id uuid.UUID, code string, priceUSD float64, effectiveDate time.Time, isCurrent bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "product_code", "price_usd", "price_local", "local_currency", "exchange_rate", "effective_date", "is_current", "created_at"}).
		AddRow(id, code, priceUSD, priceUSD*24000, "VND", 24000.0, effectiveDate, isCurrent, time.Now())
}

// ===================== GetByID Tests =====================

func (s *PriceRepositoryTestSuite) TestGetByID_Success() {
	ctx := context.Background()
	id := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "standard_prices" WHERE id = $1`)).
		WithArgs(id, 1).
		WillReturnRows(priceRows(id, "PC-100", 100.0, time.Now(), true))

	price, err := s.repo.GetByID(ctx, id)

	s.NoError(err)
	s.NotNil(price)
	s.Equal(id, price.ID)
	s.Equal("PC-100", price.ProductCode)
	s.InDelta(100.0, price.PriceUSD, 0.001)
}

func (s *PriceRepositoryTestSuite) TestGetByID_NotFound() {
	id := uuid.New()

	s.mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "standard_prices" WHERE id = $1`)).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	price, err := s.repo.GetByID(context.Background(), id)

	s.ErrorIs(err, ErrPriceNotFound)
	s.Nil(price)
}

// ===================== CurrentByProductCode Tests =====================

func (s *PriceRepositoryTestSuite) TestCurrentByProductCode_OrdersByRecency() {
	id := uuid.New()

	// Неоднозначный is_current лечится порядком выборки:
	// effective_date DESC, created_at DESC
	s.mock.ExpectQuery(`SELECT \* FROM "standard_prices" WHERE product_code = \$1 AND is_current = \$2 ORDER BY effective_date DESC, created_at DESC`).
		WithArgs("PC-100", true, 1).
		WillReturnRows(priceRows(id, "PC-100", 110.0, time.Now(), true))

	price, err := s.repo.CurrentByProductCode(context.Background(), "PC-100")

	s.NoError(err)
	s.InDelta(110.0, price.PriceUSD, 0.001)
}

func (s *PriceRepositoryTestSuite) TestCurrentByProductCode_NotFound() {
	s.mock.ExpectQuery(`SELECT \* FROM "standard_prices"`).
		WithArgs("PC-404", true, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	price, err := s.repo.CurrentByProductCode(context.Background(), "PC-404")

	s.ErrorIs(err, ErrPriceNotFound)
	s.Nil(price)
}

// ===================== SetCurrent Tests =====================

func (s *PriceRepositoryTestSuite) TestSetCurrent_Success() {
	id := uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "standard_prices" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.repo.SetCurrent(context.Background(), id, false)

	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

func (s *PriceRepositoryTestSuite) TestSetCurrent_NotFound() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "standard_prices" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectCommit()

	err := s.repo.SetCurrent(context.Background(), uuid.New(), false)

	s.ErrorIs(err, ErrPriceNotFound)
}

// ===================== UpdateChangeReason Tests =====================

func (s *PriceRepositoryTestSuite) TestUpdateChangeReason_Success() {
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "standard_prices" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	err := s.repo.UpdateChangeReason(context.Background(), uuid.New(), "corrected after audit")

	s.NoError(err)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== Supersede Tests =====================

func (s *PriceRepositoryTestSuite) TestSupersede_PredecessorGoneRollsBack() {
	// Предшественник исчез между чтением и заменой - транзакция
	// откатывается, новая запись не вставляется
	s.mock.ExpectBegin()
	s.mock.ExpectExec(`UPDATE "standard_prices" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	s.mock.ExpectRollback()

	rec := &entity.StandardPrice{
		ID:            uuid.New(),
		ProductCode:   "PC-100",
		PriceUSD:      120.0,
		PriceLocal:    2880000,
		LocalCurrency: "VND",
		ExchangeRate:  24000,
		EffectiveDate: time.Now(),
		IsCurrent:     true,
	}
	err := s.repo.Supersede(context.Background(), rec, uuid.New(), nil)

	s.ErrorIs(err, ErrPriceNotFound)
	s.NoError(s.mock.ExpectationsWereMet())
}

// ===================== ListChanges Tests =====================

func (s *PriceRepositoryTestSuite) TestListChanges_FiltersByProductCode() {
	rows := sqlmock.NewRows([]string{"id", "product_code", "old_price_usd", "new_price_usd", "change_date"}).
		AddRow(uuid.New(), "PC-100", 100.0, 110.0, time.Now())

	s.mock.ExpectQuery(`SELECT \* FROM "price_change_records" WHERE product_code = \$1 ORDER BY change_date DESC, created_at DESC`).
		WithArgs("PC-100").
		WillReturnRows(rows)

	changes, err := s.repo.ListChanges(context.Background(), "PC-100")

	s.NoError(err)
	s.Len(changes, 1)
	s.InDelta(110.0, changes[0].NewPriceUSD, 0.001)
}

func (s *PriceRepositoryTestSuite) TestListChanges_AllWhenCodeEmpty() {
	rows := sqlmock.NewRows([]string{"id", "product_code", "old_price_usd", "new_price_usd", "change_date"}).
		AddRow(uuid.New(), "PC-100", 100.0, 110.0, time.Now()).
		AddRow(uuid.New(), "PC-200", 50.0, 55.0, time.Now())

	s.mock.ExpectQuery(`SELECT \* FROM "price_change_records" ORDER BY change_date DESC, created_at DESC`).
		WillReturnRows(rows)

	changes, err := s.repo.ListChanges(context.Background(), "")

	s.NoError(err)
	s.Len(changes, 2)
}
