package rporder

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fulfilment/internal/app/domains/entity/etorder"
	"fulfilment/internal/app/domains/repo/rpevent"
	"fulfilment/internal/app/pkg/errorx"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var testNow = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func newTestOrder(t *testing.T) *etorder.Order {
	o, err := etorder.NewOrder("ORD-1", "CUST-1", []*etorder.OrderLine{
		{LineID: 10, ProductCode: "6408430001000", Name: "Whole milk", Quantity: decimal.NewFromInt(5), Unit: "pcs"},
		{LineID: 20, ProductCode: "BANANA", Quantity: decimal.RequireFromString("1.5"), Unit: "kg"},
	}, testNow)
	require.NoError(t, err)
	o.Version = 1
	return o
}

func TestOrderRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	order := newTestOrder(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `orders`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `order_events`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), order, order.TakeEvents()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	src := newTestOrder(t)
	require.NoError(t, src.TransitionTo(etorder.StatePicking, "picking started", testNow))
	src.RecordShortage(&etorder.Shortage{
		LineID: 10, Expected: decimal.NewFromInt(5), Picked: decimal.NewFromInt(4), PickerID: "P-1", At: testNow,
	}, testNow)
	doc, err := json.Marshal(toDocument(src))
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "customer_id", "state", "version", "document", "created_at", "updated_at"}).
		AddRow("ORD-1", "CUST-1", "PICKING", 2, doc, testNow, testNow)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `orders` WHERE id = ?")).
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "ORD-1")
	require.NoError(t, err)
	assert.Equal(t, etorder.StatePicking, got.State)
	assert.Equal(t, int64(2), got.Version)
	require.Len(t, got.Lines, 2)
	assert.True(t, got.Lines[1].Quantity.Equal(decimal.RequireFromString("1.5")))
	require.Len(t, got.Shortages, 1)
	assert.Equal(t, "P-1", got.Shortages[0].PickerID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `orders`")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "ORD-404")
	require.Error(t, err)
	assert.Equal(t, errorx.KindNotFound, errorx.KindOf(err))
	assert.ErrorIs(t, err, errorx.ErrOrderNotFound)
}

func TestOrderRepository_Update(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	order := newTestOrder(t)
	order.TakeEvents()

	require.NoError(t, order.TransitionTo(etorder.StatePicking, "picking started", testNow))
	order.Version++

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `orders` SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `order_events`")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Update(context.Background(), order, order.TakeEvents()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStaleVersion(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewOrderRepository(db)
	order := newTestOrder(t)
	order.Version = 3

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `orders` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), order, order.TakeEvents())
	require.Error(t, err)
	assert.Equal(t, errorx.KindConflict, errorx.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryOrderRepository(t *testing.T) {
	events := rpevent.NewMemoryEventRepository()
	repo := NewMemoryOrderRepository(events)
	ctx := context.Background()

	order := newTestOrder(t)
	require.NoError(t, repo.Create(ctx, order, order.TakeEvents()))

	err := repo.Create(ctx, order, nil)
	assert.Equal(t, errorx.KindConflict, errorx.KindOf(err))

	// 读取的是副本
	got, err := repo.GetByID(ctx, "ORD-1")
	require.NoError(t, err)
	got.Lines[0].Quantity = decimal.Zero
	again, err := repo.GetByID(ctx, "ORD-1")
	require.NoError(t, err)
	assert.True(t, again.Lines[0].Quantity.Equal(decimal.NewFromInt(5)))

	// 版本必须连续
	require.NoError(t, got.TransitionTo(etorder.StatePicking, "picking started", testNow))
	got.Version++
	require.NoError(t, repo.Update(ctx, got, got.TakeEvents()))

	stale := again
	stale.Version++
	err = repo.Update(ctx, stale, nil)
	assert.Equal(t, errorx.KindConflict, errorx.KindOf(err))

	log, err := events.ListByOrder(ctx, "ORD-1")
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, etorder.EventOrderCreated, log[0].Type)
	assert.Equal(t, etorder.EventStateChanged, log[1].Type)

	_, err = repo.GetByID(ctx, "ORD-404")
	assert.ErrorIs(t, err, errorx.ErrOrderNotFound)
}
