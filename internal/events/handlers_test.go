package events

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/apperr"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/dedup"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
)

const testOrderID = "5f0c2a6e-7a1b-4b9e-9d7e-3a2b1c0d9e8f"

type fakeOrders struct {
	order.Repository
	pool         pgxmock.PgxPoolIface
	updateStatus func(orderID string, to order.Status) (*order.Order, order.Status, error)
	calls        int
}

func (f *fakeOrders) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	return f.pool.BeginTx(ctx, opts)
}

func (f *fakeOrders) UpdateStatusWithTx(ctx context.Context, tx pgx.Tx, orderID string, to order.Status, at time.Time) (*order.Order, order.Status, error) {
	f.calls++
	return f.updateStatus(orderID, to)
}

type fakeObserver struct {
	from []order.Status
	ctx  context.Context
}

func (f *fakeObserver) StatusChanged(ctx context.Context, o *order.Order, from order.Status) {
	f.ctx = ctx
	f.from = append(f.from, from)
}

func shipmentBody(t *testing.T, seq int64, status string) []byte {
	t.Helper()
	body, err := json.Marshal(ShipmentStatusUpdatedEnvelope{
		EventName:     shipmentStatusUpdatedEventName,
		EventVersion:  shipmentStatusUpdatedEventVersion,
		EventID:       "evt-1",
		CorrelationID: "corr-1",
		Producer:      "fulfillment-service",
		PartitionKey:  testOrderID,
		Sequence:      seq,
		OccurredAt:    time.Now().UTC(),
		Payload:       ShipmentStatusUpdatedPayload{OrderID: testOrderID, Status: status},
	})
	require.NoError(t, err)
	return body
}

func newHandlerFixture(t *testing.T) (pgxmock.PgxPoolIface, *fakeOrders, *fakeObserver, HandlerFunc) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	orders := &fakeOrders{pool: mock, updateStatus: func(id string, to order.Status) (*order.Order, order.Status, error) {
		return &order.Order{ID: id, Status: to}, order.StatusProcessing, nil
	}}
	observer := &fakeObserver{}
	h := ShipmentStatusUpdatedHandler(orders, dedup.NewRepository(mock), observer, log.New(io.Discard, "", 0), ShipmentStatusConsumerName)
	return mock, orders, observer, h
}

func TestShipmentStatusUpdatedHandler_Applies(t *testing.T) {
	mock, orders, observer, h := newHandlerFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM event_dedup_checkpoint`).WithArgs(ShipmentStatusConsumerName, testOrderID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`INSERT INTO event_dedup_checkpoint`).WithArgs(ShipmentStatusConsumerName, testOrderID, int64(1)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, h(context.Background(), shipmentBody(t, 1, "shipped")))
	assert.Equal(t, 1, orders.calls)
	assert.Equal(t, []order.Status{order.StatusProcessing}, observer.from)
	assert.Equal(t, "evt-1", fromContext(observer.ctx, causationKey{}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStatusUpdatedHandler_SkipsDuplicate(t *testing.T) {
	mock, orders, observer, h := newHandlerFixture(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM event_dedup_checkpoint`).WithArgs(ShipmentStatusConsumerName, testOrderID).
		WillReturnRows(pgxmock.NewRows([]string{"last_sequence"}).AddRow(int64(3)))
	mock.ExpectRollback()

	require.NoError(t, h(context.Background(), shipmentBody(t, 3, "shipped")))
	assert.Zero(t, orders.calls)
	assert.Empty(t, observer.from)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStatusUpdatedHandler_IllegalTransitionIsAcked(t *testing.T) {
	mock, orders, observer, h := newHandlerFixture(t)
	orders.updateStatus = func(id string, to order.Status) (*order.Order, order.Status, error) {
		return nil, order.StatusDelivered, apperr.Conflict("order cannot move from delivered to %s", to)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM event_dedup_checkpoint`).WithArgs(ShipmentStatusConsumerName, testOrderID).
		WillReturnRows(pgxmock.NewRows([]string{"last_sequence"}).AddRow(int64(1)))
	mock.ExpectExec(`INSERT INTO event_dedup_checkpoint`).WithArgs(ShipmentStatusConsumerName, testOrderID, int64(2)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, h(context.Background(), shipmentBody(t, 2, "cancelled")))
	assert.Empty(t, observer.from)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStatusUpdatedHandler_UnknownOrderIsDeadLettered(t *testing.T) {
	mock, orders, _, h := newHandlerFixture(t)
	orders.updateStatus = func(id string, to order.Status) (*order.Order, order.Status, error) {
		return nil, "", apperr.NotFound("order %s not found", id)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM event_dedup_checkpoint`).WithArgs(ShipmentStatusConsumerName, testOrderID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := h(context.Background(), shipmentBody(t, 1, "shipped"))
	require.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShipmentStatusUpdatedHandler_MalformedMessages(t *testing.T) {
	_, orders, _, h := newHandlerFixture(t)

	require.Error(t, h(context.Background(), []byte(`{not json`)))
	require.Error(t, h(context.Background(), shipmentBody(t, 1, "teleported")))

	wrongName, err := json.Marshal(ShipmentStatusUpdatedEnvelope{
		EventName: "OrderPlaced", EventVersion: 1, EventID: "e", PartitionKey: testOrderID,
	})
	require.NoError(t, err)
	require.Error(t, h(context.Background(), wrongName))
	assert.Zero(t, orders.calls)
}
