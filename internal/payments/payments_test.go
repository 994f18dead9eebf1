package payments

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/models"
	"github.com/vmelnikov/food_ordering/internal/orders"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return NewService(db, orders.NewRepo(db)), db
}

func seedOrder(t *testing.T, db *gorm.DB, total string) *models.Order {
	t.Helper()
	order := models.Order{
		OrderNumber: "ORD-20260831-001",
		SessionID:   "sess_test",
		Status:      models.StatusReceived,
		Subtotal:    d(total),
		TaxAmount:   decimal.Zero,
		TotalAmount: d(total),
	}
	require.NoError(t, db.Create(&order).Error)
	return &order
}

func TestProcessPayment(t *testing.T) {
	svc, db := newService(t)
	order := seedOrder(t, db, "30.66")

	payment, err := svc.Process(context.Background(), ProcessRequest{
		OrderID: order.ID,
		Amount:  d("30.66"),
	})
	require.NoError(t, err)

	require.Equal(t, models.PaymentSuccess, payment.Status)
	require.Equal(t, "MOCK", payment.PaymentMethod)
	require.Regexp(t, `^TXN-\d{8}-\d{6}$`, payment.TransactionID)
	require.Equal(t, "APPROVED", payment.GatewayCode)
}

func TestProcessPaymentWithinTolerance(t *testing.T) {
	svc, db := newService(t)
	order := seedOrder(t, db, "10.00")

	_, err := svc.Process(context.Background(), ProcessRequest{
		OrderID: order.ID,
		Amount:  d("10.01"),
	})
	require.NoError(t, err)
}

func TestProcessPaymentAmountMismatch(t *testing.T) {
	svc, db := newService(t)
	order := seedOrder(t, db, "10.00")

	_, err := svc.Process(context.Background(), ProcessRequest{
		OrderID: order.ID,
		Amount:  d("9.50"),
	})
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Equal(t, "AMOUNT_MISMATCH", errs.Code(err))
}

func TestProcessPaymentTwiceRejected(t *testing.T) {
	svc, db := newService(t)
	order := seedOrder(t, db, "12.00")

	_, err := svc.Process(context.Background(), ProcessRequest{OrderID: order.ID, Amount: d("12.00")})
	require.NoError(t, err)

	_, err = svc.Process(context.Background(), ProcessRequest{OrderID: order.ID, Amount: d("12.00")})
	require.ErrorIs(t, err, errs.ErrConflict)
	require.Equal(t, "ALREADY_PAID", errs.Code(err))
}

func TestProcessPaymentCardDecline(t *testing.T) {
	svc, db := newService(t)
	order := seedOrder(t, db, "20.00")
	svc.roll = func() int { return 0 } // force the gateway's decline branch

	payment, err := svc.Process(context.Background(), ProcessRequest{
		OrderID: order.ID,
		Amount:  d("20.00"),
		Method:  "CARD",
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentFailed, payment.Status)
	require.Equal(t, "DECLINED", payment.GatewayCode)
	require.Equal(t, "INSUFFICIENT_FUNDS", payment.ErrorCode)
	require.Empty(t, payment.CardLast4)

	// a declined order may be retried, and the retry can succeed
	svc.roll = func() int { return 99 }
	retry, err := svc.Process(context.Background(), ProcessRequest{
		OrderID: order.ID,
		Amount:  d("20.00"),
		Method:  "CARD",
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentSuccess, retry.Status)
	require.Equal(t, "4242", retry.CardLast4)
	require.NotEqual(t, payment.TransactionID, retry.TransactionID)

	// the successful attempt is the one reported for the order
	found, err := svc.GetByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, retry.TransactionID, found.TransactionID)

	// and it closes the order to further attempts
	_, err = svc.Process(context.Background(), ProcessRequest{
		OrderID: order.ID, Amount: d("20.00"), Method: "CARD",
	})
	require.ErrorIs(t, err, errs.ErrConflict)
	require.Equal(t, "ALREADY_PAID", errs.Code(err))
}

func TestProcessPaymentMockAlwaysApproves(t *testing.T) {
	svc, db := newService(t)
	order := seedOrder(t, db, "4.00")
	svc.roll = func() int { return 0 }

	payment, err := svc.Process(context.Background(), ProcessRequest{
		OrderID: order.ID,
		Amount:  d("4.00"),
		Method:  "MOCK",
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentSuccess, payment.Status)
}

func TestProcessPaymentUnknownOrder(t *testing.T) {
	svc, db := newService(t)
	seedOrder(t, db, "5.00")

	_, err := svc.Process(context.Background(), ProcessRequest{
		OrderID: uuid.New(),
		Amount:  d("5.00"),
	})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestGetByOrder(t *testing.T) {
	svc, db := newService(t)
	order := seedOrder(t, db, "7.25")

	created, err := svc.Process(context.Background(), ProcessRequest{OrderID: order.ID, Amount: d("7.25")})
	require.NoError(t, err)

	found, err := svc.GetByOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, created.TransactionID, found.TransactionID)

	byID, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Equal(t, created.TransactionID, byID.TransactionID)
}
