// Package payments records payment attempts against orders through a mock
// gateway. One successful payment per order; amounts must match the order
// total to the cent. Non-MOCK methods are declined a small share of the
// time, and a declined attempt may be retried.
package payments

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/models"
	"github.com/vmelnikov/food_ordering/internal/orders"
)

// amountTolerance allows a one-cent mismatch between the charged amount
// and the order total.
var amountTolerance = decimal.NewFromFloat(0.01)

// declinePercent is the gateway's decline rate for non-MOCK methods.
const declinePercent = 5

type Service struct {
	DB     *gorm.DB
	Orders *orders.Repo

	roll func() int // uniform in [0,100)
}

func NewService(db *gorm.DB, orderRepo *orders.Repo) *Service {
	return &Service{DB: db, Orders: orderRepo, roll: secureRoll}
}

func secureRoll() int {
	n, _ := rand.Int(rand.Reader, big.NewInt(100))
	return int(n.Int64())
}

type ProcessRequest struct {
	OrderID uuid.UUID       `json:"orderId"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"paymentMethod"`
}

// Process charges an order through the mock gateway and records the
// attempt, approved or declined. A declined attempt is returned with
// status FAILED and may be retried; an attempt against an already-paid
// order is rejected.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*models.Payment, error) {
	order, err := s.Orders.FindByID(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}

	var existing models.Payment
	err = s.DB.WithContext(ctx).
		Where("order_id = ? AND status = ?", order.ID, models.PaymentSuccess).
		First(&existing).Error
	if err == nil {
		return nil, errs.Conflictf("ALREADY_PAID",
			"order %s is already paid (transaction %s)", order.OrderNumber, existing.TransactionID)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: check existing payment: %v", errs.ErrInternal, err)
	}

	if req.Amount.Sub(order.TotalAmount).Abs().GreaterThan(amountTolerance) {
		return nil, errs.Validationf("AMOUNT_MISMATCH", "amount",
			"payment amount %s does not match order total %s", req.Amount, order.TotalAmount)
	}

	method := req.Method
	if method == "" {
		method = "MOCK"
	}
	result := s.charge(method)

	payment := models.Payment{
		OrderID:       order.ID,
		Amount:        req.Amount,
		Status:        result.Status,
		PaymentMethod: method,
		TransactionID: newTransactionID(),
		GatewayCode:   result.GatewayCode,
		ErrorCode:     result.ErrorCode,
		Message:       result.Message,
		CardLast4:     result.CardLast4,
	}
	if err := s.DB.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, fmt.Errorf("%w: record payment: %v", errs.ErrInternal, err)
	}
	return &payment, nil
}

type gatewayResult struct {
	Status      models.PaymentStatus
	GatewayCode string
	ErrorCode   string
	Message     string
	CardLast4   string
}

// charge simulates the gateway. MOCK always approves; any other method
// is declined declinePercent of the time.
func (s *Service) charge(method string) gatewayResult {
	if method != "MOCK" && s.roll() < declinePercent {
		return gatewayResult{
			Status:      models.PaymentFailed,
			GatewayCode: "DECLINED",
			ErrorCode:   "INSUFFICIENT_FUNDS",
			Message:     "Payment declined - Insufficient funds",
		}
	}
	result := gatewayResult{
		Status:      models.PaymentSuccess,
		GatewayCode: "APPROVED",
		Message:     "Payment processed successfully",
	}
	if method == "CARD" {
		result.CardLast4 = "4242"
	}
	return result
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("PAYMENT_NOT_FOUND", "payment '%s' not found", id)
		}
		return nil, fmt.Errorf("%w: find payment: %v", errs.ErrInternal, err)
	}
	return &p, nil
}

// GetByOrder returns the order's latest attempt, which is the
// successful one when the order has been paid.
func (s *Service) GetByOrder(ctx context.Context, orderID uuid.UUID) (*models.Payment, error) {
	var p models.Payment
	err := s.DB.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("PAYMENT_NOT_FOUND", "no payment for order '%s'", orderID)
		}
		return nil, fmt.Errorf("%w: find payment: %v", errs.ErrInternal, err)
	}
	return &p, nil
}

// newTransactionID yields TXN-YYYYMMDD-XXXXXX with a random six-digit
// suffix.
func newTransactionID() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(1000000))
	return fmt.Sprintf("TXN-%s-%06d", time.Now().UTC().Format("20060102"), n.Int64())
}
