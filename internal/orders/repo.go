package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/models"
)

type Repo struct {
	DB *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo { return &Repo{DB: db} }

// Create persists the order and applies stock decrements in one
// transaction. Each decrement is a guarded conditional update: zero rows
// affected means another checkout consumed the stock first, and the whole
// order rolls back. The sequential order number is generated inside the
// same transaction.
func (r *Repo) Create(ctx context.Context, order *models.Order, decrements map[uuid.UUID]decimal.Decimal) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for itemID, qty := range decrements {
			res := tx.Model(&models.MenuItem{}).
				Where("id = ? AND available_quantity >= ?", itemID, qty).
				Update("available_quantity", gorm.Expr("available_quantity - ?", qty))
			if res.Error != nil {
				return fmt.Errorf("%w: decrement stock: %v", errs.ErrInternal, res.Error)
			}
			if res.RowsAffected == 0 {
				return errs.Conflictf("INSUFFICIENT_STOCK",
					"insufficient stock for item '%s'", itemID)
			}
		}

		number, err := nextOrderNumber(tx)
		if err != nil {
			return err
		}
		order.OrderNumber = number

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("%w: create order: %v", errs.ErrInternal, err)
		}
		return nil
	})
}

// nextOrderNumber yields ORD-YYYYMMDD-NNN where NNN restarts at 001 each
// day. Counting inside the creating transaction keeps concurrent checkouts
// from sharing a number.
func nextOrderNumber(tx *gorm.DB) (string, error) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var count int64
	err := tx.Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", start, start.AddDate(0, 0, 1)).
		Count(&count).Error
	if err != nil {
		return "", fmt.Errorf("%w: count orders: %v", errs.ErrInternal, err)
	}
	return fmt.Sprintf("ORD-%s-%03d", now.Format("20060102"), count+1), nil
}

func withOrderAssociations(q *gorm.DB) *gorm.DB {
	return q.
		Preload("Items").
		Preload("Items.Customizations").
		Preload("Taxes").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("User")
}

func (r *Repo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := withOrderAssociations(r.DB.WithContext(ctx)).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("ORDER_NOT_FOUND", "order '%s' not found", id)
		}
		return nil, fmt.Errorf("%w: find order: %v", errs.ErrInternal, err)
	}
	return &order, nil
}

func (r *Repo) FindByNumber(ctx context.Context, number string) (*models.Order, error) {
	var order models.Order
	err := withOrderAssociations(r.DB.WithContext(ctx)).
		Where("order_number = ?", number).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NotFoundf("ORDER_NOT_FOUND", "order '%s' not found", number)
		}
		return nil, fmt.Errorf("%w: find order: %v", errs.ErrInternal, err)
	}
	return &order, nil
}

func (r *Repo) ListBySession(ctx context.Context, sessionID string) ([]models.Order, error) {
	var list []models.Order
	err := withOrderAssociations(r.DB.WithContext(ctx)).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", errs.ErrInternal, err)
	}
	return list, nil
}

func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var list []models.Order
	err := withOrderAssociations(r.DB.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", errs.ErrInternal, err)
	}
	return list, nil
}

// ListByStatus returns orders in one status oldest-first. A nil status
// means every non-terminal order, the kitchen's working set.
func (r *Repo) ListByStatus(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	q := withOrderAssociations(r.DB.WithContext(ctx))
	if status != nil {
		q = q.Where("status = ?", *status)
	} else {
		q = q.Where("status IN ?", []models.OrderStatus{
			models.StatusReceived, models.StatusPreparing, models.StatusReady,
		})
	}

	var list []models.Order
	if err := q.Order("created_at ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("%w: list orders: %v", errs.ErrInternal, err)
	}
	return list, nil
}

// UpdateStatus writes the new status and its history entry atomically.
// The UPDATE is guarded on the status the caller validated against, so
// a concurrent transition makes this one a no-op conflict instead of a
// silent overwrite.
func (r *Repo) UpdateStatus(ctx context.Context, orderID uuid.UUID, from, status models.OrderStatus, changedBy, notes string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, from).
			Update("status", status)
		if res.Error != nil {
			return fmt.Errorf("%w: update status: %v", errs.ErrInternal, res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.Conflictf("INVALID_TRANSITION",
				"order '%s' is no longer %s", orderID, from)
		}

		entry := models.OrderStatusHistory{
			OrderID:   orderID,
			Status:    status,
			ChangedBy: changedBy,
			Notes:     notes,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("%w: record status history: %v", errs.ErrInternal, err)
		}
		return nil
	})
}

// StatusCounts tallies orders per status for the kitchen dashboard.
func (r *Repo) StatusCounts(ctx context.Context) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		N      int64
	}
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: count orders by status: %v", errs.ErrInternal, err)
	}

	counts := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}
