// Package kitchen drives the fulfillment side: the order queue and the
// status state machine.
package kitchen

import (
	"context"

	"github.com/google/uuid"

	"github.com/vmelnikov/food_ordering/internal/errs"
	"github.com/vmelnikov/food_ordering/internal/events"
	"github.com/vmelnikov/food_ordering/internal/models"
	"github.com/vmelnikov/food_ordering/internal/orders"
)

// transitions is the full status graph. COMPLETED and CANCELLED are
// terminal: they have no outgoing edges.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusReceived:  {models.StatusPreparing, models.StatusCancelled},
	models.StatusPreparing: {models.StatusReady, models.StatusCancelled},
	models.StatusReady:     {models.StatusCompleted, models.StatusCancelled},
}

func canTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Service struct {
	Repo *orders.Repo
	Sink events.Sink
}

func NewService(repo *orders.Repo, sink events.Sink) *Service {
	return &Service{Repo: repo, Sink: sink}
}

type StatusUpdate struct {
	Status    models.OrderStatus `json:"status"`
	ChangedBy string             `json:"changedBy"`
	Notes     string             `json:"notes"`
}

// UpdateStatus applies one transition. Invalid edges, including any move
// out of a terminal status, are rejected without touching the order.
func (s *Service) UpdateStatus(ctx context.Context, idOrNumber string, upd StatusUpdate) (*models.Order, error) {
	switch upd.Status {
	case models.StatusReceived, models.StatusPreparing, models.StatusReady,
		models.StatusCompleted, models.StatusCancelled:
	default:
		return nil, errs.Validationf("INVALID_STATUS", "status",
			"unknown order status '%s'", upd.Status)
	}
	if upd.ChangedBy == "" {
		upd.ChangedBy = "kitchen"
	}

	order, err := s.find(ctx, idOrNumber)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if !canTransition(from, upd.Status) {
		return nil, errs.Conflictf("INVALID_TRANSITION",
			"cannot move order %s from %s to %s", order.OrderNumber, from, upd.Status)
	}

	if err := s.Repo.UpdateStatus(ctx, order.ID, from, upd.Status, upd.ChangedBy, upd.Notes); err != nil {
		return nil, err
	}

	order, err = s.Repo.FindByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	events.PublishStatusUpdate(ctx, s.Sink, order, from, upd.ChangedBy, upd.Notes)
	return order, nil
}

// Queue lists the kitchen's working set oldest-first, optionally narrowed
// to one status.
func (s *Service) Queue(ctx context.Context, status *models.OrderStatus) ([]models.Order, error) {
	if status != nil {
		switch *status {
		case models.StatusReceived, models.StatusPreparing, models.StatusReady,
			models.StatusCompleted, models.StatusCancelled:
		default:
			return nil, errs.Validationf("INVALID_STATUS", "status",
				"unknown order status '%s'", *status)
		}
	}
	return s.Repo.ListByStatus(ctx, status)
}

func (s *Service) Order(ctx context.Context, idOrNumber string) (*models.Order, error) {
	return s.find(ctx, idOrNumber)
}

// Stats reports per-status order counts; statuses with no orders appear
// with a zero.
func (s *Service) Stats(ctx context.Context) (map[models.OrderStatus]int64, error) {
	counts, err := s.Repo.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, st := range []models.OrderStatus{
		models.StatusReceived, models.StatusPreparing, models.StatusReady,
		models.StatusCompleted, models.StatusCancelled,
	} {
		if _, ok := counts[st]; !ok {
			counts[st] = 0
		}
	}
	return counts, nil
}

func (s *Service) find(ctx context.Context, idOrNumber string) (*models.Order, error) {
	if id, err := uuid.Parse(idOrNumber); err == nil {
		return s.Repo.FindByID(ctx, id)
	}
	return s.Repo.FindByNumber(ctx, idOrNumber)
}
