package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/apperrors"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/metrics"
	"github.com/example/storefront/internal/models"
	"github.com/example/storefront/internal/repository"
)

// totalTolerance absorbs float noise when comparing client and server totals.
const totalTolerance = 0.005

// OrderAlerter receives an out-of-band copy of every new order.
type OrderAlerter interface {
	NotifyNewOrder(ctx context.Context, order *models.Order, buyerEmail string) error
}

// OrderService persists orders and sends confirmations.
type OrderService struct {
	users         repository.UserRepository
	orders        repository.OrderRepository
	notifier      *OrderNotifier
	alerter       OrderAlerter
	metrics       *metrics.Metrics
	operatorEmail string
	now           func() time.Time
}

func NewOrderService(
	users repository.UserRepository,
	orders repository.OrderRepository,
	notifier *OrderNotifier,
	alerter OrderAlerter,
	m *metrics.Metrics,
	operatorEmail string,
) *OrderService {
	return &OrderService{
		users:         users,
		orders:        orders,
		notifier:      notifier,
		alerter:       alerter,
		metrics:       m,
		operatorEmail: operatorEmail,
		now:           time.Now,
	}
}

// Create stores the order snapshot then notifies buyer and operator. Once
// persisted the order stands; notification failures are recorded on it.
func (s *OrderService) Create(ctx context.Context, userID uuid.UUID, items models.OrderItems, total float64, address models.ShippingAddress) (*models.Order, error) {
	if len(items) == 0 {
		return nil, apperrors.Validation("order must contain at least one item")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Internal(fmt.Errorf("lookup user: %w", err))
	}

	if computed := items.Sum(); math.Abs(computed-total) > totalTolerance {
		logger.Warn("Order total differs from item subtotals",
			zap.String("event", "order_total_mismatch"),
			zap.String("user_id", userID.String()),
			zap.Float64("client_total", total),
			zap.Float64("computed_total", computed),
		)
	}

	order := &models.Order{
		UserID:  userID,
		Items:   items,
		Total:   total,
		Address: address,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("create order: %w", err))
	}
	s.metrics.OrderCreated()
	logger.Info("Order created",
		zap.String("event", "order_created"),
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Float64("total", total),
	)

	s.notify(ctx, order, user.Email)
	return order, nil
}

func (s *OrderService) notify(ctx context.Context, order *models.Order, buyerEmail string) {
	var failures []string
	send := func(recipient, to string) {
		err := s.notifier.Notify(ctx, to, order)
		s.metrics.OrderNotification(recipient, err)
		if err != nil {
			failures = append(failures, recipient+": "+err.Error())
			logger.Error("Order confirmation failed",
				zap.String("event", "order_notify_failed"),
				zap.String("order_id", order.ID.String()),
				zap.String("recipient", recipient),
				zap.Error(err),
			)
		}
	}
	send("buyer", buyerEmail)
	send("operator", s.operatorEmail)

	if s.alerter != nil {
		if err := s.alerter.NotifyNewOrder(ctx, order, buyerEmail); err != nil {
			logger.Warn("Operator chat alert failed", zap.String("order_id", order.ID.String()), zap.Error(err))
		}
	}

	if len(failures) == 0 {
		now := s.now()
		order.NotifiedAt = &now
	} else {
		order.NotifyError = strings.Join(failures, "; ")
	}
	if err := s.orders.UpdateNotification(ctx, order); err != nil {
		logger.Error("Failed to record notification result",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *OrderService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, int64, error) {
	orders, total, err := s.orders.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Internal(fmt.Errorf("list orders: %w", err))
	}
	return orders, total, nil
}

func (s *OrderService) Get(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetOwned(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, apperrors.Internal(fmt.Errorf("get order: %w", err))
	}
	return order, nil
}
