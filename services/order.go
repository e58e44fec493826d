package services

import (
	"context"
	"errors"
	"time"

	"bookstore/events"
	"bookstore/models"
	"bookstore/store"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, v any) error
}

// OrderLine is one checkout line as the client sent it
type OrderLine struct {
	BookID   int64
	Quantity int
	Price    decimal.Decimal
}

// OrderService turns a checkout payload into an immutable order. Prices
// and the total are taken from the client as is.
// DefaultPublishTimeout bounds how long a placed order waits on the broker
const DefaultPublishTimeout = 5 * time.Second

type OrderService struct {
	repo           OrderRepository
	publisher      EventPublisher
	logger         zerolog.Logger
	publishTimeout time.Duration
}

func NewOrderService(repo OrderRepository, publisher EventPublisher, logger zerolog.Logger) *OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &OrderService{
		repo:           repo,
		publisher:      publisher,
		logger:         logger,
		publishTimeout: DefaultPublishTimeout,
	}
}

// Place stores the order and its lines atomically and returns the new
// order id. It does not touch stock or the cart.
func (s *OrderService) Place(ctx context.Context, userID *int64, lines []OrderLine, total decimal.Decimal) (int64, error) {
	if len(lines) == 0 {
		return 0, newError(InvalidOrder, "order must contain at least one item", nil)
	}

	order := &models.Order{
		UserID:     userID,
		TotalPrice: total,
		Items:      make([]models.OrderItem, 0, len(lines)),
	}
	for _, line := range lines {
		if line.BookID < 1 {
			return 0, newError(InvalidOrder, "every item needs a valid book id", nil)
		}
		if line.Quantity < 1 {
			return 0, newError(InvalidOrder, "every item needs a quantity of at least 1", nil)
		}
		order.Items = append(order.Items, models.OrderItem{
			BookID:   line.BookID,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			return 0, newError(InvalidOrder, "order references an unknown book", err)
		}
		return 0, newError(StoreFailure, "could not place order", err)
	}

	s.publishPlaced(ctx, order)
	return order.ID, nil
}

// ListForUser returns the user's orders, newest first
func (s *OrderService) ListForUser(ctx context.Context, userID int64) ([]models.Order, error) {
	if userID <= 0 {
		return nil, newError(Unauthenticated, "authentication required", nil)
	}

	orders, err := s.repo.ListOrdersByUser(ctx, userID)
	if err != nil {
		return nil, fromStore(err, "order not found")
	}
	return orders, nil
}

// Get returns one of the user's orders. Orders of other users are
// reported as missing.
func (s *OrderService) Get(ctx context.Context, userID, orderID int64) (*models.Order, error) {
	if userID <= 0 {
		return nil, newError(Unauthenticated, "authentication required", nil)
	}

	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fromStore(err, "order not found")
	}
	if order.UserID == nil || *order.UserID != userID {
		return nil, newError(NotFound, "order not found", nil)
	}
	return order, nil
}

func (s *OrderService) publishPlaced(ctx context.Context, order *models.Order) {
	event := events.OrderPlaced{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		Items:      make([]events.OrderPlacedItem, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, events.OrderPlacedItem{
			BookID:   item.BookID,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	// the order is committed, a slow broker must not hold the response
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, events.RoutingKeyOrderPlaced, event); err != nil {
		s.logger.Warn().Err(err).Int64("order_id", order.ID).Msg("publish order placed")
	}
}
