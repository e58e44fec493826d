package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookstore/models"
	"bookstore/utils"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

var (
	orderColumns     = []string{"id", "user_id", "total_price", "created_at"}
	orderItemColumns = []string{"id", "order_id", "book_id", "quantity", "price", "created_at"}
)

// CreateOrder writes the order and all of its items in one transaction.
// Either everything is stored or nothing is. On success o.ID, o.CreatedAt
// and the items' OrderID are filled in.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if len(o.Items) == 0 {
		return errors.New("order has no items")
	}
	now := time.Now().UTC()

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		query, args, err := s.qb.Insert("orders").
			Columns("user_id", "total_price", "created_at").
			Values(o.UserID, o.TotalPrice, now).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return utils.ErrorWithTrace(err, "build insert order")
		}

		var orderID int64
		if err := tx.GetContext(ctx, &orderID, query, args...); err != nil {
			return classify(err, "insert order")
		}

		ib := s.qb.Insert("order_items").
			Columns("order_id", "book_id", "quantity", "price", "created_at")
		for _, item := range o.Items {
			ib = ib.Values(orderID, item.BookID, item.Quantity, item.Price, now)
		}
		query, args, err = ib.ToSql()
		if err != nil {
			return utils.ErrorWithTrace(err, "build insert order items")
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return classify(err, "insert order items")
		}

		o.ID = orderID
		return nil
	})
	if err != nil {
		return err
	}

	o.CreatedAt = now
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		o.Items[i].CreatedAt = now
	}
	return nil
}

// GetOrder returns one order with its items
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	query, args, err := s.qb.Select(orderColumns...).
		From("orders").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, utils.ErrorWithTrace(err, "build select order")
	}

	order := models.Order{}
	if err := s.db.GetContext(ctx, &order, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, utils.ErrorWithTrace(err, "select order")
	}

	orders := []models.Order{order}
	if err := s.attachOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListOrdersByUser returns the user's orders, newest first
func (s *Store) ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error) {
	query, args, err := s.qb.Select(orderColumns...).
		From("orders").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("id DESC").
		ToSql()
	if err != nil {
		return nil, utils.ErrorWithTrace(err, "build select orders")
	}

	orders := []models.Order{}
	if err := s.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, utils.ErrorWithTrace(err, "select orders")
	}
	if err := s.attachOrderItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) attachOrderItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]int, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		byID[orders[i].ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	query, args, err := s.qb.Select(orderItemColumns...).
		From("order_items").
		Where(squirrel.Eq{"order_id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "build select order items")
	}

	items := []models.OrderItem{}
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return utils.ErrorWithTrace(err, "select order items")
	}
	for _, item := range items {
		i := byID[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return nil
}

// CountOrders returns the number of stored orders
func (s *Store) CountOrders(ctx context.Context) (int, error) {
	query, args, err := s.qb.Select("COUNT(*)").From("orders").ToSql()
	if err != nil {
		return 0, utils.ErrorWithTrace(err, "build count orders")
	}

	var n int
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, utils.ErrorWithTrace(err, "count orders")
	}
	return n, nil
}
