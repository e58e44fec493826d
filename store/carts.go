package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookstore/models"
	"bookstore/utils"

	"github.com/Masterminds/squirrel"
)

var cartColumns = []string{"id", "user_id", "created_at", "updated_at"}

var cartItemColumns = []string{
	"ci.id AS id",
	"ci.cart_id AS cart_id",
	"ci.book_id AS book_id",
	"ci.quantity AS quantity",
	`b.id AS "book.id"`,
	`b.title AS "book.title"`,
	`b.author AS "book.author"`,
	`b.price AS "book.price"`,
	`b.image AS "book.image"`,
}

// GetOrCreateCart returns the user's cart, creating it on first use.
// Concurrent first calls converge on the same row through the unique
// index on carts.user_id.
func (s *Store) GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error) {
	now := time.Now().UTC()
	query, args, err := s.qb.Insert("carts").
		Columns("user_id", "created_at", "updated_at").
		Values(userID, now, now).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return nil, utils.ErrorWithTrace(err, "build insert cart")
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, classify(err, "insert cart")
	}
	return s.GetCartByUser(ctx, userID)
}

// GetCartByUser never creates a cart. It returns ErrNotFound when the user
// has none.
func (s *Store) GetCartByUser(ctx context.Context, userID int64) (*models.Cart, error) {
	query, args, err := s.qb.Select(cartColumns...).
		From("carts").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, utils.ErrorWithTrace(err, "build select cart")
	}

	cart := models.Cart{}
	if err := s.db.GetContext(ctx, &cart, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, utils.ErrorWithTrace(err, "select cart")
	}
	return &cart, nil
}

// UpsertCartItem sets the quantity of bookID in the cart, inserting the
// line when it is missing. The quantity is replaced, never added to.
func (s *Store) UpsertCartItem(ctx context.Context, cartID, bookID int64, quantity int) error {
	now := time.Now().UTC()
	query, args, err := s.qb.Insert("cart_items").
		Columns("cart_id", "book_id", "quantity", "created_at", "updated_at").
		Values(cartID, bookID, quantity, now, now).
		Suffix("ON CONFLICT (cart_id, book_id) DO UPDATE SET quantity = excluded.quantity, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "build upsert cart item")
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return classify(err, "upsert cart item")
	}
	return s.touchCart(ctx, cartID, now)
}

// DeleteCartItem removes one line. A missing line is not an error.
func (s *Store) DeleteCartItem(ctx context.Context, cartID, bookID int64) error {
	query, args, err := s.qb.Delete("cart_items").
		Where(squirrel.Eq{"cart_id": cartID, "book_id": bookID}).
		ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "build delete cart item")
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return utils.ErrorWithTrace(err, "delete cart item")
	}
	return nil
}

// ClearCart removes every line but keeps the cart itself
func (s *Store) ClearCart(ctx context.Context, cartID int64) error {
	query, args, err := s.qb.Delete("cart_items").
		Where(squirrel.Eq{"cart_id": cartID}).
		ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "build clear cart")
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return utils.ErrorWithTrace(err, "clear cart")
	}
	return nil
}

// ListCartItems returns the lines of a cart with their books, oldest first
func (s *Store) ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error) {
	query, args, err := s.qb.Select(cartItemColumns...).
		From("cart_items ci").
		Join("books b ON b.id = ci.book_id").
		Where(squirrel.Eq{"ci.cart_id": cartID}).
		OrderBy("ci.id").
		ToSql()
	if err != nil {
		return nil, utils.ErrorWithTrace(err, "build select cart items")
	}

	items := []models.CartItem{}
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, utils.ErrorWithTrace(err, "select cart items")
	}
	return items, nil
}

func (s *Store) touchCart(ctx context.Context, cartID int64, at time.Time) error {
	query, args, err := s.qb.Update("carts").
		Set("updated_at", at).
		Where(squirrel.Eq{"id": cartID}).
		ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "build touch cart")
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return utils.ErrorWithTrace(err, "touch cart")
	}
	return nil
}
