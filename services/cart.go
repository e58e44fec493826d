package services

import (
	"context"
	"errors"

	"bookstore/models"
	"bookstore/store"
)

type CartRepository interface {
	GetOrCreateCart(ctx context.Context, userID int64) (*models.Cart, error)
	GetCartByUser(ctx context.Context, userID int64) (*models.Cart, error)
	UpsertCartItem(ctx context.Context, cartID, bookID int64, quantity int) error
	DeleteCartItem(ctx context.Context, cartID, bookID int64) error
	ClearCart(ctx context.Context, cartID int64) error
	ListCartItems(ctx context.Context, cartID int64) ([]models.CartItem, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
}

// CartService keeps one cart per user and at most one line per book in it.
// Quantities sent by the client replace what is stored.
type CartService struct {
	repo CartRepository
}

func NewCartService(repo CartRepository) *CartService {
	return &CartService{repo: repo}
}

// GetOrCreate returns the user's cart, creating an empty one on first use
func (s *CartService) GetOrCreate(ctx context.Context, userID int64) (*models.Cart, error) {
	if userID <= 0 {
		return nil, newError(Unauthenticated, "authentication required", nil)
	}

	cart, err := s.repo.GetOrCreateCart(ctx, userID)
	if err != nil {
		// a verified token whose user has since been deleted
		if errors.Is(err, store.ErrForeignKey) {
			return nil, newError(Unauthenticated, "authentication required", err)
		}
		return nil, fromStore(err, "cart not found")
	}
	return cart, nil
}

// Upsert sets the quantity of bookID in the user's cart
func (s *CartService) Upsert(ctx context.Context, userID, bookID int64, quantity int) error {
	if bookID < 1 {
		return newError(InvalidInput, "book_id must be a positive integer", nil)
	}
	if quantity < 1 {
		return newError(InvalidInput, "quantity must be at least 1", nil)
	}

	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return err
	}

	// hidden books can stay in a cart but cannot be added to one
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return fromStore(err, "book not found")
	}
	if !book.Active {
		return newError(NotFound, "book not found", nil)
	}

	if err := s.repo.UpsertCartItem(ctx, cart.ID, bookID, quantity); err != nil {
		if errors.Is(err, store.ErrForeignKey) {
			return newError(NotFound, "book not found", err)
		}
		return fromStore(err, "cart not found")
	}
	return nil
}

// Remove deletes one line. The cart must exist, the line need not.
func (s *CartService) Remove(ctx context.Context, userID, bookID int64) error {
	cart, err := s.existing(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteCartItem(ctx, cart.ID, bookID); err != nil {
		return fromStore(err, "cart not found")
	}
	return nil
}

// Clear empties the cart without deleting it
func (s *CartService) Clear(ctx context.Context, userID int64) error {
	cart, err := s.existing(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.repo.ClearCart(ctx, cart.ID); err != nil {
		return fromStore(err, "cart not found")
	}
	return nil
}

// Read returns the cart with every line and its book
func (s *CartService) Read(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.ListCartItems(ctx, cart.ID)
	if err != nil {
		return nil, fromStore(err, "cart not found")
	}
	cart.Items = items
	return cart, nil
}

func (s *CartService) existing(ctx context.Context, userID int64) (*models.Cart, error) {
	if userID <= 0 {
		return nil, newError(Unauthenticated, "authentication required", nil)
	}

	cart, err := s.repo.GetCartByUser(ctx, userID)
	if err != nil {
		return nil, fromStore(err, "cart not found")
	}
	return cart, nil
}
