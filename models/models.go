package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        int64     `json:"id" db:"id"`
	Username  string    `json:"username" db:"username"`
	Password  string    `json:"-" db:"password"`
	Role      string    `json:"role" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Genre struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

type Book struct {
	ID              int64           `json:"id" db:"id"`
	Title           string          `json:"title" db:"title"`
	Author          string          `json:"author" db:"author"`
	ISBN            string          `json:"isbn" db:"isbn"`
	GenreID         *int64          `json:"genre_id" db:"genre_id"`
	Genre           *string         `json:"genre" db:"genre"`
	PublicationDate *time.Time      `json:"publication_date" db:"publication_date"`
	Stock           int             `json:"stock" db:"stock"`
	Price           decimal.Decimal `json:"price" db:"price"`
	Image           string          `json:"image" db:"image"`
	Description     string          `json:"description" db:"description"`
	Active          bool            `json:"active" db:"active"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// BookFilter narrows a catalog listing. Search shorter than two
// characters is ignored.
type BookFilter struct {
	Search          string
	Limit           int
	Offset          int
	IncludeInactive bool
}

// BookSummary is the part of a book shown next to a cart line
type BookSummary struct {
	ID     int64           `json:"id" db:"id"`
	Title  string          `json:"title" db:"title"`
	Author string          `json:"author" db:"author"`
	Price  decimal.Decimal `json:"price" db:"price"`
	Image  string          `json:"image" db:"image"`
}

type Cart struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	Items     []CartItem `json:"items" db:"-"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

type CartItem struct {
	ID       int64       `json:"id" db:"id"`
	CartID   int64       `json:"cart_id" db:"cart_id"`
	BookID   int64       `json:"book_id" db:"book_id"`
	Quantity int         `json:"quantity" db:"quantity"`
	Book     BookSummary `json:"book" db:"book"`
}

// Order is immutable once created. TotalPrice is what the client sent,
// not a sum of the items.
type Order struct {
	ID         int64           `json:"id" db:"id"`
	UserID     *int64          `json:"user_id" db:"user_id"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	Items      []OrderItem     `json:"items" db:"-"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}

// OrderItem snapshots quantity and price at checkout time
type OrderItem struct {
	ID        int64           `json:"id" db:"id"`
	OrderID   int64           `json:"order_id" db:"order_id"`
	BookID    int64           `json:"book_id" db:"book_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
