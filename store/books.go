package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"bookstore/models"
	"bookstore/utils"

	"github.com/Masterminds/squirrel"
)

var bookColumns = []string{
	"b.id AS id",
	"b.title AS title",
	"b.author AS author",
	"b.isbn AS isbn",
	"b.genre_id AS genre_id",
	"g.name AS genre",
	"b.publication_date AS publication_date",
	"b.stock AS stock",
	"b.price AS price",
	"b.image AS image",
	"b.description AS description",
	"b.active AS active",
	"b.created_at AS created_at",
	"b.updated_at AS updated_at",
}

// likeEscaper makes % and _ in a search term match themselves
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (s *Store) selectBooks() squirrel.SelectBuilder {
	return s.qb.Select(bookColumns...).
		From("books b").
		LeftJoin("genres g ON g.id = b.genre_id")
}

// ListBooks returns one page of books ordered by id. A search term matches
// title, author, genre name or isbn without regard to case.
func (s *Store) ListBooks(ctx context.Context, f models.BookFilter) ([]models.Book, error) {
	sb := s.selectBooks().OrderBy("b.id")
	if !f.IncludeInactive {
		sb = sb.Where(squirrel.Eq{"b.active": true})
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		pattern := "%" + likeEscaper.Replace(term) + "%"
		sb = sb.Where(squirrel.Or{
			squirrel.Expr("LOWER(b.title) LIKE ? ESCAPE '!'", pattern),
			squirrel.Expr("LOWER(b.author) LIKE ? ESCAPE '!'", pattern),
			squirrel.Expr("LOWER(g.name) LIKE ? ESCAPE '!'", pattern),
			squirrel.Expr("LOWER(b.isbn) LIKE ? ESCAPE '!'", pattern),
		})
	}
	if f.Limit > 0 {
		sb = sb.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		sb = sb.Offset(uint64(f.Offset))
	}

	query, args, err := sb.ToSql()
	if err != nil {
		return nil, utils.ErrorWithTrace(err, "build select books")
	}

	books := []models.Book{}
	if err := s.db.SelectContext(ctx, &books, query, args...); err != nil {
		return nil, utils.ErrorWithTrace(err, "select books")
	}
	return books, nil
}

// GetBook returns the book whether or not it is active
func (s *Store) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	query, args, err := s.selectBooks().Where(squirrel.Eq{"b.id": id}).ToSql()
	if err != nil {
		return nil, utils.ErrorWithTrace(err, "build select book")
	}

	book := models.Book{}
	if err := s.db.GetContext(ctx, &book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, utils.ErrorWithTrace(err, "select book")
	}
	return &book, nil
}

func (s *Store) CreateBook(ctx context.Context, b *models.Book) error {
	now := time.Now().UTC()
	query, args, err := s.qb.Insert("books").
		Columns("title", "author", "isbn", "genre_id", "publication_date", "stock", "price",
			"image", "description", "active", "created_at", "updated_at").
		Values(b.Title, b.Author, b.ISBN, b.GenreID, b.PublicationDate, b.Stock, b.Price,
			b.Image, b.Description, true, now, now).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "build insert book")
	}

	if err := s.db.GetContext(ctx, &b.ID, query, args...); err != nil {
		return classify(err, "insert book")
	}
	b.Active = true
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

// UpdateBook replaces every editable field of b
func (s *Store) UpdateBook(ctx context.Context, b *models.Book) error {
	now := time.Now().UTC()
	query, args, err := s.qb.Update("books").
		SetMap(map[string]interface{}{
			"title":            b.Title,
			"author":           b.Author,
			"isbn":             b.ISBN,
			"genre_id":         b.GenreID,
			"publication_date": b.PublicationDate,
			"stock":            b.Stock,
			"price":            b.Price,
			"description":      b.Description,
			"updated_at":       now,
		}).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "build update book")
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return classify(err, "update book")
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	b.UpdatedAt = now
	return nil
}

// DeactivateBook hides the book from the catalog. Carts and orders keep
// pointing at it.
func (s *Store) DeactivateBook(ctx context.Context, id int64) error {
	return s.updateBookField(ctx, id, "active", false)
}

func (s *Store) SetBookImage(ctx context.Context, id int64, image string) error {
	return s.updateBookField(ctx, id, "image", image)
}

func (s *Store) updateBookField(ctx context.Context, id int64, column string, value interface{}) error {
	query, args, err := s.qb.Update("books").
		Set(column, value).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "build update book "+column)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return utils.ErrorWithTrace(err, "update book "+column)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return utils.ErrorWithTrace(err, "rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
