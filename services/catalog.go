package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"bookstore/models"
	"bookstore/store"
	"bookstore/utils"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	minSearchLength = 2
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
}

type CatalogRepository interface {
	ListBooks(ctx context.Context, f models.BookFilter) ([]models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	CreateBook(ctx context.Context, b *models.Book) error
	UpdateBook(ctx context.Context, b *models.Book) error
	DeactivateBook(ctx context.Context, id int64) error
	SetBookImage(ctx context.Context, id int64, image string) error
	ListGenres(ctx context.Context) ([]models.Genre, error)
	CreateGenre(ctx context.Context, g *models.Genre) error
}

type CatalogService struct {
	repo          CatalogRepository
	uploadsDir    string
	publicBaseURL string
}

// NewCatalogService stores uploaded images under uploadsDir. They are
// served back as publicBaseURL + "/uploads/...".
func NewCatalogService(repo CatalogRepository, uploadsDir, publicBaseURL string) *CatalogService {
	return &CatalogService{
		repo:          repo,
		uploadsDir:    uploadsDir,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// List returns a page of active books. Terms shorter than two characters
// do not filter.
func (s *CatalogService) List(ctx context.Context, search string, page, limit int) ([]models.Book, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	search = strings.TrimSpace(search)
	if utf8.RuneCountInString(search) < minSearchLength {
		search = ""
	}

	books, err := s.repo.ListBooks(ctx, models.BookFilter{
		Search: search,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fromStore(err, "book not found")
	}
	return books, nil
}

// Get returns an active book
func (s *CatalogService) Get(ctx context.Context, id int64) (*models.Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return nil, fromStore(err, "book not found")
	}
	if !book.Active {
		return nil, newError(NotFound, "book not found", nil)
	}
	return book, nil
}

func (s *CatalogService) Create(ctx context.Context, b *models.Book) (*models.Book, error) {
	if err := validateBook(b); err != nil {
		return nil, err
	}
	if err := s.repo.CreateBook(ctx, b); err != nil {
		return nil, bookWriteError(err)
	}
	return s.reload(ctx, b.ID)
}

// Update replaces every editable field of the book. The image is kept.
func (s *CatalogService) Update(ctx context.Context, b *models.Book) (*models.Book, error) {
	if err := validateBook(b); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBook(ctx, b); err != nil {
		return nil, bookWriteError(err)
	}
	return s.reload(ctx, b.ID)
}

// Delete hides the book from the catalog
func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeactivateBook(ctx, id); err != nil {
		return fromStore(err, "book not found")
	}
	return nil
}

// SetImage saves an uploaded cover and points the book at it. A previous
// upload is removed from disk.
func (s *CatalogService) SetImage(ctx context.Context, id int64, file io.Reader, filename string) (*models.Book, error) {
	if !imageExtensions[strings.ToLower(filepath.Ext(filename))] {
		return nil, newError(InvalidInput, "image must be png, jpg, gif or webp", nil)
	}

	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return nil, fromStore(err, "book not found")
	}

	rel, err := utils.SaveImageFile(file, s.uploadsDir, "books", filename)
	if err != nil {
		return nil, newError(StoreFailure, "could not save image", err)
	}
	uri := s.imageURI(rel)
	if err := s.repo.SetBookImage(ctx, id, uri); err != nil {
		_ = utils.DeleteImageFile(filepath.Join(s.uploadsDir, filepath.FromSlash(rel)))
		return nil, fromStore(err, "book not found")
	}

	if old, ok := s.localImage(book.Image); ok && book.Image != uri {
		_ = utils.DeleteImageFile(old)
	}
	return s.reload(ctx, id)
}

func (s *CatalogService) ListGenres(ctx context.Context) ([]models.Genre, error) {
	genres, err := s.repo.ListGenres(ctx)
	if err != nil {
		return nil, fromStore(err, "genre not found")
	}
	return genres, nil
}

func (s *CatalogService) CreateGenre(ctx context.Context, name string) (*models.Genre, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, newError(InvalidInput, "name is required", nil)
	}

	genre := &models.Genre{Name: name}
	if err := s.repo.CreateGenre(ctx, genre); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newError(Conflict, "genre already exists", err)
		}
		return nil, newError(StoreFailure, "could not create genre", err)
	}
	return genre, nil
}

func (s *CatalogService) reload(ctx context.Context, id int64) (*models.Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return nil, fromStore(err, "book not found")
	}
	return book, nil
}

func (s *CatalogService) imageURI(rel string) string {
	return s.publicBaseURL + "/uploads/" + rel
}

// localImage maps an image URI produced by imageURI back to its file
func (s *CatalogService) localImage(uri string) (string, bool) {
	prefix := s.publicBaseURL + "/uploads/"
	if uri == "" || !strings.HasPrefix(uri, prefix) {
		return "", false
	}
	rel := strings.TrimPrefix(uri, prefix)
	if strings.Contains(rel, "..") {
		return "", false
	}
	return filepath.Join(s.uploadsDir, filepath.FromSlash(rel)), true
}

func validateBook(b *models.Book) error {
	b.Title = strings.TrimSpace(b.Title)
	b.Author = strings.TrimSpace(b.Author)
	b.ISBN = strings.TrimSpace(b.ISBN)

	switch {
	case b.Title == "" || b.Author == "" || b.ISBN == "":
		return newError(InvalidInput, "title, author and isbn are required", nil)
	case b.Price.IsNegative():
		return newError(InvalidInput, "price must not be negative", nil)
	case b.Stock < 0:
		return newError(InvalidInput, "stock must not be negative", nil)
	}
	return nil
}

func bookWriteError(err error) error {
	switch {
	case errors.Is(err, store.ErrDuplicate):
		return newError(Conflict, "isbn already exists", err)
	case errors.Is(err, store.ErrForeignKey):
		return newError(InvalidInput, "genre does not exist", err)
	default:
		return fromStore(err, "book not found")
	}
}
