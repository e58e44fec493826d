package controllers

import (
	"net/http"
	"strings"
	"time"

	"bookstore/models"
	"bookstore/services"
	"bookstore/utils"

	"github.com/shopspring/decimal"
)

const maxUploadSize = 10 << 20

// bookRequest is the editable part of a book. publication_date is a plain
// date ("2006-01-02") or a full RFC 3339 timestamp.
type bookRequest struct {
	Title           string          `json:"title"`
	Author          string          `json:"author"`
	ISBN            string          `json:"isbn"`
	GenreID         *int64          `json:"genre_id"`
	PublicationDate string          `json:"publication_date"`
	Stock           int             `json:"stock"`
	Price           decimal.Decimal `json:"price"`
	Description     string          `json:"description"`
}

func (b bookRequest) toModel() (*models.Book, bool) {
	book := &models.Book{
		Title:       b.Title,
		Author:      b.Author,
		ISBN:        b.ISBN,
		GenreID:     b.GenreID,
		Stock:       b.Stock,
		Price:       b.Price,
		Description: b.Description,
	}

	if raw := strings.TrimSpace(b.PublicationDate); raw != "" {
		date, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			if date, err = time.Parse(time.RFC3339, raw); err != nil {
				return nil, false
			}
		}
		date = date.UTC()
		book.PublicationDate = &date
	}
	return book, true
}

type genreRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	book, ok := h.readBook(w, r)
	if !ok {
		return
	}

	created, err := h.catalog.Create(r.Context(), book)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.logger.Info().Int64("book_id", created.ID).Str("isbn", created.ISBN).Msg("book created")
	utils.SendJSONResponse(w, http.StatusCreated, created)
}

func (h *Handler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.badRequest(w, services.InvalidInput, "book id must be a positive integer")
		return
	}

	book, ok := h.readBook(w, r)
	if !ok {
		return
	}
	book.ID = id

	updated, err := h.catalog.Update(r.Context(), book)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, updated)
}

// DeleteBook soft deletes: the book disappears from the catalog but carts
// and past orders still reference it.
func (h *Handler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.badRequest(w, services.InvalidInput, "book id must be a positive integer")
		return
	}

	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}

	h.logger.Info().Int64("book_id", id).Msg("book deactivated")
	utils.SendMessage(w, http.StatusOK, "book deleted")
}

// UploadBookImage takes a multipart form with the file under "img"
func (h *Handler) UploadBookImage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.badRequest(w, services.InvalidInput, "book id must be a positive integer")
		return
	}

	// Limit to 10 MB for file upload
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.badRequest(w, services.InvalidInput, "invalid form data")
		return
	}

	file, handler, err := r.FormFile("img")
	if err != nil {
		h.badRequest(w, services.InvalidInput, "img file is required")
		return
	}
	defer file.Close()

	book, err := h.catalog.SetImage(r.Context(), id, file, handler.Filename)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, book)
}

func (h *Handler) CreateGenre(w http.ResponseWriter, r *http.Request) {
	var body genreRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.badRequest(w, services.InvalidInput, "invalid request body")
		return
	}

	genre, err := h.catalog.CreateGenre(r.Context(), body.Name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusCreated, genre)
}

func (h *Handler) readBook(w http.ResponseWriter, r *http.Request) (*models.Book, bool) {
	var body bookRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.badRequest(w, services.InvalidInput, "invalid request body")
		return nil, false
	}

	book, ok := body.toModel()
	if !ok {
		h.badRequest(w, services.InvalidInput, "publication_date must be YYYY-MM-DD")
		return nil, false
	}
	return book, true
}
