package controllers

import (
	"net/http"
	"strconv"

	"bookstore/services"
	"bookstore/utils"
)

// ListBooks serves the catalog. Query parameters: search, page, limit.
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	books, err := h.catalog.List(r.Context(), q.Get("search"), page, limit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, books)
}

func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.badRequest(w, services.InvalidInput, "book id must be a positive integer")
		return
	}

	book, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, book)
}

func (h *Handler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.ListGenres(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, genres)
}
