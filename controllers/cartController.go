package controllers

import (
	"net/http"

	"bookstore/services"
	"bookstore/utils"
)

type cartItemRequest struct {
	BookID   int64 `json:"book_id"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Read(r.Context(), userID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, cart)
}

// UpsertCartItem sets the quantity of a book in the cart. Sending the same
// book again replaces the quantity.
func (h *Handler) UpsertCartItem(w http.ResponseWriter, r *http.Request) {
	var body cartItemRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.badRequest(w, services.InvalidInput, "invalid request body")
		return
	}

	if err := h.carts.Upsert(r.Context(), userID(r), body.BookID, body.Quantity); err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendMessage(w, http.StatusOK, "cart item updated")
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	bookID, ok := pathID(r, "book_id")
	if !ok {
		h.badRequest(w, services.InvalidInput, "book_id must be a positive integer")
		return
	}

	if err := h.carts.Remove(r.Context(), userID(r), bookID); err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendMessage(w, http.StatusOK, "cart item removed")
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), userID(r)); err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendMessage(w, http.StatusOK, "cart cleared")
}
