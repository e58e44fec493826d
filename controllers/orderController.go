package controllers

import (
	"net/http"

	"bookstore/services"
	"bookstore/utils"

	"github.com/shopspring/decimal"
)

// orderItemRequest accepts the book under "id" as the storefront sends it,
// or under "book_id".
type orderItemRequest struct {
	ID       int64           `json:"id"`
	BookID   int64           `json:"book_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

type placeOrderRequest struct {
	Items      []orderItemRequest `json:"items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
}

type placeOrderResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"order_id"`
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var body placeOrderRequest
	if err := decodeJSON(w, r, &body); err != nil {
		h.badRequest(w, services.InvalidOrder, "invalid request body")
		return
	}

	lines := make([]services.OrderLine, 0, len(body.Items))
	for _, item := range body.Items {
		bookID := item.BookID
		if bookID == 0 {
			bookID = item.ID
		}
		lines = append(lines, services.OrderLine{BookID: bookID, Quantity: item.Quantity, Price: item.Price})
	}

	uid := userID(r)
	orderID, err := h.orders.Place(r.Context(), &uid, lines, body.TotalPrice)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.logger.Info().Int64("order_id", orderID).Int64("user_id", uid).Int("items", len(lines)).Msg("order placed")
	utils.SendJSONResponse(w, http.StatusCreated, placeOrderResponse{Message: "order created", OrderID: orderID})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListForUser(r.Context(), userID(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(r, "id")
	if !ok {
		h.badRequest(w, services.InvalidInput, "order id must be a positive integer")
		return
	}

	order, err := h.orders.Get(r.Context(), userID(r), orderID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	utils.SendJSONResponse(w, http.StatusOK, order)
}
