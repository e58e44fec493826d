package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bookstore/middleware"
	"bookstore/services"
	"bookstore/utils"

	"github.com/rs/zerolog"
)

// Handler holds what the HTTP handlers need. It replaces the package level
// database handle.
type Handler struct {
	logger  zerolog.Logger
	auth    *services.AuthService
	carts   *services.CartService
	orders  *services.OrderService
	catalog *services.CatalogService
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		logger:  deps.Logger,
		auth:    deps.Auth,
		carts:   deps.Carts,
		orders:  deps.Orders,
		catalog: deps.Catalog,
	}
}

// respondError writes err as {"kind","message"}. Store details only go to
// the log.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := services.KindOf(err)
	status := kind.HTTPStatus()
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	utils.HandleError(w, status, string(kind), services.MessageOf(err))
}

func (h *Handler) badRequest(w http.ResponseWriter, kind services.Kind, message string) {
	utils.HandleError(w, http.StatusBadRequest, string(kind), message)
}

// decodeJSON reads a JSON body of at most 1 MB into v
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(v)
}

// pathID parses a positive integer path value
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// userID returns the id of the authenticated caller. Routes that use it
// sit behind RequireAuth.
func userID(r *http.Request) int64 {
	id, _ := middleware.IdentityFrom(r.Context())
	return id.UserID
}
