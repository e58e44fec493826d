package controllers

import (
	"context"
	"net/http"
	"time"

	"bookstore/middleware"
	"bookstore/services"
	"bookstore/utils"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-michi/michi"
	"github.com/rs/zerolog"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Logger     zerolog.Logger
	DB         Pinger
	Auth       *services.AuthService
	Carts      *services.CartService
	Orders     *services.OrderService
	Catalog    *services.CatalogService
	UploadsDir string
}

// NewRouter wires every route. CORS is added by the caller around the
// returned handler.
func NewRouter(deps Dependencies) http.Handler {
	h := NewHandler(deps)

	r := michi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Identify(deps.Auth))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)

	r.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadsDir))))
	r.HandleFunc("GET /healthz", healthz(deps.DB))

	// Public
	r.HandleFunc("POST /api/auth/register", h.Register)
	r.HandleFunc("POST /api/auth/login", h.Login)
	r.HandleFunc("GET /api/books", h.ListBooks)
	r.HandleFunc("GET /api/books/{id}", h.GetBook)
	r.HandleFunc("GET /api/genres", h.ListGenres)

	// Signed in users
	r.Group(func(sub *michi.Router) {
		sub.Use(middleware.RequireAuth)
		sub.HandleFunc("GET /api/cart", h.GetCart)
		sub.HandleFunc("POST /api/cart", h.UpsertCartItem)
		sub.HandleFunc("DELETE /api/cart", h.ClearCart)
		sub.HandleFunc("DELETE /api/cart/{book_id}", h.RemoveCartItem)
		sub.HandleFunc("POST /api/orders", h.PlaceOrder)
		sub.HandleFunc("GET /api/orders", h.ListOrders)
		sub.HandleFunc("GET /api/orders/{id}", h.GetOrder)
	})

	// Admins
	r.Group(func(sub *michi.Router) {
		sub.Use(middleware.RequireAdmin)
		sub.HandleFunc("POST /api/books", h.CreateBook)
		sub.HandleFunc("PUT /api/books/{id}", h.UpdateBook)
		sub.HandleFunc("DELETE /api/books/{id}", h.DeleteBook)
		sub.HandleFunc("POST /api/books/{id}/image", h.UploadBookImage)
		sub.HandleFunc("POST /api/genres", h.CreateGenre)
	})

	return r
}

func healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			utils.HandleError(w, http.StatusServiceUnavailable, string(services.StoreFailure), "database unavailable")
			return
		}
		utils.SendJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
