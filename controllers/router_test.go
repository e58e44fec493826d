package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookstore/events"
	"bookstore/models"
	"bookstore/services"
	"bookstore/store"
	"bookstore/store/storetest"
	"bookstore/utils"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RouterTestSuite struct {
	suite.Suite
	store      *store.Store
	router     http.Handler
	userToken  string
	adminToken string
	bookA      int64
	bookB      int64
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) SetupTest() {
	s.store = storetest.New(s.T())

	tokens, err := services.NewTokenMaker("router-secret", time.Hour)
	s.Require().NoError(err)

	uploads := s.T().TempDir()
	s.router = NewRouter(Dependencies{
		Logger:     zerolog.Nop(),
		DB:         s.store,
		Auth:       services.NewAuthService(s.store, tokens),
		Carts:      services.NewCartService(s.store),
		Orders:     services.NewOrderService(s.store, events.NopPublisher{}, zerolog.Nop()),
		Catalog:    services.NewCatalogService(s.store, uploads, ""),
		UploadsDir: uploads,
	})

	s.userToken = s.signUp("reader", models.RoleUser)
	s.adminToken = s.signUp("boss", models.RoleAdmin)
	s.bookA = storetest.SeedBook(s.T(), s.store, "alpha", "30.00")
	s.bookB = storetest.SeedBook(s.T(), s.store, "beta", "40.00")
}

func (s *RouterTestSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterTestSuite) signUp(username, role string) string {
	creds := map[string]string{"username": username, "password": "secret", "role": role}
	rec := s.do(http.MethodPost, "/api/auth/register", "", creds)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/api/auth/login", "", creds)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var body tokenResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&body))
	s.Require().NotEmpty(body.Token)
	return body.Token
}

func (s *RouterTestSuite) readCart(token string) models.Cart {
	rec := s.do(http.MethodGet, "/api/cart", token, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var cart models.Cart
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&cart))
	return cart
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) utils.ErrorResponse {
	var body utils.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func (s *RouterTestSuite) TestCartLifecycle() {
	cart := s.readCart(s.userToken)
	s.Empty(cart.Items)

	for _, q := range []int{1, 4} {
		rec := s.do(http.MethodPost, "/api/cart", s.userToken, map[string]any{"book_id": s.bookA, "quantity": q})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := s.do(http.MethodPost, "/api/cart", s.userToken, map[string]any{"book_id": s.bookB, "quantity": 2})
	s.Require().Equal(http.StatusOK, rec.Code)

	cart = s.readCart(s.userToken)
	s.Require().Len(cart.Items, 2)
	s.Equal(s.bookA, cart.Items[0].BookID)
	s.Equal(4, cart.Items[0].Quantity)
	s.Equal("alpha", cart.Items[0].Book.Title)

	rec = s.do(http.MethodDelete, "/api/cart/9999", s.userToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/api/cart/"+itoa(s.bookA), s.userToken, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Len(s.readCart(s.userToken).Items, 1)

	rec = s.do(http.MethodDelete, "/api/cart", s.userToken, nil)
	s.Equal(http.StatusOK, rec.Code)

	after := s.readCart(s.userToken)
	s.Equal(cart.ID, after.ID)
	s.Empty(after.Items)
}

func (s *RouterTestSuite) TestCartErrors() {
	// no cart yet
	rec := s.do(http.MethodDelete, "/api/cart", s.userToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("NotFound", decodeError(s.T(), rec).Kind)

	rec = s.do(http.MethodPost, "/api/cart", s.userToken, map[string]any{"book_id": s.bookA, "quantity": 0})
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Equal("InvalidInput", decodeError(s.T(), rec).Kind)

	rec = s.do(http.MethodPost, "/api/cart", s.userToken, map[string]any{"book_id": 4040, "quantity": 1})
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, "/api/cart/abc", s.userToken, nil)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterTestSuite) TestUnauthenticatedCallsCreateNothing() {
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/cart"},
		{http.MethodPost, "/api/cart"},
		{http.MethodDelete, "/api/cart"},
		{http.MethodDelete, "/api/cart/1"},
		{http.MethodPost, "/api/orders"},
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/orders/1"},
	}

	for _, token := range []string{"", "garbage"} {
		for _, rt := range routes {
			rec := s.do(rt.method, rt.path, token, map[string]any{"book_id": s.bookA, "quantity": 1})
			s.Equal(http.StatusUnauthorized, rec.Code, rt.method+" "+rt.path)
			s.Equal("Unauthenticated", decodeError(s.T(), rec).Kind)
		}
	}

	users := []int64{}
	for _, name := range []string{"reader", "boss"} {
		u, err := s.store.GetUserByUsername(context.Background(), name)
		s.Require().NoError(err)
		users = append(users, u.ID)
	}
	for _, id := range users {
		_, err := s.store.GetCartByUser(context.Background(), id)
		s.ErrorIs(err, store.ErrNotFound)
	}
}

func (s *RouterTestSuite) TestPlaceOrder() {
	payload := map[string]any{
		"items": []map[string]any{
			{"id": s.bookA, "quantity": 2, "price": 10.00},
			{"book_id": s.bookB, "quantity": 1, "price": "5.00"},
		},
		"total_price": 25.00,
	}
	rec := s.do(http.MethodPost, "/api/orders", s.userToken, payload)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())

	var placed placeOrderResponse
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&placed))
	s.NotZero(placed.OrderID)
	s.NotEmpty(placed.Message)

	rec = s.do(http.MethodGet, "/api/orders/"+itoa(placed.OrderID), s.userToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var order models.Order
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&order))
	s.True(decimal.RequireFromString("25").Equal(order.TotalPrice))
	s.Require().Len(order.Items, 2)
	s.Equal(s.bookA, order.Items[0].BookID)
	s.True(decimal.RequireFromString("10").Equal(order.Items[0].Price))

	// other users cannot see it
	rec = s.do(http.MethodGet, "/api/orders/"+itoa(placed.OrderID), s.adminToken, nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/orders", s.userToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var orders []models.Order
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&orders))
	s.Len(orders, 1)
}

func (s *RouterTestSuite) TestEmptyOrderIsRejected() {
	for _, payload := range []any{
		map[string]any{"items": []any{}, "total_price": 0},
		map[string]any{"total_price": 10},
	} {
		rec := s.do(http.MethodPost, "/api/orders", s.userToken, payload)
		s.Equal(http.StatusBadRequest, rec.Code)
		s.Equal("InvalidOrder", decodeError(s.T(), rec).Kind)
	}

	n, err := s.store.CountOrders(context.Background())
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *RouterTestSuite) TestCatalogReadsArePublic() {
	rec := s.do(http.MethodGet, "/api/books?search=al&limit=5", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var books []models.Book
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&books))
	s.Require().Len(books, 1)
	s.Equal("alpha", books[0].Title)

	rec = s.do(http.MethodGet, "/api/books?search=a", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&books))
	s.Len(books, 2)

	rec = s.do(http.MethodGet, "/api/books/"+itoa(s.bookB), "", nil)
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/books/777", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/api/genres", "", nil)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *RouterTestSuite) TestAdminRoutesNeedAdmin() {
	book := map[string]any{"title": "gamma", "author": "g", "isbn": "g-1", "price": "3.50", "stock": 1}
	routes := []struct {
		method, path string
		body         any
	}{
		{http.MethodPost, "/api/books", book},
		{http.MethodPut, "/api/books/" + itoa(s.bookA), book},
		{http.MethodDelete, "/api/books/" + itoa(s.bookA), nil},
		{http.MethodPost, "/api/books/" + itoa(s.bookA) + "/image", nil},
		{http.MethodPost, "/api/genres", map[string]string{"name": "Horror"}},
	}

	for _, rt := range routes {
		rec := s.do(rt.method, rt.path, s.userToken, rt.body)
		s.Equal(http.StatusForbidden, rec.Code, rt.method+" "+rt.path)
		s.Equal("Forbidden", decodeError(s.T(), rec).Kind)

		rec = s.do(rt.method, rt.path, "", rt.body)
		s.Equal(http.StatusUnauthorized, rec.Code, rt.method+" "+rt.path)
	}
}

func (s *RouterTestSuite) TestAdminManagesCatalog() {
	rec := s.do(http.MethodPost, "/api/genres", s.adminToken, map[string]string{"name": "Essays"})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var genre models.Genre
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&genre))

	rec = s.do(http.MethodPost, "/api/books", s.adminToken, map[string]any{
		"title": "gamma", "author": "g", "isbn": "g-1", "price": "3.50", "stock": 1,
		"genre_id": genre.ID, "publication_date": "1999-12-31",
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Book
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&created))
	s.Require().NotNil(created.Genre)
	s.Equal("Essays", *created.Genre)
	s.Require().NotNil(created.PublicationDate)
	s.Equal(1999, created.PublicationDate.Year())

	rec = s.do(http.MethodPost, "/api/books", s.adminToken, map[string]any{
		"title": "dup", "author": "g", "isbn": "g-1", "price": "1",
	})
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/books", s.adminToken, map[string]any{
		"title": "bad date", "author": "g", "isbn": "g-2", "publication_date": "yesterday",
	})
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPut, "/api/books/"+itoa(created.ID), s.adminToken, map[string]any{
		"title": "gamma 2", "author": "g", "isbn": "g-1", "price": "4.00", "stock": 2,
	})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	s.uploadImage(created.ID)

	rec = s.do(http.MethodDelete, "/api/books/"+itoa(created.ID), s.adminToken, nil)
	s.Require().Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/books/"+itoa(created.ID), "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *RouterTestSuite) uploadImage(bookID int64) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("img", "cover.png")
	s.Require().NoError(err)
	_, err = part.Write([]byte("fake png"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/books/"+itoa(bookID)+"/image", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.adminToken)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	var book models.Book
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&book))
	s.Require().NotEmpty(book.Image)

	// the stored uri is served back by the static handler
	rec = s.do(http.MethodGet, book.Image, "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("fake png", rec.Body.String())
}

func (s *RouterTestSuite) TestHealthz() {
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`{"status":"ok"}`, rec.Body.String())
}
