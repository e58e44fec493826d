package controllers

import (
	"net/http"

	"bookstore/services"
	"bookstore/utils"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(w, r, &body); err != nil {
		h.badRequest(w, services.InvalidInput, "invalid request body")
		return
	}

	user, err := h.auth.Register(r.Context(), body.Username, body.Password, body.Role)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	h.logger.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	utils.SendMessage(w, http.StatusCreated, "user created")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decodeJSON(w, r, &body); err != nil {
		h.badRequest(w, services.InvalidInput, "invalid request body")
		return
	}

	// Check the credentials and sign a token
	token, err := h.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	utils.SendJSONResponse(w, http.StatusOK, tokenResponse{Token: token})
}
