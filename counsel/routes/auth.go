package routes

import (
	"encoding/json"
	"net/http"

	"counsel/counsel/controllers"
	"counsel/counsel/types"
	"counsel/counsel/utils/apperrors"

	"github.com/go-chi/chi/v5"
)

func AuthRoutes(ctrl *controllers.AuthController) chi.Router {
	r := chi.NewRouter()
	// POST /auth/login : exchange a registered member email for a token
	r.Post("/login", handleJSON(func(r *http.Request) (any, error) {
		var req types.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, apperrors.New(apperrors.KindInvalidInput, "malformed request body")
		}
		token, err := ctrl.Login(r.Context(), req.Email)
		if err != nil {
			return nil, err
		}
		return types.LoginResponse{Token: token}, nil
	}))
	return r
}
