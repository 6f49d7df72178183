package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"counsel/counsel/controllers"
	"counsel/counsel/middlewares"
	"counsel/counsel/types"
	"counsel/counsel/utils/apperrors"
	"counsel/counsel/utils/logging"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// handleJSON wraps a controller call into a JSON handler with the
// shared error-to-status mapping.
func handleJSON(handler func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := handler(r)
		if err != nil {
			if apperrors.KindOf(err).HTTPStatus() >= http.StatusInternalServerError {
				logging.ErrorLogger.Error("request failed",
					zap.String("path", r.URL.Path), zap.Error(err))
			}
			apperrors.WriteHTTP(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(res)
	}
}

func memberEmail(r *http.Request) string {
	email, _ := r.Context().Value(middlewares.MemberEmailKey).(string)
	return email
}

func sessionID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "session_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.New(apperrors.KindInvalidInput, "invalid session id")
	}
	return id, nil
}

// RegisterChatRoutes wires the member conversation surface onto an
// already-authenticated router group.
func RegisterChatRoutes(r chi.Router, ctrl *controllers.ChatController) {
	// GET /history : AI counseling sessions, newest first
	r.Get("/history", handleJSON(func(r *http.Request) (any, error) {
		return ctrl.ListSessions(r.Context(), memberEmail(r))
	}))

	r.Route("/chat/{session_id}", func(sr chi.Router) {
		// GET : full rendered conversation
		sr.Get("/", handleJSON(func(r *http.Request) (any, error) {
			id, err := sessionID(r)
			if err != nil {
				return nil, err
			}
			return ctrl.GetChat(r.Context(), memberEmail(r), id)
		}))

		// POST : one exchange; responds with the new assistant item only
		sr.Post("/", handleJSON(func(r *http.Request) (any, error) {
			id, err := sessionID(r)
			if err != nil {
				return nil, err
			}
			var req types.ChatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, apperrors.New(apperrors.KindInvalidInput, "malformed request body")
			}
			return ctrl.PostMessage(r.Context(), memberEmail(r), id, req.Content)
		}))

		// POST /summary : generate and persist the conversation digest
		sr.Post("/summary", handleJSON(func(r *http.Request) (any, error) {
			id, err := sessionID(r)
			if err != nil {
				return nil, err
			}
			summary, err := ctrl.Summarize(r.Context(), memberEmail(r), id)
			if err != nil {
				return nil, err
			}
			return types.SummaryResponse{Summary: summary}, nil
		}))

		// DELETE : soft-delete; transcript kept
		sr.Delete("/", handleJSON(func(r *http.Request) (any, error) {
			id, err := sessionID(r)
			if err != nil {
				return nil, err
			}
			if err := ctrl.Delete(r.Context(), memberEmail(r), id); err != nil {
				return nil, err
			}
			return types.DeleteResponse{Status: "deleted"}, nil
		}))
	})
}
