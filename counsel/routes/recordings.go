package routes

import (
	"encoding/json"
	"io"
	"net/http"

	"counsel/counsel/controllers"
	"counsel/counsel/types"
	"counsel/counsel/utils/apperrors"

	"github.com/go-chi/chi/v5"
)

// maxRecordingBytes caps uploads at 25 MB, the transcription service's
// own limit.
const maxRecordingBytes = 25 << 20

// RegisterRecordingRoutes wires the stateless recording-summary
// endpoints onto an already-authenticated router group.
func RegisterRecordingRoutes(r chi.Router, ctrl *controllers.RecordingController) {
	// POST /summarize : multipart audio + optional msg_data chat log
	r.Post("/summarize", handleJSON(func(r *http.Request) (any, error) {
		if err := r.ParseMultipartForm(maxRecordingBytes); err != nil {
			return nil, apperrors.New(apperrors.KindInvalidInput, "malformed multipart body")
		}

		var chatLog []types.ChatLogEntry
		if raw := r.FormValue("msg_data"); raw != "" {
			// A broken chat log is tolerated, same as no chat log.
			_ = json.Unmarshal([]byte(raw), &chatLog)
		}

		var audio []byte
		filename := ""
		if file, header, err := r.FormFile("audio"); err == nil {
			defer file.Close()
			filename = header.Filename
			audio, err = io.ReadAll(io.LimitReader(file, maxRecordingBytes))
			if err != nil {
				return nil, apperrors.New(apperrors.KindInvalidInput, "unreadable audio upload")
			}
		}

		return ctrl.SummarizeRecording(r.Context(), filename, audio, chatLog)
	}))

	// POST /summarize-text : summarize already-textual content
	r.Post("/summarize-text", handleJSON(func(r *http.Request) (any, error) {
		var req types.SummarizeTextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, apperrors.New(apperrors.KindInvalidInput, "malformed request body")
		}
		return ctrl.SummarizeText(r.Context(), req.Text)
	}))

	// GET /recordings/{key} : fetch an archived recording
	r.Get("/recordings/*", func(w http.ResponseWriter, r *http.Request) {
		data, contentType, err := ctrl.FetchRecording(r.Context(), chi.URLParam(r, "*"))
		if err != nil {
			apperrors.WriteHTTP(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(data)
	})
}
