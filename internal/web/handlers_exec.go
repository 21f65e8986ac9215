package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/JonMunkholm/rowstore/internal/core"
	"github.com/JonMunkholm/rowstore/internal/logging"
	"github.com/JonMunkholm/rowstore/internal/web/middleware"
)

// handleRead serves GET /exec?sheet=&fields=.
func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	q := r.URL.Query()

	records, err := s.service.Read(ctx, q.Get("sheet"), q.Get("fields"))
	if err != nil {
		respondExecError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, core.ReadEnvelope{Data: records})
}

// handleWrite serves POST /exec?sheet=&method= (or &action=). The raw body is handed to
// the engine, which decodes it according to the method.
func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	q := r.URL.Query()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Write.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.WriteJSONError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		respondExecError(w, r, err)
		return
	}

	op := core.ParseMethodOrAction(q.Get("method"), q.Get("action"))
	res, err := s.service.Write(ctx, q.Get("sheet"), op, body)
	if err != nil {
		respondExecError(w, r, err)
		return
	}

	logging.WithFields(r.Context(), "sheet", q.Get("sheet"), "op", op.String()).
		Debug("write applied", "count", res.Count)
	writeJSON(w, http.StatusOK, res.Envelope())
}
