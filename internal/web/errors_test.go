package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/rowstore/internal/core"
)

func TestRespondExecErrorLogsRequestIDOnce(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	req := httptest.NewRequest(http.MethodPost, "/exec?sheet=Nope", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-7"))
	rec := httptest.NewRecorder()

	respondExecError(rec, req, &core.Error{Kind: core.ErrTableNotFound, Message: `Sheet "Nope" not found`})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"error":"Sheet \"Nope\" not found"}`, rec.Body.String())

	line := strings.TrimSpace(buf.String())
	assert.Equal(t, 1, strings.Count(line, `"request_id"`), line)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "req-7", entry["request_id"])
	assert.Equal(t, "TBL001", entry["code"])
	assert.Equal(t, "WARN", entry["level"])
}
