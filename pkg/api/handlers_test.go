package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ssargent/lmptool/pkg/codec"
	"github.com/ssargent/lmptool/pkg/interchange"
	"github.com/ssargent/lmptool/pkg/library"
)

const testAPIKey = "test-key"

var sampleRecording = []byte{102, 3, 1, 5, 1, 0, 0, 0, 10, 0xFB, 0, 1, 0x80}

type testServer struct {
	handler http.Handler
	metrics *Metrics
	lib     *library.Library
}

func newTestServer(t *testing.T, config ServerConfig) *testServer {
	t.Helper()

	lib, err := library.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = lib.Close() })

	config.APIKey = testAPIKey
	metrics := NewMetrics()
	server := NewServer(lib, config, metrics, zaptest.NewLogger(t))
	return &testServer{handler: server.Router(), metrics: metrics, lib: lib}
}

func (ts *testServer) do(t *testing.T, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, data interface{}) APIResponse {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	if data != nil && len(envelope.Data) > 0 {
		require.NoError(t, json.Unmarshal(envelope.Data, data))
	}
	return APIResponse{Success: envelope.Success, Error: envelope.Error}
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})

	w := ts.do(t, "GET", "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data map[string]string
	resp := decodeResponse(t, w, &data)
	assert.True(t, resp.Success)
	assert.Equal(t, "healthy", data["status"])
}

func TestRoutesRequireAPIKey(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})

	req := httptest.NewRequest("POST", "/api/v1/decode", bytes.NewReader(sampleRecording))
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/metrics", nil)
	w = httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lmptool_")
}

func TestHandleDecode(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})

	t.Run("default json", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/v1/decode", sampleRecording)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Empty(t, w.Header().Values(WarningHeader))

		doc, err := interchange.Unmarshal(w.Body.Bytes(), interchange.FormatJSON)
		require.NoError(t, err)
		assert.Equal(t, 102, doc.Header.Version())
		assert.Equal(t, []codec.Frame{{Movement: 10, Strafing: -5, Turning: 0, Action: 1}}, doc.Tics)
	})

	for _, format := range interchange.Formats() {
		t.Run("format "+string(format), func(t *testing.T) {
			w := ts.do(t, "POST", "/api/v1/decode?format="+string(format), sampleRecording)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, format.ContentType(), w.Header().Get("Content-Type"))

			doc, err := interchange.Unmarshal(w.Body.Bytes(), format)
			require.NoError(t, err)
			lmp, err := codec.NewRecordCodec().Encode(doc)
			require.NoError(t, err)
			assert.Equal(t, sampleRecording, lmp)
		})
	}

	t.Run("warnings in headers", func(t *testing.T) {
		// Two stray bytes after the last tic and no sentinel.
		input := []byte{102, 3, 1, 5, 1, 0, 0, 0, 10, 0xFB, 0, 1, 7, 7, 7}
		w := ts.do(t, "POST", "/api/v1/decode", input)
		require.Equal(t, http.StatusOK, w.Code)

		warnings := w.Header().Values(WarningHeader)
		require.Len(t, warnings, 2)
		assert.Contains(t, warnings[0], "sentinel_mismatch")
		assert.Contains(t, warnings[1], "frame_alignment")

		assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.warningsTotal.WithLabelValues("sentinel_mismatch")))
		assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.warningsTotal.WithLabelValues("frame_alignment")))
	})

	t.Run("strict rejects warnings", func(t *testing.T) {
		input := []byte{102, 3, 1, 5, 1, 0, 0, 0, 10, 0xFB, 0, 1, 0x00}
		w := ts.do(t, "POST", "/api/v1/decode?strict=true", input)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeResponse(t, w, nil)
		assert.False(t, resp.Success)
		assert.Contains(t, resp.Error, "sentinel")
	})

	t.Run("short header", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/v1/decode", []byte{109, 4, 1, 0x80})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/v1/decode", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown format", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/v1/decode?format=xml", sampleRecording)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad strict value", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/v1/decode?strict=maybe", sampleRecording)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleDecodeBodyLimit(t *testing.T) {
	ts := newTestServer(t, ServerConfig{MaxBodyBytes: 8})

	w := ts.do(t, "POST", "/api/v1/decode", sampleRecording)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestHandleEncode(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})

	t.Run("json body", func(t *testing.T) {
		body := []byte(`{"header": {"game_version": 102, "skill_level": 3, "episode": 1, "map": 5,
			"player1_present": 1, "player2_present": 0, "player3_present": 0, "player4_present": 0},
			"tics": [[10, -5, 0, 1]]}`)
		w := ts.do(t, "POST", "/api/v1/encode", body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
		assert.Equal(t, sampleRecording, w.Body.Bytes())
	})

	t.Run("yaml by content type", func(t *testing.T) {
		body := []byte("header:\n  game_version: 109\ntics: []\n")
		req := httptest.NewRequest("POST", "/api/v1/encode", bytes.NewReader(body))
		req.Header.Set("X-API-Key", testAPIKey)
		req.Header.Set("Content-Type", interchange.FormatYAML.ContentType()+"; charset=utf-8")
		w := httptest.NewRecorder()
		ts.handler.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, []byte{109, 0x80}, w.Body.Bytes())
	})

	t.Run("out of range", func(t *testing.T) {
		body := []byte(`{"header": {"game_version": 102}, "tics": [[200, 0, 0, 0]]}`)
		w := ts.do(t, "POST", "/api/v1/encode", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		resp := decodeResponse(t, w, nil)
		assert.Contains(t, resp.Error, "movement")
		assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.conversionsTotal.WithLabelValues("encode", statusError)))
	})

	t.Run("malformed document", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/v1/encode", []byte(`{"tics": []}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLibraryEndpoints(t *testing.T) {
	ts := newTestServer(t, ServerConfig{})

	w := ts.do(t, "POST", "/api/v1/demos?name=e1m5-uv", sampleRecording)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var entry library.Entry
	resp := decodeResponse(t, w, &entry)
	require.True(t, resp.Success)
	assert.Equal(t, "e1m5-uv", entry.Name)
	assert.Equal(t, 1, entry.Tics)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.libraryRecordings))

	t.Run("duplicate returns existing entry", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/v1/demos?name=again", sampleRecording)
		require.Equal(t, http.StatusConflict, w.Code)

		var existing library.Entry
		resp := decodeResponse(t, w, &existing)
		assert.False(t, resp.Success)
		assert.Equal(t, entry.ID, existing.ID)
	})

	t.Run("list", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/demos", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var entries []library.Entry
		decodeResponse(t, w, &entries)
		require.Len(t, entries, 1)
		assert.Equal(t, entry.ID, entries[0].ID)
	})

	t.Run("get entry", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/demos/"+entry.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var got library.Entry
		decodeResponse(t, w, &got)
		assert.Equal(t, entry.Hash, got.Hash)
	})

	t.Run("get raw", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/demos/"+entry.ID+"/raw", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, sampleRecording, w.Body.Bytes())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "e1m5-uv.lmp")
	})

	t.Run("get document", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/demos/"+entry.ID+"/document?format=yaml", nil)
		require.Equal(t, http.StatusOK, w.Code)

		doc, err := interchange.Unmarshal(w.Body.Bytes(), interchange.FormatYAML)
		require.NoError(t, err)
		assert.Len(t, doc.Tics, 1)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := ts.do(t, "GET", "/api/v1/demos/not-an-id", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := ts.do(t, "DELETE", "/api/v1/demos/"+entry.ID, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 0.0, testutil.ToFloat64(ts.metrics.libraryRecordings))

		w = ts.do(t, "GET", "/api/v1/demos/"+entry.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = ts.do(t, "DELETE", "/api/v1/demos/"+entry.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("import malformed", func(t *testing.T) {
		w := ts.do(t, "POST", "/api/v1/demos", []byte{1, 2, 3})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStatusFor(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{err: codec.ErrMalformedInput, want: http.StatusBadRequest},
		{err: codec.ErrRange, want: http.StatusBadRequest},
		{err: codec.ErrSentinelMismatch, want: http.StatusBadRequest},
		{err: interchange.ErrUnknownFormat, want: http.StatusBadRequest},
		{err: library.ErrNotFound, want: http.StatusNotFound},
		{err: library.ErrDuplicate, want: http.StatusConflict},
		{err: assert.AnError, want: http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}
