package httpx

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONSuccess_IncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/books", nil)
	req = req.WithContext(ContextWithRequestID(req.Context(), "req-1"))
	w := httptest.NewRecorder()

	JSONSuccess(w, req, map[string]int{"id": 1}, map[string]any{"total": 3})

	var body struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
		Meta    map[string]any `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Data["id"])
	assert.Equal(t, "req-1", body.Meta["request_id"])
	assert.EqualValues(t, 3, body.Meta["total"])
}

func TestJSONError_Envelope(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/books", nil)
	w := httptest.NewRecorder()

	ValidationFailed(w, req, []ErrorDetail{{Field: "title", Message: "title is required"}})

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "title", body.Error.Details[0].Field)
	assert.Nil(t, body.Meta)
}

func TestJSONNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	JSONNoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Title string `json:"title"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr error
		fails   bool
	}{
		{name: "valid", body: `{"title":"Dune"}`},
		{name: "empty", body: "", wantErr: io.EOF, fails: true},
		{name: "unknown field", body: `{"title":"Dune","isbn":"1"}`, fails: true},
		{name: "trailing value", body: `{"title":"Dune"}{"title":"Emma"}`, fails: true},
		{name: "malformed", body: `{"title":`, fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(req, &p)
			if !tt.fails {
				require.NoError(t, err)
				assert.Equal(t, "Dune", p.Title)
				return
			}
			assert.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPageFrom(t *testing.T) {
	tests := []struct {
		query      string
		wantNumber int
		wantSize   int
		wantOffset int
	}{
		{"", 1, 20, 0},
		{"?page=3&page_size=10", 3, 10, 20},
		{"?page=0&page_size=500", 1, 20, 0},
		{"?page=abc&page_size=-2", 1, 20, 0},
		{"?page=9223372036854775807&page_size=20", 1_000_000, 20, 19_999_980},
		{"?page=99999999999999999999&page_size=100", 1_000_000, 100, 99_999_900},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := PageFrom(httptest.NewRequest(http.MethodGet, "/v1/books"+tt.query, nil))
			assert.Equal(t, tt.wantNumber, p.Number)
			assert.Equal(t, tt.wantSize, p.Size)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}

	meta := Page{Number: 2, Size: 20}.Meta(41)
	assert.Equal(t, 3, meta["total_pages"])
}

func TestPageFrom_HugePageStaysPositive(t *testing.T) {
	p := PageFrom(httptest.NewRequest(http.MethodGet, "/v1/borrowings?page=9223372036854775807", nil))

	assert.Positive(t, p.Offset())
	assert.Equal(t, maxPage, p.Meta(0)["page"])
}
