package responseformat

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type payload struct {
	Name   string    `json:"name" yaml:"name"`
	Values []float64 `json:"values" yaml:"values"`
}

func TestWriteResponseDefaultsToJSON(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, f.WriteResponse(rec, req, http.StatusCreated, payload{Name: "a", Values: []float64{1, 2}}))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"name":"a","values":[1,2]}`, rec.Body.String())
}

func TestWriteResponseMsgPackUsesJSONTags(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs?format=msgpack", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, f.WriteResponse(rec, req, http.StatusOK, payload{Name: "b", Values: []float64{3}}))
	assert.Equal(t, "application/x-msgpack", rec.Header().Get("Content-Type"))

	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "b", decoded["name"])
	assert.Equal(t, []any{3.0}, decoded["values"])
}

func TestWriteError(t *testing.T) {
	f := NewFormatter()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, f.WriteError(rec, req, http.StatusNotFound, "run not found"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"run not found","status":404}`, rec.Body.String())
}

func TestDecodeRequest(t *testing.T) {
	f := NewFormatter()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"c","values":[4,5]}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	var p payload
	require.NoError(t, f.DecodeRequest(req, &p))
	assert.Equal(t, payload{Name: "c", Values: []float64{4, 5}}, p)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"c","extra":1}`))
	assert.Error(t, f.DecodeRequest(req, &p))

	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	require.NoError(t, enc.Encode(payload{Name: "d", Values: []float64{6}}))

	req = httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", "application/x-msgpack")
	var q payload
	require.NoError(t, f.DecodeRequest(req, &q))
	assert.Equal(t, payload{Name: "d", Values: []float64{6}}, q)
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, FormatYAML, payload{Name: "e", Values: []float64{1.5}}))
	assert.Equal(t, "name: e\nvalues:\n- 1.5\n", buf.String())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
