package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markb/raql/internal/catalog"
	"github.com/markb/raql/internal/translate"
)

func testServer() *Server {
	return New(Config{
		Catalog: catalog.Catalog{
			"Person": {"name", "age", "city"},
			"Serves": {"bar", "beer"},
			"Beer":   {"beer"},
		},
	})
}

func postTranslate(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/translate", strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHandleTranslate(t *testing.T) {
	s := testServer()
	w := postTranslate(t, s, `{"statement": "\\project_{name} \\select_{age > 30} Person;"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp translateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)

	result := resp.Results[0]
	assert.Equal(t, `\pi_{name} \sigma_{age > 30} Person`, result.Latex)
	assert.Equal(t, `SELECT name FROM (SELECT * FROM Person WHERE age > 30) AS Person`, result.SQL)
	require.NotNil(t, result.Tree)
	assert.Len(t, result.Tree.Nodes, 3)
}

func TestHandleTranslateMultipleStatements(t *testing.T) {
	s := testServer()
	w := postTranslate(t, s, `{"statement": "Person; Serves \\divide Beer;"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp translateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 2)
}

func TestHandleTranslateWarnings(t *testing.T) {
	s := testServer()
	w := postTranslate(t, s, `{"statement": "Person \\natural_join Serves"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp translateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	require.Len(t, resp.Results[0].Warnings, 1)
}

func TestHandleTranslateBagSemantics(t *testing.T) {
	s := testServer()
	w := postTranslate(t, s, `{"statement": "Serves \\union Serves", "bag": true}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp translateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Contains(t, resp.Results[0].SQL, "UNION ALL")
}

func TestHandleTranslateErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		status    int
		stage     string
		kind      string
		line, col int
	}{
		{
			name:   "empty statement",
			body:   `{"statement": ""}`,
			status: http.StatusBadRequest,
			stage:  "request",
		},
		{
			name:   "invalid json",
			body:   `{`,
			status: http.StatusBadRequest,
			stage:  "request",
		},
		{
			name:   "parse error with position",
			body:   `{"statement": "Person Person"}`,
			status: http.StatusUnprocessableEntity,
			stage:  translate.StageParse,
			line:   1, col: 8,
		},
		{
			name:   "semantic error carries kind",
			body:   `{"statement": "Missing"}`,
			status: http.StatusUnprocessableEntity,
			stage:  translate.StageResolve,
			kind:   "unknown_relation",
			line:   1, col: 1,
		},
	}
	s := testServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postTranslate(t, s, tt.body)
			require.Equal(t, tt.status, w.Code)

			var resp errorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.stage, resp.Error.Stage)
			if tt.kind != "" {
				assert.Equal(t, tt.kind, resp.Error.Kind)
			}
			if tt.line != 0 {
				require.NotNil(t, resp.Error.Position)
				assert.Equal(t, tt.line, resp.Error.Position.Line)
				assert.Equal(t, tt.col, resp.Error.Position.Column)
			}
		})
	}
}

func TestHandleCatalog(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/catalog", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var cat map[string][]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cat))
	assert.Equal(t, []string{"name", "age", "city"}, cat["Person"])
}

func TestHandleHealth(t *testing.T) {
	s := testServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "healthy"}`, w.Body.String())
}
