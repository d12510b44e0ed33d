package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/markb/raql/internal/algebra"
	"github.com/markb/raql/internal/emit"
	"github.com/markb/raql/internal/resolve"
	"github.com/markb/raql/internal/translate"
)

type translateRequest struct {
	Statement string `json:"statement"`
	// Bag switches the SQL backend to the ALL set operators.
	Bag bool `json:"bag,omitempty"`
}

type translateResponse struct {
	Results []*translate.Result `json:"results"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Stage    string    `json:"stage"`
	Kind     string    `json:"kind,omitempty"`
	Message  string    `json:"message"`
	Position *position `json:"position,omitempty"`
}

type position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(s.cat)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Stage: "request", Message: "invalid JSON body"})
		return
	}
	if req.Statement == "" {
		writeError(w, http.StatusBadRequest, errorBody{Stage: "request", Message: "statement is required"})
		return
	}

	var opts []translate.Option
	if req.Bag {
		opts = append(opts, translate.WithBagSemantics())
	}
	results, err := translate.TranslateAll(req.Statement, s.st, s.cat, opts...)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, errorBodyFor(err))
		return
	}
	json.NewEncoder(w).Encode(translateResponse{Results: results})
}

// errorBodyFor flattens a pipeline error into its stage, kind, message,
// and source position.
func errorBodyFor(err error) errorBody {
	body := errorBody{Stage: "translate", Message: err.Error()}

	var stageErr *translate.StageError
	if errors.As(err, &stageErr) {
		body.Stage = stageErr.Stage
		body.Message = stageErr.Err.Error()
	}

	var (
		lexErr   *algebra.LexError
		parseErr *algebra.ParseError
		semErr   *resolve.Error
		emitErr  *emit.EmitError
	)
	switch {
	case errors.As(err, &lexErr):
		body.Position = &position{Line: lexErr.Pos.Line, Column: lexErr.Pos.Column}
	case errors.As(err, &parseErr):
		body.Position = &position{Line: parseErr.Pos.Line, Column: parseErr.Pos.Column}
	case errors.As(err, &semErr):
		body.Kind = semErr.Kind.String()
		body.Position = &position{Line: semErr.Pos.Line, Column: semErr.Pos.Column}
	case errors.As(err, &emitErr):
		body.Position = &position{Line: emitErr.Pos.Line, Column: emitErr.Pos.Column}
	}
	return body
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: body})
}
