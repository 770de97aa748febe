package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/jonathan/autofill-agent/internal/ai"
	"github.com/jonathan/autofill-agent/internal/classify"
	"github.com/jonathan/autofill-agent/internal/extract"
	"github.com/jonathan/autofill-agent/internal/llm"
	"github.com/jonathan/autofill-agent/internal/memory"
	"github.com/jonathan/autofill-agent/internal/pipeline"
	"github.com/jonathan/autofill-agent/internal/profile"
	"github.com/jonathan/autofill-agent/internal/schemas"
	"github.com/jonathan/autofill-agent/internal/types"
)

// ResolveRequest asks the pipeline to answer a scanned form. Callers
// send either pre-extracted fields or raw HTML, plus an optional inline
// profile; without one the stored profile is used.
type ResolveRequest struct {
	Fields  []types.Field  `json:"fields,omitempty"`
	HTML    string         `json:"html,omitempty"`
	Profile *types.Profile `json:"profile,omitempty"`
}

// ResolveResponse returns the per-selector resolutions for one scan.
type ResolveResponse struct {
	ScanID  string          `json:"scan_id"`
	Results types.ResultMap `json:"results"`
}

// handleResolve runs the resolution pipeline over the submitted fields.
// Resolution only: execution against a live page happens in the CLI.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if len(req.Fields) == 0 && req.HTML == "" {
		writeError(w, &ErrValidation{Field: "fields", Message: "either fields or html is required"})
		return
	}

	fields := req.Fields
	if len(fields) == 0 {
		var err error
		fields, err = extract.Fields(req.HTML)
		if err != nil {
			writeError(w, &ErrValidation{Field: "html", Message: err.Error()})
			return
		}
	}

	ctx := r.Context()

	prof := req.Profile
	if prof == nil {
		store, err := profile.Load(ctx, s.kv)
		if err != nil {
			writeError(w, err)
			return
		}
		prof = store.Profile()
	}

	global, err := memory.LoadGlobal(ctx, s.kv)
	if err != nil {
		writeError(w, err)
		return
	}
	interactions, err := memory.LoadInteractions(ctx, s.kv)
	if err != nil {
		writeError(w, err)
		return
	}

	var resolver *ai.Resolver
	if s.apiKey != "" {
		client, err := llm.NewGeminiClient(ctx, s.apiKey)
		if err == nil {
			defer func() { _ = client.Close() }()
			resolver = ai.NewResolver(client)
		}
	}

	orch := pipeline.New(pipeline.Config{
		Classifier:   classify.NewHeuristicClassifier(),
		Entities:     profile.NewStore(s.kv, prof),
		Global:       global,
		Interactions: interactions,
		AI:           resolver,
	})

	results := orch.ExecutePipeline(ctx, fields)
	s.jsonResponse(w, http.StatusOK, ResolveResponse{
		ScanID:  uuid.New().String(),
		Results: results,
	})
}

// handleImportProfile validates a profile document against the JSON
// schema and persists it as the stored profile.
func (s *Server) handleImportProfile(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, &ErrValidation{Field: "body", Message: "failed to read body"})
		return
	}

	if s.schemaPath != "" {
		schemaContent, err := os.ReadFile(s.schemaPath)
		if err == nil {
			if err := schemas.ValidateJSONString(string(schemaContent), string(body)); err != nil {
				writeError(w, &ErrProfileInvalid{Detail: err.Error()})
				return
			}
		}
	}

	var prof types.Profile
	if err := json.Unmarshal(body, &prof); err != nil {
		writeError(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}

	store := profile.NewStore(s.kv, &prof)
	if err := store.Flush(r.Context()); err != nil {
		writeError(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "imported"})
}

// handleGetProfile returns the stored profile.
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	store, err := profile.Load(r.Context(), s.kv)
	if err != nil {
		writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, store.Profile())
}
