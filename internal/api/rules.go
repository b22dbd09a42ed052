package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quartzhome/quartz-core/internal/rules"
)

// ruleResponse is the wire representation of one loaded rule.
type ruleResponse struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Enabled bool             `json:"enabled"`
	Trigger triggerResponse  `json:"trigger"`
	Actions []actionResponse `json:"actions"`
}

type triggerResponse struct {
	Source  string `json:"source"`
	Type    string `json:"type"`
	InputID string `json:"input_id"`
}

type actionResponse struct {
	Source       string `json:"source"`
	Type         string `json:"type,omitempty"`
	TargetID     string `json:"target_id,omitempty"`
	DelaySeconds uint32 `json:"delay_s,omitempty"`
}

type buildResponse struct {
	Built           int `json:"built"`
	SkippedDisabled int `json:"skipped_disabled"`
	SkippedRules    int `json:"skipped_rules"`
	DroppedActions  int `json:"dropped_actions"`
}

func toRuleResponse(r rules.Rule) ruleResponse {
	resp := ruleResponse{
		ID:      r.ID,
		Name:    r.Name,
		Enabled: r.Enabled,
		Trigger: triggerResponse{
			Source:  r.Trigger.Source.String(),
			Type:    r.Trigger.Type.String(),
			InputID: r.Trigger.InputID,
		},
		Actions: make([]actionResponse, 0, len(r.Actions)),
	}
	for _, a := range r.Actions {
		resp.Actions = append(resp.Actions, actionResponse{
			Source:       a.Source.String(),
			Type:         a.Type.String(),
			TargetID:     a.TargetID,
			DelaySeconds: a.DelaySeconds,
		})
	}
	return resp
}

func toBuildResponse(b rules.BuildReport) buildResponse {
	return buildResponse{
		Built:           b.Built,
		SkippedDisabled: b.SkippedDisabled,
		SkippedRules:    b.SkippedRules,
		DroppedActions:  b.DroppedActions,
	}
}

// handleListRules returns the currently loaded rule set and the result of
// the last runtime build.
func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	loaded := s.rules.Rules()
	resp := make([]ruleResponse, 0, len(loaded))
	for _, r := range loaded {
		resp = append(resp, toRuleResponse(r))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"rules": resp,
		"units": s.rules.UnitCount(),
		"build": toBuildResponse(s.rules.LastBuild()),
	})
}

// handleGetRule returns a single rule by identifier.
func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rule, err := s.rules.RuleByID(id)
	if err != nil {
		if errors.Is(err, rules.ErrRuleNotFound) {
			writeNotFound(w, "rule not found")
			return
		}
		writeInternalError(w, "looking up rule")
		return
	}

	writeJSON(w, http.StatusOK, toRuleResponse(rule))
}

// handleGetDocument returns the raw rule document currently applied.
func (s *Server) handleGetDocument(w http.ResponseWriter, _ *http.Request) {
	doc := s.rules.Document()
	if len(doc) == 0 {
		writeNotFound(w, "no rule document loaded")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(doc) //nolint:errcheck // Best-effort write to response
}

// handlePutRules applies a new rule document: parse, rebuild the runtime,
// then persist. The request body is the raw JSON document.
func (s *Server) handlePutRules(w http.ResponseWriter, r *http.Request) {
	// One byte over the limit is enough to distinguish oversize from exact.
	body, err := io.ReadAll(io.LimitReader(r.Body, rules.MaxDocumentSize+1))
	if err != nil {
		writeBadRequest(w, "reading request body")
		return
	}

	if err := s.rules.ReloadFromDocument(r.Context(), body); err != nil {
		switch {
		case errors.Is(err, rules.ErrDocumentTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "document exceeds maximum size")
		case errors.Is(err, rules.ErrMalformedDocument), errors.Is(err, rules.ErrEmptyDocument):
			writeBadRequest(w, "malformed rule document")
		default:
			writeInternalError(w, "applying rule document")
		}
		return
	}

	if err := s.rules.Persist(r.Context()); err != nil {
		// The document is live but not durable; surface that distinctly.
		s.logger.Error("persisting rule document", "error", err)
		writeJSON(w, http.StatusOK, map[string]any{
			"applied":   true,
			"persisted": false,
			"build":     toBuildResponse(s.rules.LastBuild()),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"applied":   true,
		"persisted": true,
		"build":     toBuildResponse(s.rules.LastBuild()),
	})
}

// handlePersistRules writes the currently applied document to the store
// without changing the live set.
func (s *Server) handlePersistRules(w http.ResponseWriter, r *http.Request) {
	if err := s.rules.Persist(r.Context()); err != nil {
		if errors.Is(err, rules.ErrEmptyDocument) {
			writeBadRequest(w, "no rule document loaded")
			return
		}
		writeInternalError(w, "persisting rule document")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"persisted": true})
}
