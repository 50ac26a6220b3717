package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
	"github.com/mcbarin/personal-ai-assistant/internal/service/command"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

type chatRequest struct {
	Message  string `json:"message"`
	APIToken string `json:"api_token,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	if s.cfg.APIToken != "" && req.APIToken != s.cfg.APIToken {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid api token"})
		return
	}

	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "message is required"})
		return
	}

	result, err := s.assistant.HandleMessage(r.Context(), req.Message)
	if err != nil {
		// Malformed commands come back to the caller as the reply; they
		// are user mistakes, not server failures.
		var ve *command.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusOK, core.TurnResult{
				Reply:           ve.Error(),
				UsedTools:       []string{},
				RetrievedDocIDs: []string{},
			})
			return
		}

		log.FromCtx(r.Context()).Error().Err(err).Msg("chat handling failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to handle message"})
		return
	}

	if result.UsedTools == nil {
		result.UsedTools = []string{}
	}
	if result.RetrievedDocIDs == nil {
		result.RetrievedDocIDs = []string{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleTodos(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	todos, err := s.todos.List(r.Context(), status)
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("failed to list todos")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list todos"})
		return
	}

	if todos == nil {
		todos = []core.Todo{}
	}
	writeJSON(w, http.StatusOK, todos)
}

type turnRead struct {
	ID              int64  `json:"id"`
	UserMessage     string `json:"user_message"`
	AssistantReply  string `json:"assistant_reply"`
	ToolsUsed       string `json:"tools_used"`
	RetrievedDocIDs string `json:"retrieved_doc_ids"`
	CreatedAt       string `json:"created_at"`
}

func (s *Server) handleTurns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	recs, err := s.turns.List(r.Context(), limit)
	if err != nil {
		log.FromCtx(r.Context()).Error().Err(err).Msg("failed to list turns")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list turns"})
		return
	}

	out := make([]turnRead, len(recs))
	for i, rec := range recs {
		out[i] = turnRead{
			ID:              rec.ID,
			UserMessage:     rec.UserMessage,
			AssistantReply:  rec.AssistantReply,
			ToolsUsed:       rec.ToolsUsed,
			RetrievedDocIDs: rec.RetrievedDocIDs,
			CreatedAt:       rec.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
