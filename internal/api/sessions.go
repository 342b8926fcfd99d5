package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type startSessionRequest struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
}

func (h *handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.svc.StartSession(r.Context(), req.Cols, req.Rows)
	if err != nil {
		jsonError(w, statusForError(err), err.Error())
		return
	}

	jsonResponse(w, http.StatusCreated, startSessionResponse{SessionID: id})
}

func (h *handler) endSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.EndSession(r.Context()); err != nil {
		jsonError(w, statusForError(err), err.Error())
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

type sendInputRequest struct {
	Data string `json:"data"`
}

func (h *handler) sendInput(w http.ResponseWriter, r *http.Request) {
	var req sendInputRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.SendInput(r.Context(), []byte(req.Data)); err != nil {
		jsonError(w, statusForError(err), err.Error())
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

type readOutputResponse struct {
	Data *string `json:"data"`
}

func (h *handler) readOutput(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ReadOutput(r.Context())
	if err != nil {
		jsonError(w, statusForError(err), err.Error())
		return
	}

	resp := readOutputResponse{}
	if data != nil {
		s := string(data)
		resp.Data = &s
	}
	jsonResponse(w, http.StatusOK, resp)
}

type resizeRequest struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

func (h *handler) resizePty(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.ResizePty(req.Cols, req.Rows); err != nil {
		jsonError(w, statusForError(err), err.Error())
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

type beginCommandRequest struct {
	Input string `json:"input"`
}

type beginCommandResponse struct {
	CommandID string `json:"command_id"`
}

func (h *handler) beginCommand(w http.ResponseWriter, r *http.Request) {
	var req beginCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	id, err := h.svc.BeginCommand(r.Context(), req.Input)
	if err != nil {
		jsonError(w, statusForError(err), err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, beginCommandResponse{CommandID: id})
}

type endCommandRequest struct {
	ExitCode int64 `json:"exit_code"`
}

func (h *handler) endCommand(w http.ResponseWriter, r *http.Request) {
	var req endCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.svc.EndCommand(r.Context(), req.ExitCode); err != nil {
		jsonError(w, statusForError(err), err.Error())
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}

func (h *handler) recentSessions(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	sessions, err := h.svc.RecentSessions(r.Context(), limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, sessions)
}

func (h *handler) sessionEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.SessionEvents(r.Context(), r.PathValue("id"))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, events)
}

func (h *handler) sessionCommands(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	commands, err := h.svc.SessionCommands(r.Context(), r.PathValue("id"), limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, commands)
}
