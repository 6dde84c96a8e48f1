package httpapi

import (
	"chat-hub/auth"
	"chat-hub/domain"
	apperrors "chat-hub/errors"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (rt *Router) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	token, err := rt.authService.Register(req.Email, req.Password)
	if err != nil {
		rt.fail(w, err)
		return
	}
	rt.reply(w, http.StatusCreated, tokenResponse{Token: string(token)})
}

func (rt *Router) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	token, err := rt.authService.Login(req.Email, req.Password)
	if err != nil {
		rt.fail(w, err)
		return
	}
	rt.reply(w, http.StatusOK, tokenResponse{Token: string(token)})
}

type createGroupRequest struct {
	Name    string   `json:"name"`
	Image   string   `json:"image,omitempty"`
	Members []string `json:"members"`
}

func (rt *Router) createGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	admin := domain.Identity(auth.IdentityFromContext(r.Context()))
	group, err := rt.groups.Create(admin, req.Name, req.Image, identities(req.Members))
	if err != nil {
		rt.fail(w, err)
		return
	}
	rt.reply(w, http.StatusCreated, group)
}

func (rt *Router) myGroups(w http.ResponseWriter, r *http.Request) {
	identity := domain.Identity(auth.IdentityFromContext(r.Context()))
	groups, err := rt.groups.For(identity)
	if err != nil {
		rt.fail(w, err)
		return
	}
	rt.reply(w, http.StatusOK, groups)
}

func (rt *Router) getGroup(w http.ResponseWriter, r *http.Request) {
	group, err := rt.groups.Get(domain.GroupID(mux.Vars(r)["id"]))
	if err != nil {
		rt.fail(w, err)
		return
	}
	if !group.HasMember(domain.Identity(auth.IdentityFromContext(r.Context()))) {
		rt.fail(w, apperrors.ErrGroupNotFound)
		return
	}
	rt.reply(w, http.StatusOK, group)
}

type updateGroupRequest struct {
	Name          *string  `json:"name,omitempty"`
	Image         *string  `json:"image,omitempty"`
	AddMembers    []string `json:"add_members,omitempty"`
	RemoveMembers []string `json:"remove_members,omitempty"`
}

func (rt *Router) updateGroup(w http.ResponseWriter, r *http.Request) {
	var req updateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	actor := domain.Identity(auth.IdentityFromContext(r.Context()))
	group, err := rt.groups.Update(actor, domain.GroupID(mux.Vars(r)["id"]),
		req.Name, req.Image, identities(req.AddMembers), identities(req.RemoveMembers))
	if err != nil {
		rt.fail(w, err)
		return
	}
	rt.reply(w, http.StatusOK, group)
}

func (rt *Router) deleteGroup(w http.ResponseWriter, r *http.Request) {
	actor := domain.Identity(auth.IdentityFromContext(r.Context()))
	if err := rt.groups.Delete(actor, domain.GroupID(mux.Vars(r)["id"])); err != nil {
		rt.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type historyResponse struct {
	Messages []storedMessageResponse `json:"messages"`
	Cursor   *string                 `json:"cursor,omitempty"`
}

type storedMessageResponse struct {
	domain.Message
	SeenBy []domain.Identity `json:"seen_by"`
}

func (rt *Router) history(w http.ResponseWriter, r *http.Request) {
	conversation := mux.Vars(r)["conversation"]
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	messages, next, err := rt.chat.History(conversation, cursor)
	if err != nil {
		rt.fail(w, err)
		return
	}

	resp := historyResponse{Cursor: next, Messages: []storedMessageResponse{}}
	for _, msg := range messages {
		resp.Messages = append(resp.Messages, storedMessageResponse{Message: msg.Message, SeenBy: msg.SeenBy})
	}
	rt.reply(w, http.StatusOK, resp)
}

type searchResponse struct {
	Hits  any    `json:"hits"`
	Total uint64 `json:"total"`
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	conversation := mux.Vars(r)["conversation"]
	terms := r.URL.Query().Get("q")
	if terms == "" {
		http.Error(w, "missing q parameter", http.StatusBadRequest)
		return
	}

	limit := rt.searchLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed < limit {
			limit = parsed
		}
	}

	hits, total, err := rt.chat.Search(r.Context(), terms, conversation, limit)
	if err != nil {
		rt.fail(w, err)
		return
	}
	rt.reply(w, http.StatusOK, searchResponse{Hits: hits, Total: total})
}

type markSeenRequest struct {
	MessageID string `json:"message_id,omitempty"`
}

// markSeen acknowledges messages of a conversation. With a message_id in
// the body a single message is acknowledged; without one, every unread
// message of a group conversation is.
func (rt *Router) markSeen(w http.ResponseWriter, r *http.Request) {
	conversation := mux.Vars(r)["conversation"]
	identity := domain.Identity(auth.IdentityFromContext(r.Context()))

	var req markSeenRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	cmd := domain.MarkSeenCommand{Identity: identity}
	switch {
	case req.MessageID != "":
		id, err := uuid.Parse(req.MessageID)
		if err != nil {
			http.Error(w, "invalid message_id", http.StatusBadRequest)
			return
		}
		cmd.MessageID = id
	case strings.HasPrefix(conversation, "group:"):
		cmd.Group = domain.GroupID(strings.TrimPrefix(conversation, "group:"))
	default:
		http.Error(w, "message_id is required for direct conversations", http.StatusBadRequest)
		return
	}

	if err := rt.chat.MarkSeen(r.Context(), cmd); err != nil {
		rt.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) presence(w http.ResponseWriter, r *http.Request) {
	identity := domain.Identity(mux.Vars(r)["identity"])
	rt.reply(w, http.StatusOK, rt.chat.Presence(identity))
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	rt.reply(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) statsSnapshot(w http.ResponseWriter, _ *http.Request) {
	rt.reply(w, http.StatusOK, rt.stats.Snapshot())
}

func (rt *Router) reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		rt.log.Warn("Failed to encode response", "error", err)
	}
}

// fail maps domain errors to HTTP status codes.
func (rt *Router) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrInvalidPassword), errors.Is(err, apperrors.ErrMemberCount):
		status = http.StatusBadRequest
	case errors.Is(err, apperrors.ErrGroupNotFound), errors.Is(err, apperrors.ErrMessageNotFound), errors.Is(err, apperrors.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrNotGroupAdmin):
		status = http.StatusForbidden
	}

	if status == http.StatusInternalServerError {
		rt.log.Error("Request failed", "error", err)
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}

func identities(raw []string) []domain.Identity {
	out := make([]domain.Identity, 0, len(raw))
	for _, s := range raw {
		out = append(out, domain.Identity(s))
	}
	return out
}
