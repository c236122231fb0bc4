package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"civicdesk/pkg/chat"
	"civicdesk/pkg/models"
	"civicdesk/pkg/store"
	"civicdesk/pkg/utils"
)

// RegisterChats registers the support chat routes.
func RegisterChats(r *mux.Router) {
	r.HandleFunc("/chats", createChat).Methods(http.MethodPost)
	r.HandleFunc("/chats", listChats).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}", getChat).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/messages", sendChatMessage).Methods(http.MethodPost)
	r.HandleFunc("/chats/{id}/read", markChatRead).Methods(http.MethodPut)
	r.HandleFunc("/chats/{id}/close", closeChat).Methods(http.MethodPut)
	r.HandleFunc("/chats/{id}/reopen", reopenChat).Methods(http.MethodPut)
}

func createChat(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := chatMgr.Create(p.ID, req.Title)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to create chat")
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, c)
}

// listChats returns all active chats for staff, or the caller's own.
func listChats(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	userID := p.ID
	if p.IsAdmin() {
		userID = 0
	}
	chats, err := store.ListChats(userID, true)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to list chats")
		return
	}
	type chatView struct {
		models.Chat
		UnreadCount int `json:"unread_count"`
	}
	out := make([]chatView, 0, len(chats))
	for _, c := range chats {
		unread, err := store.ChatUnreadCount(c.ID, p.IsAdmin())
		if err != nil {
			unread = 0
		}
		out = append(out, chatView{Chat: c, UnreadCount: unread})
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"chats": out})
}

func getChat(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	c, err := store.GetChat(id)
	if errors.Is(err, store.ErrNotFound) {
		utils.JSONError(w, http.StatusNotFound, "chat not found")
		return
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to load chat")
		return
	}
	if !p.IsAdmin() && c.UserID != p.ID {
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	}
	msgs, err := store.ListChatMessages(id)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"chat": c, "messages": msgs})
}

func sendChatMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	msg, err := chatMgr.Send(mux.Vars(r)["id"], currentUser(p), req.Content)
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "chat not found")
		return
	case errors.Is(err, chat.ErrForbidden):
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	case errors.Is(err, chat.ErrClosed):
		utils.JSONError(w, http.StatusConflict, "chat is closed")
		return
	case err != nil:
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, msg)
}

func markChatRead(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	count, err := chatMgr.MarkRead(mux.Vars(r)["id"], currentUser(p))
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "chat not found")
		return
	case errors.Is(err, chat.ErrForbidden):
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	case err != nil:
		utils.JSONError(w, http.StatusInternalServerError, "failed to mark chat read")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"success": true, "marked_read": count})
}

func closeChat(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	c, err := chatMgr.Close(mux.Vars(r)["id"], currentUser(p))
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "chat not found")
		return
	case errors.Is(err, chat.ErrForbidden):
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	case err != nil:
		utils.JSONError(w, http.StatusInternalServerError, "failed to close chat")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, c)
}

func reopenChat(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	c, err := chatMgr.Reopen(mux.Vars(r)["id"], currentUser(p))
	switch {
	case errors.Is(err, store.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, "chat not found")
		return
	case errors.Is(err, chat.ErrForbidden):
		utils.JSONError(w, http.StatusForbidden, "forbidden")
		return
	case errors.Is(err, chat.ErrAlreadyOpen):
		utils.JSONError(w, http.StatusBadRequest, "chat is already open")
		return
	case err != nil:
		utils.JSONError(w, http.StatusInternalServerError, "failed to reopen chat")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, c)
}
