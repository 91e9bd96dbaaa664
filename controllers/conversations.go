package controllers

import (
	"errors"
	"net/http"

	"leaddesk/conversations"

	"github.com/gin-gonic/gin"
)

// GET /api/contacts/:id/conversations
func GetContactConversations(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	s, ok := requireServices(c)
	if !ok {
		return
	}

	list, err := s.Conversations.ListByContact(c.Request.Context(), id)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"conversations": list})
}

// GET /api/conversations/:id/messages?limit=&offset=
func GetConversationMessages(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	s, ok := requireServices(c)
	if !ok {
		return
	}

	conv, err := s.Conversations.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, conversations.ErrConversationNotFound) {
			RespondError(c, "conversa não encontrada", http.StatusNotFound)
			return
		}
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	limit := clampInt(queryInt(c, "limit", 100), 1, 500)
	offset := clampInt(queryInt(c, "offset", 0), 0, 1_000_000)
	msgs, err := s.Conversations.Messages(c.Request.Context(), id, limit, offset)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"conversation": conv, "messages": msgs})
}
