package controllers

import (
	"errors"
	"net/http"
	"strings"

	"leaddesk/contacts"
	"leaddesk/models"

	"github.com/gin-gonic/gin"
)

// GET /api/contacts?interest_level=&channel=&q=&limit=&offset=
func GetContacts(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}

	f := contacts.Filter{
		Query:  c.Query("q"),
		Limit:  clampInt(queryInt(c, "limit", 50), 1, 200),
		Offset: clampInt(queryInt(c, "offset", 0), 0, 1_000_000),
	}
	if v := strings.TrimSpace(c.Query("interest_level")); v != "" {
		lvl, err := models.ParseInterestLevel(v)
		if err != nil {
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
		f.Interest = &lvl
	}
	if v := strings.TrimSpace(c.Query("channel")); v != "" {
		ch, err := models.ParseChannel(v)
		if err != nil {
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
		f.Channel = &ch
	}

	list, err := s.Contacts.List(c.Request.Context(), f)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"contacts": list, "limit": f.Limit, "offset": f.Offset})
}

// GET /api/contacts/:id
func GetContactByID(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	s, ok := requireServices(c)
	if !ok {
		return
	}

	contact, err := s.Contacts.Get(c.Request.Context(), id)
	if err != nil {
		respondContactError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"contact": contact})
}

// PATCH /api/contacts/:id
func UpdateContact(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	s, ok := requireServices(c)
	if !ok {
		return
	}

	var req contacts.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	contact, err := s.Contacts.Update(c.Request.Context(), id, req)
	if err != nil {
		respondContactError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"contact": contact})
}

func respondContactError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, contacts.ErrContactNotFound):
		RespondError(c, "contato não encontrado", http.StatusNotFound)
	case errors.Is(err, contacts.ErrContactConflict):
		RespondError(c, err.Error(), http.StatusConflict)
	default:
		RespondError(c, err.Error(), http.StatusBadRequest)
	}
}
