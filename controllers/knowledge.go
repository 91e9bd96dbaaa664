package controllers

import (
	"errors"
	"net/http"
	"strings"

	"leaddesk/knowledge"
	"leaddesk/models"

	"github.com/gin-gonic/gin"
)

type KnowledgeInput struct {
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Content  string   `json:"content"`
	Keywords []string `json:"keywords"`
}

// GET /api/knowledge?category=
func GetKnowledge(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}
	list, err := s.Knowledge.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	// embeddings são grandes e inúteis para o painel
	for i := range list {
		list[i].Embedding = ""
	}
	RespondSuccess(c, gin.H{"snippets": list})
}

// POST /api/knowledge
func CreateKnowledge(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}

	var in KnowledgeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		RespondError(c, "invalid json", http.StatusBadRequest)
		return
	}
	item := models.KnowledgeSnippet{
		Title:    in.Title,
		Category: in.Category,
		Content:  in.Content,
		Keywords: strings.Join(in.Keywords, ","),
	}
	if err := s.Knowledge.Create(c.Request.Context(), &item); err != nil {
		if errors.Is(err, knowledge.ErrInvalidSnippet) {
			RespondError(c, err.Error(), http.StatusBadRequest)
			return
		}
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	item.Embedding = ""
	RespondCreated(c, gin.H{"snippet": item})
}

// DELETE /api/knowledge/:id
func DeleteKnowledge(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	s, ok := requireServices(c)
	if !ok {
		return
	}
	if err := s.Knowledge.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, knowledge.ErrSnippetNotFound) {
			RespondError(c, "snippet não encontrado", http.StatusNotFound)
			return
		}
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondNoContent(c)
}
