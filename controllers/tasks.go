package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"leaddesk/tasks"

	"github.com/gin-gonic/gin"
)

// GET /api/tasks?contact_id=&status=&priority=&kind=
func GetTasks(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}

	f := tasks.Filter{
		Status:   strings.TrimSpace(c.Query("status")),
		Priority: strings.TrimSpace(c.Query("priority")),
		Kind:     strings.TrimSpace(c.Query("kind")),
		Limit:    clampInt(queryInt(c, "limit", 50), 1, 200),
		Offset:   clampInt(queryInt(c, "offset", 0), 0, 1_000_000),
	}
	if v := strings.TrimSpace(c.Query("contact_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			RespondError(c, "contact_id inválido", http.StatusBadRequest)
			return
		}
		f.ContactID = id
	}

	list, err := s.Tasks.List(c.Request.Context(), f)
	if err != nil {
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, gin.H{"tasks": list})
}

// POST /api/tasks
func CreateTask(c *gin.Context) {
	s, ok := requireServices(c)
	if !ok {
		return
	}

	var req tasks.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	task, err := s.Tasks.Create(c.Request.Context(), req)
	switch {
	case err == nil:
		RespondCreated(c, gin.H{"task": task})
	case errors.Is(err, tasks.ErrUnknownContact):
		RespondError(c, "contato não encontrado", http.StatusNotFound)
	case errors.Is(err, tasks.ErrTitleRequired), errors.Is(err, tasks.ErrInvalidPriority):
		RespondError(c, err.Error(), http.StatusBadRequest)
	default:
		RespondError(c, err.Error(), http.StatusInternalServerError)
	}
}

// PATCH /api/tasks/:id
func UpdateTask(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	s, ok := requireServices(c)
	if !ok {
		return
	}

	var req tasks.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	task, err := s.Tasks.Update(c.Request.Context(), id, req)
	switch {
	case err == nil:
		RespondSuccess(c, gin.H{"task": task})
	case errors.Is(err, tasks.ErrTaskNotFound):
		RespondError(c, "tarefa não encontrada", http.StatusNotFound)
	case errors.Is(err, tasks.ErrInvalidStatus), errors.Is(err, tasks.ErrInvalidPriority):
		RespondError(c, err.Error(), http.StatusBadRequest)
	default:
		RespondError(c, err.Error(), http.StatusInternalServerError)
	}
}
