package controllers

import (
	"fmt"
	"net/http"
	"strings"

	dbpkg "leaddesk/db"
	"leaddesk/models"

	"github.com/gin-gonic/gin"
)

// GET /api/events
// Query params:
// - status=pending|processing|done|invalidated (optional)
// - q=texto (optional) -> busca em recipient + text + reply_text
// - sort_by=created_at|processed_at|scheduled_at|id (optional, default: created_at)
// - order=asc|desc (optional, default: desc)
// - limit (optional, default: 200, max: 500)
// - offset (optional, default: 0)
func GetEvents(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	status := strings.TrimSpace(c.Query("status"))
	q := strings.TrimSpace(c.Query("q"))
	sortBy := strings.TrimSpace(c.DefaultQuery("sort_by", "created_at"))
	order := strings.ToLower(strings.TrimSpace(c.DefaultQuery("order", "desc")))

	limit := clampInt(queryInt(c, "limit", 200), 1, 500)
	offset := clampInt(queryInt(c, "offset", 0), 0, 1_000_000)

	// whitelist sort fields
	switch sortBy {
	case "created_at", "processed_at", "scheduled_at", "id":
	default:
		sortBy = "created_at"
	}
	if order != "asc" {
		order = "desc"
	}

	query := db.Model(&models.Event{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if q != "" {
		like := "%" + q + "%"
		query = query.Where("recipient LIKE ? OR text LIKE ? OR reply_text LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	var events []models.Event
	if err := query.Order(fmt.Sprintf("%s %s, id %s", sortBy, order, order)).
		Limit(limit).
		Offset(offset).
		Find(&events).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	RespondSuccess(c, gin.H{
		"total":  total,
		"limit":  limit,
		"offset": offset,
		"events": events,
	})
}

// GET /api/events/:id
func GetEventByID(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}

	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var event models.Event
	if err := db.First(&event, id).Error; err != nil {
		if dbpkg.IsNotFound(err) {
			RespondError(c, "event não encontrado", http.StatusNotFound)
			return
		}
		RespondError(c, err.Error(), http.StatusInternalServerError)
		return
	}

	RespondSuccess(c, gin.H{"event": event})
}
