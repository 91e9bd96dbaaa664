package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	dbpkg "leaddesk/db"
	"leaddesk/models"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

// ------------------------------
// Dashboard - Stats
// ------------------------------

type perDayRow struct {
	Day   string `json:"day"`
	Count int64  `json:"count"`
}

// GET /api/dashboard/messages-per-day
// Query params:
// - from=YYYY-MM-DD (optional, default: hoje-6)
// - to=YYYY-MM-DD   (optional, default: hoje)
// - sender=user|agent (optional)
// Retorna uma série diária (inclui dias com 0).
func GetMessagesPerDay(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	q := db.Table("messages")
	if sender := strings.TrimSpace(c.Query("sender")); sender != "" {
		if !models.ValidSender(sender) {
			RespondError(c, "sender inválido", http.StatusBadRequest)
			return
		}
		q = q.Where("sender = ?", sender)
	}

	series, err := dailySeries(q, "created_at", from, to)
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"series": series,
	})
}

// GET /api/dashboard/events-per-day
// Eventos de canal processados pelo worker, por dia.
func GetEventsProcessedPerDay(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}

	q := db.Table("events").Where("status = ? AND processed_at IS NOT NULL", models.EVENT_STATUS_DONE)
	series, err := dailySeries(q, "processed_at", from, to)
	if err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}
	RespondSuccess(c, gin.H{
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
		"series": series,
	})
}

type funnelRow struct {
	InterestLevel string `json:"interest_level"`
	Count         int64  `json:"count"`
}

// GET /api/dashboard/funnel
// Contatos por nível de interesse, na ordem do funil (inclui níveis com 0).
func GetFunnel(c *gin.Context) {
	db := dbpkg.DBInstance(c)
	if db == nil {
		RespondError(c, "db não configurado no contexto", http.StatusInternalServerError)
		return
	}

	var rows []funnelRow
	if err := db.Table("contacts").
		Select("interest_level, count(*) as count").
		Group("interest_level").
		Scan(&rows).Error; err != nil {
		RespondError(c, err.Error(), http.StatusBadRequest)
		return
	}

	m := map[string]int64{}
	var total int64
	for _, r := range rows {
		m[r.InterestLevel] = r.Count
		total += r.Count
	}
	out := make([]funnelRow, 0, len(models.InterestLevels()))
	for _, lvl := range models.InterestLevels() {
		out = append(out, funnelRow{InterestLevel: lvl.String(), Count: m[lvl.String()]})
	}
	RespondSuccess(c, gin.H{"total": total, "funnel": out})
}

// ------------------------------
// Helpers
// ------------------------------

// dailySeries counts rows of q per local day of column, between from and to
// (inclusive).
func dailySeries(q *gorm.DB, column string, from, to time.Time) ([]perDayRow, error) {
	// Normaliza para início do dia e usa "to exclusivo" (dia seguinte 00:00).
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.Local)
	toInclusive := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.Local)
	toExclusive := toInclusive.AddDate(0, 0, 1)

	// Monta a query dependendo do dialeto.
	dialect := strings.ToLower(q.Dialect().GetName())
	dayExpr := fmt.Sprintf("date(%s)", column) // fallback genérico
	switch {
	case strings.Contains(dialect, "sqlite"):
		dayExpr = fmt.Sprintf("strftime('%%Y-%%m-%%d', %s, 'localtime')", column)
	case strings.Contains(dialect, "postgres"):
		dayExpr = fmt.Sprintf("to_char(date_trunc('day', %s), 'YYYY-MM-DD')", column)
	}

	var rows []perDayRow
	err := q.Select(fmt.Sprintf("%s as day, count(*) as count", dayExpr)).
		Where(fmt.Sprintf("%s >= ? AND %s < ?", column, column), from, toExclusive).
		Group("day").
		Order("day asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return fillDailySeries(from, toInclusive, rows), nil
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	// defaults: últimos 7 dias
	now := time.Now()
	from := now.AddDate(0, 0, -6)
	to := now
	var err error

	if s := strings.TrimSpace(c.Query("from")); s != "" {
		from, err = time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			RespondError(c, "from inválido (use YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
	}
	if s := strings.TrimSpace(c.Query("to")); s != "" {
		to, err = time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			RespondError(c, "to inválido (use YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
	}
	if from.After(to) {
		RespondError(c, "from não pode ser maior que to", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	if to.Sub(from) > 366*24*time.Hour {
		RespondError(c, "intervalo máximo é de 1 ano", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func fillDailySeries(from, to time.Time, rows []perDayRow) []perDayRow {
	m := map[string]int64{}
	for _, r := range rows {
		if r.Day == "" {
			continue
		}
		m[r.Day] = r.Count
	}

	var out []perDayRow
	cur := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.Local)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.Local)
	for !cur.After(end) {
		key := cur.Format("2006-01-02")
		out = append(out, perDayRow{Day: key, Count: m[key]})
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}
