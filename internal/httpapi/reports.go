package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"geoattend/internal/attendance"
	"geoattend/internal/auth"
	"geoattend/internal/clock"
	"geoattend/internal/roster"
)

type reportQuery struct {
	StudentID string `form:"student_id"`
	From      string `form:"from" binding:"required,daykey"`
	To        string `form:"to" binding:"required,daykey"`
	Order     string `form:"order" binding:"omitempty,oneof=asc desc"`
}

// SessionsReport lists a student's sessions in the range, newest first.
func (h *Handler) SessionsReport(c *gin.Context) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	studentID, ok := h.reportTarget(c, q.StudentID)
	if !ok {
		return
	}
	from, to, ok := h.parseRange(c, q.From, q.To)
	if !ok {
		return
	}

	sessions, err := h.reports.Sessions(c.Request.Context(), studentID, from, to)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if sessions == nil {
		sessions = []attendance.Record{}
	}
	c.JSON(http.StatusOK, gin.H{
		"student_id": studentID,
		"from":       q.From,
		"to":         q.To,
		"sessions":   sessions,
	})
}

// CalendarReport folds the range into one row per day, absent days included.
func (h *Handler) CalendarReport(c *gin.Context) {
	var q reportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	studentID, ok := h.reportTarget(c, q.StudentID)
	if !ok {
		return
	}
	from, to, ok := h.parseRange(c, q.From, q.To)
	if !ok {
		return
	}

	order := attendance.OldestFirst
	if q.Order == string(attendance.NewestFirst) {
		order = attendance.NewestFirst
	}
	days, err := h.reports.Calendar(c.Request.Context(), studentID, from, to, order)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if days == nil {
		days = []attendance.DaySummary{}
	}
	c.JSON(http.StatusOK, gin.H{
		"student_id": studentID,
		"from":       q.From,
		"to":         q.To,
		"days":       days,
	})
}

// StatsToday returns the admin dashboard rollup for the current day.
func (h *Handler) StatsToday(c *gin.Context) {
	now := time.Now()
	stats, err := h.stats.Stats(c.Request.Context(), clock.DayWindow(now, h.loc))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"day":   clock.DayKey(now, h.loc),
		"stats": stats,
	})
}

// reportTarget decides whose report is being read. Admins name any student
// and must pass student_id; students always read their own.
func (h *Handler) reportTarget(c *gin.Context, requested string) (string, bool) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		h.unauthorized(c, "missing bearer token")
		return "", false
	}
	if claims.Role == string(roster.RoleAdmin) {
		if requested == "" {
			h.badRequest(c, "student_id is required")
			return "", false
		}
		return requested, true
	}

	student, ok := h.currentStudent(c)
	if !ok {
		return "", false
	}
	if requested != "" && requested != student.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": &attendance.Rejection{
			Code:    "FORBIDDEN",
			Message: "students may only read their own reports",
		}})
		return "", false
	}
	return student.ID, true
}

// parseRange parses the inclusive civil-date range in the configured
// timezone.
func (h *Handler) parseRange(c *gin.Context, fromStr, toStr string) (from, to time.Time, ok bool) {
	from, err := clock.ParseDay(fromStr, h.loc)
	if err != nil {
		h.badRequest(c, "from must be a date like 2026-03-02")
		return from, to, false
	}
	to, err = clock.ParseDay(toStr, h.loc)
	if err != nil {
		h.badRequest(c, "to must be a date like 2026-03-02")
		return from, to, false
	}
	if to.Before(from) {
		h.badRequest(c, "from is after to")
		return from, to, false
	}
	return from, to, true
}
