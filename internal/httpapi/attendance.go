package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"geoattend/internal/attendance"
	"geoattend/internal/notify"
	"geoattend/internal/queue"
)

type positionRequest struct {
	Lat      *float64 `json:"lat" binding:"required"`
	Lng      *float64 `json:"lng" binding:"required"`
	Accuracy *float64 `json:"accuracy"`
	DeviceID string   `json:"device_id"`
}

type scanRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	CenterID  string `json:"center_id"`
	DeviceID  string `json:"device_id"`
}

// CheckIn opens today's session for the authenticated student when the
// reported coordinate falls inside the center geofence.
func (h *Handler) CheckIn(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}

	pos := attendance.Position{Lat: *req.Lat, Lng: *req.Lng, Accuracy: req.Accuracy}
	rec, err := h.engine.CheckIn(c.Request.Context(), student.ID, pos, h.device(c, req.DeviceID))
	observeDecision("check_in", err)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	h.publishEvent(c.Request.Context(), rec.ID, attendance.ActionCheckIn)
	c.JSON(http.StatusCreated, rec)
}

// CheckOut closes today's open session, re-validating the geofence at the
// check-out coordinate.
func (h *Handler) CheckOut(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}

	pos := attendance.Position{Lat: *req.Lat, Lng: *req.Lng, Accuracy: req.Accuracy}
	rec, err := h.engine.CheckOut(c.Request.Context(), student.ID, pos, h.device(c, req.DeviceID))
	observeDecision("check_out", err)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	h.publishEvent(c.Request.Context(), rec.ID, attendance.ActionCheckOut)
	c.JSON(http.StatusOK, rec)
}

// Today returns the authenticated student's sessions for the current day.
func (h *Handler) Today(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}
	state, err := h.engine.Today(c.Request.Context(), student.ID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if state.Sessions == nil {
		state.Sessions = []attendance.Record{}
	}
	c.JSON(http.StatusOK, state)
}

// Scan is the operator toggle: it checks the named student in or out
// depending on whether a session is open. center_id may be omitted to use
// the student's home center.
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	res, err := h.engine.Scan(c.Request.Context(), req.StudentID, req.CenterID, h.device(c, req.DeviceID))
	observeDecision("scan", err)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	h.publishEvent(c.Request.Context(), res.Record.ID, res.Action)
	c.JSON(http.StatusOK, res)
}

// publishEvent hands an admitted transition to the notification worker. A
// publish failure is logged and the request still succeeds; attendance is
// already recorded at this point.
func (h *Handler) publishEvent(ctx context.Context, recordID, action string) {
	if h.queue == nil {
		return
	}
	body, err := json.Marshal(notify.Event{RecordID: recordID, Action: action})
	if err != nil {
		return
	}
	if err := h.queue.Publish(ctx, queue.Message{Type: "attendance", Body: body}); err != nil {
		h.log.Warn("queue publish failed",
			zap.String("record_id", recordID),
			zap.String("action", action),
			zap.Error(err))
	}
}
