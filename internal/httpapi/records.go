package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"geoattend/internal/attendance"
)

// nullableTime distinguishes an explicit JSON null from an omitted field:
// "check_out_at": null clears the check-out, omitting the key leaves it
// alone.
type nullableTime struct {
	set  bool
	time *time.Time
}

func (n *nullableTime) UnmarshalJSON(b []byte) error {
	n.set = true
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(b, &t); err != nil {
		return err
	}
	n.time = &t
	return nil
}

func (n nullableTime) patch() attendance.TimePatch {
	return attendance.TimePatch{Valid: n.set, Time: n.time}
}

// recordPatch is the action-dispatched edit request. Only the fields the
// chosen action reads are looked at.
type recordPatch struct {
	Action   string       `json:"action" binding:"required"`
	Status   string       `json:"status"`
	At       *time.Time   `json:"at"`
	CheckIn  *time.Time   `json:"check_in_at"`
	CheckOut nullableTime `json:"check_out_at"`
	CenterID string       `json:"center_id"`
	Lat      *float64     `json:"lat"`
	Lng      *float64     `json:"lng"`
	Accuracy *float64     `json:"accuracy"`
}

// PatchRecord applies one admin edit to a record. The action field selects
// the edit; every action requires the record to exist and to actually
// change.
func (h *Handler) PatchRecord(c *gin.Context) {
	var req recordPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	id := c.Param("id")
	ctx := c.Request.Context()
	var (
		rec *attendance.Record
		err error
	)
	switch req.Action {
	case "set_status":
		rec, err = h.editor.SetStatus(ctx, id, attendance.Status(req.Status))
	case "force_checkout":
		rec, err = h.editor.ForceCheckout(ctx, id, req.At)
	case "reopen_session":
		rec, err = h.editor.Reopen(ctx, id)
	case "set_times":
		rec, err = h.editor.SetTimes(ctx, id, req.CheckIn, req.CheckOut.patch())
	case "set_center":
		if req.CenterID == "" {
			h.badRequest(c, "center_id is required")
			return
		}
		rec, err = h.editor.SetCenter(ctx, id, req.CenterID)
	case "set_checkin_location":
		if req.Lat == nil || req.Lng == nil {
			h.badRequest(c, "lat and lng are required")
			return
		}
		rec, err = h.editor.SetCheckInLocation(ctx, id, *req.Lat, *req.Lng, req.Accuracy)
	default:
		h.badRequest(c, "unknown action")
		return
	}
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteRecord removes a record outright.
func (h *Handler) DeleteRecord(c *gin.Context) {
	if err := h.editor.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
