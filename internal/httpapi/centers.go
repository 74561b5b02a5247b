package httpapi

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"geoattend/internal/attendance"
	"geoattend/internal/center"
	"geoattend/internal/geo"
)

type centerCreateRequest struct {
	Name    string   `json:"name" binding:"required"`
	Code    string   `json:"code" binding:"required"`
	Lat     *float64 `json:"lat"`
	Lng     *float64 `json:"lng"`
	RadiusM *float64 `json:"radius_m"`
}

type centerLocationRequest struct {
	Lat     *float64 `json:"lat" binding:"required"`
	Lng     *float64 `json:"lng" binding:"required"`
	RadiusM *float64 `json:"radius_m" binding:"required"`
}

// CreateCenter registers a center. The geofence is optional at creation but
// must be complete when any part of it is given.
func (h *Handler) CreateCenter(c *gin.Context) {
	var req centerCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	hasGeo := req.Lat != nil || req.Lng != nil || req.RadiusM != nil
	if hasGeo {
		if req.Lat == nil || req.Lng == nil || req.RadiusM == nil {
			h.badRequest(c, "lat, lng and radius_m must be set together")
			return
		}
		if !geo.ValidCoordinate(*req.Lat, *req.Lng) {
			h.badRequest(c, "latitude or longitude out of range")
			return
		}
		if *req.RadiusM <= 0 {
			h.badRequest(c, "radius_m must be positive")
			return
		}
	}

	ctr := &center.Center{
		Name:    req.Name,
		Code:    req.Code,
		Lat:     req.Lat,
		Lng:     req.Lng,
		RadiusM: req.RadiusM,
	}
	created, err := h.centers.Create(c.Request.Context(), ctr)
	if isUniqueViolation(err) {
		h.conflict(c, "a center with that code already exists")
		return
	}
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListCenters returns every center.
func (h *Handler) ListCenters(c *gin.Context) {
	centers, err := h.centers.List(c.Request.Context())
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if centers == nil {
		centers = []center.Center{}
	}
	c.JSON(http.StatusOK, gin.H{"centers": centers})
}

// GetCenter returns one center by id.
func (h *Handler) GetCenter(c *gin.Context) {
	ctr, err := h.centers.FindCenter(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if ctr == nil {
		h.respondErr(c, attendance.ErrCenterNotFound)
		return
	}
	c.JSON(http.StatusOK, ctr)
}

// SetCenterLocation sets or replaces a center's geofence.
func (h *Handler) SetCenterLocation(c *gin.Context) {
	var req centerLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}
	if !geo.ValidCoordinate(*req.Lat, *req.Lng) {
		h.badRequest(c, "latitude or longitude out of range")
		return
	}
	if *req.RadiusM <= 0 {
		h.badRequest(c, "radius_m must be positive")
		return
	}

	id := c.Param("id")
	err := h.centers.UpdateLocation(c.Request.Context(), id, *req.Lat, *req.Lng, *req.RadiusM)
	if errors.Is(err, sql.ErrNoRows) {
		h.respondErr(c, attendance.ErrCenterNotFound)
		return
	}
	if err != nil {
		h.respondErr(c, err)
		return
	}

	ctr, err := h.centers.FindCenter(c.Request.Context(), id)
	if err != nil || ctr == nil {
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
		return
	}
	c.JSON(http.StatusOK, ctr)
}
