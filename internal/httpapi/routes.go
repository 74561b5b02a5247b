package httpapi

import (
	"github.com/gin-gonic/gin"

	"geoattend/internal/auth"
	"geoattend/internal/roster"
)

// Routes mounts the versioned API onto r. Authentication and role checks
// live on the route groups; handlers assume they already ran.
func (h *Handler) Routes(r *gin.Engine) {
	v1 := r.Group("/v1")

	v1.POST("/auth/login", h.Login)
	v1.POST("/auth/refresh", h.Refresh)

	authed := v1.Group("", auth.RequireAuth(h.cfg.JWTSigningKey, h.cfg.JWTIssuer))

	student := authed.Group("", auth.RequireRole(string(roster.RoleStudent)))
	student.GET("/me", h.Me)
	student.POST("/attendance/check-in", h.CheckIn)
	student.POST("/attendance/check-out", h.CheckOut)
	student.GET("/attendance/me/today", h.Today)

	admin := authed.Group("", auth.RequireRole(string(roster.RoleAdmin)))
	admin.POST("/centers", h.CreateCenter)
	admin.GET("/centers", h.ListCenters)
	admin.GET("/centers/:id", h.GetCenter)
	admin.PUT("/centers/:id/location", h.SetCenterLocation)

	admin.POST("/students", h.RegisterStudent)
	admin.GET("/students", h.ListStudents)
	admin.GET("/students/:id", h.GetStudent)
	admin.DELETE("/students/:id", h.DeleteStudent)

	admin.POST("/attendance/scan", h.Scan)
	admin.PATCH("/attendance/records/:id", h.PatchRecord)
	admin.DELETE("/attendance/records/:id", h.DeleteRecord)
	admin.GET("/stats/today", h.StatsToday)

	reports := authed.Group("/reports")
	reports.GET("/sessions", h.SessionsReport)
	reports.GET("/calendar", h.CalendarReport)
}
