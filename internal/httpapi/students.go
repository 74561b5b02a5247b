package httpapi

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"geoattend/internal/attendance"
	"geoattend/internal/auth"
	"geoattend/internal/roster"
)

type studentRegisterRequest struct {
	Name        string  `json:"name" binding:"required"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8"`
	CenterID    string  `json:"center_id" binding:"required"`
	Grade       *string `json:"grade"`
	RollNumber  *string `json:"roll_number"`
	Phone       *string `json:"phone"`
	ParentPhone *string `json:"parent_phone"`
}

// RegisterStudent creates the login account and the student record in one go.
func (h *Handler) RegisterStudent(c *gin.Context) {
	var req studentRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	ctr, err := h.centers.FindCenter(ctx, req.CenterID)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if ctr == nil {
		h.respondErr(c, attendance.ErrCenterNotFound)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	u := &roster.User{Name: req.Name, Email: req.Email, PasswordHash: hash}
	s := &roster.Student{
		CenterID:    ctr.ID,
		Grade:       req.Grade,
		RollNumber:  req.RollNumber,
		Phone:       req.Phone,
		ParentPhone: req.ParentPhone,
	}
	created, err := h.roster.CreateStudent(ctx, u, s)
	if isUniqueViolation(err) {
		h.conflict(c, "a user with that email already exists")
		return
	}
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListStudents returns students, optionally filtered to one center.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.roster.ListStudents(c.Request.Context(), c.Query("center_id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if students == nil {
		students = []roster.Student{}
	}
	c.JSON(http.StatusOK, gin.H{"students": students})
}

// GetStudent returns one student by id.
func (h *Handler) GetStudent(c *gin.Context) {
	student, err := h.roster.FindStudent(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	if student == nil {
		h.respondErr(c, attendance.ErrStudentNotFound)
		return
	}
	c.JSON(http.StatusOK, student)
}

// DeleteStudent removes a student together with its login account.
func (h *Handler) DeleteStudent(c *gin.Context) {
	err := h.roster.DeleteStudent(c.Request.Context(), c.Param("id"))
	if errors.Is(err, sql.ErrNoRows) {
		h.respondErr(c, attendance.ErrStudentNotFound)
		return
	}
	if err != nil {
		h.respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated student's own record.
func (h *Handler) Me(c *gin.Context) {
	student, ok := h.currentStudent(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, student)
}
