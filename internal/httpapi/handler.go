// Package httpapi exposes the attendance system over a versioned JSON API.
// Handlers translate HTTP into calls on the admission engine, the record
// editor and the report aggregator; every domain rejection maps to a stable
// error envelope with its code.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"geoattend/internal/attendance"
	"geoattend/internal/auth"
	"geoattend/internal/center"
	"geoattend/internal/clock"
	"geoattend/internal/config"
	"geoattend/internal/queue"
	"geoattend/internal/roster"
)

// Roster is the user and student surface the API needs.
type Roster interface {
	CreateStudent(ctx context.Context, u *roster.User, s *roster.Student) (*roster.Student, error)
	FindStudent(ctx context.Context, id string) (*roster.Student, error)
	FindStudentByUser(ctx context.Context, userID string) (*roster.Student, error)
	ListStudents(ctx context.Context, centerID string) ([]roster.Student, error)
	DeleteStudent(ctx context.Context, id string) error
	FindUser(ctx context.Context, id string) (*roster.User, error)
	FindUserByEmail(ctx context.Context, email string) (*roster.User, error)
	SaveRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	FindRefreshToken(ctx context.Context, token string) (*roster.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error
}

// Centers is the center surface the API needs.
type Centers interface {
	Create(ctx context.Context, c *center.Center) (*center.Center, error)
	FindCenter(ctx context.Context, id string) (*center.Center, error)
	List(ctx context.Context) ([]center.Center, error)
	UpdateLocation(ctx context.Context, id string, lat, lng, radiusM float64) error
}

// Admissions is the attendance state machine behind the check-in, check-out
// and scan endpoints.
type Admissions interface {
	CheckIn(ctx context.Context, studentID string, pos attendance.Position, dev attendance.Device) (*attendance.Record, error)
	CheckOut(ctx context.Context, studentID string, pos attendance.Position, dev attendance.Device) (*attendance.Record, error)
	Scan(ctx context.Context, studentID, centerID string, dev attendance.Device) (*attendance.ScanResult, error)
	Today(ctx context.Context, studentID string) (*attendance.DayState, error)
}

// Editor applies admin corrections to single records.
type Editor interface {
	SetStatus(ctx context.Context, id string, status attendance.Status) (*attendance.Record, error)
	ForceCheckout(ctx context.Context, id string, at *time.Time) (*attendance.Record, error)
	Reopen(ctx context.Context, id string) (*attendance.Record, error)
	SetTimes(ctx context.Context, id string, checkIn *time.Time, checkOut attendance.TimePatch) (*attendance.Record, error)
	SetCenter(ctx context.Context, id, centerID string) (*attendance.Record, error)
	SetCheckInLocation(ctx context.Context, id string, lat, lng float64, accuracy *float64) (*attendance.Record, error)
	Delete(ctx context.Context, id string) error
}

// Reports serves the read-only aggregation endpoints.
type Reports interface {
	Sessions(ctx context.Context, studentID string, from, to time.Time) ([]attendance.Record, error)
	Calendar(ctx context.Context, studentID string, from, to time.Time, order attendance.DayOrder) ([]attendance.DaySummary, error)
}

// StatsSource serves the admin day rollup.
type StatsSource interface {
	Stats(ctx context.Context, win clock.Window) (*attendance.DayStats, error)
}

// Deps bundles everything the handler calls into.
type Deps struct {
	Roster  Roster
	Centers Centers
	Engine  Admissions
	Editor  Editor
	Reports Reports
	Stats   StatsSource
	Queue   queue.Queue
}

// Handler holds the HTTP endpoints.
type Handler struct {
	cfg     config.App
	log     *zap.Logger
	loc     *time.Location
	roster  Roster
	centers Centers
	engine  Admissions
	editor  Editor
	reports Reports
	stats   StatsSource
	queue   queue.Queue
}

// New creates the API handler. logger may be nil.
func New(cfg config.App, logger *zap.Logger, deps Deps) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cfg:     cfg,
		log:     logger,
		loc:     clock.Location(cfg.Timezone),
		roster:  deps.Roster,
		centers: deps.Centers,
		engine:  deps.Engine,
		editor:  deps.Editor,
		reports: deps.Reports,
		stats:   deps.Stats,
		queue:   deps.Queue,
	}
}

// rejectionStatus maps a rejection code onto its HTTP status.
func rejectionStatus(code string) int {
	switch code {
	case attendance.CodeInvalidInput, attendance.CodeCheckoutBeforeCheckin:
		return http.StatusBadRequest
	case attendance.CodeStudentNotFound, attendance.CodeCenterNotFound, attendance.CodeRecordNotFound:
		return http.StatusNotFound
	case attendance.CodeAlreadyCheckedIn, attendance.CodeNoOpenSession, attendance.CodeNoChanges:
		return http.StatusConflict
	case attendance.CodeGeofenceNotConfigured, attendance.CodeOutsideGeofence:
		return http.StatusUnprocessableEntity
	case attendance.CodeTooSoon, attendance.CodeDailyLimitReached:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondErr renders a domain rejection with its mapped status. Anything
// else is logged and hidden behind a bare 500.
func (h *Handler) respondErr(c *gin.Context, err error) {
	var rej *attendance.Rejection
	if errors.As(err, &rej) {
		c.JSON(rejectionStatus(rej.Code), gin.H{"error": rej})
		return
	}
	h.log.Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": &attendance.Rejection{
		Code:    "INTERNAL",
		Message: "internal error",
	}})
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": &attendance.Rejection{
		Code:    attendance.CodeInvalidInput,
		Message: msg,
	}})
}

func (h *Handler) conflict(c *gin.Context, msg string) {
	c.JSON(http.StatusConflict, gin.H{"error": &attendance.Rejection{
		Code:    "DUPLICATE",
		Message: msg,
	}})
}

// currentStudent resolves the bearer token's subject to its student record.
func (h *Handler) currentStudent(c *gin.Context) (*roster.Student, bool) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": &attendance.Rejection{
			Code:    "UNAUTHORIZED",
			Message: "missing bearer token",
		}})
		return nil, false
	}
	student, err := h.roster.FindStudentByUser(c.Request.Context(), claims.Subject)
	if err != nil {
		h.respondErr(c, err)
		return nil, false
	}
	if student == nil {
		h.respondErr(c, attendance.ErrStudentNotFound)
		return nil, false
	}
	return student, true
}

// device collects the request metadata stored alongside a session.
func (h *Handler) device(c *gin.Context, deviceID string) attendance.Device {
	return attendance.Device{
		DeviceID:  deviceID,
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// isUniqueViolation reports whether err is a Postgres duplicate-key error.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("daykey", validDayKey)
	}
}

// validDayKey accepts civil dates like 2026-03-02.
func validDayKey(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}
