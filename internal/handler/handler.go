package handler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"geoattend/internal/attendance"
	"geoattend/internal/audit"
	"geoattend/internal/auth"
	"geoattend/internal/metrics"
	"geoattend/internal/qr"
)

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Options configures a Handler.
type Options struct {
	ScanTokenKey    string
	ScanTokenIssuer string
	PublicBaseURL   string
	Health          map[string]HealthCheck
}

type Handler struct {
	svc   *attendance.Service
	audit *audit.Publisher // nil disables auditing
	opts  Options
	now   func() time.Time
}

func New(svc *attendance.Service, pub *audit.Publisher, opts Options) *Handler {
	return &Handler{svc: svc, audit: pub, opts: opts, now: time.Now}
}

// Register mounts the API. limit guards the self-service attendance routes.
func (h *Handler) Register(r *gin.Engine, limit gin.HandlerFunc) {
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/session/create", h.CreateSession)
		api.GET("/session/list", h.ListSessions)
		api.GET("/session/:id", h.GetSession)
		api.GET("/session/:id/attendance", h.SessionAttendance)
		api.GET("/session/:id/qr", h.SessionQR)
		api.GET("/scan", auth.ScanAuth(h.opts.ScanTokenKey, h.opts.ScanTokenIssuer), h.ResolveScan)

		api.POST("/attendance/submit", limit, h.SubmitAttendance)
		api.POST("/attendance/bulk-toggle", h.BulkToggle)

		api.GET("/student", h.ListStudents)
		api.GET("/student/history/:nim", h.StudentHistory)

		api.GET("/dashboard/export", h.Export)
	}
}

// ---------- Health ----------

func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}
	for name, check := range h.opts.Health {
		ok := check(c.Request.Context())
		body[name] = ok
		if !ok {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
	}
	c.JSON(status, body)
}

// internalError logs err under tag and answers with a generic message.
func internalError(c *gin.Context, tag string, err error, msg string) {
	log.Printf("[%s] %v", tag, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// ---------- Sessions ----------

type createSessionRequest struct {
	Title     string  `json:"title"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (h *Handler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	session, err := h.svc.CreateSession(c.Request.Context(), req.Title, req.Latitude, req.Longitude)
	if err != nil {
		internalError(c, "SESSION_CREATE_ERROR", err, "Failed to create session")
		return
	}
	metrics.SessionsCreated.Inc()
	c.JSON(http.StatusCreated, gin.H{"sessionId": session.ID})
}

func (h *Handler) GetSession(c *gin.Context) {
	session, err := h.svc.GetSession(c.Request.Context(), c.Param("id"))
	if errors.Is(err, attendance.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		internalError(c, "SESSION_ROUTE_ERROR", err, "Internal Server Error")
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *Handler) ListSessions(c *gin.Context) {
	sessions, err := h.svc.ListSessions(c.Request.Context())
	if err != nil {
		internalError(c, "SESSION_LIST_ERROR", err, "Failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

func (h *Handler) SessionAttendance(c *gin.Context) {
	attendees, err := h.svc.SessionAttendees(c.Request.Context(), c.Param("id"))
	if err != nil {
		internalError(c, "SESSION_ATTENDANCE_ERROR", err, "Failed to load attendance")
		return
	}
	c.JSON(http.StatusOK, attendees)
}

// SessionQR renders a PNG QR code linking to the scan page of a session.
func (h *Handler) SessionQR(c *gin.Context) {
	session, err := h.svc.GetSession(c.Request.Context(), c.Param("id"))
	if errors.Is(err, attendance.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		internalError(c, "SESSION_QR_ERROR", err, "Failed to generate QR")
		return
	}
	token, err := auth.IssueScanToken(session.ID, session.ExpiresAt, h.opts.ScanTokenIssuer, h.opts.ScanTokenKey)
	if err != nil {
		internalError(c, "SESSION_QR_ERROR", err, "Failed to generate QR")
		return
	}
	png, err := qr.PNG(qr.ScanURL(h.opts.PublicBaseURL, session.ID, token), qr.DefaultSize)
	if err != nil {
		internalError(c, "SESSION_QR_ERROR", err, "Failed to generate QR")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// ResolveScan returns the session a verified scan token points to.
func (h *Handler) ResolveScan(c *gin.Context) {
	claims := c.MustGet(auth.ClaimsKey).(auth.ScanClaims)
	session, err := h.svc.GetSession(c.Request.Context(), claims.SessionID)
	if errors.Is(err, attendance.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if err != nil {
		internalError(c, "SESSION_ROUTE_ERROR", err, "Internal Server Error")
		return
	}
	c.JSON(http.StatusOK, session)
}

// ---------- Attendance ----------

type submitRequest struct {
	SessionID string  `json:"sessionId"`
	NIM       string  `json:"nim"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	DeviceID  string  `json:"deviceId"`
}

func (h *Handler) SubmitAttendance(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.Submit(c.Request.Context(), attendance.Submission{
		SessionID: req.SessionID,
		NIM:       req.NIM,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		DeviceID:  req.DeviceID,
	})

	outcome := submitOutcome(res, err)
	metrics.Submissions.WithLabelValues(outcome).Inc()
	h.audit.Publish(c.Request.Context(), audit.Event{
		SessionID: req.SessionID,
		NIM:       req.NIM,
		DeviceID:  req.DeviceID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Outcome:   outcome,
		At:        h.now().UTC(),
	})

	switch {
	case err == nil && res.Outcome == attendance.OutcomeAlreadyAttended:
		c.JSON(http.StatusOK, gin.H{"message": "Already attended"})
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Attendance submitted successfully"})
	case errors.Is(err, attendance.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
	case errors.Is(err, attendance.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "NIM tidak ditemukan"})
	case errors.Is(err, attendance.ErrSessionExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "This session has expired"})
	case errors.Is(err, attendance.ErrTooFar):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You are too far from the session location"})
	case errors.Is(err, attendance.ErrDeviceMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": "Attendance already submitted from a different device"})
	default:
		internalError(c, "SUBMIT_ATTENDANCE_ERROR", err, "Server error")
	}
}

func submitOutcome(res attendance.Result, err error) string {
	switch {
	case err == nil:
		return string(res.Outcome)
	case errors.Is(err, attendance.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, attendance.ErrSessionExpired):
		return "expired"
	case errors.Is(err, attendance.ErrStudentNotFound):
		return "student_not_found"
	case errors.Is(err, attendance.ErrTooFar):
		return "too_far"
	case errors.Is(err, attendance.ErrDeviceMismatch):
		return "device_mismatch"
	default:
		return "error"
	}
}

type bulkToggleRequest struct {
	SessionID string   `json:"sessionId"`
	NIMs      []string `json:"nims"`
	Action    string   `json:"action"`
}

func (h *Handler) BulkToggle(c *gin.Context) {
	var req bulkToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid NIMs array"})
		return
	}

	res, err := h.svc.BulkToggle(c.Request.Context(), req.SessionID, req.NIMs, attendance.BulkAction(req.Action))
	if errors.Is(err, attendance.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		internalError(c, "BULK_TOGGLE_ATTENDANCE_ERROR", err, "Failed to update attendance")
		return
	}

	if res.Action == attendance.ActionMark {
		metrics.BulkChanges.WithLabelValues(string(attendance.ActionMark)).Add(float64(res.Created))
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"created": res.Created,
			"results": res.Results,
			"skipped": res.Skipped,
		})
		return
	}
	metrics.BulkChanges.WithLabelValues(string(attendance.ActionUnmark)).Add(float64(res.Deleted))
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": res.Deleted})
}

// ---------- Students ----------

func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.svc.Roster(c.Request.Context())
	if err != nil {
		internalError(c, "STUDENT_API_ERROR", err, "Gagal mengambil data mahasiswa")
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *Handler) StudentHistory(c *gin.Context) {
	history, err := h.svc.StudentHistory(c.Request.Context(), c.Param("nim"))
	if errors.Is(err, attendance.ErrStudentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "NIM tidak ditemukan"})
		return
	}
	if err != nil {
		internalError(c, "STUDENT_HISTORY_ERROR", err, "Server error")
		return
	}
	c.JSON(http.StatusOK, history)
}

// ---------- Export ----------

func (h *Handler) Export(c *gin.Context) {
	matrix, err := h.svc.Export(c.Request.Context())
	if err != nil {
		internalError(c, "EXPORT_ATTENDANCE_ERROR", err, "Gagal mengekspor data absensi")
		return
	}
	var buf bytes.Buffer
	if err := matrix.WriteCSV(&buf); err != nil {
		internalError(c, "EXPORT_ATTENDANCE_ERROR", err, "Gagal mengekspor data absensi")
		return
	}
	metrics.Exports.Inc()
	c.Header("Content-Disposition", `attachment; filename="`+attendance.ExportFilename(h.now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
