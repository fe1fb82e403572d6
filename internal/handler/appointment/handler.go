package appointment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/authz"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/appointment"
)

type Handler struct {
	service  *appointment.Service
	resolver *authz.Resolver
}

func NewHandler(service *appointment.Service, resolver *authz.Resolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
	}
}

// CreateAppointment books for the calling patient. Administrators book on a
// patient's behalf by passing patient_id.
func (h *Handler) CreateAppointment(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	patientID := caller.PatientID
	if id := c.Query("patient_id"); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid patient ID"})
			return
		}
		patientID = parsed
	}

	if patientID == uuid.Nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "patient_id is required"})
		return
	}

	if !authz.Can(caller, authz.ActionModify, authz.Resource{PatientID: patientID}) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "cannot book for this patient"})
		return
	}

	booked, err := h.service.Create(c.Request.Context(), patientID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": booked})
}

func (h *Handler) GetAppointment(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	booked, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	if !authz.Can(caller, authz.ActionRead, resourceOf(booked)) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "forbidden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": booked})
}

// ListAppointments returns appointments matching the query filters.
// Non-administrative callers are pinned to their own schedule regardless of
// the filters they send.
func (h *Handler) ListAppointments(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	filters := &model.AppointmentFilters{}

	if id := c.Query("therapist_id"); id != "" {
		therapistID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid therapist ID"})
			return
		}
		filters.TherapistID = therapistID
	}

	if id := c.Query("patient_id"); id != "" {
		patientID, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid patient ID"})
			return
		}
		filters.PatientID = patientID
	}

	if status := c.Query("status"); status != "" {
		s := model.AppointmentStatus(status)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid status"})
			return
		}
		filters.Status = s
	}

	switch caller.Auth.Role {
	case model.RolePatient:
		filters.PatientID = caller.PatientID
	case model.RoleTherapist:
		filters.TherapistID = caller.TherapistID
	}

	appointments, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": appointments})
}

// UpdateAppointment reschedules or edits an appointment. The override flag
// skips the availability and conflict checks and is administrative only.
func (h *Handler) UpdateAppointment(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	existing, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	if !authz.Can(caller, authz.ActionModify, resourceOf(existing)) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "forbidden"})
		return
	}

	override := c.Query("override") == "true"
	if override && !authz.Can(caller, authz.ActionOverride, resourceOf(existing)) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "override requires administrative access"})
		return
	}

	updated, err := h.service.Update(c.Request.Context(), id, &req, override)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": updated})
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	existing, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	if !authz.Can(caller, authz.ActionCancel, resourceOf(existing)) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "forbidden"})
		return
	}

	cancelled, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": cancelled})
}

// DeleteAppointment removes the record for administrators. Owners get the
// softer path: their delete cancels the appointment instead.
func (h *Handler) DeleteAppointment(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid appointment ID"})
		return
	}

	existing, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	if authz.Can(caller, authz.ActionDelete, resourceOf(existing)) {
		if err := h.service.Delete(c.Request.Context(), id); err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}

	if !authz.Can(caller, authz.ActionCancel, resourceOf(existing)) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "forbidden"})
		return
	}

	if _, err := h.service.Cancel(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) caller(c *gin.Context) (authz.Caller, bool) {
	authCtx, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "not authenticated"})
		return authz.Caller{}, false
	}

	caller, err := h.resolver.Resolve(c.Request.Context(), authCtx)
	if err != nil {
		c.Error(err)
		return authz.Caller{}, false
	}
	return caller, true
}

func resourceOf(a *model.Appointment) authz.Resource {
	return authz.Resource{PatientID: a.PatientID, TherapistID: a.TherapistID}
}
