package appointment

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smilecare/clinic-api/internal/middleware"
	"github.com/smilecare/clinic-api/internal/model"
	"github.com/smilecare/clinic-api/internal/service/appointment"
	apperrors "github.com/smilecare/clinic-api/pkg/errors"
	"github.com/smilecare/clinic-api/pkg/httputil"
	"github.com/smilecare/clinic-api/pkg/metrics"
)

type Handler struct {
	service *appointment.Service
	metrics *metrics.Metrics
}

func NewHandler(service *appointment.Service, m *metrics.Metrics) *Handler {
	return &Handler{service: service, metrics: m}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.POST("", h.CreateAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PUT("/:id", h.UpdateAppointment)
		appointments.DELETE("/:id", h.DeleteAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)
		appointments.POST("/:id/complete", h.CompleteAppointment)
		appointments.POST("/:id/close", h.CloseAppointment)
		appointments.POST("/:id/no-show", h.MarkNoShow)
		appointments.POST("/:id/refer", h.ReferAppointment)
	}
}

func appointmentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{
			"code":    "validation_error",
			"message": "invalid appointment ID",
		}})
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) CreateAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	apt, err := h.service.Book(c.Request.Context(), &req)
	if err != nil {
		h.metrics.ObserveBooking(err)
		h.observeConflict(err)
		httputil.RespondWithError(c, err)
		return
	}

	h.metrics.ObserveBooking(nil)
	httputil.RespondWithSuccess(c, http.StatusCreated, apt)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	apt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	var filters model.AppointmentFilters

	if v := c.Query("doctor_id"); v != "" {
		doctorID, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondWithValidationError(c, err)
			return
		}
		filters.DoctorID = doctorID
	}
	if v := c.Query("patient_id"); v != "" {
		patientID, err := uuid.Parse(v)
		if err != nil {
			httputil.RespondWithValidationError(c, err)
			return
		}
		filters.PatientID = patientID
	}
	filters.Date = c.Query("date")
	filters.Status = model.AppointmentStatus(c.Query("status"))

	// doctor+date is the calendar view; served through the day query so
	// the conflict comparison set and the UI see the same ordering.
	if filters.DoctorID != uuid.Nil && filters.Date != "" && filters.Status == "" {
		appointments, err := h.service.DoctorDay(c.Request.Context(), filters.DoctorID, filters.Date)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, http.StatusOK, appointments)
		return
	}

	appointments, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, appointments)
}

func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	apt, err := h.service.Edit(c.Request.Context(), id, &req, middleware.ActorID(c))
	if err != nil {
		h.observeConflict(err)
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id, middleware.ActorID(c)); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, nil)
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	h.transition(c, "cancel", h.service.Cancel)
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	h.transition(c, "complete", h.service.Complete)
}

func (h *Handler) CloseAppointment(c *gin.Context) {
	h.transition(c, "close", h.service.Close)
}

func (h *Handler) MarkNoShow(c *gin.Context) {
	h.transition(c, "no_show", h.service.MarkNoShow)
}

func (h *Handler) ReferAppointment(c *gin.Context) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	var req model.ReferAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	apt, err := h.service.Refer(c.Request.Context(), id, &req, middleware.ActorID(c))
	if err != nil {
		h.metrics.ObserveTransition("refer", err)
		h.observeConflict(err)
		httputil.RespondWithError(c, err)
		return
	}

	h.metrics.ObserveTransition("refer", nil)
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}

func (h *Handler) observeConflict(err error) {
	if apperrors.CodeOf(err) == apperrors.ErrConflict {
		h.metrics.ConflictsRejected.Inc()
	}
}

func (h *Handler) transition(c *gin.Context, action string, fn func(context.Context, uuid.UUID, uuid.UUID) (*model.Appointment, error)) {
	id, ok := appointmentID(c)
	if !ok {
		return
	}

	apt, err := fn(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		h.metrics.ObserveTransition(action, err)
		httputil.RespondWithError(c, err)
		return
	}

	h.metrics.ObserveTransition(action, nil)
	httputil.RespondWithSuccess(c, http.StatusOK, apt)
}
