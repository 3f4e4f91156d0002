package referral

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/smilecare/clinic-api/internal/middleware"
	"github.com/smilecare/clinic-api/internal/model"
	"github.com/smilecare/clinic-api/internal/service/referral"
	"github.com/smilecare/clinic-api/pkg/httputil"
)

type Handler struct {
	service *referral.Service
}

func NewHandler(service *referral.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	referrals := r.Group("/referrals")
	{
		referrals.POST("", h.CreateReferral)
		referrals.GET("", h.ListReferrals)
		referrals.GET("/:id", h.GetReferral)
		referrals.POST("/:id/accept", h.AcceptReferral)
		referrals.POST("/:id/reject", h.RejectReferral)
		referrals.POST("/:id/complete", h.CompleteReferral)
	}
}

func referralID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithValidationError(c, err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) CreateReferral(c *gin.Context) {
	var req model.CreatePatientReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	ref, err := h.service.CreateReferral(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, ref)
}

func (h *Handler) GetReferral(c *gin.Context) {
	id, ok := referralID(c)
	if !ok {
		return
	}

	ref, err := h.service.GetReferral(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, ref)
}

func (h *Handler) ListReferrals(c *gin.Context) {
	referrals, err := h.service.ListReferrals(c.Request.Context(), model.ReferralStatus(c.Query("status")))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, referrals)
}

func (h *Handler) AcceptReferral(c *gin.Context) {
	id, ok := referralID(c)
	if !ok {
		return
	}

	ref, err := h.service.Accept(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, ref)
}

func (h *Handler) RejectReferral(c *gin.Context) {
	id, ok := referralID(c)
	if !ok {
		return
	}

	ref, err := h.service.Reject(c.Request.Context(), id, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, ref)
}

func (h *Handler) CompleteReferral(c *gin.Context) {
	id, ok := referralID(c)
	if !ok {
		return
	}

	var req model.CompletePatientReferralRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	ref, err := h.service.Complete(c.Request.Context(), id, &req, middleware.ActorID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, ref)
}
