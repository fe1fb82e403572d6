package availability

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/authz"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/availability"
)

// DailyGrid produces the fixed half-hour availability grid for one day.
type DailyGrid interface {
	DailyAvailability(ctx context.Context, therapistID uuid.UUID, day time.Time) ([]model.DailySlot, error)
}

type Handler struct {
	service  *availability.Service
	grid     DailyGrid
	resolver *authz.Resolver
}

func NewHandler(service *availability.Service, grid DailyGrid, resolver *authz.Resolver) *Handler {
	return &Handler{service: service, grid: grid, resolver: resolver}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	blocks := r.Group("/availability")
	{
		blocks.POST("", h.CreateBlock)
		blocks.GET("", h.GetDailyAvailability)
		blocks.GET("/me", h.ListOwnBlocks)
		blocks.GET("/:id", h.ListBlocks)
		blocks.DELETE("/:id", h.DeleteBlock)
	}
}

// CreateBlock adds a recurring weekly availability block. Therapists create
// blocks on their own schedule; administrators may pass therapist_id to
// manage anyone's.
func (h *Handler) CreateBlock(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	therapistID := caller.TherapistID
	if id := c.Query("therapist_id"); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid therapist ID"})
			return
		}
		therapistID = parsed
	}

	if therapistID == uuid.Nil || !authz.Can(caller, authz.ActionModify, authz.Resource{TherapistID: therapistID}) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "forbidden"})
		return
	}

	var req model.CreateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	block, err := h.service.CreateBlock(c.Request.Context(), therapistID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": block})
}

// ListBlocks returns a therapist's recurring blocks. Any authenticated user
// may look, so patients can see when a therapist works.
func (h *Handler) ListBlocks(c *gin.Context) {
	therapistID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid therapist ID"})
		return
	}

	blocks, err := h.service.ListForTherapist(c.Request.Context(), therapistID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": blocks})
}

// ListOwnBlocks returns the calling therapist's blocks.
func (h *Handler) ListOwnBlocks(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	if caller.TherapistID == uuid.Nil {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "no therapist profile"})
		return
	}

	blocks, err := h.service.ListForTherapist(c.Request.Context(), caller.TherapistID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": blocks})
}

func (h *Handler) DeleteBlock(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid availability ID"})
		return
	}

	block, err := h.service.GetBlock(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	if !authz.Can(caller, authz.ActionModify, authz.Resource{TherapistID: block.TherapistID}) {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "forbidden"})
		return
	}

	if err := h.service.DeleteBlock(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetDailyAvailability returns the half-hour grid over a full calendar day,
// each cell flagged available unless a scheduled appointment overlaps it.
func (h *Handler) GetDailyAvailability(c *gin.Context) {
	therapistID, err := uuid.Parse(c.Query("therapist_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid therapist ID"})
		return
	}

	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid date format. Expected YYYY-MM-DD."})
		return
	}

	slots, err := h.grid.DailyAvailability(c.Request.Context(), therapistID, day)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": slots})
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
