package therapist

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/therapist"
)

type Handler struct {
	service *therapist.Service
}

func NewHandler(service *therapist.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r, admin *gin.RouterGroup) {
	therapists := r.Group("/therapists")
	{
		therapists.GET("", h.ListTherapists)
		therapists.GET("/me", h.GetOwnProfile)
		therapists.GET("/:id", h.GetTherapist)
	}

	admin.POST("/therapists", h.CreateTherapist)
}

func (h *Handler) CreateTherapist(c *gin.Context) {
	var req model.CreateTherapistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	created, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": created})
}

func (h *Handler) GetTherapist(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid therapist ID"})
		return
	}

	found, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": found})
}

func (h *Handler) ListTherapists(c *gin.Context) {
	therapists, err := h.service.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": therapists})
}

// GetOwnProfile returns the therapist profile behind the authenticated user.
func (h *Handler) GetOwnProfile(c *gin.Context) {
	authCtx, ok := middleware.CallerFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "not authenticated"})
		return
	}

	found, err := h.service.GetByUserID(c.Request.Context(), authCtx.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": found})
}
