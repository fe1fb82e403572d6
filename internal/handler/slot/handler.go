package slot

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/service/slot"
)

type Handler struct {
	service *slot.Service
}

func NewHandler(service *slot.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/free-slots", h.GetFreeSlots)
}

// GetFreeSlots enumerates bookable windows of the treatment's duration inside
// the therapist's availability on the requested day.
func (h *Handler) GetFreeSlots(c *gin.Context) {
	therapistID, err := uuid.Parse(c.Query("therapist_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid therapist ID"})
		return
	}

	treatmentID, err := uuid.Parse(c.Query("treatment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid treatment ID"})
		return
	}

	day, err := time.Parse("2006-01-02", c.Query("day"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "Invalid date format. Expected YYYY-MM-DD."})
		return
	}

	slots, err := h.service.FreeSlotsForTreatment(c.Request.Context(), therapistID, treatmentID, day)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": slots})
}
