package slot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	slotsvc "github.com/jwalitptl/clinic-api/internal/service/slot"
	apperrors "github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type fakeAppointments struct{}

func (fakeAppointments) Create(context.Context, *model.Appointment) error { return nil }
func (fakeAppointments) Get(context.Context, uuid.UUID) (*model.Appointment, error) {
	return nil, apperrors.NotFound("appointment", nil)
}
func (fakeAppointments) Update(context.Context, *model.Appointment) error { return nil }
func (fakeAppointments) Delete(context.Context, uuid.UUID) error          { return nil }
func (fakeAppointments) List(context.Context, *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}
func (fakeAppointments) HasConflict(context.Context, uuid.UUID, time.Time, time.Time, *uuid.UUID) (bool, error) {
	return false, nil
}
func (fakeAppointments) ListScheduledBetween(context.Context, uuid.UUID, time.Time, time.Time) ([]*model.Appointment, error) {
	return nil, nil
}
func (fakeAppointments) LockSchedule(context.Context, uuid.UUID) error { return nil }

type fakeAvailability struct {
	blocks []*model.AvailabilityBlock
}

func (f fakeAvailability) Create(context.Context, *model.AvailabilityBlock) error { return nil }
func (f fakeAvailability) Get(context.Context, uuid.UUID) (*model.AvailabilityBlock, error) {
	return nil, apperrors.NotFound("availability block", nil)
}
func (f fakeAvailability) Delete(context.Context, uuid.UUID) error { return nil }
func (f fakeAvailability) ListForTherapist(context.Context, uuid.UUID) ([]*model.AvailabilityBlock, error) {
	return f.blocks, nil
}
func (f fakeAvailability) ListForWeekday(_ context.Context, _ uuid.UUID, weekday string) ([]*model.AvailabilityBlock, error) {
	out := []*model.AvailabilityBlock{}
	for _, b := range f.blocks {
		if b.Weekday == weekday {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeTreatments struct {
	treatments map[uuid.UUID]*model.Treatment
}

func (f fakeTreatments) Create(context.Context, *model.Treatment) error { return nil }
func (f fakeTreatments) Get(_ context.Context, id uuid.UUID) (*model.Treatment, error) {
	t, ok := f.treatments[id]
	if !ok {
		return nil, apperrors.NotFound("treatment", nil)
	}
	return t, nil
}
func (f fakeTreatments) Update(context.Context, *model.Treatment) error { return nil }
func (f fakeTreatments) List(context.Context) ([]*model.Treatment, error) {
	return nil, nil
}

func newTestRouter(treatments fakeTreatments, availability fakeAvailability) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(middleware.ErrorHandler())

	svc := slotsvc.NewService(fakeAppointments{}, availability, treatments, metrics.New("test"))
	NewHandler(svc).RegisterRoutes(engine.Group("/api/v1"))
	return engine
}

func TestGetFreeSlotsRejectsBadDate(t *testing.T) {
	router := newTestRouter(fakeTreatments{}, fakeAvailability{})

	url := fmt.Sprintf("/api/v1/free-slots?therapist_id=%s&treatment_id=%s&day=07-09-2026", uuid.New(), uuid.New())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid date format")
}

func TestGetFreeSlotsUnknownTreatment(t *testing.T) {
	router := newTestRouter(fakeTreatments{}, fakeAvailability{})

	url := fmt.Sprintf("/api/v1/free-slots?therapist_id=%s&treatment_id=%s&day=2026-09-07", uuid.New(), uuid.New())
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetFreeSlotsReturnsSlots(t *testing.T) {
	treatmentID := uuid.New()
	router := newTestRouter(
		fakeTreatments{treatments: map[uuid.UUID]*model.Treatment{
			treatmentID: {ID: treatmentID, DurationMinutes: 30},
		}},
		fakeAvailability{blocks: []*model.AvailabilityBlock{{
			ID:        uuid.New(),
			Weekday:   "monday",
			StartTime: "09:00",
			EndTime:   "10:00",
		}}},
	)

	// 2026-09-07 is a Monday.
	url := fmt.Sprintf("/api/v1/free-slots?therapist_id=%s&treatment_id=%s&day=2026-09-07", uuid.New(), treatmentID)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Status string           `json:"status"`
		Data   []model.TimeSlot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Len(t, resp.Data, 2)
}
