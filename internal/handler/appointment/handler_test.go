package appointment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilecare/clinic-api/internal/model"
	"github.com/smilecare/clinic-api/internal/schedule"
	aptservice "github.com/smilecare/clinic-api/internal/service/appointment"
	"github.com/smilecare/clinic-api/internal/service/audit"
	"github.com/smilecare/clinic-api/internal/service/event"
	apperrors "github.com/smilecare/clinic-api/pkg/errors"
	"github.com/smilecare/clinic-api/pkg/metrics"
)

var testMetrics = metrics.New("clinic_handler_test")

func init() {
	gin.SetMode(gin.TestMode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("dateonly", func(fl validator.FieldLevel) bool {
			_, err := time.Parse("2006-01-02", fl.Field().String())
			return err == nil
		})
		v.RegisterValidation("clocktime", func(fl validator.FieldLevel) bool {
			_, err := schedule.ParseClock(fl.Field().String())
			return err == nil
		})
	}
}

type memAppointmentRepo struct {
	items map[uuid.UUID]*model.Appointment
	order []uuid.UUID
}

func newMemAppointmentRepo() *memAppointmentRepo {
	return &memAppointmentRepo{items: make(map[uuid.UUID]*model.Appointment)}
}

func cloneAppointment(apt *model.Appointment) *model.Appointment {
	cp := *apt
	if apt.OriginalDoctorID != nil {
		id := *apt.OriginalDoctorID
		cp.OriginalDoctorID = &id
	}
	if apt.OriginalDoctorName != nil {
		name := *apt.OriginalDoctorName
		cp.OriginalDoctorName = &name
	}
	return &cp
}

func (r *memAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	r.items[apt.ID] = cloneAppointment(apt)
	r.order = append(r.order, apt.ID)
	return nil
}

func (r *memAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.items[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return cloneAppointment(apt), nil
}

func (r *memAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	if _, ok := r.items[apt.ID]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	r.items[apt.ID] = cloneAppointment(apt)
	return nil
}

func (r *memAppointmentRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.items[id]; !ok {
		return apperrors.NotFound("appointment", nil)
	}
	delete(r.items, id)
	return nil
}

func (r *memAppointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, id := range r.order {
		apt, ok := r.items[id]
		if !ok {
			continue
		}
		if filters.DoctorID != uuid.Nil && apt.DoctorID != filters.DoctorID {
			continue
		}
		if filters.Date != "" && apt.Date != filters.Date {
			continue
		}
		out = append(out, cloneAppointment(apt))
	}
	return out, nil
}

func (r *memAppointmentRepo) ListForDoctorDay(_ context.Context, doctorID uuid.UUID, date string) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, id := range r.order {
		apt, ok := r.items[id]
		if !ok {
			continue
		}
		if apt.DoctorID == doctorID && apt.Date == date {
			out = append(out, cloneAppointment(apt))
		}
	}
	return out, nil
}

type memAuditRepo struct{}

func (r *memAuditRepo) Create(_ context.Context, _ *model.AuditEntry) error { return nil }
func (r *memAuditRepo) List(_ context.Context, _ uuid.UUID) ([]*model.AuditEntry, error) {
	return nil, nil
}
func (r *memAuditRepo) DeleteBefore(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

type memOutboxRepo struct{}

func (r *memOutboxRepo) Create(_ context.Context, _ *model.OutboxEvent) error { return nil }
func (r *memOutboxRepo) GetPendingWithLock(_ context.Context, _ int) ([]*model.OutboxEvent, error) {
	return nil, nil
}
func (r *memOutboxRepo) MarkProcessed(_ context.Context, _ uuid.UUID) error { return nil }
func (r *memOutboxRepo) MarkFailed(_ context.Context, _ uuid.UUID, _ string, _ time.Time) error {
	return nil
}
func (r *memOutboxRepo) DeleteProcessedBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type memGate struct {
	reports map[uuid.UUID]bool
}

func (g *memGate) HasReportFor(_ context.Context, id uuid.UUID) (bool, error) {
	return g.reports[id], nil
}

type testServer struct {
	engine *gin.Engine
	repo   *memAppointmentRepo
	gate   *memGate
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := newMemAppointmentRepo()
	gate := &memGate{reports: make(map[uuid.UUID]bool)}
	svc := aptservice.NewService(repo, gate, audit.NewService(&memAuditRepo{}), event.NewService(&memOutboxRepo{}))

	engine := gin.New()
	NewHandler(svc, testMetrics).RegisterRoutes(engine.Group("/api/v1"))

	return &testServer{engine: engine, repo: repo, gate: gate}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	return w, parsed
}

func (s *testServer) seed(t *testing.T, doctorID uuid.UUID, date, clock string) *model.Appointment {
	t.Helper()
	apt := &model.Appointment{
		ID:              uuid.New(),
		DoctorID:        doctorID,
		PatientID:       uuid.New(),
		Date:            date,
		Time:            clock,
		DurationMinutes: 30,
		RoomNumber:      "101",
		Status:          model.AppointmentStatusConfirmed,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	require.NoError(t, s.repo.Create(context.Background(), apt))
	return apt
}

func errorCode(body map[string]interface{}) string {
	errObj, _ := body["error"].(map[string]interface{})
	code, _ := errObj["code"].(string)
	return code
}

func dataField(body map[string]interface{}, key string) interface{} {
	data, _ := body["data"].(map[string]interface{})
	return data[key]
}

func TestCreateAppointment(t *testing.T) {
	srv := newTestServer(t)

	w, body := srv.do(t, http.MethodPost, "/api/v1/appointments", gin.H{
		"doctor_id":   uuid.New().String(),
		"patient_id":  uuid.New().String(),
		"date":        "2031-01-15",
		"time":        "09:00",
		"room_number": "101",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "confirmed", dataField(body, "status"))
	assert.Equal(t, float64(30), dataField(body, "duration_minutes"))
}

func TestCreateAppointmentBindingErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"missing doctor", gin.H{"patient_id": uuid.New().String(), "date": "2031-01-15", "time": "09:00", "room_number": "1"}},
		{"bad date", gin.H{"doctor_id": uuid.New().String(), "patient_id": uuid.New().String(), "date": "15/01/2031", "time": "09:00", "room_number": "1"}},
		{"bad time", gin.H{"doctor_id": uuid.New().String(), "patient_id": uuid.New().String(), "date": "2031-01-15", "time": "9am", "room_number": "1"}},
		{"missing room", gin.H{"doctor_id": uuid.New().String(), "patient_id": uuid.New().String(), "date": "2031-01-15", "time": "09:00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := srv.do(t, http.MethodPost, "/api/v1/appointments", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "validation_error", errorCode(body))
		})
	}
}

func TestCreateAppointmentConflict(t *testing.T) {
	srv := newTestServer(t)
	doctorID := uuid.New()
	existing := srv.seed(t, doctorID, "2031-01-15", "09:00")

	w, body := srv.do(t, http.MethodPost, "/api/v1/appointments", gin.H{
		"doctor_id":   doctorID.String(),
		"patient_id":  uuid.New().String(),
		"date":        "2031-01-15",
		"time":        "09:15",
		"room_number": "102",
	})

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "scheduling_conflict", errorCode(body))

	errObj := body["error"].(map[string]interface{})
	details := errObj["details"].(map[string]interface{})
	assert.Equal(t, existing.ID.String(), details["blocking_appointment_id"])
}

func TestGetAppointmentNotFound(t *testing.T) {
	srv := newTestServer(t)

	w, body := srv.do(t, http.MethodGet, "/api/v1/appointments/"+uuid.New().String(), nil)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", errorCode(body))
}

func TestCancelAndRepeatedCancel(t *testing.T) {
	srv := newTestServer(t)
	apt := srv.seed(t, uuid.New(), "2031-01-15", "09:00")
	path := fmt.Sprintf("/api/v1/appointments/%s/cancel", apt.ID)

	w, body := srv.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", dataField(body, "status"))

	w, body = srv.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid_transition", errorCode(body))
}

func TestCloseGatedOnReport(t *testing.T) {
	srv := newTestServer(t)
	apt := srv.seed(t, uuid.New(), "2031-01-15", "09:00")
	path := fmt.Sprintf("/api/v1/appointments/%s/close", apt.ID)

	w, body := srv.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "report_required", errorCode(body))

	srv.gate.reports[apt.ID] = true

	w, body = srv.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "closed", dataField(body, "status"))
}

func TestReferAppointment(t *testing.T) {
	srv := newTestServer(t)
	apt := srv.seed(t, uuid.New(), "2031-01-15", "09:00")

	w, body := srv.do(t, http.MethodPost, fmt.Sprintf("/api/v1/appointments/%s/refer", apt.ID), gin.H{
		"new_doctor_id":   uuid.New().String(),
		"new_doctor_name": "Dr. Chen",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, dataField(body, "is_referred"))
	assert.Equal(t, "Dr. Chen", dataField(body, "doctor_name"))
	assert.Equal(t, apt.DoctorID.String(), dataField(body, "original_doctor_id"))
}

func TestListDoctorDayOrdering(t *testing.T) {
	srv := newTestServer(t)
	doctorID := uuid.New()
	srv.seed(t, doctorID, "2031-01-15", "09:00")
	srv.seed(t, doctorID, "2031-01-15", "10:00")
	srv.seed(t, uuid.New(), "2031-01-15", "09:00")

	w, body := srv.do(t, http.MethodGet,
		fmt.Sprintf("/api/v1/appointments?doctor_id=%s&date=2031-01-15", doctorID), nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].([]interface{})
	assert.Len(t, data, 2)
}

func TestInvalidAppointmentID(t *testing.T) {
	srv := newTestServer(t)

	w, body := srv.do(t, http.MethodGet, "/api/v1/appointments/not-a-uuid", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_error", errorCode(body))
}
