package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smilecare/clinic-api/internal/model"
	"github.com/smilecare/clinic-api/internal/repository"
	"github.com/smilecare/clinic-api/internal/schedule"
	"github.com/smilecare/clinic-api/internal/service/audit"
	"github.com/smilecare/clinic-api/internal/service/event"
	apperrors "github.com/smilecare/clinic-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// ReportGate is consulted before the close transition; closing requires a
// linked clinical report to exist.
type ReportGate interface {
	HasReportFor(ctx context.Context, appointmentID uuid.UUID) (bool, error)
}

// Service owns the appointment lifecycle: conflict-checked booking and
// editing, status transitions, and referral hand-off between doctors.
type Service struct {
	repo    repository.AppointmentRepository
	gate    ReportGate
	auditor *audit.Service
	events  *event.Service
	now     func() time.Time
}

func NewService(repo repository.AppointmentRepository, gate ReportGate, auditor *audit.Service, events *event.Service) *Service {
	return &Service{
		repo:    repo,
		gate:    gate,
		auditor: auditor,
		events:  events,
		now:     time.Now,
	}
}

func validDate(date string) bool {
	_, err := time.Parse(dateLayout, date)
	return err == nil
}

// validateBooking rejects malformed input before any state is touched.
// Binding tags catch most of this at the HTTP edge, but internal callers
// (the patient-referral completion flow) go through here too.
func validateBooking(req *model.CreateAppointmentRequest) error {
	if req.DoctorID == uuid.Nil {
		return apperrors.Validation("doctor_id", "doctor is required")
	}
	if req.PatientID == uuid.Nil {
		return apperrors.Validation("patient_id", "patient is required")
	}
	if !validDate(req.Date) {
		return apperrors.Validation("date", fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", req.Date))
	}
	if req.RoomNumber == "" {
		return apperrors.Validation("room_number", "room number is required")
	}
	if req.DurationMinutes < 0 {
		return apperrors.Validation("duration_minutes", "duration must be positive")
	}
	if _, err := schedule.ParseClock(req.Time); err != nil {
		return apperrors.Validation("time", err.Error())
	}
	return nil
}

// checkSlot is the advisory pre-check against the doctor's current day.
// The repository repeats it under a row lock at write time; a stale pass
// here cannot create an overlap.
func (s *Service) checkSlot(ctx context.Context, candidate schedule.Candidate) error {
	existing, err := s.repo.ListForDoctorDay(ctx, candidate.DoctorID, candidate.Date)
	if err != nil {
		return fmt.Errorf("failed to load doctor calendar: %w", err)
	}

	blocking, err := schedule.FindConflict(candidate, existing)
	if err != nil {
		return apperrors.Validation("time", err.Error())
	}
	if blocking != nil {
		duration := blocking.DurationMinutes
		if duration <= 0 {
			duration = model.DefaultDurationMinutes
		}
		iv, err := schedule.NewInterval(blocking.Time, duration)
		if err != nil {
			return err
		}
		return apperrors.SchedulingConflict(
			blocking.ID.String(),
			blocking.DoctorName,
			schedule.FormatClock(iv.Start),
			schedule.FormatClock(iv.End),
		)
	}
	return nil
}

func (s *Service) emit(ctx context.Context, eventType string, apt *model.Appointment) {
	if err := s.events.Emit(ctx, eventType, apt); err != nil {
		log.Error().Err(err).
			Str("event_type", eventType).
			Str("appointment_id", apt.ID.String()).
			Msg("failed to stage appointment event")
	}
}

// Book creates an appointment in the active state, guarded by the conflict
// detector. New bookings may not be placed on a past date.
func (s *Service) Book(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if err := validateBooking(req); err != nil {
		return nil, err
	}

	today := s.now().Format(dateLayout)
	if req.Date < today {
		return nil, apperrors.Validation("date", "cannot book an appointment in the past")
	}

	duration := req.DurationMinutes
	if duration == 0 {
		duration = model.DefaultDurationMinutes
	}

	if err := s.checkSlot(ctx, schedule.Candidate{
		DoctorID:        req.DoctorID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: duration,
	}); err != nil {
		return nil, err
	}

	apt := &model.Appointment{
		ID:              uuid.New(),
		DoctorID:        req.DoctorID,
		PatientID:       req.PatientID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: duration,
		Type:            req.Type,
		RoomNumber:      req.RoomNumber,
		Status:          model.AppointmentStatusConfirmed,
		PatientName:     req.PatientName,
		DoctorName:      req.DoctorName,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, req.DoctorID, "create", "appointment", apt.ID, apt)
	s.emit(ctx, model.EventAppointmentCreated, apt)
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

// DoctorDay returns a doctor's calendar for one date, ordered by start time.
func (s *Service) DoctorDay(ctx context.Context, doctorID uuid.UUID, date string) ([]*model.Appointment, error) {
	if !validDate(date) {
		return nil, apperrors.Validation("date", fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", date))
	}
	return s.repo.ListForDoctorDay(ctx, doctorID, date)
}

// guard rejects any action attempted from a non-active state. Terminal
// states (cancelled, closed, no-show) and completed have no outgoing
// transitions; the caller must not silently no-op.
func guard(apt *model.Appointment, action string) error {
	if !apt.Status.IsActive() {
		return apperrors.InvalidTransition(string(apt.Status), action)
	}
	return nil
}

// requireCurrentDoctor enforces the referral authority rule: once an
// appointment is referred, only the current doctor may act on it. A nil
// actor marks a trusted internal caller and skips the check; identity
// verification itself lives upstream.
func requireCurrentDoctor(apt *model.Appointment, actor uuid.UUID, action string) error {
	if actor == uuid.Nil {
		return nil
	}
	if apt.IsReferred && actor != apt.DoctorID {
		return apperrors.Forbidden(fmt.Sprintf("only the current doctor may %s a referred appointment", action))
	}
	return nil
}

// Edit reschedules or re-describes an active appointment. Slot changes
// re-run the conflict detector with the appointment's own id excluded, so
// re-saving the same time never self-conflicts.
func (s *Service) Edit(ctx context.Context, id uuid.UUID, req *model.UpdateAppointmentRequest, actor uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guard(apt, "edit"); err != nil {
		return nil, err
	}
	if err := requireCurrentDoctor(apt, actor, "edit"); err != nil {
		return nil, err
	}

	if req.DoctorID != nil {
		apt.DoctorID = *req.DoctorID
	}
	if req.DoctorName != nil {
		apt.DoctorName = *req.DoctorName
	}
	if req.Date != nil {
		if !validDate(*req.Date) {
			return nil, apperrors.Validation("date", fmt.Sprintf("invalid date %q: expected YYYY-MM-DD", *req.Date))
		}
		apt.Date = *req.Date
	}
	if req.Time != nil {
		if _, err := schedule.ParseClock(*req.Time); err != nil {
			return nil, apperrors.Validation("time", err.Error())
		}
		apt.Time = *req.Time
	}
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return nil, apperrors.Validation("duration_minutes", "duration must be positive")
		}
		apt.DurationMinutes = *req.DurationMinutes
	}
	if req.Type != nil {
		apt.Type = *req.Type
	}
	if req.RoomNumber != nil {
		if *req.RoomNumber == "" {
			return nil, apperrors.Validation("room_number", "room number is required")
		}
		apt.RoomNumber = *req.RoomNumber
	}

	if err := s.checkSlot(ctx, schedule.Candidate{
		DoctorID:        apt.DoctorID,
		Date:            apt.Date,
		Time:            apt.Time,
		DurationMinutes: apt.DurationMinutes,
		ExcludeID:       &apt.ID,
	}); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, "update", "appointment", apt.ID, req)
	s.emit(ctx, model.EventAppointmentUpdated, apt)
	return apt, nil
}

// Cancel moves an active appointment to the cancelled terminal state.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, actor, "cancel", model.AppointmentStatusCancelled, model.EventAppointmentCancelled)
}

// Complete marks an active appointment as carried out.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, actor, "complete", model.AppointmentStatusCompleted, model.EventAppointmentCompleted)
}

// MarkNoShow records that the patient did not attend.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, actor, "mark no-show", model.AppointmentStatusNoShow, model.EventAppointmentUpdated)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, actor uuid.UUID, action string, to model.AppointmentStatus, eventType string) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guard(apt, action); err != nil {
		return nil, err
	}
	if err := requireCurrentDoctor(apt, actor, action); err != nil {
		return nil, err
	}

	apt.Status = to
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, action, "appointment", apt.ID, map[string]interface{}{"status": to})
	s.emit(ctx, eventType, apt)
	return apt, nil
}

// Close is the terminal sign-off on an appointment. It requires a linked
// clinical report; without one the appointment stays active and the caller
// gets a report-required error rather than a generic failure.
func (s *Service) Close(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guard(apt, "close"); err != nil {
		return nil, err
	}
	if err := requireCurrentDoctor(apt, actor, "close"); err != nil {
		return nil, err
	}

	hasReport, err := s.gate.HasReportFor(ctx, apt.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check report existence: %w", err)
	}
	if !hasReport {
		return nil, apperrors.ReportRequired(apt.ID.String())
	}

	apt.Status = model.AppointmentStatusClosed
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, "close", "appointment", apt.ID, map[string]interface{}{"status": apt.Status})
	s.emit(ctx, model.EventAppointmentClosed, apt)
	return apt, nil
}

// Refer hands an active, not-yet-referred appointment to another doctor.
// The previous doctor is kept as the original for attribution; date, time
// and room are untouched. Referral is one-hop: a referred appointment
// cannot be referred onward. Only the current doctor may refer, and the
// new doctor's calendar must be free at the slot (the appointment now
// occupies it on their behalf).
func (s *Service) Refer(ctx context.Context, id uuid.UUID, req *model.ReferAppointmentRequest, actor uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := guard(apt, "refer"); err != nil {
		return nil, err
	}
	if apt.IsReferred {
		return nil, apperrors.InvalidTransition(string(apt.Status), "re-refer")
	}
	if actor != uuid.Nil && actor != apt.DoctorID {
		return nil, apperrors.Forbidden("only the current doctor may refer an appointment")
	}
	if req.NewDoctorID == apt.DoctorID {
		return nil, apperrors.Validation("new_doctor_id", "cannot refer an appointment to its current doctor")
	}

	if err := s.checkSlot(ctx, schedule.Candidate{
		DoctorID:        req.NewDoctorID,
		Date:            apt.Date,
		Time:            apt.Time,
		DurationMinutes: apt.DurationMinutes,
		ExcludeID:       &apt.ID,
	}); err != nil {
		return nil, err
	}

	previousID := apt.DoctorID
	previousName := apt.DoctorName
	apt.OriginalDoctorID = &previousID
	apt.OriginalDoctorName = &previousName
	apt.DoctorID = req.NewDoctorID
	apt.DoctorName = req.NewDoctorName
	apt.IsReferred = true

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, "refer", "appointment", apt.ID, map[string]interface{}{
		"from_doctor_id": previousID,
		"to_doctor_id":   req.NewDoctorID,
	})
	s.emit(ctx, model.EventAppointmentReferred, apt)
	return apt, nil
}

// Delete is the administrative hard delete; lifecycle exits go through
// cancel, complete or close.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.Log(ctx, actor, "delete", "appointment", id, nil)
	return nil
}
