package referral

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/smilecare/clinic-api/internal/model"
	"github.com/smilecare/clinic-api/internal/repository"
	"github.com/smilecare/clinic-api/internal/service/appointment"
	"github.com/smilecare/clinic-api/internal/service/audit"
	"github.com/smilecare/clinic-api/internal/service/event"
	apperrors "github.com/smilecare/clinic-api/pkg/errors"
)

// Service manages forwarded-patient requests: pending intake, acceptance,
// rejection, and completion. Completing a referral books the appointment
// through the regular scheduling path and attaches the result.
type Service struct {
	repo    repository.ReferralRepository
	booking *appointment.Service
	auditor *audit.Service
	events  *event.Service
}

func NewService(repo repository.ReferralRepository, booking *appointment.Service, auditor *audit.Service, events *event.Service) *Service {
	return &Service{
		repo:    repo,
		booking: booking,
		auditor: auditor,
		events:  events,
	}
}

func (s *Service) CreateReferral(ctx context.Context, req *model.CreatePatientReferralRequest) (*model.PatientReferral, error) {
	ref := &model.PatientReferral{
		ID:              uuid.New(),
		PatientName:     req.PatientName,
		ReferringDoctor: req.ReferringDoctor,
		TargetDoctorID:  req.TargetDoctorID,
		Reason:          req.Reason,
		Status:          model.ReferralStatusPending,
	}

	if err := s.repo.Create(ctx, ref); err != nil {
		return nil, fmt.Errorf("failed to create referral: %w", err)
	}

	s.auditor.Log(ctx, req.TargetDoctorID, "create", "referral", ref.ID, ref)
	return ref, nil
}

func (s *Service) GetReferral(ctx context.Context, id uuid.UUID) (*model.PatientReferral, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListReferrals(ctx context.Context, status model.ReferralStatus) ([]*model.PatientReferral, error) {
	return s.repo.List(ctx, status)
}

// Accept moves a pending referral into in-progress: the clinic has taken
// the case and is registering the patient.
func (s *Service) Accept(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*model.PatientReferral, error) {
	ref, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref.Status != model.ReferralStatusPending {
		return nil, apperrors.InvalidTransition(string(ref.Status), "accept")
	}

	ref.Status = model.ReferralStatusInProgress
	if err := s.repo.Update(ctx, ref); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, "accept", "referral", ref.ID, map[string]interface{}{"status": ref.Status})
	return ref, nil
}

// Reject declines a referral that has not yet been completed.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor uuid.UUID) (*model.PatientReferral, error) {
	ref, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref.Status != model.ReferralStatusPending && ref.Status != model.ReferralStatusInProgress {
		return nil, apperrors.InvalidTransition(string(ref.Status), "reject")
	}

	ref.Status = model.ReferralStatusRejected
	if err := s.repo.Update(ctx, ref); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, "reject", "referral", ref.ID, map[string]interface{}{"status": ref.Status})
	s.emit(ctx, model.EventReferralRejected, ref)
	return ref, nil
}

// Complete books the referred patient's first appointment and attaches it.
// The booking goes through full validation and conflict detection; a
// rejected slot leaves the referral in-progress so the clinic can try a
// different time.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, req *model.CompletePatientReferralRequest, actor uuid.UUID) (*model.PatientReferral, error) {
	ref, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ref.Status != model.ReferralStatusInProgress {
		return nil, apperrors.InvalidTransition(string(ref.Status), "complete")
	}
	if req.Booking.DoctorID != ref.TargetDoctorID {
		return nil, apperrors.Validation("booking.doctor_id", "booking must be with the referral's target doctor")
	}

	apt, err := s.booking.Book(ctx, &req.Booking)
	if err != nil {
		return nil, err
	}

	ref.Status = model.ReferralStatusCompleted
	ref.AppointmentID = &apt.ID
	if err := s.repo.Update(ctx, ref); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, actor, "complete", "referral", ref.ID, map[string]interface{}{
		"appointment_id": apt.ID,
	})
	s.emit(ctx, model.EventReferralCompleted, ref)
	return ref, nil
}

func (s *Service) emit(ctx context.Context, eventType string, ref *model.PatientReferral) {
	if err := s.events.Emit(ctx, eventType, ref); err != nil {
		log.Error().Err(err).
			Str("event_type", eventType).
			Str("referral_id", ref.ID.String()).
			Msg("failed to stage referral event")
	}
}
