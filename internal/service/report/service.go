package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/smilecare/clinic-api/internal/model"
	"github.com/smilecare/clinic-api/internal/repository"
	"github.com/smilecare/clinic-api/internal/service/audit"
)

// Service manages clinical reports. Its existence check doubles as the
// gate consulted before an appointment may be closed.
type Service struct {
	repo    repository.ReportRepository
	aptRepo repository.AppointmentRepository
	auditor *audit.Service
}

func NewService(repo repository.ReportRepository, aptRepo repository.AppointmentRepository, auditor *audit.Service) *Service {
	return &Service{
		repo:    repo,
		aptRepo: aptRepo,
		auditor: auditor,
	}
}

func (s *Service) CreateReport(ctx context.Context, appointmentID uuid.UUID, req *model.CreateMedicalReportRequest) (*model.MedicalReport, error) {
	// NotFound propagates as-is for dangling appointment ids.
	if _, err := s.aptRepo.Get(ctx, appointmentID); err != nil {
		return nil, err
	}

	rep := &model.MedicalReport{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		DoctorID:      req.DoctorID,
		Diagnosis:     req.Diagnosis,
		Treatment:     req.Treatment,
		Notes:         req.Notes,
	}

	if err := s.repo.Create(ctx, rep); err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.auditor.Log(ctx, req.DoctorID, "create", "report", rep.ID, rep)
	return rep, nil
}

func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*model.MedicalReport, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListReports(ctx context.Context, appointmentID uuid.UUID) ([]*model.MedicalReport, error) {
	return s.repo.ListByAppointment(ctx, appointmentID)
}

// HasReportFor satisfies the appointment service's close gate: closing is
// permitted once at least one report is linked to the appointment.
func (s *Service) HasReportFor(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	return s.repo.ExistsForAppointment(ctx, appointmentID)
}
