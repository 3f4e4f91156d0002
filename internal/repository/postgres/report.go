package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilecare/clinic-api/internal/model"
	apperrors "github.com/smilecare/clinic-api/pkg/errors"
)

func (r *reportRepository) Create(ctx context.Context, report *model.MedicalReport) error {
	query := `
		INSERT INTO medical_reports (
			id, appointment_id, doctor_id, diagnosis, treatment, notes,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	report.CreatedAt = time.Now()
	report.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		report.ID,
		report.AppointmentID,
		report.DoctorID,
		report.Diagnosis,
		report.Treatment,
		report.Notes,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalReport, error) {
	query := `
		SELECT id, appointment_id, doctor_id, diagnosis, treatment, notes,
			   created_at, updated_at
		FROM medical_reports
		WHERE id = $1
	`
	var report model.MedicalReport
	err := r.db.GetContext(ctx, &report, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("report", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

func (r *reportRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.MedicalReport, error) {
	query := `
		SELECT id, appointment_id, doctor_id, diagnosis, treatment, notes,
			   created_at, updated_at
		FROM medical_reports
		WHERE appointment_id = $1
		ORDER BY created_at ASC
	`
	var reports []*model.MedicalReport
	if err := r.db.SelectContext(ctx, &reports, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM medical_reports WHERE appointment_id = $1
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, appointmentID); err != nil {
		return false, fmt.Errorf("failed to check report existence: %w", err)
	}
	return exists, nil
}
