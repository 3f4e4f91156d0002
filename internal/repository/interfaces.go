package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/smilecare/clinic-api/internal/model"
)

// All repository interfaces in one file
type (
	AppointmentRepository interface {
		// Create and Update re-validate the no-overlap invariant under a
		// row lock; the service-level check alone is advisory.
		Create(ctx context.Context, apt *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, apt *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		// ListForDoctorDay returns the doctor's appointments for one
		// calendar day ordered by start time, terminal ones included.
		ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, date string) ([]*model.Appointment, error)
	}

	ReportRepository interface {
		Create(ctx context.Context, report *model.MedicalReport) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalReport, error)
		ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.MedicalReport, error)
		ExistsForAppointment(ctx context.Context, appointmentID uuid.UUID) (bool, error)
	}

	ReferralRepository interface {
		Create(ctx context.Context, referral *model.PatientReferral) error
		Get(ctx context.Context, id uuid.UUID) (*model.PatientReferral, error)
		Update(ctx context.Context, referral *model.PatientReferral) error
		List(ctx context.Context, status model.ReferralStatus) ([]*model.PatientReferral, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, entry *model.AuditEntry) error
		List(ctx context.Context, entityID uuid.UUID) ([]*model.AuditEntry, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
)
