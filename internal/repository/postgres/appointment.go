package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/smilecare/clinic-api/internal/model"
	"github.com/smilecare/clinic-api/internal/schedule"
	apperrors "github.com/smilecare/clinic-api/pkg/errors"
)

const appointmentColumns = `
	id, doctor_id, patient_id, "date", "time", duration_minutes,
	type, room_number, status, patient_name, doctor_name,
	is_referred, original_doctor_id, original_doctor_name,
	created_at, updated_at
`

// lockDoctorDay takes row locks on the doctor's slot-holding appointments
// for one day and returns them. Serializes concurrent writers per
// (doctor, date) so the overlap re-check below sees committed truth.
func lockDoctorDay(ctx context.Context, tx *sqlx.Tx, doctorID uuid.UUID, date string) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		AND "date" = $2
		AND status NOT IN ('cancelled', 'closed', 'completed')
		ORDER BY "time" ASC
		FOR UPDATE
	`
	var appointments []*model.Appointment
	if err := tx.SelectContext(ctx, &appointments, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to lock doctor day: %w", err)
	}
	return appointments, nil
}

// ensureSlotFree re-runs the overlap check against fresh, locked rows. The
// service-level detector is necessary but not sufficient: this is the check
// that makes the no-overlap invariant atomic.
func ensureSlotFree(ctx context.Context, tx *sqlx.Tx, apt *model.Appointment) error {
	existing, err := lockDoctorDay(ctx, tx, apt.DoctorID, apt.Date)
	if err != nil {
		return err
	}

	blocking, err := schedule.FindConflict(schedule.Candidate{
		DoctorID:        apt.DoctorID,
		Date:            apt.Date,
		Time:            apt.Time,
		DurationMinutes: apt.DurationMinutes,
		ExcludeID:       &apt.ID,
	}, existing)
	if err != nil {
		return err
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

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := ensureSlotFree(ctx, tx, apt); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx, query,
			apt.ID,
			apt.DoctorID,
			apt.PatientID,
			apt.Date,
			apt.Time,
			apt.DurationMinutes,
			apt.Type,
			apt.RoomNumber,
			apt.Status,
			apt.PatientName,
			apt.DoctorName,
			apt.IsReferred,
			apt.OriginalDoctorID,
			apt.OriginalDoctorName,
			apt.CreatedAt,
			apt.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", err)
		}
		return nil
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE id = $1
	`
	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, apt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET doctor_id = $1, patient_id = $2, "date" = $3, "time" = $4,
			duration_minutes = $5, type = $6, room_number = $7, status = $8,
			patient_name = $9, doctor_name = $10, is_referred = $11,
			original_doctor_id = $12, original_doctor_name = $13, updated_at = $14
		WHERE id = $15
	`
	apt.UpdatedAt = time.Now()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Only slot-holding rows can collide; a transition to a settled
		// status frees the slot and needs no re-check.
		if apt.Status.IsActive() || apt.Status == model.AppointmentStatusNoShow {
			if err := ensureSlotFree(ctx, tx, apt); err != nil {
				return err
			}
		}

		result, err := tx.ExecContext(ctx, query,
			apt.DoctorID,
			apt.PatientID,
			apt.Date,
			apt.Time,
			apt.DurationMinutes,
			apt.Type,
			apt.RoomNumber,
			apt.Status,
			apt.PatientName,
			apt.DoctorName,
			apt.IsReferred,
			apt.OriginalDoctorID,
			apt.OriginalDoctorName,
			apt.UpdatedAt,
			apt.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("appointment", nil)
		}
		return nil
	})
}

func (r *appointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		DELETE FROM appointments
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE 1=1
	`
	var args []interface{}
	argCount := 1

	if filters.DoctorID != uuid.Nil {
		query += fmt.Sprintf(` AND doctor_id = $%d`, argCount)
		args = append(args, filters.DoctorID)
		argCount++
	}
	if filters.PatientID != uuid.Nil {
		query += fmt.Sprintf(` AND patient_id = $%d`, argCount)
		args = append(args, filters.PatientID)
		argCount++
	}
	if filters.Date != "" {
		query += fmt.Sprintf(` AND "date" = $%d`, argCount)
		args = append(args, filters.Date)
		argCount++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argCount)
		args = append(args, filters.Status)
		argCount++
	}

	query += ` ORDER BY "date" ASC, "time" ASC`

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForDoctorDay(ctx context.Context, doctorID uuid.UUID, date string) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1
		AND "date" = $2
		ORDER BY "time" ASC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, doctorID, date); err != nil {
		return nil, fmt.Errorf("failed to list doctor appointments: %w", err)
	}
	return appointments, nil
}
