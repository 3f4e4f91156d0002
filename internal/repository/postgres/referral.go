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

func (r *referralRepository) Create(ctx context.Context, referral *model.PatientReferral) error {
	query := `
		INSERT INTO patient_referrals (
			id, patient_name, referring_doctor, target_doctor_id, reason,
			status, appointment_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	referral.CreatedAt = time.Now()
	referral.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		referral.ID,
		referral.PatientName,
		referral.ReferringDoctor,
		referral.TargetDoctorID,
		referral.Reason,
		referral.Status,
		referral.AppointmentID,
		referral.CreatedAt,
		referral.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create referral: %w", err)
	}
	return nil
}

func (r *referralRepository) Get(ctx context.Context, id uuid.UUID) (*model.PatientReferral, error) {
	query := `
		SELECT id, patient_name, referring_doctor, target_doctor_id, reason,
			   status, appointment_id, created_at, updated_at
		FROM patient_referrals
		WHERE id = $1
	`
	var referral model.PatientReferral
	err := r.db.GetContext(ctx, &referral, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("referral", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get referral: %w", err)
	}
	return &referral, nil
}

func (r *referralRepository) Update(ctx context.Context, referral *model.PatientReferral) error {
	query := `
		UPDATE patient_referrals
		SET status = $1, appointment_id = $2, updated_at = $3
		WHERE id = $4
	`
	referral.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		referral.Status,
		referral.AppointmentID,
		referral.UpdatedAt,
		referral.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update referral: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("referral", nil)
	}
	return nil
}

func (r *referralRepository) List(ctx context.Context, status model.ReferralStatus) ([]*model.PatientReferral, error) {
	query := `
		SELECT id, patient_name, referring_doctor, target_doctor_id, reason,
			   status, appointment_id, created_at, updated_at
		FROM patient_referrals
	`
	var args []interface{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	var referrals []*model.PatientReferral
	if err := r.db.SelectContext(ctx, &referrals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	return referrals, nil
}
