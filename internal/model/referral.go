package model

import (
	"time"

	"github.com/google/uuid"
)

type ReferralStatus string

const (
	ReferralStatusPending    ReferralStatus = "pending"
	ReferralStatusInProgress ReferralStatus = "in-progress"
	ReferralStatusCompleted  ReferralStatus = "completed"
	ReferralStatusRejected   ReferralStatus = "rejected"
)

// PatientReferral is a forwarded-patient request: another practice asks this
// clinic to take a patient on. Distinct from an in-appointment referral,
// which re-assigns an existing appointment between doctors. Completion
// attaches the appointment produced by the booking flow.
type PatientReferral struct {
	ID              uuid.UUID      `db:"id" json:"id"`
	PatientName     string         `db:"patient_name" json:"patient_name"`
	ReferringDoctor string         `db:"referring_doctor" json:"referring_doctor"`
	TargetDoctorID  uuid.UUID      `db:"target_doctor_id" json:"target_doctor_id"`
	Reason          string         `db:"reason" json:"reason,omitempty"`
	Status          ReferralStatus `db:"status" json:"status"`
	AppointmentID   *uuid.UUID     `db:"appointment_id" json:"appointment_id,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

type CreatePatientReferralRequest struct {
	PatientName     string    `json:"patient_name" binding:"required,max=200"`
	ReferringDoctor string    `json:"referring_doctor" binding:"required,max=200"`
	TargetDoctorID  uuid.UUID `json:"target_doctor_id" binding:"required"`
	Reason          string    `json:"reason" binding:"max=1000"`
}

// CompletePatientReferralRequest books the appointment that completes the
// referral; it goes through the same validation and conflict path as a
// direct booking.
type CompletePatientReferralRequest struct {
	Booking CreateAppointmentRequest `json:"booking" binding:"required"`
}
