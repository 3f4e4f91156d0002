package model

import (
	"time"

	"github.com/google/uuid"
)

// MedicalReport is the clinical write-up linked to an appointment. Its
// existence is what permits the close transition.
type MedicalReport struct {
	ID            uuid.UUID `db:"id" json:"id"`
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	DoctorID      uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Diagnosis     string    `db:"diagnosis" json:"diagnosis"`
	Treatment     string    `db:"treatment" json:"treatment,omitempty"`
	Notes         string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type CreateMedicalReportRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
	Diagnosis string    `json:"diagnosis" binding:"required,max=2000"`
	Treatment string    `json:"treatment" binding:"max=2000"`
	Notes     string    `json:"notes" binding:"max=4000"`
}
