package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusClosed    AppointmentStatus = "closed"
	AppointmentStatusNoShow    AppointmentStatus = "no-show"
)

// IsActive reports whether the appointment still occupies its slot and may
// transition. Scheduled and confirmed are used interchangeably as "active".
func (s AppointmentStatus) IsActive() bool {
	return s == AppointmentStatusScheduled || s == AppointmentStatusConfirmed
}

// IsTerminal reports whether no further transition is permitted.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCancelled, AppointmentStatusClosed, AppointmentStatusNoShow:
		return true
	}
	return false
}

// DefaultDurationMinutes applies when a booking omits the duration.
const DefaultDurationMinutes = 30

// Appointment is a booked slot on a doctor's calendar. Date and Time are
// clinic-local and compared literally; there is no timezone conversion.
// DoctorID always names the doctor currently responsible: after a referral
// the referring doctor is kept in OriginalDoctorID for attribution, and
// OriginalDoctorID is set if and only if IsReferred is true.
type Appointment struct {
	ID              uuid.UUID         `db:"id" json:"id"`
	DoctorID        uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	Date            string            `db:"date" json:"date"`
	Time            string            `db:"time" json:"time"`
	DurationMinutes int               `db:"duration_minutes" json:"duration_minutes"`
	Type            string            `db:"type" json:"type,omitempty"`
	RoomNumber      string            `db:"room_number" json:"room_number"`
	Status          AppointmentStatus `db:"status" json:"status"`

	// Denormalized display copies, refreshed on write. The foreign keys
	// above stay authoritative; logic never branches on these names.
	PatientName string `db:"patient_name" json:"patient_name,omitempty"`
	DoctorName  string `db:"doctor_name" json:"doctor_name,omitempty"`

	IsReferred         bool       `db:"is_referred" json:"is_referred"`
	OriginalDoctorID   *uuid.UUID `db:"original_doctor_id" json:"original_doctor_id,omitempty"`
	OriginalDoctorName *string    `db:"original_doctor_name" json:"original_doctor_name,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CreateAppointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id" binding:"required"`
	PatientID       uuid.UUID `json:"patient_id" binding:"required"`
	Date            string    `json:"date" binding:"required,dateonly"`
	Time            string    `json:"time" binding:"required,clocktime"`
	DurationMinutes int       `json:"duration_minutes" binding:"omitempty,gt=0"`
	Type            string    `json:"type" binding:"max=100"`
	RoomNumber      string    `json:"room_number" binding:"required"`
	PatientName     string    `json:"patient_name" binding:"max=200"`
	DoctorName      string    `json:"doctor_name" binding:"max=200"`
}

type UpdateAppointmentRequest struct {
	DoctorID        *uuid.UUID `json:"doctor_id"`
	Date            *string    `json:"date" binding:"omitempty,dateonly"`
	Time            *string    `json:"time" binding:"omitempty,clocktime"`
	DurationMinutes *int       `json:"duration_minutes" binding:"omitempty,gt=0"`
	Type            *string    `json:"type"`
	RoomNumber      *string    `json:"room_number"`
	DoctorName      *string    `json:"doctor_name"`
}

type ReferAppointmentRequest struct {
	NewDoctorID   uuid.UUID `json:"new_doctor_id" binding:"required"`
	NewDoctorName string    `json:"new_doctor_name" binding:"required,max=200"`
}

type AppointmentFilters struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      string
	Status    AppointmentStatus
}
