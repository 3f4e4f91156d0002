package schedule

import (
	"github.com/google/uuid"

	"github.com/smilecare/clinic-api/internal/model"
)

// Candidate is a booking being checked against a doctor's existing
// appointments. ExcludeID carries the appointment's own id when re-checking
// an edit, so that re-saving a slot does not conflict with itself.
type Candidate struct {
	DoctorID        uuid.UUID
	Date            string
	Time            string
	DurationMinutes int
	ExcludeID       *uuid.UUID
}

// Interval builds the candidate's slot.
func (c Candidate) Interval() (Interval, error) {
	return NewInterval(c.Time, c.DurationMinutes)
}

// conflicts only arise from appointments that still hold their slot
func blocksSlot(status model.AppointmentStatus) bool {
	switch status {
	case model.AppointmentStatusCancelled, model.AppointmentStatusClosed, model.AppointmentStatusCompleted:
		return false
	}
	return true
}

// FindConflict scans the supplied appointments, in order, for one that
// occupies the candidate's slot: same doctor, same date, non-terminal
// status, overlapping interval. It returns the first blocking appointment,
// or nil when the slot is free.
//
// Doctors are single-threaded resources, so the invariant enforced is: for
// a fixed doctor and date, no two slot-holding appointments overlap. This
// check is advisory; the repository re-validates under a row lock at write
// time so two concurrent bookers cannot both slip through.
func FindConflict(candidate Candidate, existing []*model.Appointment) (*model.Appointment, error) {
	slot, err := candidate.Interval()
	if err != nil {
		return nil, err
	}

	for _, apt := range existing {
		if apt.DoctorID != candidate.DoctorID || apt.Date != candidate.Date {
			continue
		}
		if candidate.ExcludeID != nil && apt.ID == *candidate.ExcludeID {
			continue
		}
		if !blocksSlot(apt.Status) {
			continue
		}

		duration := apt.DurationMinutes
		if duration <= 0 {
			duration = model.DefaultDurationMinutes
		}
		booked, err := NewInterval(apt.Time, duration)
		if err != nil {
			// Stored rows are validated on the way in; a malformed one
			// must fail the check rather than silently grant the slot.
			return nil, err
		}
		if slot.Overlaps(booked) {
			return apt, nil
		}
	}
	return nil, nil
}
