package schedule

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smilecare/clinic-api/internal/model"
)

func makeAppointment(doctorID uuid.UUID, date, clock string, duration int, status model.AppointmentStatus) *model.Appointment {
	return &model.Appointment{
		ID:              uuid.New(),
		DoctorID:        doctorID,
		PatientID:       uuid.New(),
		Date:            date,
		Time:            clock,
		DurationMinutes: duration,
		RoomNumber:      "2",
		Status:          status,
	}
}

func TestFindConflictOverlapRejected(t *testing.T) {
	doctor := uuid.New()
	existing := []*model.Appointment{
		makeAppointment(doctor, "2024-06-01", "09:00", 30, model.AppointmentStatusConfirmed),
	}

	blocking, err := FindConflict(Candidate{
		DoctorID:        doctor,
		Date:            "2024-06-01",
		Time:            "09:15",
		DurationMinutes: 30,
	}, existing)
	require.NoError(t, err)
	require.NotNil(t, blocking)
	assert.Equal(t, existing[0].ID, blocking.ID)
}

func TestFindConflictBackToBackAllowed(t *testing.T) {
	doctor := uuid.New()
	existing := []*model.Appointment{
		makeAppointment(doctor, "2024-06-01", "09:00", 30, model.AppointmentStatusConfirmed),
	}

	blocking, err := FindConflict(Candidate{
		DoctorID:        doctor,
		Date:            "2024-06-01",
		Time:            "09:30",
		DurationMinutes: 45,
	}, existing)
	require.NoError(t, err)
	assert.Nil(t, blocking)
}

func TestFindConflictScopedToDoctorAndDate(t *testing.T) {
	doctor := uuid.New()
	existing := []*model.Appointment{
		makeAppointment(uuid.New(), "2024-06-01", "09:00", 30, model.AppointmentStatusConfirmed),
		makeAppointment(doctor, "2024-06-02", "09:00", 30, model.AppointmentStatusConfirmed),
	}

	blocking, err := FindConflict(Candidate{
		DoctorID:        doctor,
		Date:            "2024-06-01",
		Time:            "09:00",
		DurationMinutes: 30,
	}, existing)
	require.NoError(t, err)
	assert.Nil(t, blocking, "other doctors and other days never block")
}

func TestFindConflictIgnoresSettledStatuses(t *testing.T) {
	doctor := uuid.New()
	for _, status := range []model.AppointmentStatus{
		model.AppointmentStatusCancelled,
		model.AppointmentStatusClosed,
		model.AppointmentStatusCompleted,
	} {
		existing := []*model.Appointment{
			makeAppointment(doctor, "2024-06-01", "09:00", 30, status),
		}
		blocking, err := FindConflict(Candidate{
			DoctorID:        doctor,
			Date:            "2024-06-01",
			Time:            "09:00",
			DurationMinutes: 30,
		}, existing)
		require.NoError(t, err)
		assert.Nil(t, blocking, "status %s must not block", status)
	}
}

func TestFindConflictNoShowStillBlocks(t *testing.T) {
	doctor := uuid.New()
	existing := []*model.Appointment{
		makeAppointment(doctor, "2024-06-01", "09:00", 30, model.AppointmentStatusNoShow),
	}
	blocking, err := FindConflict(Candidate{
		DoctorID:        doctor,
		Date:            "2024-06-01",
		Time:            "09:00",
		DurationMinutes: 30,
	}, existing)
	require.NoError(t, err)
	assert.NotNil(t, blocking)
}

func TestFindConflictSelfEditExemption(t *testing.T) {
	doctor := uuid.New()
	apt := makeAppointment(doctor, "2024-06-01", "09:00", 30, model.AppointmentStatusConfirmed)

	blocking, err := FindConflict(Candidate{
		DoctorID:        doctor,
		Date:            "2024-06-01",
		Time:            "09:00",
		DurationMinutes: 30,
		ExcludeID:       &apt.ID,
	}, []*model.Appointment{apt})
	require.NoError(t, err)
	assert.Nil(t, blocking, "re-saving an appointment at its own time must not self-conflict")
}

func TestFindConflictReturnsFirstBlockerInSuppliedOrder(t *testing.T) {
	doctor := uuid.New()
	first := makeAppointment(doctor, "2024-06-01", "09:00", 60, model.AppointmentStatusConfirmed)
	second := makeAppointment(doctor, "2024-06-01", "09:30", 60, model.AppointmentStatusScheduled)

	blocking, err := FindConflict(Candidate{
		DoctorID:        doctor,
		Date:            "2024-06-01",
		Time:            "09:45",
		DurationMinutes: 30,
	}, []*model.Appointment{first, second})
	require.NoError(t, err)
	require.NotNil(t, blocking)
	assert.Equal(t, first.ID, blocking.ID)
}

func TestFindConflictContainedSlot(t *testing.T) {
	doctor := uuid.New()
	outer := makeAppointment(doctor, "2024-06-01", "09:00", 120, model.AppointmentStatusConfirmed)

	blocking, err := FindConflict(Candidate{
		DoctorID:        doctor,
		Date:            "2024-06-01",
		Time:            "09:30",
		DurationMinutes: 15,
	}, []*model.Appointment{outer})
	require.NoError(t, err)
	assert.NotNil(t, blocking, "a slot inside a longer booking still conflicts")
}

func TestFindConflictDefaultsMissingDuration(t *testing.T) {
	doctor := uuid.New()
	apt := makeAppointment(doctor, "2024-06-01", "09:00", 0, model.AppointmentStatusConfirmed)

	blocking, err := FindConflict(Candidate{
		DoctorID:        doctor,
		Date:            "2024-06-01",
		Time:            "09:15",
		DurationMinutes: 15,
	}, []*model.Appointment{apt})
	require.NoError(t, err)
	assert.NotNil(t, blocking, "stored rows without a duration occupy the default 30 minutes")
}

func TestFindConflictRejectsBadCandidate(t *testing.T) {
	_, err := FindConflict(Candidate{
		DoctorID:        uuid.New(),
		Date:            "2024-06-01",
		Time:            "9am",
		DurationMinutes: 30,
	}, nil)
	assert.Error(t, err)

	_, err = FindConflict(Candidate{
		DoctorID:        uuid.New(),
		Date:            "2024-06-01",
		Time:            "09:00",
		DurationMinutes: -5,
	}, nil)
	assert.Error(t, err)
}
