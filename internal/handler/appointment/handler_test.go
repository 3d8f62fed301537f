package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/scheduling-service/internal/handler/handlertest"
	"github.com/jwalitptl/scheduling-service/internal/model"
	"github.com/jwalitptl/scheduling-service/internal/repository/mocks"
	"github.com/jwalitptl/scheduling-service/internal/router"
	apperrors "github.com/jwalitptl/scheduling-service/pkg/errors"
)

type fixture struct {
	appointments  *mocks.AppointmentRepository
	timeslots     *mocks.TimeslotRepository
	notifications *mocks.NotificationRepository
	router        *router.Router
}

func setup(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		appointments:  &mocks.AppointmentRepository{},
		timeslots:     &mocks.TimeslotRepository{},
		notifications: &mocks.NotificationRepository{},
		router:        router.New(),
	}
	require.NoError(t, NewHandler(f.appointments, f.timeslots, f.notifications).RegisterTopics(f.router))
	t.Cleanup(func() {
		f.appointments.AssertExpectations(t)
		f.timeslots.AssertExpectations(t)
		f.notifications.AssertExpectations(t)
	})
	return f
}

func notificationFor(userID int64) interface{} {
	return mock.MatchedBy(func(n *model.Notification) bool { return n.UserID == userID && n.Content != "" })
}

func TestAllAppointments(t *testing.T) {
	t.Run("admin sees all", func(t *testing.T) {
		f := setup(t)
		f.appointments.On("List", mock.Anything, model.AppointmentFilter{}).
			Return([]*model.Appointment{{ID: 1}, {ID: 2}}, nil)

		out := handlertest.Call(t, f.router, TopicAll, map[string]interface{}{"token": handlertest.Token(t, 1, "admin")})
		assert.Equal(t, 200, out.Status())
		assert.Len(t, out.List("appointments"), 2)
	})

	t.Run("patient sees own", func(t *testing.T) {
		f := setup(t)
		f.appointments.On("List", mock.Anything, model.AppointmentFilter{ParticipantID: 8}).
			Return([]*model.Appointment{{ID: 1, PatientID: 8}}, nil)

		out := handlertest.Call(t, f.router, TopicAll, map[string]interface{}{"token": handlertest.Token(t, 8, "patient")})
		assert.Equal(t, 200, out.Status())
	})

	t.Run("no token", func(t *testing.T) {
		f := setup(t)
		out := handlertest.Call(t, f.router, TopicAll, map[string]interface{}{})
		assert.Equal(t, 401, out.Status())
	})
}

func TestReadAppointment(t *testing.T) {
	a := &model.Appointment{ID: 5, PatientID: 8, DentistID: 3, TimeslotID: 11}

	tests := []struct {
		name   string
		token  func(t *testing.T) string
		status int
	}{
		{"patient", func(t *testing.T) string { return handlertest.Token(t, 8, "patient") }, 200},
		{"dentist", func(t *testing.T) string { return handlertest.Token(t, 3, "dentist") }, 200},
		{"admin", func(t *testing.T) string { return handlertest.Token(t, 1, "admin") }, 200},
		{"stranger", func(t *testing.T) string { return handlertest.Token(t, 9, "patient") }, 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			f.appointments.On("Get", mock.Anything, int64(5)).Return(a, nil)

			out := handlertest.Call(t, f.router, TopicRead, map[string]interface{}{"appointmentId": 5, "token": tt.token(t)})
			assert.Equal(t, tt.status, out.Status())
		})
	}
}

func TestReadAppointment_NotFound(t *testing.T) {
	f := setup(t)
	f.appointments.On("Get", mock.Anything, int64(5)).Return(nil, apperrors.NotFound("appointment 5", nil))

	out := handlertest.Call(t, f.router, TopicRead, map[string]interface{}{
		"appointmentId": 5, "token": handlertest.Token(t, 8, "patient"),
	})
	assert.Equal(t, 404, out.Status())
}

func TestCreateAppointment(t *testing.T) {
	f := setup(t)
	slot := &model.Timeslot{ID: 11, DentistID: 3, StartTime: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	f.timeslots.On("Get", mock.Anything, int64(11)).Return(slot, nil)
	f.appointments.On("TimeslotBooked", mock.Anything, int64(11)).Return(false, nil)
	f.appointments.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Appointment) bool {
		return a.PatientID == 8 && a.DentistID == 3 && a.TimeslotID == 11
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.Appointment).ID = 21
	}).Return(nil)
	f.notifications.On("Create", mock.Anything, notificationFor(3)).Return(nil)

	out := handlertest.Call(t, f.router, TopicCreate, map[string]interface{}{
		"timeslotId": 11, "token": handlertest.Token(t, 8, "patient"),
	})
	assert.Equal(t, 201, out.Status())
	assert.Equal(t, float64(21), out.Object("appointment")["id"])
}

func TestCreateAppointment_NotificationFailureIsNotFatal(t *testing.T) {
	f := setup(t)
	f.timeslots.On("Get", mock.Anything, int64(11)).Return(&model.Timeslot{ID: 11, DentistID: 3}, nil)
	f.appointments.On("TimeslotBooked", mock.Anything, int64(11)).Return(false, nil)
	f.appointments.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifications.On("Create", mock.Anything, mock.Anything).Return(apperrors.Database("get", errors.New("down")))

	out := handlertest.Call(t, f.router, TopicCreate, map[string]interface{}{
		"timeslotId": 11, "token": handlertest.Token(t, 8, "patient"),
	})
	assert.Equal(t, 201, out.Status())
}

func TestCreateAppointment_Rejections(t *testing.T) {
	t.Run("dentist caller", func(t *testing.T) {
		f := setup(t)
		out := handlertest.Call(t, f.router, TopicCreate, map[string]interface{}{
			"timeslotId": 11, "token": handlertest.Token(t, 3, "dentist"),
		})
		assert.Equal(t, 403, out.Status())
	})

	t.Run("bad timeslot id", func(t *testing.T) {
		f := setup(t)
		out := handlertest.Call(t, f.router, TopicCreate, map[string]interface{}{
			"timeslotId": "x", "token": handlertest.Token(t, 8, "patient"),
		})
		assert.Equal(t, 400, out.Status())
	})

	t.Run("unknown timeslot", func(t *testing.T) {
		f := setup(t)
		f.timeslots.On("Get", mock.Anything, int64(11)).Return(nil, apperrors.NotFound("timeslot 11", nil))
		out := handlertest.Call(t, f.router, TopicCreate, map[string]interface{}{
			"timeslotId": 11, "token": handlertest.Token(t, 8, "patient"),
		})
		assert.Equal(t, 404, out.Status())
	})

	t.Run("already booked", func(t *testing.T) {
		f := setup(t)
		f.timeslots.On("Get", mock.Anything, int64(11)).Return(&model.Timeslot{ID: 11, DentistID: 3}, nil)
		f.appointments.On("TimeslotBooked", mock.Anything, int64(11)).Return(true, nil)
		out := handlertest.Call(t, f.router, TopicCreate, map[string]interface{}{
			"timeslotId": 11, "token": handlertest.Token(t, 8, "patient"),
		})
		assert.Equal(t, 409, out.Status())
		assert.Equal(t, msgBooked, out.Message())
	})

	t.Run("booked concurrently", func(t *testing.T) {
		f := setup(t)
		f.timeslots.On("Get", mock.Anything, int64(11)).Return(&model.Timeslot{ID: 11, DentistID: 3}, nil)
		f.appointments.On("TimeslotBooked", mock.Anything, int64(11)).Return(false, nil)
		f.appointments.On("Create", mock.Anything, mock.Anything).Return(apperrors.Conflict("timeslot already booked", nil))
		out := handlertest.Call(t, f.router, TopicCreate, map[string]interface{}{
			"timeslotId": 11, "token": handlertest.Token(t, 8, "patient"),
		})
		assert.Equal(t, 409, out.Status())
	})
}

func TestUpdateAppointment_CancelNotifiesCounterpart(t *testing.T) {
	f := setup(t)
	current := &model.Appointment{ID: 5, PatientID: 8, DentistID: 3, TimeslotID: 11}
	f.appointments.On("Get", mock.Anything, int64(5)).Return(current, nil)
	f.appointments.On("SetCancelled", mock.Anything, int64(5), true).
		Return(&model.Appointment{ID: 5, PatientID: 8, DentistID: 3, TimeslotID: 11, Cancelled: true}, nil)
	f.notifications.On("Create", mock.Anything, notificationFor(3)).Return(nil).Once()

	out := handlertest.Call(t, f.router, TopicUpdate, map[string]interface{}{
		"appointmentId": 5, "cancelled": true, "token": handlertest.Token(t, 8, "patient"),
	})
	assert.Equal(t, 200, out.Status())
	assert.Equal(t, true, out.Object("appointment")["cancelled"])
}

func TestUpdateAppointment_AdminNotifiesBoth(t *testing.T) {
	f := setup(t)
	f.appointments.On("Get", mock.Anything, int64(5)).Return(&model.Appointment{ID: 5, PatientID: 8, DentistID: 3}, nil)
	f.appointments.On("SetCancelled", mock.Anything, int64(5), true).
		Return(&model.Appointment{ID: 5, PatientID: 8, DentistID: 3, Cancelled: true}, nil)
	f.notifications.On("Create", mock.Anything, notificationFor(8)).Return(nil).Once()
	f.notifications.On("Create", mock.Anything, notificationFor(3)).Return(nil).Once()

	out := handlertest.Call(t, f.router, TopicUpdate, map[string]interface{}{
		"appointmentId": 5, "cancelled": true, "token": handlertest.Token(t, 1, "admin"),
	})
	assert.Equal(t, 200, out.Status())
}

func TestUpdateAppointment_NoChangeNoNotification(t *testing.T) {
	f := setup(t)
	a := &model.Appointment{ID: 5, PatientID: 8, DentistID: 3, Cancelled: true}
	f.appointments.On("Get", mock.Anything, int64(5)).Return(a, nil)
	f.appointments.On("SetCancelled", mock.Anything, int64(5), true).Return(a, nil)

	out := handlertest.Call(t, f.router, TopicUpdate, map[string]interface{}{
		"appointmentId": 5, "cancelled": true, "token": handlertest.Token(t, 3, "dentist"),
	})
	assert.Equal(t, 200, out.Status())
}

func TestUpdateAppointment_ReinstateConflict(t *testing.T) {
	f := setup(t)
	f.appointments.On("Get", mock.Anything, int64(5)).
		Return(&model.Appointment{ID: 5, PatientID: 8, DentistID: 3, TimeslotID: 11, Cancelled: true}, nil)
	f.appointments.On("TimeslotBooked", mock.Anything, int64(11)).Return(true, nil)

	out := handlertest.Call(t, f.router, TopicUpdate, map[string]interface{}{
		"appointmentId": 5, "cancelled": false, "token": handlertest.Token(t, 8, "patient"),
	})
	assert.Equal(t, 409, out.Status())
}

func TestUpdateAppointment_Rejections(t *testing.T) {
	t.Run("missing flag", func(t *testing.T) {
		f := setup(t)
		out := handlertest.Call(t, f.router, TopicUpdate, map[string]interface{}{
			"appointmentId": 5, "token": handlertest.Token(t, 8, "patient"),
		})
		assert.Equal(t, 400, out.Status())
	})

	t.Run("stranger", func(t *testing.T) {
		f := setup(t)
		f.appointments.On("Get", mock.Anything, int64(5)).Return(&model.Appointment{ID: 5, PatientID: 8, DentistID: 3}, nil)
		out := handlertest.Call(t, f.router, TopicUpdate, map[string]interface{}{
			"appointmentId": 5, "cancelled": true, "token": handlertest.Token(t, 4, "dentist"),
		})
		assert.Equal(t, 403, out.Status())
	})

	t.Run("no token", func(t *testing.T) {
		f := setup(t)
		out := handlertest.Call(t, f.router, TopicUpdate, map[string]interface{}{"appointmentId": 5, "cancelled": true})
		assert.Equal(t, 401, out.Status())
	})
}
