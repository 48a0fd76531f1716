package user_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uwezocare/uwezo/core"
	"github.com/uwezocare/uwezo/core/assignment"
	"github.com/uwezocare/uwezo/core/participant"
	"github.com/uwezocare/uwezo/core/user"
	dummydb "github.com/uwezocare/uwezo/storage/database/dummy"
	testutil "github.com/uwezocare/uwezo/tests"
)

type testEnv struct {
	usrRepo  user.Repository
	asgRepo  assignment.Repository
	pcptRepo participant.Repository
	mailSvc  *testutil.EmailServiceMock
	svc      *user.Service
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	env := &testEnv{
		usrRepo:  dummydb.NewUserRepository(db),
		asgRepo:  dummydb.NewAssignmentRepository(db),
		pcptRepo: dummydb.NewParticipantRepository(db),
		mailSvc:  &testutil.EmailServiceMock{},
	}
	env.svc = user.NewService(env.usrRepo, env.mailSvc)
	return env
}

func Test_userService_Create(t *testing.T) {
	env := setup(t)

	usr, err := env.svc.Create(user.NewUser{
		Name:     "Nora Ndlovu",
		Email:    "nora@uwezo.care",
		Role:     user.RoleSupervisor,
		Password: "s3cret!pass",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, usr.ID)
	assert.True(t, usr.IsActive)
	assert.False(t, usr.CreatedAt.IsZero())
	assert.NoError(t, usr.CheckPassword("s3cret!pass"))
	assert.Error(t, usr.CheckPassword("wrong"))

	t.Run("welcome email is sent", func(t *testing.T) {
		require.Equal(t, 1, env.mailSvc.SentCount())
		msg := env.mailSvc.Sent[0]
		assert.Equal(t, "welcome", msg.TemplateName)
		assert.Equal(t, "nora@uwezo.care", msg.To[0].Address)
		assert.Contains(t, msg.Subject, "Welcome")
	})
}

func Test_userService_CheckUniqueness(t *testing.T) {
	env := setup(t)

	usr := testutil.CreateUser(t, env.usrRepo, "Paula Part", "paula@uwezo.care", "", user.RoleParticipant, true)

	t.Run("duplicate email maps to a field error", func(t *testing.T) {
		err := env.svc.CheckUniqueness("paula@uwezo.care", "")
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "want ValidationError, got %v", err)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "email", vErr.Fields[0].Field)
	})

	t.Run("excluded user does not collide with itself", func(t *testing.T) {
		assert.NoError(t, env.svc.CheckUniqueness("paula@uwezo.care", "", usr))
	})

	t.Run("duplicate NDIS number maps to a field error", func(t *testing.T) {
		_, err := env.usrRepo.UpdateUser(user.User{ID: usr.ID, NDISNumber: "430111222"}, nil)
		require.NoError(t, err)

		err = env.svc.CheckUniqueness("fresh@uwezo.care", "430111222")
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "want ValidationError, got %v", err)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "ndis_number", vErr.Fields[0].Field)
	})

	t.Run("empty NDIS number never collides", func(t *testing.T) {
		assert.NoError(t, env.svc.CheckUniqueness("fresh@uwezo.care", ""))
	})

	t.Run("NDIS number held by a participant record maps to a field error", func(t *testing.T) {
		_, err := env.pcptRepo.CreateParticipant(participant.Participant{
			FullName:   "Connie Contact",
			NDISNumber: "430333444",
		})
		require.NoError(t, err)

		err = env.svc.CheckUniqueness("fresh@uwezo.care", "430333444")
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "want ValidationError, got %v", err)
		require.Len(t, vErr.Fields, 1)
		assert.Equal(t, "ndis_number", vErr.Fields[0].Field)
	})

	t.Run("linked participant record does not collide with its own account", func(t *testing.T) {
		linked := testutil.CreateUser(t, env.usrRepo, "Lena Linked", "lena@uwezo.care", "", user.RoleParticipant, true)
		_, err := env.pcptRepo.CreateParticipant(participant.Participant{
			FullName:     "Lena Linked",
			NDISNumber:   "430555666",
			LinkedUserID: linked.ID,
		})
		require.NoError(t, err)

		assert.NoError(t, env.svc.CheckUniqueness("lena@uwezo.care", "430555666", linked))
	})
}

func Test_userService_Update(t *testing.T) {
	env := setup(t)

	usr := testutil.CreateUser(t, env.usrRepo, "Ada Assessor", "ada@uwezo.care", "oldpass", user.RoleAssessor, true)

	inactive := false
	updated, err := env.svc.Update(usr.ID, user.UpdateUser{
		Name:     "Ada A. Assessor",
		Password: "newpass123",
		IsActive: &inactive,
	})
	require.NoError(t, err)

	assert.Equal(t, "Ada A. Assessor", updated.Name)
	assert.Equal(t, "ada@uwezo.care", updated.Email) // untouched fields survive
	assert.False(t, updated.IsActive)
	assert.NoError(t, updated.CheckPassword("newpass123"))
	assert.Error(t, updated.CheckPassword("oldpass"))

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.svc.Update("nope", user.UpdateUser{Name: "X"})
		assert.True(t, core.IsNotFoundError(err))
	})
}

func Test_userService_SetLastLogin(t *testing.T) {
	env := setup(t)

	usr := testutil.CreateUser(t, env.usrRepo, "Lee Login", "lee@uwezo.care", "", user.RoleAssessor, true)
	require.True(t, usr.LastLogin.IsZero())

	updated, err := env.svc.SetLastLogin(usr)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), updated.LastLogin, 5*time.Second)
}

func Test_userService_Delete(t *testing.T) {
	env := setup(t)

	t.Run("user without work is hard-deleted", func(t *testing.T) {
		usr := testutil.CreateUser(t, env.usrRepo, "Gone Soon", "gone@uwezo.care", "", user.RoleAssessor, true)

		require.NoError(t, env.svc.Delete(usr.ID))

		_, err := env.usrRepo.GetUserByID(usr.ID)
		assert.True(t, core.IsNotFoundError(err))
	})

	t.Run("user with work is deactivated instead", func(t *testing.T) {
		usr := testutil.CreateUser(t, env.usrRepo, "Busy Bee", "busy@uwezo.care", "", user.RoleAssessor, true)
		_, err := env.asgRepo.CreateAssignment(assignment.Assignment{
			Title:         "A",
			SupervisorID:  "sup",
			AssessorID:    usr.ID,
			ParticipantID: "p1",
			Status:        assignment.StatusPending,
		})
		require.NoError(t, err)

		require.NoError(t, env.svc.Delete(usr.ID))

		kept, err := env.usrRepo.GetUserByID(usr.ID)
		require.NoError(t, err)
		assert.False(t, kept.IsActive)
	})
}

func Test_userService_MarkNotificationsRead(t *testing.T) {
	env := setup(t)

	usr := testutil.CreateUser(t, env.usrRepo, "Noti Fied", "noti@uwezo.care", "", user.RoleAssessor, true)
	for i := 0; i < 3; i++ {
		err := env.usrRepo.AddNotification(usr.ID, user.Notification{
			ID:      "n",
			Message: "hello",
			Date:    time.Now().UTC(),
		}, core.Conf.NotificationCap)
		require.NoError(t, err)
	}

	require.NoError(t, env.svc.MarkNotificationsRead(usr.ID))

	usr, err := env.usrRepo.GetUserByID(usr.ID)
	require.NoError(t, err)
	require.Len(t, usr.Notifications, 3)
	for _, n := range usr.Notifications {
		assert.True(t, n.IsRead)
	}

	t.Run("unknown user", func(t *testing.T) {
		assert.True(t, core.IsNotFoundError(env.svc.MarkNotificationsRead("nope")))
	})
}
