package dashboard_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uwezocare/uwezo/core/assessment"
	"github.com/uwezocare/uwezo/core/assignment"
	"github.com/uwezocare/uwezo/core/dashboard"
	"github.com/uwezocare/uwezo/core/user"
	dummydb "github.com/uwezocare/uwezo/storage/database/dummy"
	testutil "github.com/uwezocare/uwezo/tests"
)

type testEnv struct {
	usrRepo  user.Repository
	asgRepo  assignment.Repository
	asmtRepo assessment.Repository
	svc      *dashboard.Service

	supervisor user.User
	assessor   user.User
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	env := &testEnv{
		usrRepo:  dummydb.NewUserRepository(db),
		asgRepo:  dummydb.NewAssignmentRepository(db),
		asmtRepo: dummydb.NewAssessmentRepository(db),
	}
	env.svc = dashboard.NewService(env.usrRepo, env.asgRepo, env.asmtRepo)

	env.supervisor = testutil.CreateUser(t, env.usrRepo, "Sam Super", "sam@uwezo.care", "", user.RoleSupervisor, true)
	env.assessor = testutil.CreateUser(t, env.usrRepo, "Alex Assessor", "alex@uwezo.care", "", user.RoleAssessor, true)
	return env
}

func (env *testEnv) actor(usr user.User) user.Actor {
	return user.Actor{ID: usr.ID, Role: usr.Role}
}

func (env *testEnv) createAssignment(t *testing.T, status assignment.Status, createdAt time.Time) assignment.Assignment {
	t.Helper()
	a, err := env.asgRepo.CreateAssignment(assignment.Assignment{
		Title:         "A",
		SupervisorID:  env.supervisor.ID,
		AssessorID:    env.assessor.ID,
		ParticipantID: "p1",
		Status:        status,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	})
	require.NoError(t, err)
	return a
}

func Test_dashboardService_Overview(t *testing.T) {
	env := setup(t)
	now := time.Now().UTC()
	// anchor to month start so AddDate never normalizes into an adjacent month
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	env.createAssignment(t, assignment.StatusPending, now)
	env.createAssignment(t, assignment.StatusCompleted, now)
	env.createAssignment(t, assignment.StatusCompleted, month.AddDate(0, -2, 0))
	env.createAssignment(t, assignment.StatusCancelled, month.AddDate(0, -12, 0)) // outside window

	ov, err := env.svc.Overview(env.actor(env.supervisor), 0)
	require.NoError(t, err)

	t.Run("status counts are zero-filled for all assignment statuses", func(t *testing.T) {
		want := dashboard.StatusCounts{
			"pending":     1,
			"accepted":    0,
			"in_progress": 0,
			"completed":   2,
			"cancelled":   1,
		}
		assert.Equal(t, want, ov.AssignmentCounts)
	})

	t.Run("default window is six chronological months ending now", func(t *testing.T) {
		require.Len(t, ov.AssignmentsByMonth, 6)
		assert.Equal(t, now.Format("2006-01"), ov.AssignmentsByMonth[5].Month)
		assert.Equal(t, 2, ov.AssignmentsByMonth[5].Count)
		assert.Equal(t, 1, ov.AssignmentsByMonth[3].Count) // two months back
		for i := 0; i < 5; i++ {
			prev, next := ov.AssignmentsByMonth[i].Month, ov.AssignmentsByMonth[i+1].Month
			assert.Less(t, prev, next)
		}
	})

	t.Run("supervisor gets assessor performance", func(t *testing.T) {
		require.Len(t, ov.AssessorPerformance, 1)
		perf := ov.AssessorPerformance[0]
		assert.Equal(t, env.assessor.ID, perf.AssessorID)
		assert.Equal(t, "Alex Assessor", perf.Name)
		assert.Equal(t, 4, perf.Total)
		assert.Equal(t, 2, perf.Completed)
		assert.Equal(t, 50, perf.CompletionRate)
	})

	t.Run("assessor overview has no performance block", func(t *testing.T) {
		ov, err := env.svc.Overview(env.actor(env.assessor), 0)
		require.NoError(t, err)
		assert.Nil(t, ov.AssessorPerformance)
	})

	t.Run("months outside range are clamped", func(t *testing.T) {
		ov, err := env.svc.Overview(env.actor(env.supervisor), 3)
		require.NoError(t, err)
		assert.Len(t, ov.AssignmentsByMonth, 6)

		ov, err = env.svc.Overview(env.actor(env.supervisor), 24)
		require.NoError(t, err)
		assert.Len(t, ov.AssignmentsByMonth, 12)
	})
}

func Test_dashboardService_scoping(t *testing.T) {
	env := setup(t)
	now := time.Now().UTC()

	other := testutil.CreateUser(t, env.usrRepo, "Other Assessor", "other@uwezo.care", "", user.RoleAssessor, true)
	env.createAssignment(t, assignment.StatusPending, now)

	_, err := env.asgRepo.CreateAssignment(assignment.Assignment{
		Title:         "B",
		SupervisorID:  "someone-else",
		AssessorID:    other.ID,
		ParticipantID: "p2",
		Status:        assignment.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)

	t.Run("supervisor only counts supervised work", func(t *testing.T) {
		ov, err := env.svc.Overview(env.actor(env.supervisor), 0)
		require.NoError(t, err)
		assert.Equal(t, 1, ov.AssignmentCounts["pending"])
	})

	t.Run("assessor only counts own work", func(t *testing.T) {
		ov, err := env.svc.Overview(env.actor(other), 0)
		require.NoError(t, err)
		assert.Equal(t, 1, ov.AssignmentCounts["pending"])
	})

	t.Run("admin counts everything", func(t *testing.T) {
		admin := user.Actor{ID: "admin", Role: user.RoleAdmin}
		ov, err := env.svc.Overview(admin, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, ov.AssignmentCounts["pending"])
	})
}
