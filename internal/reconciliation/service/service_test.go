package service

import (
	"testing"

	billingcycledomain "github.com/railzwaylabs/seatbill/internal/billingcycle/domain"
	recondomain "github.com/railzwaylabs/seatbill/internal/reconciliation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() recondomain.Service {
	return NewService(ServiceParam{Log: zap.NewNop()})
}

func TestReconcile_NormalUserFullRate(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{
			{Email: "a@b.com", ActivationDate: "2024-11-02", Active: true},
		},
		Roster:   []recondomain.RosterUser{{Email: "a@b.com"}},
		Period:   "2025-03",
		UserRate: 15,
	})
	require.NoError(t, err)

	require.Len(t, res.Normal, 1)
	assert.Equal(t, 15.0, res.Normal[0].Charge)
	assert.Equal(t, recondomain.BucketNormal, res.Normal[0].Bucket)
	assert.Equal(t, 1, res.Summary.TotalActive)
	assert.Equal(t, 15.0, res.Summary.TotalCharge)
	assert.Empty(t, res.Mismatches)
	assert.True(t, res.IsGapFree())
}

func TestReconcile_MissingActivationDateIsNormal(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{{UserID: "U-1", Active: true}},
		Roster:    []recondomain.RosterUser{{UserID: "u-1"}},
		Period:    "2025-03",
		UserRate:  10,
	})
	require.NoError(t, err)
	require.Len(t, res.Normal, 1)
	assert.Equal(t, 10.0, res.Normal[0].Charge)
}

func TestReconcile_NewUserProrated(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{
			{Email: "new@b.com", ActivationDate: "2025-03-16", Active: true},
		},
		Period:   "2025-03",
		UserRate: 15,
	})
	require.NoError(t, err)

	require.Len(t, res.New, 1)
	u := res.New[0]
	assert.Equal(t, recondomain.BucketNew, u.Bucket)
	assert.Equal(t, 16, u.DaysActive)
	assert.InDelta(t, 16.0/31.0*15.0, u.Charge, 1e-9)
	assert.InDelta(t, 7.74, u.Charge, 0.005)
	assert.Equal(t, 1, res.Summary.TotalNew)
	// New users are billed without a roster counterpart and never flagged.
	assert.Empty(t, res.Mismatches)
}

func TestReconcile_MinutePrecisionActivationIsNew(t *testing.T) {
	svc := newTestService()

	for _, activation := range []string{"2025-03-16T10:00", "2025-03-16T10:00Z", "2025-03-16T10:00:00+0100", "20250316"} {
		res, err := svc.Reconcile(recondomain.Input{
			Lifecycle: []recondomain.LifecycleUser{
				{Email: "new@b.com", ActivationDate: activation, Active: true},
			},
			Roster:   []recondomain.RosterUser{{Email: "new@b.com"}},
			Period:   "2025-03",
			UserRate: 15,
		})
		require.NoError(t, err, activation)

		assert.Empty(t, res.Normal, activation)
		require.Len(t, res.New, 1, activation)
		assert.Equal(t, 16, res.New[0].DaysActive, activation)
		assert.InDelta(t, 16.0/31.0*15.0, res.Summary.TotalCharge, 1e-9, activation)
	}
}

func TestReconcile_ProrationBoundsAndMonotonic(t *testing.T) {
	svc := newTestService()
	period, err := billingcycledomain.ParsePeriod("2024-02")
	require.NoError(t, err)

	prev := 0.0
	for day := period.DaysInMonth; day >= 1; day-- {
		res, err := svc.Reconcile(recondomain.Input{
			Lifecycle: []recondomain.LifecycleUser{{
				Email:          "x@y.com",
				ActivationDate: period.Start.AddDate(0, 0, day-1).Format("2006-01-02"),
				Active:         true,
			}},
			Period:   period.Token,
			UserRate: 20,
		})
		require.NoError(t, err)
		require.Len(t, res.New, 1)

		u := res.New[0]
		assert.GreaterOrEqual(t, u.DaysActive, 1)
		assert.LessOrEqual(t, u.DaysActive, period.DaysInMonth)
		assert.InDelta(t, float64(u.DaysActive)/float64(period.DaysInMonth)*20, u.Charge, 1e-9)
		// Earlier activation never yields a smaller charge.
		assert.Greater(t, u.Charge, prev)
		prev = u.Charge
	}
}

func TestReconcile_DeactivatedUserProrated(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{{
			Email:            "gone@b.com",
			ActivationDate:   "01/05/2024",
			DeactivationDate: "3/10/2025",
			Active:           false,
		}},
		Roster:   []recondomain.RosterUser{{Email: "gone@b.com"}},
		Period:   "2025-03",
		UserRate: 31,
	})
	require.NoError(t, err)

	require.Len(t, res.Deactivated, 1)
	assert.Equal(t, 10, res.Deactivated[0].DaysActive)
	assert.InDelta(t, 10.0, res.Deactivated[0].Charge, 1e-9)
	assert.InDelta(t, 10.0, res.ProratedCharge(), 1e-9)
}

func TestReconcile_IdentityNormalization(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{{Email: "A@B.com ", Active: true}},
		Roster:    []recondomain.RosterUser{{Email: "a@b.com"}},
		Period:    "2025-03",
		UserRate:  5,
	})
	require.NoError(t, err)

	require.Len(t, res.Normal, 1)
	assert.Equal(t, "a@b.com", res.Normal[0].Identity)
	assert.Empty(t, res.Mismatches)
}

func TestReconcile_TestUsersExcluded(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{
			{Email: "qa@b.com", Active: true},
			{Email: "qa-new@b.com", ActivationDate: "2025-03-02", Active: true},
		},
		Roster: []recondomain.RosterUser{
			{Email: "roster-only-qa@b.com"},
		},
		Period:         "2025-03",
		UserRate:       10,
		TestIdentities: []string{" QA@b.com", "qa-new@B.com", "roster-only-qa@b.com"},
	})
	require.NoError(t, err)

	assert.Len(t, res.TestUsers, 2)
	assert.Equal(t, 2, res.Summary.TotalTestUsers)
	assert.Empty(t, res.Normal)
	assert.Empty(t, res.New)
	assert.Empty(t, res.Deactivated)
	assert.Empty(t, res.Mismatches)
	assert.Zero(t, res.Summary.TotalCharge)
}

func TestReconcile_MissingInLifecycle(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Roster:   []recondomain.RosterUser{{Email: "x@y.com", Name: "X"}},
		Period:   "2025-03",
		UserRate: 10,
	})
	require.NoError(t, err)

	require.Len(t, res.Mismatches, 1)
	m := res.Mismatches[0]
	assert.Equal(t, recondomain.IssueMissingInLifecycle, m.Issue)
	assert.Equal(t, "Missing in lifecycle", m.Issue)
	assert.Equal(t, recondomain.SeverityBlocker, m.Severity)
	assert.Equal(t, recondomain.MismatchSourceRoster, m.Source)
	assert.Equal(t, 1, res.Summary.TotalMismatches)
	assert.False(t, res.IsGapFree())
}

func TestReconcile_MissingInRoster(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{{Email: "only@life.com", ActivationDate: "2024-01-01", Active: true}},
		Period:    "2025-03",
		UserRate:  10,
	})
	require.NoError(t, err)

	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, "Missing in roster", res.Mismatches[0].Issue)
	assert.Equal(t, recondomain.MismatchSourceLifecycle, res.Mismatches[0].Source)
	assert.Empty(t, res.Normal)
	require.Len(t, res.Dormant, 1)
	assert.Zero(t, res.Summary.TotalCharge)
}

func TestReconcile_DormantUserNotChargedNorFlagged(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{{
			Email:            "old@b.com",
			ActivationDate:   "2023-01-01",
			DeactivationDate: "2024-06-30",
			Active:           false,
		}},
		Roster:   []recondomain.RosterUser{{Email: "old@b.com"}},
		Period:   "2025-03",
		UserRate: 10,
	})
	require.NoError(t, err)

	assert.Empty(t, res.Normal)
	assert.Empty(t, res.New)
	assert.Empty(t, res.Deactivated)
	assert.Empty(t, res.Mismatches)
	require.Len(t, res.Dormant, 1)
	assert.Equal(t, dormantInactive, res.Dormant[0].Reason)
	assert.Equal(t, 1, res.Summary.TotalDormant)
	assert.Zero(t, res.Summary.TotalCharge)
}

func TestReconcile_AmbiguousDateTreatedAsAbsent(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{{Email: "a@b.com", ActivationDate: "sometime in march", Active: true}},
		Roster:    []recondomain.RosterUser{{Email: "a@b.com"}},
		Period:    "2025-03",
		UserRate:  12,
	})
	require.NoError(t, err)
	require.Len(t, res.Normal, 1)
	assert.Nil(t, res.Normal[0].ActivationDate)
}

func TestReconcile_SecondaryProgram(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{
			{Email: "a@b.com", Active: true},
			{Email: "c@d.com", Active: true},
		},
		Roster: []recondomain.RosterUser{
			{Email: "a@b.com", SecondaryProgram: true},
			{Email: "c@d.com"},
		},
		Period:   "2025-03",
		UserRate: 10,
	})
	require.NoError(t, err)

	require.Len(t, res.Secondary, 1)
	assert.Equal(t, "a@b.com", res.Secondary[0].Identity)
	assert.True(t, res.Secondary[0].SecondaryProgram)
	assert.Equal(t, 1, res.Summary.TotalSecondary)
	assert.Equal(t, 2, res.Summary.TotalActive)
}

func TestReconcile_DuplicateKeysLastWriteWins(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{
			{Email: "dup@b.com", Name: "first", Active: false},
			{Email: "other@b.com", Active: true},
			{Email: "DUP@b.com", Name: "second", Active: true},
		},
		Roster: []recondomain.RosterUser{
			{Email: "dup@b.com"},
			{Email: "other@b.com"},
		},
		Period:   "2025-03",
		UserRate: 10,
	})
	require.NoError(t, err)

	require.Len(t, res.Normal, 2)
	assert.Equal(t, "second", res.Normal[0].Name)
	assert.Equal(t, "other@b.com", res.Normal[1].Identity)
}

func TestReconcile_EmptyIdentitiesSkipped(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{{Email: "  ", Active: true}},
		Roster:    []recondomain.RosterUser{{Name: "no identity"}},
		Period:    "2025-03",
		UserRate:  10,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Normal)
	assert.Empty(t, res.Dormant)
	assert.Empty(t, res.Mismatches)
}

func TestReconcile_MalformedPeriod(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: []recondomain.LifecycleUser{{Email: "a@b.com", Active: true}},
		Period:    "2025-3x",
		UserRate:  10,
	})
	assert.ErrorIs(t, err, billingcycledomain.ErrMalformedPeriod)
	assert.Nil(t, res)
}

func TestReconcile_EmptyInputs(t *testing.T) {
	svc := newTestService()

	res, err := svc.Reconcile(recondomain.Input{Period: "2025-03", UserRate: 10})
	require.NoError(t, err)
	assert.Zero(t, res.Summary.TotalCharge)
	assert.NotNil(t, res.Normal)
	assert.NotNil(t, res.Mismatches)
	assert.True(t, res.IsGapFree())
}

func TestReconcile_DoesNotAliasInputs(t *testing.T) {
	svc := newTestService()

	lifecycle := []recondomain.LifecycleUser{{
		Email:      "a@b.com",
		Active:     true,
		Attributes: map[string]string{"team": "north"},
	}}
	res, err := svc.Reconcile(recondomain.Input{
		Lifecycle: lifecycle,
		Roster:    []recondomain.RosterUser{{Email: "a@b.com"}},
		Period:    "2025-03",
		UserRate:  10,
	})
	require.NoError(t, err)

	res.Normal[0].Attributes["team"] = "south"
	assert.Equal(t, "north", lifecycle[0].Attributes["team"])
}
