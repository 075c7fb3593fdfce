package services

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/duty-roster/internal/config"
	"github.com/jakechorley/duty-roster/pkg/core/conflict"
	"github.com/jakechorley/duty-roster/pkg/core/model"
	"github.com/jakechorley/duty-roster/pkg/db"
)

func TestCreateAssignment_Success(t *testing.T) {
	ctx := context.Background()
	store := newUnitStore()
	today := day(2025, 6, 1)

	result, err := CreateAssignment(ctx, store, DefaultPolicies(), zap.NewNop(), AssignmentRequest{
		PersonnelNo: "1007", StartDate: "2025-06-03", EndDate: "2025-06-05", Kind: "On-site",
	}, today)
	require.NoError(t, err)
	require.False(t, result.Blocked)
	require.NotNil(t, result.Assignment)

	assert.NotEmpty(t, result.Assignment.ID)
	assert.Equal(t, "Member 1007", result.Assignment.PersonName)
	assert.Equal(t, day(2025, 6, 3), result.Assignment.StartDate)
	assert.Equal(t, model.KindOnSite, result.Assignment.Kind)
	assert.False(t, result.Assignment.ReportSubmitted)
	assert.Equal(t, conflict.SeverityNone, result.Conflict.Severity)

	stored, err := store.GetAssignment(ctx, result.Assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, *result.Assignment, *stored)
	assert.True(t, store.Dirty())
}

func TestCreateAssignment_SoftWarningStillCreates(t *testing.T) {
	ctx := context.Background()
	store := newUnitStore(model.Assignment{
		ID: "a1", PersonnelNo: "1007", StartDate: day(2025, 6, 1), EndDate: day(2025, 6, 5), Kind: model.KindRemote,
	})

	result, err := CreateAssignment(ctx, store, DefaultPolicies(), zap.NewNop(), AssignmentRequest{
		PersonnelNo: "1007", StartDate: "2025-06-04", EndDate: "2025-06-06", Kind: "Remote",
	}, day(2025, 6, 1))
	require.NoError(t, err)
	assert.False(t, result.Blocked)
	require.NotNil(t, result.Assignment)
	assert.Equal(t, conflict.SeverityWarning, result.Conflict.Severity)

	assignments, err := store.GetAssignmentsByPersonnelNo(ctx, "1007")
	require.NoError(t, err)
	assert.Len(t, assignments, 2)
}

func TestCreateAssignment_HardConflictBlocks(t *testing.T) {
	ctx := context.Background()
	store := newUnitStore(model.Assignment{
		ID: "a1", PersonnelNo: "1007", StartDate: day(2025, 6, 1), EndDate: day(2025, 6, 5), Kind: model.KindOnSite,
	})

	result, err := CreateAssignment(ctx, store, DefaultPolicies(), zap.NewNop(), AssignmentRequest{
		PersonnelNo: "1007", StartDate: "2025-06-03", EndDate: "2025-06-10", Kind: "On-site",
	}, day(2025, 6, 1))
	require.NoError(t, err)
	assert.True(t, result.Blocked)
	assert.Nil(t, result.Assignment)
	assert.Equal(t, result.Conflict.Reason, result.BlockReason)
	assert.False(t, store.Dirty())
}

func TestCreateAssignment_InvalidRangeBlocks(t *testing.T) {
	store := newUnitStore()

	result, err := CreateAssignment(context.Background(), store, DefaultPolicies(), zap.NewNop(), AssignmentRequest{
		PersonnelNo: "1007", StartDate: "2025-06-10", EndDate: "2025-06-01", Kind: "Remote",
	}, day(2025, 6, 1))
	require.NoError(t, err)
	assert.True(t, result.Blocked)
	assert.False(t, store.Dirty())
}

func TestCreateAssignment_Gatekeeper(t *testing.T) {
	req := AssignmentRequest{PersonnelNo: "1001", StartDate: "2025-06-03", EndDate: "2025-06-05", Kind: "Remote"}

	t.Run("bottom ranked member is blocked", func(t *testing.T) {
		store := newUnitStore()
		result, err := CreateAssignment(context.Background(), store, DefaultPolicies(), zap.NewNop(), req, day(2025, 6, 1))
		require.NoError(t, err)
		assert.True(t, result.Blocked)
		assert.Equal(t, BlockReasonGatekeeper, result.BlockReason)
		assert.False(t, store.Dirty())
	})

	t.Run("unscored member is not blocked", func(t *testing.T) {
		store := newUnitStore()
		unscored := req
		unscored.PersonnelNo = "1008"
		result, err := CreateAssignment(context.Background(), store, DefaultPolicies(), zap.NewNop(), unscored, day(2025, 6, 1))
		require.NoError(t, err)
		assert.False(t, result.Blocked)
	})

	t.Run("small unit disables the rule", func(t *testing.T) {
		store := newUnitStore()
		bravo := req
		bravo.PersonnelNo = "2001"
		result, err := CreateAssignment(context.Background(), store, DefaultPolicies(), zap.NewNop(), bravo, day(2025, 6, 1))
		require.NoError(t, err)
		assert.False(t, result.Blocked)
	})

	t.Run("not enforced", func(t *testing.T) {
		store := newUnitStore()
		policies := DefaultPolicies()
		policies.EnforceGatekeeper = false
		result, err := CreateAssignment(context.Background(), store, policies, zap.NewNop(), req, day(2025, 6, 1))
		require.NoError(t, err)
		assert.False(t, result.Blocked)
		assert.NotNil(t, result.Assignment)
	})
}

func TestCreateAssignment_UnknownPerson(t *testing.T) {
	_, err := CreateAssignment(context.Background(), newUnitStore(), DefaultPolicies(), zap.NewNop(), AssignmentRequest{
		PersonnelNo: "9999", StartDate: "2025-06-03", EndDate: "2025-06-05", Kind: "Remote",
	}, day(2025, 6, 1))
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestCreateAssignment_StoreError(t *testing.T) {
	_, err := CreateAssignment(context.Background(), failingStore{}, DefaultPolicies(), zap.NewNop(), AssignmentRequest{
		PersonnelNo: "1001", StartDate: "2025-06-03", EndDate: "2025-06-05", Kind: "Remote",
	}, day(2025, 6, 1))
	assert.ErrorIs(t, err, errStore)
}

func TestCreateAssignment_ConcurrentOnSiteCreatesOnce(t *testing.T) {
	ctx := context.Background()
	store := newUnitStore()
	req := AssignmentRequest{PersonnelNo: "1007", StartDate: "2025-06-03", EndDate: "2025-06-05", Kind: "On-site"}

	const callers = 16
	var created, blocked atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			result, err := CreateAssignment(gctx, store, DefaultPolicies(), zap.NewNop(), req, day(2025, 6, 1))
			if err != nil {
				return err
			}
			if result.Blocked {
				blocked.Add(1)
			} else {
				created.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(callers-1), blocked.Load())

	assignments, err := store.GetAssignmentsByPersonnelNo(ctx, "1007")
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
}

func TestPoliciesFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Policy.GatekeeperExcludeCount = 2
	cfg.Policy.IdleSentinelDays = 30
	cfg.Policy.EndingSoonDays = 4
	cfg.Policy.LatePenaltyPoints = 10
	cfg.Policy.EnforceGatekeeper = false

	p := PoliciesFromConfig(cfg.Policy)
	assert.Equal(t, 2, p.Gatekeeper.ExcludeCount)
	assert.Equal(t, 30, p.Idle.SentinelDays)
	assert.Equal(t, 4, p.Classifier.EndingSoonDays)
	assert.Equal(t, 10, p.Scorer.LatePenaltyPoints)
	assert.Equal(t, 100, p.Scorer.Weights.Sum())
	assert.False(t, p.EnforceGatekeeper)
}
