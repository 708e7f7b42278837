package branch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/app/apptest"
	"inventra/internal/core/apperror"
	"inventra/internal/domain/catalogs/branch"
)

func TestEnsureMain_Idempotent(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	again, err := env.Branches.EnsureMain(ctx, "Another Main")
	require.NoError(t, err)
	assert.Equal(t, env.Main.ID, again.ID)
	assert.Equal(t, "Main Store", again.Name)

	ok, err := env.Branches.IsMain(ctx, env.Main.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = env.Branches.IsMain(ctx, env.Branch.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreate_CannotClaimMain(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	b := branch.NewBranch("Harbour", "")
	b.IsMain = true
	require.NoError(t, env.Branches.Create(ctx, b))

	got, err := env.Branches.GetMain(ctx)
	require.NoError(t, err)
	assert.Equal(t, env.Main.ID, got.ID)

	stored, err := env.Branches.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsMain)
}

func TestCreate_Validation(t *testing.T) {
	env := apptest.New(t)
	err := env.Branches.Create(context.Background(), branch.NewBranch("  ", ""))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestMainBranch_Guards(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	_, err := env.Branches.Rename(ctx, env.Main.ID, "Head Office", "")
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))

	moved, err := env.Branches.Rename(ctx, env.Main.ID, "Main Store", "1 High St")
	require.NoError(t, err)
	assert.Equal(t, "1 High St", moved.Address)
	assert.True(t, moved.IsMain)

	err = env.Branches.Delete(ctx, env.Main.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
}

func TestRename_RegularBranch(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	got, err := env.Branches.Rename(ctx, env.Branch.ID, "Riverside North", "14 River Rd")
	require.NoError(t, err)
	assert.Equal(t, "Riverside North", got.Name)

	records := env.Store.AuditRecords("branch")
	require.NotEmpty(t, records)
	last := records[len(records)-1]
	assert.Equal(t, env.Branch.ID.String(), last.EntityKey)
	assert.Contains(t, last.Changes, "name")
}

func TestDelete_RegularBranch(t *testing.T) {
	env := apptest.New(t)
	ctx := context.Background()

	b := env.NewBranch(t, "Pop-up")
	require.NoError(t, env.Branches.Delete(ctx, b.ID))

	_, err := env.Branches.GetByID(ctx, b.ID)
	assert.True(t, apperror.IsNotFound(err))
}
