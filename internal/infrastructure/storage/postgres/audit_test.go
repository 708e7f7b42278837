package postgres

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appctx "inventra/internal/core/context"
	"inventra/internal/domain/audit"
)

func TestAuditRecorder_CompressesLargeChanges(t *testing.T) {
	r, err := NewAuditRecorder(nil)
	require.NoError(t, err)
	r.compressThreshold = 64

	ctx := appctx.WithActor(context.Background(), &appctx.Actor{UserID: "u-7"})
	entry := audit.Entry{
		EntityType: "purchase",
		EntityKey:  "RCP2610190001",
		Action:     audit.ActionCreate,
		Changes:    map[string]any{"notes": strings.Repeat("pallet ", 40)},
	}

	row, err := r.buildRow(ctx, entry, time.Now())
	require.NoError(t, err)
	assert.Equal(t, CompressionZstd, row.CompressionAlgo)
	assert.Nil(t, row.Changes)
	assert.Equal(t, "u-7", row.UserID)

	require.NoError(t, r.inflate(&row))
	assert.Contains(t, string(row.Changes), "pallet pallet")
	assert.Nil(t, row.ChangesCompressed)
}

func TestAuditRecorder_SmallChangesStayPlain(t *testing.T) {
	r, err := NewAuditRecorder(nil)
	require.NoError(t, err)

	row, err := r.buildRow(context.Background(), audit.Entry{
		EntityType: "branch",
		EntityKey:  "b-1",
		Action:     audit.ActionUpdate,
		Changes:    map[string]any{"name": "Riverside"},
	}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, row.CompressionAlgo)
	assert.JSONEq(t, `{"name":"Riverside"}`, string(row.Changes))
}
