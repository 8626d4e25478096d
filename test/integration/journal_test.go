package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpcontrol/internal/handlers/business"
	"lpcontrol/internal/models"
)

func TestGormJournal(t *testing.T) {
	ctx := context.Background()
	j := business.NewGormJournal(testDB)

	t.Run("Pool Recorded Once", func(t *testing.T) {
		pool := &models.PoolRecord{Address: testPrefix + "-pool", Mint0: "m0", Mint1: "m1", TickSpacing: 10, SqrtPriceX64: "18446744073709551616"}
		require.NoError(t, j.RecordPool(ctx, pool))
		require.NoError(t, j.RecordPool(ctx, &models.PoolRecord{Address: testPrefix + "-pool", Mint0: "other"}))

		got, err := j.Pool(ctx, testPrefix+"-pool")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "m0", got.Mint0)
		assert.Equal(t, "18446744073709551616", got.SqrtPriceX64)
	})

	t.Run("Missing Records", func(t *testing.T) {
		pool, err := j.Pool(ctx, testPrefix+"-none")
		require.NoError(t, err)
		assert.Nil(t, pool)

		position, err := j.Position(ctx, testPrefix+"-none")
		require.NoError(t, err)
		assert.Nil(t, position)

		sub, err := j.Submission(ctx, testPrefix+"-none")
		require.NoError(t, err)
		assert.Nil(t, sub)
	})

	t.Run("Position Upsert", func(t *testing.T) {
		mint := testPrefix + "-mint"
		require.NoError(t, j.SavePosition(ctx, &models.PositionRecord{
			NftMint: mint, PoolAddress: testPrefix + "-pool", Owner: "o", TickLower: -20, TickUpper: 20, Liquidity: "1000", Phase: "open",
		}))
		require.NoError(t, j.SavePosition(ctx, &models.PositionRecord{
			NftMint: mint, PoolAddress: testPrefix + "-pool", Owner: "o", TickLower: -20, TickUpper: 20, Liquidity: "0", Phase: "closed", Retired: true,
		}))

		got, err := j.Position(ctx, mint)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "closed", got.Phase)
		assert.Equal(t, "0", got.Liquidity)
		assert.True(t, got.Retired)
	})

	t.Run("Submission Lifecycle", func(t *testing.T) {
		sig := testPrefix + "-sig-1"
		require.NoError(t, j.RecordSubmission(ctx, &models.Submission{
			Signature: sig, Op: "open_position", NftMint: testPrefix + "-mint", PoolAddress: testPrefix + "-pool", Status: "pending",
		}))
		require.NoError(t, j.RecordSubmission(ctx, &models.Submission{
			Signature: testPrefix + "-sig-2", Op: "close_position", NftMint: testPrefix + "-mint", PoolAddress: testPrefix + "-pool", Status: "failed",
		}))

		pending, err := j.PendingSubmissions(ctx, 10)
		require.NoError(t, err)
		var found bool
		for _, p := range pending {
			found = found || p.Signature == sig
		}
		assert.True(t, found)

		now := time.Now().UTC()
		require.NoError(t, j.UpdateSubmission(ctx, sig, business.SubmissionUpdate{Status: "confirmed", Slot: 42, ConfirmedAt: &now}))
		got, err := j.Submission(ctx, sig)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "confirmed", got.Status)
		assert.Equal(t, uint64(42), got.Slot)
		assert.NotNil(t, got.ConfirmedAt)

		subs, err := j.ListSubmissions(ctx, business.SubmissionFilter{NftMint: testPrefix + "-mint", Status: "failed"})
		require.NoError(t, err)
		require.Len(t, subs, 1)
		assert.Equal(t, testPrefix+"-sig-2", subs[0].Signature)

		assert.Error(t, j.UpdateSubmission(ctx, testPrefix+"-missing", business.SubmissionUpdate{Status: "failed"}))
	})
}
