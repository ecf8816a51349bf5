// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package otp_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	"codeberg.org/oliverandrich/hdnotes/internal/models"
	"codeberg.org/oliverandrich/hdnotes/internal/repository"
	"codeberg.org/oliverandrich/hdnotes/internal/services/otp"
	"codeberg.org/oliverandrich/hdnotes/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*repository.Repository, *otp.Engine, *testutil.Clock, *models.Account) {
	t.Helper()
	_, repo := testutil.NewTestDB(t)
	clock := testutil.NewClock(time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC))
	engine := otp.NewEngine(repo, otp.WithClock(clock.Now))
	acct := testutil.NewTestUser(t, repo, "jane@example.com")
	return repo, engine, clock, acct
}

func loadChallenge(t *testing.T, repo *repository.Repository) *models.Account {
	t.Helper()
	acct, err := repo.GetAccountByEmail(context.Background(), "jane@example.com", models.SecretOTP)
	require.NoError(t, err)
	return acct
}

func TestGenerate(t *testing.T) {
	for range 200 {
		code, err := otp.Generate()
		require.NoError(t, err)
		require.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 100000)
		assert.LessOrEqual(t, n, 999999)
	}
}

func TestIssue(t *testing.T) {
	repo, engine, clock, _ := setup(t)

	acct := loadChallenge(t, repo)
	code, err := engine.Issue(context.Background(), acct.ID)
	require.NoError(t, err)

	acct = loadChallenge(t, repo)
	require.True(t, acct.HasChallenge())
	assert.Equal(t, code, *acct.OTPCode)
	assert.WithinDuration(t, clock.Now().Add(otp.TTL), *acct.OTPExpiresAt, time.Millisecond)
}

func TestIssue_ReplacesPendingCode(t *testing.T) {
	repo, engine, _, acct := setup(t)
	ctx := context.Background()

	first, err := engine.Issue(ctx, acct.ID)
	require.NoError(t, err)
	second, err := engine.Issue(ctx, acct.ID)
	require.NoError(t, err)

	stored := loadChallenge(t, repo)
	assert.Equal(t, second, *stored.OTPCode)

	if first != second {
		assert.ErrorIs(t, engine.Verify(ctx, stored, first), otp.ErrMismatch)
	}
}

func TestIssue_UnknownUser(t *testing.T) {
	_, engine, _, _ := setup(t)

	_, err := engine.Issue(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestVerify_Success(t *testing.T) {
	repo, engine, _, acct := setup(t)
	ctx := context.Background()

	code, err := engine.Issue(ctx, acct.ID)
	require.NoError(t, err)

	challenged := loadChallenge(t, repo)
	require.NoError(t, engine.Verify(ctx, challenged, code))

	assert.True(t, challenged.IsEmailVerified)
	assert.False(t, challenged.HasChallenge())

	stored := loadChallenge(t, repo)
	assert.True(t, stored.IsEmailVerified)
	assert.Nil(t, stored.OTPCode)
	assert.Nil(t, stored.OTPExpiresAt)
}

func TestVerify_SecondCallHasNoChallenge(t *testing.T) {
	repo, engine, _, acct := setup(t)
	ctx := context.Background()

	code, err := engine.Issue(ctx, acct.ID)
	require.NoError(t, err)
	require.NoError(t, engine.Verify(ctx, loadChallenge(t, repo), code))

	assert.ErrorIs(t, engine.Verify(ctx, loadChallenge(t, repo), code), otp.ErrNoChallenge)
}

func TestVerify_NoChallenge(t *testing.T) {
	repo, engine, _, _ := setup(t)

	err := engine.Verify(context.Background(), loadChallenge(t, repo), "123456")
	assert.ErrorIs(t, err, otp.ErrNoChallenge)
}

func TestVerify_Expired(t *testing.T) {
	repo, engine, clock, acct := setup(t)
	ctx := context.Background()

	code, err := engine.Issue(ctx, acct.ID)
	require.NoError(t, err)

	clock.Advance(otp.TTL + time.Second)

	challenged := loadChallenge(t, repo)
	assert.ErrorIs(t, engine.Verify(ctx, challenged, code), otp.ErrExpired)
	assert.False(t, loadChallenge(t, repo).IsEmailVerified)
}

func TestVerify_AtExpiryBoundary(t *testing.T) {
	repo, engine, clock, acct := setup(t)
	ctx := context.Background()

	code, err := engine.Issue(ctx, acct.ID)
	require.NoError(t, err)

	clock.Advance(otp.TTL)

	assert.NoError(t, engine.Verify(ctx, loadChallenge(t, repo), code))
}

func TestVerify_Mismatch(t *testing.T) {
	repo, engine, _, acct := setup(t)
	ctx := context.Background()

	code, err := engine.Issue(ctx, acct.ID)
	require.NoError(t, err)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	challenged := loadChallenge(t, repo)
	assert.ErrorIs(t, engine.Verify(ctx, challenged, wrong), otp.ErrMismatch)
	assert.ErrorIs(t, engine.Verify(ctx, challenged, " "+code), otp.ErrMismatch)

	// challenge survives a mismatch
	assert.NoError(t, engine.Verify(ctx, loadChallenge(t, repo), code))
}

func TestVerify_ExpiredTakesPrecedenceOverMismatch(t *testing.T) {
	repo, engine, clock, acct := setup(t)
	ctx := context.Background()

	_, err := engine.Issue(ctx, acct.ID)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	assert.ErrorIs(t, engine.Verify(ctx, loadChallenge(t, repo), "not-a-code"), otp.ErrExpired)
}
