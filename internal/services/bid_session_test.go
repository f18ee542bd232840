package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEntered(t *testing.T, g *gate) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(time.Second):
		require.FailNow(t, "backend was not called")
	}
}

func TestBidSessionEncryptAndSubmit(t *testing.T) {
	f := newSessionFixture(activeAuction())
	ctx := context.Background()

	require.NoError(t, f.session.Encrypt(ctx, "1.2"))
	assert.Equal(t, models.EncryptedSession, f.session.State())

	view := f.session.View()
	assert.Equal(t, "1.2", view.Amount)
	assert.False(t, view.AmountEditable)
	assert.Contains(t, view.Commitment, "🔒 ")
	assert.Empty(t, view.Error)

	receipt, err := f.session.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bid-1", receipt.BidID)
	assert.Equal(t, models.SubmittedSession, f.session.State())
	assert.Equal(t, 1, f.counter.count("auction-1"))
	assert.Equal(t, int32(1), f.closed.Load())
	assert.Equal(t, "bid-1", f.session.View().BidID)
}

func TestBidSessionRejectsAmountBelowFloor(t *testing.T) {
	f := newSessionFixture(activeAuction())

	err := f.session.Encrypt(context.Background(), "0.1")
	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, models.BelowFloor, verr.Constraint)
	assert.Equal(t, "bid must be at least 0.5 ETH", verr.Message)

	assert.Equal(t, models.IdleSession, f.session.State())
	view := f.session.View()
	assert.True(t, view.AmountEditable)
	assert.Equal(t, verr.Message, view.Error)
	assert.Zero(t, f.committer.calls.Load())
	assert.Zero(t, f.counter.count("auction-1"))

	require.NoError(t, f.session.Encrypt(context.Background(), "0.5"))
	assert.Equal(t, models.EncryptedSession, f.session.State())
	assert.Empty(t, f.session.View().Error)
}

func TestBidSessionRejectsNonNumeric(t *testing.T) {
	f := newSessionFixture(activeAuction())

	for _, raw := range []string{"", "abc", "-1"} {
		err := f.session.Encrypt(context.Background(), raw)
		var verr *models.ValidationError
		require.ErrorAs(t, err, &verr, raw)
		assert.Equal(t, models.IdleSession, f.session.State())
	}
}

func TestBidSessionEncryptOnlyOnce(t *testing.T) {
	f := newSessionFixture(activeAuction())
	require.NoError(t, f.session.Encrypt(context.Background(), "1"))

	err := f.session.Encrypt(context.Background(), "2")
	var serr *models.StateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, models.EncryptedSession, serr.State)
	assert.Equal(t, int32(1), f.committer.calls.Load())
}

func TestBidSessionSubmitRequiresArtifacts(t *testing.T) {
	f := newSessionFixture(activeAuction())

	_, err := f.session.Submit(context.Background())
	var serr *models.StateError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, models.IdleSession, serr.State)
	assert.Zero(t, f.submitter.calls)
}

func TestBidSessionCommitFailureIsRecoverable(t *testing.T) {
	f := newSessionFixture(activeAuction())
	f.committer.err = errBackend

	err := f.session.Encrypt(context.Background(), "1.2")
	require.ErrorIs(t, err, errBackend)
	assert.Equal(t, models.FailedSession, f.session.State())
	assert.True(t, f.session.View().AmountEditable)

	f.committer.err = nil
	require.NoError(t, f.session.Encrypt(context.Background(), "1.2"))
	assert.Equal(t, models.EncryptedSession, f.session.State())
}

func TestBidSessionSubmitFailureKeepsArtifacts(t *testing.T) {
	f := newSessionFixture(activeAuction())
	f.submitter.errs = []error{errBackend}
	require.NoError(t, f.session.Encrypt(context.Background(), "1.2"))
	commitment, attestation := f.session.Artifacts()

	_, err := f.session.Submit(context.Background())
	var subErr *models.SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, models.EncryptedSession, f.session.State())
	assert.Zero(t, f.counter.count("auction-1"))

	c, a := f.session.Artifacts()
	assert.Equal(t, commitment, c)
	assert.Equal(t, attestation, a)

	_, err = f.session.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.counter.count("auction-1"))
	assert.Equal(t, int32(1), f.committer.calls.Load())
}

func TestBidSessionCounterFailureIsSubmissionError(t *testing.T) {
	f := newSessionFixture(activeAuction())
	f.counter.err, f.counter.failures = errBackend, 1
	require.NoError(t, f.session.Encrypt(context.Background(), "1.2"))

	_, err := f.session.Submit(context.Background())
	var subErr *models.SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, models.EncryptedSession, f.session.State())
	assert.Zero(t, f.closed.Load())

	receipt, err := f.session.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bid-1", receipt.BidID)
	assert.Equal(t, 1, f.submitter.calls)
	assert.Equal(t, 1, f.counter.count("auction-1"))
	assert.Empty(t, f.submitter.withdrawnBids())
	assert.Equal(t, "bid-1", f.session.View().BidID)
}

func TestBidSessionCloseAfterCounterFailureWithdrawsBid(t *testing.T) {
	f := newSessionFixture(activeAuction())
	f.counter.err, f.counter.failures = errBackend, 1
	require.NoError(t, f.session.Encrypt(context.Background(), "1.2"))

	_, err := f.session.Submit(context.Background())
	require.Error(t, err)

	f.session.Close()
	assert.Equal(t, models.ClosedSession, f.session.State())
	assert.Equal(t, []string{"bid-1"}, f.submitter.withdrawnBids())
	assert.Zero(t, f.counter.count("auction-1"))
	assert.Equal(t, int32(1), f.closed.Load())
}

func TestBidSessionCloseWhileCountingIsDeferred(t *testing.T) {
	f := newSessionFixture(activeAuction())
	require.NoError(t, f.session.Encrypt(context.Background(), "1.2"))
	g := newGate()
	f.counter.gate = g

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Submit(context.Background())
		done <- err
	}()
	waitEntered(t, g)

	f.session.Close()
	assert.Equal(t, models.SubmittingSession, f.session.State())
	assert.Zero(t, f.closed.Load())

	close(g.release)
	require.NoError(t, <-done)
	assert.Equal(t, models.SubmittedSession, f.session.State())
	assert.Equal(t, 1, f.counter.count("auction-1"))
	assert.Empty(t, f.submitter.withdrawnBids())
	assert.Equal(t, int32(1), f.closed.Load())
}

func TestBidSessionCloseWhileCountingFailsWithdrawsBid(t *testing.T) {
	f := newSessionFixture(activeAuction())
	require.NoError(t, f.session.Encrypt(context.Background(), "1.2"))
	g := newGate()
	f.counter.gate = g
	f.counter.err, f.counter.failures = errBackend, 1

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Submit(context.Background())
		done <- err
	}()
	waitEntered(t, g)

	f.session.Close()
	close(g.release)

	assert.ErrorIs(t, <-done, models.ErrSessionClosed)
	assert.Equal(t, models.ClosedSession, f.session.State())
	assert.Equal(t, []string{"bid-1"}, f.submitter.withdrawnBids())
	assert.Equal(t, int32(1), f.closed.Load())
}

func TestBidSessionViewDuringCounting(t *testing.T) {
	f := newSessionFixture(activeAuction())
	require.NoError(t, f.session.Encrypt(context.Background(), "1.2"))
	g := newGate()
	f.counter.gate = g

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Submit(context.Background())
		done <- err
	}()
	waitEntered(t, g)

	viewed := make(chan models.SessionView, 1)
	go func() { viewed <- f.session.View() }()
	select {
	case view := <-viewed:
		assert.Equal(t, models.SubmittingSession, view.State)
	case <-time.After(time.Second):
		require.FailNow(t, "session is locked while the counter is running")
	}

	close(g.release)
	require.NoError(t, <-done)
}

func TestBidSessionSubmitInFlightIsRejected(t *testing.T) {
	f := newSessionFixture(activeAuction())
	require.NoError(t, f.session.Encrypt(context.Background(), "1.2"))
	g := newGate()
	f.submitter.gate = g

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Submit(context.Background())
		done <- err
	}()
	waitEntered(t, g)

	assert.Equal(t, models.SubmittingSession, f.session.State())
	_, err := f.session.Submit(context.Background())
	assert.ErrorIs(t, err, models.ErrSubmitInFlight)

	close(g.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.counter.count("auction-1"))
	assert.Equal(t, 1, f.submitter.calls)
}

func TestBidSessionCloseDuringEncryptDiscardsResult(t *testing.T) {
	f := newSessionFixture(activeAuction())
	g := newGate()
	f.committer.gate = g

	done := make(chan error, 1)
	go func() { done <- f.session.Encrypt(context.Background(), "1.2") }()
	waitEntered(t, g)

	f.session.Close()
	close(g.release)

	assert.ErrorIs(t, <-done, models.ErrSessionClosed)
	assert.Equal(t, models.ClosedSession, f.session.State())
	c, a := f.session.Artifacts()
	assert.Empty(t, c)
	assert.Empty(t, a)
	assert.Empty(t, f.session.View().Error)
	assert.Equal(t, int32(1), f.closed.Load())
}

func TestBidSessionCloseDuringSubmitDoesNotCount(t *testing.T) {
	f := newSessionFixture(activeAuction())
	require.NoError(t, f.session.Encrypt(context.Background(), "1.2"))
	g := newGate()
	f.submitter.gate = g

	done := make(chan error, 1)
	go func() {
		_, err := f.session.Submit(context.Background())
		done <- err
	}()
	waitEntered(t, g)

	f.session.Close()
	close(g.release)

	assert.ErrorIs(t, <-done, models.ErrSessionClosed)
	assert.Equal(t, models.ClosedSession, f.session.State())
	assert.Zero(t, f.counter.count("auction-1"))
	assert.Equal(t, []string{"bid-1"}, f.submitter.withdrawnBids())
}

func TestBidSessionCloseIsIdempotent(t *testing.T) {
	f := newSessionFixture(activeAuction())

	f.session.Close()
	f.session.Close()
	assert.Equal(t, int32(1), f.closed.Load())

	err := f.session.Encrypt(context.Background(), "1.2")
	var serr *models.StateError
	require.ErrorAs(t, err, &serr)
	assert.ErrorIs(t, err, models.ErrSessionClosed)
}

func TestBidSessionCloseAfterSubmitKeepsResult(t *testing.T) {
	f := newSessionFixture(activeAuction())
	require.NoError(t, f.session.Encrypt(context.Background(), "1.2"))
	_, err := f.session.Submit(context.Background())
	require.NoError(t, err)

	f.session.Close()
	assert.Equal(t, models.SubmittedSession, f.session.State())
	assert.Equal(t, int32(1), f.closed.Load())
}

func TestBidSessionRejectsEndedAuction(t *testing.T) {
	f := newSessionFixture(activeAuction())
	require.NoError(t, f.session.Encrypt(context.Background(), "1.2"))

	f.clock.Advance(2 * time.Hour)
	_, err := f.session.Submit(context.Background())
	require.ErrorIs(t, err, models.ErrAuctionNotActive)
	assert.Equal(t, models.EncryptedSession, f.session.State())
	assert.Zero(t, f.submitter.calls)

	other := newSessionFixture(activeAuction())
	other.clock.Advance(2 * time.Hour)
	assert.ErrorIs(t, other.session.Encrypt(context.Background(), "1.2"), models.ErrAuctionNotActive)
}

func TestBidSessionCallerCancellation(t *testing.T) {
	f := newSessionFixture(activeAuction())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f.committer.err = context.Canceled
	err := f.session.Encrypt(ctx, "1.2")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, models.FailedSession, f.session.State())
}

func TestBidSessionNoConcurrentCommitments(t *testing.T) {
	f := newSessionFixture(activeAuction())
	g := newGate()
	f.committer.gate = g

	done := make(chan error, 1)
	go func() { done <- f.session.Encrypt(context.Background(), "1.2") }()
	waitEntered(t, g)
	assert.Equal(t, models.EncryptingSession, f.session.State())

	var serr *models.StateError
	assert.ErrorAs(t, f.session.Encrypt(context.Background(), "2"), &serr)

	_, err := f.session.Submit(context.Background())
	assert.ErrorAs(t, err, &serr)
	assert.Zero(t, f.submitter.calls)

	close(g.release)
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), f.committer.calls.Load())
	assert.Equal(t, models.EncryptedSession, f.session.State())
}
