package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/clock"
	"github.com/senyabanana/sealed-bid-service/internal/models"
	"github.com/senyabanana/sealed-bid-service/internal/sealing"

	"github.com/charmbracelet/log"
)

const bidder = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

var (
	now        = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	errBackend = errors.New("backend unavailable")
)

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func activeAuction() models.Auction {
	return models.Auction{
		ID:          "auction-1",
		Title:       "Genesis Cipher #001",
		StartingBid: 0.5,
		StartTime:   now.Add(-time.Hour),
		EndTime:     now.Add(time.Hour),
	}
}

// gate блокирует вызов, пока тест не отпустит его. entered закрывается при первом входе.
type gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

// wait ждёт release и не смотрит на ctx, как бэкенд, который игнорирует отмену.
func (g *gate) wait() {
	g.once.Do(func() { close(g.entered) })
	<-g.release
}

type fakeCommitter struct {
	gate  *gate
	err   error
	calls atomic.Int32
}

func (c *fakeCommitter) Commit(ctx context.Context, amount float64) (sealing.Commitment, error) {
	n := c.calls.Add(1)
	if c.gate != nil {
		c.gate.wait()
	}
	if c.err != nil {
		return "", c.err
	}
	return sealing.Commitment(fmt.Sprintf("commitment-%d-%s-padding", n, sealing.FormatAmount(amount))), nil
}

type fakeAttestor struct{}

func (fakeAttestor) Attest(ctx context.Context, commitment sealing.Commitment, identity string) (sealing.Attestation, error) {
	return sealing.Attestation("attestation:" + string(commitment) + ":" + identity), nil
}

type fakeSubmitter struct {
	mu        sync.Mutex
	gate      *gate
	errs      []error
	calls     int
	withdrawn []string
}

func (s *fakeSubmitter) Submit(ctx context.Context, auctionId string, commitment sealing.Commitment, attestation sealing.Attestation, bidder string) (*Receipt, error) {
	s.mu.Lock()
	s.calls++
	var err error
	if len(s.errs) > 0 {
		err, s.errs = s.errs[0], s.errs[1:]
	}
	g := s.gate
	s.mu.Unlock()

	if g != nil {
		g.wait()
	}
	if err != nil {
		return nil, err
	}
	return &Receipt{BidID: fmt.Sprintf("bid-%d", s.calls), AcceptedAt: now}, nil
}

func (s *fakeSubmitter) Withdraw(ctx context.Context, auctionId, bidId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.withdrawn = append(s.withdrawn, bidId)
	return nil
}

func (s *fakeSubmitter) withdrawnBids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.withdrawn...)
}

type fakeCounter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
	// failures - сколько первых вызовов завершатся ошибкой err.
	failures int
	gate     *gate
}

func (c *fakeCounter) IncrementEncryptedBids(ctx context.Context, auctionId, bidId string) (int, error) {
	if c.gate != nil {
		c.gate.wait()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil && c.failures != 0 {
		c.failures--
		return 0, c.err
	}
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[auctionId]++
	return c.counts[auctionId], nil
}

func (c *fakeCounter) count(auctionId string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[auctionId]
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.BidPlacedEvent
	err    error
}

func (p *recordingPublisher) PublishBidPlaced(ctx context.Context, event models.BidPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type sessionFixture struct {
	session   *BidSession
	committer *fakeCommitter
	submitter *fakeSubmitter
	counter   *fakeCounter
	clock     *clock.FixedClock
	closed    atomic.Int32
}

func newSessionFixture(auction models.Auction) *sessionFixture {
	f := &sessionFixture{
		committer: &fakeCommitter{},
		submitter: &fakeSubmitter{},
		counter:   &fakeCounter{},
		clock:     clock.NewFixedClock(now),
	}
	f.session = NewBidSession("session-1", auction, bidder, SessionDeps{
		Committer: f.committer,
		Attestor:  fakeAttestor{},
		Submitter: f.submitter,
		Counter:   f.counter,
		Clock:     f.clock,
	}, func(*BidSession) { f.closed.Add(1) })
	return f
}
