package services

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/clock"
	"github.com/senyabanana/sealed-bid-service/internal/lock"
	"github.com/senyabanana/sealed-bid-service/internal/models"
	"github.com/senyabanana/sealed-bid-service/internal/repository"
	"github.com/senyabanana/sealed-bid-service/internal/sealing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const defaultSessionTTL = 15 * time.Minute

// SessionService владеет сессиями ставок: не больше одной живой сессии на пару аукцион/участник.
type SessionService struct {
	Repo      repository.AuctionRepository
	Committer sealing.Committer
	Attestor  sealing.Attestor
	Submitter Submitter
	Locker    lock.Locker
	Clock     clock.Clock
	TTL       time.Duration
	Logger    *log.Logger

	mu       sync.Mutex
	sessions map[string]*BidSession
}

// NewSessionService создаёт новый экземпляр SessionService.
func NewSessionService(repo repository.AuctionRepository, committer sealing.Committer, attestor sealing.Attestor, submitter Submitter, locker lock.Locker, ttl time.Duration, logger *log.Logger) *SessionService {
	if locker == nil {
		locker = lock.NewMemoryLocker()
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &SessionService{
		Repo:      repo,
		Committer: committer,
		Attestor:  attestor,
		Submitter: submitter,
		Locker:    locker,
		Clock:     clock.SystemClock{},
		TTL:       ttl,
		Logger:    logger,
		sessions:  make(map[string]*BidSession),
	}
}

func sessionLockKey(auctionId, bidder string) string {
	return auctionId + ":" + bidder
}

// OpenSession открывает сессию ставки для активного аукциона.
func (s *SessionService) OpenSession(ctx context.Context, auctionId, bidder string) (*models.SessionView, error) {
	if bidder == "" {
		return nil, &models.AttestationError{Message: "wallet address is required to place a bid"}
	}

	auction, err := s.Repo.GetAuction(ctx, auctionId)
	if err != nil {
		return nil, err
	}
	if auction.StatusAt(s.Clock.Now()) != models.ActiveAuction {
		return nil, &models.StateError{Op: "open", State: models.IdleSession, Err: models.ErrAuctionNotActive}
	}

	if err := s.evictExpired(auctionId, bidder); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	acquired, err := s.Locker.Acquire(ctx, sessionLockKey(auctionId, bidder), id, s.TTL)
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !acquired {
		return nil, models.ErrSessionExists
	}

	session := NewBidSession(id, *auction, bidder, SessionDeps{
		Committer: s.Committer,
		Attestor:  s.Attestor,
		Submitter: s.Submitter,
		Counter:   s.Repo,
		Clock:     s.Clock,
	}, s.release)

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	s.Logger.Info("bid session opened", "session", id, "auction", auctionId, "bidder", bidder)
	view := session.View()
	return &view, nil
}

// GetSession возвращает сессию, если она принадлежит bidder.
func (s *SessionService) GetSession(ctx context.Context, sessionId, bidder string) (*models.SessionView, error) {
	session, err := s.lookup(sessionId, bidder)
	if err != nil {
		return nil, err
	}
	view := session.View()
	return &view, nil
}

// EncryptBid шифрует ставку в сессии.
func (s *SessionService) EncryptBid(ctx context.Context, sessionId, bidder, rawAmount string) (*models.SessionView, error) {
	session, err := s.lookup(sessionId, bidder)
	if err != nil {
		return nil, err
	}
	s.renewLock(ctx, session)
	if err := session.Encrypt(ctx, rawAmount); err != nil {
		s.Logger.Debug("encrypt bid failed", "session", sessionId, "err", err)
		return nil, err
	}
	view := session.View()
	return &view, nil
}

// SubmitBid отправляет зашифрованную ставку.
func (s *SessionService) SubmitBid(ctx context.Context, sessionId, bidder string) (*models.SessionView, error) {
	session, err := s.lookup(sessionId, bidder)
	if err != nil {
		return nil, err
	}
	s.renewLock(ctx, session)
	receipt, err := session.Submit(ctx)
	if err != nil {
		s.Logger.Warn("submit bid failed", "session", sessionId, "auction", session.AuctionID, "err", err)
		return nil, err
	}
	s.Logger.Info("encrypted bid accepted", "session", sessionId, "auction", session.AuctionID, "bid", receipt.BidID)
	view := session.View()
	return &view, nil
}

// CloseSession отменяет сессию.
func (s *SessionService) CloseSession(ctx context.Context, sessionId, bidder string) error {
	session, err := s.lookup(sessionId, bidder)
	if err != nil {
		return err
	}
	session.Close()
	return nil
}

// Reap закрывает сессии старше TTL и возвращает их количество.
func (s *SessionService) Reap(now time.Time) int {
	s.mu.Lock()
	var expired []*BidSession
	for _, session := range s.sessions {
		if now.Sub(session.CreatedAt) >= s.TTL {
			expired = append(expired, session)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		session.Close()
	}
	return len(expired)
}

// RunReaper периодически закрывает просроченные сессии, пока ctx не отменён.
func (s *SessionService) RunReaper(ctx context.Context, interval time.Duration) {
	clock.Every(ctx, interval, func(time.Time) bool {
		if n := s.Reap(s.Clock.Now()); n > 0 {
			s.Logger.Info("expired bid sessions closed", "count", n)
		}
		return true
	})
}

// ActiveSessions возвращает количество живых сессий.
func (s *SessionService) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *SessionService) lookup(sessionId, bidder string) (*BidSession, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionId]
	s.mu.Unlock()
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	if session.Bidder != bidder {
		return nil, models.NewErrorResponse(http.StatusForbidden, "bid session belongs to another participant")
	}
	return session, nil
}

// evictExpired закрывает просроченную сессию той же пары аукцион/участник, не дожидаясь reaper.
// Живая сессия даёт ErrSessionExists, даже если срок блокировки уже истёк.
func (s *SessionService) evictExpired(auctionId, bidder string) error {
	s.mu.Lock()
	var existing *BidSession
	for _, session := range s.sessions {
		if session.AuctionID == auctionId && session.Bidder == bidder {
			existing = session
			break
		}
	}
	s.mu.Unlock()
	if existing == nil {
		return nil
	}
	if s.Clock.Now().Sub(existing.CreatedAt) < s.TTL {
		return models.ErrSessionExists
	}

	existing.Close()
	if state := existing.State(); state != models.ClosedSession && state != models.SubmittedSession {
		return models.ErrSessionExists
	}
	s.Logger.Info("expired bid session closed", "session", existing.ID, "auction", auctionId)
	return nil
}

// renewLock продлевает блокировку сессии, чтобы она не истекла раньше самой сессии.
func (s *SessionService) renewLock(ctx context.Context, session *BidSession) {
	ok, err := s.Locker.Acquire(ctx, sessionLockKey(session.AuctionID, session.Bidder), session.ID, s.TTL)
	if err != nil {
		s.Logger.Warn("failed to renew session lock", "session", session.ID, "err", err)
		return
	}
	if !ok {
		s.Logger.Warn("session lock is held by another session", "session", session.ID)
	}
}

func (s *SessionService) release(session *BidSession) {
	s.mu.Lock()
	delete(s.sessions, session.ID)
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Locker.Release(ctx, sessionLockKey(session.AuctionID, session.Bidder), session.ID); err != nil {
		s.Logger.Error("failed to release session lock", "session", session.ID, "err", err)
	}
}
