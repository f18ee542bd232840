package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/senyabanana/sealed-bid-service/internal/clock"
	"github.com/senyabanana/sealed-bid-service/internal/models"
	"github.com/senyabanana/sealed-bid-service/internal/sealing"
)

const counterTimeout = 5 * time.Second

var errArtifactsMissing = errors.New("encrypt your bid first")

// BidCounter увеличивает счётчик зашифрованных ставок аукциона.
type BidCounter interface {
	IncrementEncryptedBids(ctx context.Context, auctionId, bidId string) (int, error)
}

// BidSession - одна попытка отправить ставку.
//
//	idle -> encrypting -> encrypted -> submitting -> submitted
//	encrypting -> failed (можно повторить Encrypt)
//	submitting -> encrypted (артефакты сохранены, можно повторить Submit)
//	любое состояние -> closed
//
// Мьютекс держится только на переходах. Долгие вызовы бэкендов идут без него,
// а их результат применяется, только если эпоха сессии не изменилась.
type BidSession struct {
	ID        string
	AuctionID string
	Bidder    string
	CreatedAt time.Time

	auction   models.Auction
	committer sealing.Committer
	attestor  sealing.Attestor
	submitter Submitter
	counter   BidCounter
	clock     clock.Clock
	onClose   func(*BidSession)

	mu          sync.Mutex
	state       models.SessionState
	epoch       uint64
	amount      float64
	hasAmount   bool
	commitment  sealing.Commitment
	attestation sealing.Attestation
	lastErr     error
	bidID       string
	updatedAt   time.Time

	// receipt - квитанция получателя, ещё не учтённая в счётчике.
	receipt        *Receipt
	counting       bool
	closeRequested bool

	ctx    context.Context
	cancel context.CancelFunc
}

// SessionDeps - зависимости сессии, подменяемые в тестах.
type SessionDeps struct {
	Committer sealing.Committer
	Attestor  sealing.Attestor
	Submitter Submitter
	Counter   BidCounter
	Clock     clock.Clock
}

// NewBidSession создаёт сессию в состоянии idle для снимка аукциона.
func NewBidSession(id string, auction models.Auction, bidder string, deps SessionDeps, onClose func(*BidSession)) *BidSession {
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	now := deps.Clock.Now()
	return &BidSession{
		ID:        id,
		AuctionID: auction.ID,
		Bidder:    bidder,
		CreatedAt: now,
		auction:   auction,
		committer: deps.Committer,
		attestor:  deps.Attestor,
		submitter: deps.Submitter,
		counter:   deps.Counter,
		clock:     deps.Clock,
		onClose:   onClose,
		state:     models.IdleSession,
		updatedAt: now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// State возвращает текущее состояние.
func (s *BidSession) State() models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Artifacts возвращает Commitment и Attestation, если они уже получены.
func (s *BidSession) Artifacts() (sealing.Commitment, sealing.Attestation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commitment, s.attestation
}

// View возвращает снимок сессии для клиента.
func (s *BidSession) View() models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := models.SessionView{
		ID:             s.ID,
		AuctionID:      s.AuctionID,
		Bidder:         s.Bidder,
		State:          s.state,
		AmountEditable: s.state == models.IdleSession || s.state == models.FailedSession,
		BidID:          s.bidID,
		UpdatedAt:      s.updatedAt,
	}
	if s.hasAmount {
		view.Amount = sealing.FormatAmount(s.amount)
	}
	if s.commitment != "" {
		view.Commitment = sealing.DisplayCommitment(s.commitment)
	}
	if s.lastErr != nil {
		view.Error = s.lastErr.Error()
	}
	return view
}

// Encrypt проверяет сумму, строит Commitment и Attestation.
// Ошибка валидации оставляет сессию в idle. Повторный вызов во время шифрования или после него отклоняется.
func (s *BidSession) Encrypt(ctx context.Context, rawAmount string) error {
	s.mu.Lock()
	switch s.state {
	case models.IdleSession, models.FailedSession:
	default:
		err := s.stateErrorLocked("encrypt", nil)
		s.mu.Unlock()
		return err
	}
	if err := s.checkActiveLocked("encrypt"); err != nil {
		s.mu.Unlock()
		return err
	}

	amount, err := sealing.ParseAmount(rawAmount)
	if err == nil {
		err = sealing.ValidateAmount(amount, s.auction.StartingBid)
	}
	if err != nil {
		s.state = models.IdleSession
		s.lastErr = err
		s.touchLocked()
		s.mu.Unlock()
		return err
	}

	s.state = models.EncryptingSession
	s.amount, s.hasAmount = amount, true
	s.lastErr = nil
	s.epoch++
	epoch := s.epoch
	s.touchLocked()
	s.mu.Unlock()

	opCtx, release := s.operationContext(ctx)
	commitment, err := s.committer.Commit(opCtx, amount)
	var attestation sealing.Attestation
	if err == nil {
		attestation, err = s.attestor.Attest(opCtx, commitment, s.Bidder)
	}
	release()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || s.state != models.EncryptingSession {
		return models.ErrSessionClosed
	}
	if err != nil {
		s.state = models.FailedSession
		s.lastErr = err
		s.touchLocked()
		return err
	}

	s.commitment = commitment
	s.attestation = attestation
	s.state = models.EncryptedSession
	s.touchLocked()
	return nil
}

// Submit отправляет артефакты получателю. После подтверждения счётчик аукциона растёт ровно на 1,
// и сессия закрывается. Повторный вызов во время отправки ничего не делает.
// Если получатель уже принял ставку, а счётчик не обновился, повтор использует ту же квитанцию.
func (s *BidSession) Submit(ctx context.Context) (*Receipt, error) {
	s.mu.Lock()
	switch s.state {
	case models.EncryptedSession:
	case models.SubmittingSession:
		s.mu.Unlock()
		return nil, models.ErrSubmitInFlight
	default:
		err := s.stateErrorLocked("submit", nil)
		s.mu.Unlock()
		return nil, err
	}
	if s.commitment == "" || s.attestation == "" {
		err := s.stateErrorLocked("submit", errArtifactsMissing)
		s.mu.Unlock()
		return nil, err
	}
	if err := s.checkActiveLocked("submit"); err != nil {
		s.mu.Unlock()
		return nil, err
	}

	s.state = models.SubmittingSession
	s.lastErr = nil
	s.epoch++
	epoch := s.epoch
	commitment, attestation := s.commitment, s.attestation
	receipt := s.receipt
	s.counting = receipt != nil
	s.touchLocked()
	s.mu.Unlock()

	if receipt == nil {
		opCtx, release := s.operationContext(ctx)
		acked, err := s.submitter.Submit(opCtx, s.AuctionID, commitment, attestation, s.Bidder)
		release()
		if err == nil && acked == nil {
			err = errors.New("submission not acknowledged")
		}

		s.mu.Lock()
		if s.epoch != epoch || s.state != models.SubmittingSession {
			s.mu.Unlock()
			if err == nil {
				s.withdraw(acked)
			}
			return nil, models.ErrSessionClosed
		}
		if err != nil {
			s.state = models.EncryptedSession
			s.lastErr = &models.SubmissionError{AuctionID: s.AuctionID, Err: err}
			s.touchLocked()
			err = s.lastErr
			s.mu.Unlock()
			return nil, err
		}
		s.receipt = acked
		s.counting = true
		receipt = acked
		s.mu.Unlock()
	}

	// Пока идёт подсчёт, Close только откладывается: принятая ставка либо учитывается, либо отзывается.
	counterCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), counterTimeout)
	_, err := s.counter.IncrementEncryptedBids(counterCtx, s.AuctionID, receipt.BidID)
	cancel()

	s.mu.Lock()
	s.counting = false
	closeRequested := s.closeRequested
	s.closeRequested = false
	if err != nil {
		s.state = models.EncryptedSession
		s.lastErr = &models.SubmissionError{AuctionID: s.AuctionID, Err: err}
		s.touchLocked()
		err = s.lastErr
		s.mu.Unlock()
		if closeRequested {
			s.Close()
			return nil, models.ErrSessionClosed
		}
		return nil, err
	}

	s.state = models.SubmittedSession
	s.bidID = receipt.BidID
	s.receipt = nil
	s.epoch++
	s.touchLocked()
	s.cancel()
	s.mu.Unlock()

	s.finish()
	return receipt, nil
}

// Close отменяет сессию. Поздние результаты шифрования и отправки будут проигнорированы,
// а принятая, но не учтённая ставка отзывается. Во время подсчёта закрытие откладывается до его завершения.
func (s *BidSession) Close() {
	s.mu.Lock()
	if s.state == models.ClosedSession || s.state == models.SubmittedSession {
		s.mu.Unlock()
		return
	}
	if s.counting {
		s.closeRequested = true
		s.mu.Unlock()
		return
	}
	receipt := s.receipt
	s.state = models.ClosedSession
	s.epoch++
	s.commitment, s.attestation = "", ""
	s.receipt = nil
	s.hasAmount = false
	s.lastErr = nil
	s.touchLocked()
	s.cancel()
	s.mu.Unlock()

	if receipt != nil {
		s.withdraw(receipt)
	}
	s.finish()
}

// withdraw отзывает ставку, которую получатель принял, но счётчик так и не учёл.
// Ошибки логирует сам Submitter.
func (s *BidSession) withdraw(receipt *Receipt) {
	ctx, cancel := context.WithTimeout(context.Background(), counterTimeout)
	defer cancel()
	_ = s.submitter.Withdraw(ctx, s.AuctionID, receipt.BidID)
}

func (s *BidSession) finish() {
	if s.onClose != nil {
		s.onClose(s)
	}
}

// operationContext отменяется и запросом вызывающего, и закрытием сессии.
func (s *BidSession) operationContext(ctx context.Context) (context.Context, func()) {
	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

func (s *BidSession) checkActiveLocked(op string) error {
	if s.auction.StatusAt(s.clock.Now()) != models.ActiveAuction {
		return s.stateErrorLocked(op, models.ErrAuctionNotActive)
	}
	return nil
}

func (s *BidSession) stateErrorLocked(op string, err error) error {
	if err == nil && s.state == models.ClosedSession {
		err = models.ErrSessionClosed
	}
	return &models.StateError{Op: op, State: s.state, Err: err}
}

func (s *BidSession) touchLocked() {
	s.updatedAt = s.clock.Now()
}
