package events

import (
	"context"
	"sync"

	"matcharena/models"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange     EventType = "balance_change"
	EventTypeUserCreated       EventType = "user_created"
	EventTypeNewMatch          EventType = "new_match"
	EventTypeMatchJoined       EventType = "match_joined"
	EventTypeResultSubmitted   EventType = "result_submitted"
	EventTypeMatchSettled      EventType = "match_settled"
	EventTypeMatchDeleted      EventType = "match_deleted"
	EventTypeDepositHandled    EventType = "deposit_handled"
	EventTypeWithdrawalHandled EventType = "withdrawal_handled"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UID             string
	OldBalance      int64
	NewBalance      int64
	TransactionType models.TransactionType
	ChangeAmount    int64
}

func (e BalanceChangeEvent) Type() EventType { return EventTypeBalanceChange }

// UserCreatedEvent represents a new user creation
type UserCreatedEvent struct {
	UID            string
	Username       string
	InitialBalance int64
}

func (e UserCreatedEvent) Type() EventType { return EventTypeUserCreated }

// NewMatchEvent announces a freshly created open match
type NewMatchEvent struct {
	MatchID  string
	Title    string
	GameType models.GameType
	EntryFee int64
	Creator  string
}

func (e NewMatchEvent) Type() EventType { return EventTypeNewMatch }

// MatchJoinedEvent represents a player joining a match
type MatchJoinedEvent struct {
	MatchID     string
	UID         string
	PlayerCount int
	Full        bool
}

func (e MatchJoinedEvent) Type() EventType { return EventTypeMatchJoined }

// ResultSubmittedEvent represents a player submitting proof of a result
type ResultSubmittedEvent struct {
	MatchID     string
	UID         string
	NewStatus   models.MatchStatus
	Submissions int
}

func (e ResultSubmittedEvent) Type() EventType { return EventTypeResultSubmitted }

// MatchSettledEvent represents a completed settlement
type MatchSettledEvent struct {
	MatchID    string
	WinnerUID  string
	PrizePool  int64
	Commission int64
	Payout     int64
}

func (e MatchSettledEvent) Type() EventType { return EventTypeMatchSettled }

// MatchDeletedEvent represents a match removal, with or without refunds
type MatchDeletedEvent struct {
	MatchID  string
	Refunded bool
}

func (e MatchDeletedEvent) Type() EventType { return EventTypeMatchDeleted }

// DepositHandledEvent represents an admin decision on a deposit
type DepositHandledEvent struct {
	DepositID string
	UserID    string
	Amount    int64
	Approved  bool
	HandledBy string
}

func (e DepositHandledEvent) Type() EventType { return EventTypeDepositHandled }

// WithdrawalHandledEvent represents an admin decision on a withdrawal
type WithdrawalHandledEvent struct {
	WithdrawalID string
	UserID       string
	Amount       int64
	Approved     bool
	HandledBy    string
}

func (e WithdrawalHandledEvent) Type() EventType { return EventTypeWithdrawalHandled }

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit publishes an event to all registered handlers. Handlers run
// asynchronously so a slow subscriber never blocks the caller.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stages events alongside a unit of work and only
// hands them to the real bus once the transaction has committed.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stages an event until Flush or Discard.
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits all staged events. Called after a successful commit.
// Emission uses a background context because the transaction's
// context may already be done by the time handlers run.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops staged events. Called after rollback.
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
