package settlement

import (
	"context"
	"sync"

	id "deedbook/pkg/domain"
	"deedbook/pkg/platform/sentinel"
	"deedbook/pkg/requestcontext"
)

// InMemoryBank settles transfers against in-process account balances. It
// stands in for the external payment rail in dev mode and tests.
//
// Settle debits the attached value and credits amount to the seller and the
// refund back to the buyer under one lock, so a concurrent observer never
// sees the escrowed middle state.
type InMemoryBank struct {
	mu       sync.Mutex
	balances map[id.AccountID]uint64
	opening  uint64
	seen     map[id.AccountID]bool
}

// BankOption configures an InMemoryBank.
type BankOption func(*InMemoryBank)

// WithOpeningBalance credits every account the first time it is touched.
// Dev-mode faucet so fresh accounts can transact.
func WithOpeningBalance(amount uint64) BankOption {
	return func(b *InMemoryBank) {
		b.opening = amount
	}
}

func NewInMemoryBank(opts ...BankOption) *InMemoryBank {
	b := &InMemoryBank{
		balances: make(map[id.AccountID]uint64),
		seen:     make(map[id.AccountID]bool),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// touch applies the opening balance on first contact. Callers hold b.mu.
func (b *InMemoryBank) touch(account id.AccountID) {
	if !b.seen[account] {
		b.seen[account] = true
		b.balances[account] += b.opening
	}
}

// Deposit credits an account. Test and dev seeding only.
func (b *InMemoryBank) Deposit(account id.AccountID, amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touch(account)
	b.balances[account] += amount
}

// Balance returns the current balance of an account.
func (b *InMemoryBank) Balance(account id.AccountID) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.touch(account)
	return b.balances[account]
}

func (b *InMemoryBank) Settle(ctx context.Context, req TransferRequest) (*Receipt, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.touch(req.From)
	b.touch(req.To)
	if b.balances[req.From] < req.Attached {
		return nil, sentinel.ErrInsufficientFunds
	}
	// Self-purchase settles as a zero-sum transfer; no special case.
	b.balances[req.From] -= req.Attached
	b.balances[req.To] += req.Amount
	b.balances[req.From] += req.Attached - req.Amount

	return NewReceipt(req, requestcontext.Now(ctx)), nil
}
