package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"deedbook/internal/audit"
	"deedbook/internal/property/models"
	"deedbook/internal/property/service"
	"deedbook/internal/property/store"
	"deedbook/internal/settlement"
	"deedbook/internal/settlement/mocks"
	"deedbook/internal/settlement/receipts"
	id "deedbook/pkg/domain"
	dErrors "deedbook/pkg/domain-errors"
)

const (
	alice = id.AccountID("alice")
	bob   = id.AccountID("bob")
	carol = id.AccountID("carol")
)

type ServiceSuite struct {
	suite.Suite
	ctx        context.Context
	ledger     *store.InMemoryLedger
	bank       *settlement.InMemoryBank
	auditStore *audit.InMemoryStore
	receipts   *receipts.InMemoryStore
	svc        *service.Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ledger = store.NewInMemoryLedger()
	s.bank = settlement.NewInMemoryBank()
	s.auditStore = audit.NewInMemoryStore()
	s.receipts = receipts.NewInMemoryStore()

	svc, err := service.New(s.ledger, s.bank,
		service.WithAuditPublisher(audit.NewPublisher(s.auditStore)),
		service.WithReceiptStore(s.receipts),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) register(owner id.AccountID) *models.Property {
	s.T().Helper()
	property, err := s.svc.Register(s.ctx, owner, models.Draft{
		Title:    "Beach House",
		Category: "residential",
		Address:  "1 Shore Rd",
		Price:    100,
	})
	s.Require().NoError(err)
	return property
}

func (s *ServiceSuite) TestRegister() {
	s.Run("ids are dense starting at one", func() {
		first := s.register(alice)
		second := s.register(bob)
		s.Equal(id.PropertyID(1), first.ID)
		s.Equal(id.PropertyID(2), second.ID)
	})

	s.Run("registration never lists", func() {
		property := s.register(alice)
		s.False(property.IsListed)
		s.Equal(alice, property.Owner)
	})

	s.Run("requires a caller", func() {
		_, err := s.svc.Register(s.ctx, "", models.Draft{})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("emits an operations audit event", func() {
		property := s.register(alice)
		events, err := s.auditStore.ListByProperty(s.ctx, property.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(audit.EventPropertyRegistered, events[0].Type)
		s.Equal(audit.CategoryOperations, events[0].Category)
		s.Equal(alice, events[0].Actor)
	})
}

func (s *ServiceSuite) TestList() {
	s.Run("owner lists at a new price", func() {
		property := s.register(alice)

		listed, err := s.svc.List(s.ctx, alice, property.ID, 250)
		s.Require().NoError(err)
		s.True(listed.IsListed)
		s.Equal(uint64(250), listed.Price)
	})

	s.Run("non-owner is rejected", func() {
		property := s.register(alice)

		_, err := s.svc.List(s.ctx, bob, property.ID, 250)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

		found, err := s.svc.Get(s.ctx, property.ID)
		s.Require().NoError(err)
		s.False(found.IsListed)
	})

	s.Run("re-listing updates the price", func() {
		property := s.register(alice)
		_, err := s.svc.List(s.ctx, alice, property.ID, 250)
		s.Require().NoError(err)

		listed, err := s.svc.List(s.ctx, alice, property.ID, 300)
		s.Require().NoError(err)
		s.True(listed.IsListed)
		s.Equal(uint64(300), listed.Price)
	})

	s.Run("unknown property is not found", func() {
		_, err := s.svc.List(s.ctx, alice, 999, 250)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("listing at zero price is allowed", func() {
		property := s.register(alice)
		listed, err := s.svc.List(s.ctx, alice, property.ID, 0)
		s.Require().NoError(err)
		s.True(listed.IsListed)
		s.Zero(listed.Price)
	})
}

func (s *ServiceSuite) TestBuy() {
	s.Run("transfers ownership, delists, settles and refunds excess", func() {
		property := s.register(alice)
		_, err := s.svc.List(s.ctx, alice, property.ID, 250)
		s.Require().NoError(err)
		s.bank.Deposit(bob, 400)

		bought, receipt, err := s.svc.Buy(s.ctx, bob, property.ID, 400)
		s.Require().NoError(err)

		s.Equal(bob, bought.Owner)
		s.False(bought.IsListed)
		s.Equal(uint64(250), receipt.Amount)
		s.Equal(uint64(150), receipt.Refund)
		s.Equal(uint64(150), s.bank.Balance(bob))
		s.Equal(uint64(250), s.bank.Balance(alice))
	})

	s.Run("unlisted property is not for sale", func() {
		property := s.register(alice)
		s.bank.Deposit(bob, 400)

		_, _, err := s.svc.Buy(s.ctx, bob, property.ID, 400)
		s.True(dErrors.HasCode(err, dErrors.CodeNotForSale))
	})

	s.Run("insufficient payment is rejected before settlement", func() {
		buyer := id.AccountID("underpayer")
		property := s.register(alice)
		_, err := s.svc.List(s.ctx, alice, property.ID, 250)
		s.Require().NoError(err)
		s.bank.Deposit(buyer, 400)

		_, _, err = s.svc.Buy(s.ctx, buyer, property.ID, 249)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientPayment))
		s.Equal(uint64(400), s.bank.Balance(buyer))
	})

	s.Run("buyer without funds cannot buy", func() {
		buyer := id.AccountID("broke")
		property := s.register(alice)
		_, err := s.svc.List(s.ctx, alice, property.ID, 250)
		s.Require().NoError(err)

		_, _, err = s.svc.Buy(s.ctx, buyer, property.ID, 250)
		s.True(dErrors.HasCode(err, dErrors.CodeInsufficientPayment))

		found, err := s.svc.Get(s.ctx, property.ID)
		s.Require().NoError(err)
		s.Equal(alice, found.Owner)
		s.True(found.IsListed)
	})

	s.Run("unknown property is not found", func() {
		_, _, err := s.svc.Buy(s.ctx, bob, 999, 400)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("exact payment settles with zero refund", func() {
		buyer := id.AccountID("exact")
		property := s.register(alice)
		_, err := s.svc.List(s.ctx, alice, property.ID, 250)
		s.Require().NoError(err)
		s.bank.Deposit(buyer, 250)

		_, receipt, err := s.svc.Buy(s.ctx, buyer, property.ID, 250)
		s.Require().NoError(err)
		s.Zero(receipt.Refund)
		s.Zero(s.bank.Balance(buyer))
	})

	s.Run("self purchase settles and delists", func() {
		owner := id.AccountID("self-buyer")
		property := s.register(owner)
		_, err := s.svc.List(s.ctx, owner, property.ID, 250)
		s.Require().NoError(err)
		s.bank.Deposit(owner, 250)

		bought, _, err := s.svc.Buy(s.ctx, owner, property.ID, 250)
		s.Require().NoError(err)
		s.Equal(owner, bought.Owner)
		s.False(bought.IsListed)
		s.Equal(uint64(250), s.bank.Balance(owner))
	})

	s.Run("persists the receipt and emits a compliance event", func() {
		buyer := id.AccountID("audited")
		property := s.register(alice)
		_, err := s.svc.List(s.ctx, alice, property.ID, 250)
		s.Require().NoError(err)
		s.bank.Deposit(buyer, 250)

		_, receipt, err := s.svc.Buy(s.ctx, buyer, property.ID, 250)
		s.Require().NoError(err)

		stored, err := s.svc.GetReceipt(s.ctx, receipt.ID)
		s.Require().NoError(err)
		s.Equal(receipt.ID, stored.ID)

		events, err := s.auditStore.ListByProperty(s.ctx, property.ID)
		s.Require().NoError(err)
		sold := events[len(events)-1]
		s.Equal(audit.EventPropertySold, sold.Type)
		s.Equal(audit.CategoryCompliance, sold.Category)
		s.Equal(buyer, sold.Actor)
		s.Equal(alice, sold.Counterparty)
		s.Equal(receipt.ID.String(), sold.ReceiptID)
	})

	s.Run("failed purchase emits no sale event", func() {
		property := s.register(alice)
		_, err := s.svc.List(s.ctx, alice, property.ID, 250)
		s.Require().NoError(err)

		_, _, err = s.svc.Buy(s.ctx, "penniless", property.ID, 250)
		s.Require().Error(err)

		events, err := s.auditStore.ListByProperty(s.ctx, property.ID)
		s.Require().NoError(err)
		for _, event := range events {
			s.NotEqual(audit.EventPropertySold, event.Type)
		}
	})
}

func (s *ServiceSuite) TestOwnershipCycle() {
	// The full lifecycle: register, list, sell, relist by the new owner,
	// sell back. The record survives with the same id throughout.
	property := s.register(alice)
	s.bank.Deposit(bob, 1000)
	s.bank.Deposit(alice, 1000)

	_, err := s.svc.List(s.ctx, alice, property.ID, 300)
	s.Require().NoError(err)

	bought, _, err := s.svc.Buy(s.ctx, bob, property.ID, 300)
	s.Require().NoError(err)
	s.Equal(bob, bought.Owner)

	// The previous owner lost all rights.
	_, err = s.svc.List(s.ctx, alice, property.ID, 500)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = s.svc.List(s.ctx, bob, property.ID, 500)
	s.Require().NoError(err)

	back, _, err := s.svc.Buy(s.ctx, alice, property.ID, 500)
	s.Require().NoError(err)
	s.Equal(alice, back.Owner)
	s.False(back.IsListed)
	s.Equal(property.ID, back.ID)

	// Money moved 300 one way and 500 back.
	s.Equal(uint64(1000-300+500), s.bank.Balance(bob))
	s.Equal(uint64(1000+300-500), s.bank.Balance(alice))
}

func (s *ServiceSuite) TestQueries() {
	s.Run("get requires a valid id", func() {
		_, err := s.svc.Get(s.ctx, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("get unknown is not found", func() {
		_, err := s.svc.Get(s.ctx, 42)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("list all and by owner", func() {
		first := s.register(alice)
		s.register(bob)
		third := s.register(alice)

		all, err := s.svc.ListAll(s.ctx)
		s.Require().NoError(err)
		s.Len(all, 3)

		mine, err := s.svc.ListByOwner(s.ctx, alice)
		s.Require().NoError(err)
		s.Require().Len(mine, 2)
		s.Equal(first.ID, mine[0].ID)
		s.Equal(third.ID, mine[1].ID)
	})

	s.Run("stats count listed records", func() {
		before, err := s.svc.Stats(s.ctx)
		s.Require().NoError(err)

		first := s.register(alice)
		s.register(alice)
		_, err = s.svc.List(s.ctx, alice, first.ID, 100)
		s.Require().NoError(err)

		after, err := s.svc.Stats(s.ctx)
		s.Require().NoError(err)
		s.Equal(before.Properties+2, after.Properties)
		s.Equal(before.Listed+1, after.Listed)
	})
}

// Mock-backed tests for settlement failure modes the in-process bank cannot
// produce.
func TestBuySettlementFailures(t *testing.T) {
	newService := func(t *testing.T, settler settlement.Settler) (*service.Service, *store.InMemoryLedger, *audit.InMemoryStore) {
		t.Helper()
		ledger := store.NewInMemoryLedger()
		auditStore := audit.NewInMemoryStore()
		svc, err := service.New(ledger, settler,
			service.WithAuditPublisher(audit.NewPublisher(auditStore)),
		)
		if err != nil {
			t.Fatalf("failed to build service: %v", err)
		}
		return svc, ledger, auditStore
	}

	listProperty := func(t *testing.T, svc *service.Service) id.PropertyID {
		t.Helper()
		ctx := context.Background()
		property, err := svc.Register(ctx, alice, models.Draft{Title: "Test"})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		if _, err := svc.List(ctx, alice, property.ID, 250); err != nil {
			t.Fatalf("list: %v", err)
		}
		return property.ID
	}

	t.Run("settlement outage maps to unavailable and leaves the record listed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		settler := mocks.NewMockSettler(ctrl)
		svc, _, auditStore := newService(t, settler)
		propertyID := listProperty(t, svc)

		settler.EXPECT().
			Settle(gomock.Any(), gomock.Any()).
			Return(nil, errors.New("payment rail down"))

		ctx := context.Background()
		_, _, err := svc.Buy(ctx, bob, propertyID, 250)
		if !dErrors.HasCode(err, dErrors.CodeUnavailable) {
			t.Fatalf("want unavailable, got %v", err)
		}

		found, err := svc.Get(ctx, propertyID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if found.Owner != alice || !found.IsListed {
			t.Fatalf("record mutated despite failed settlement: %+v", found)
		}
		for _, event := range auditStore.All() {
			if event.Type == audit.EventPropertySold {
				t.Fatal("sale event emitted for failed settlement")
			}
		}
	})

	t.Run("settler is asked for exactly the asking price", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		settler := mocks.NewMockSettler(ctrl)
		svc, _, _ := newService(t, settler)
		propertyID := listProperty(t, svc)

		want := settlement.TransferRequest{From: carol, To: alice, Amount: 250, Attached: 400}
		settler.EXPECT().
			Settle(gomock.Any(), want).
			Return(settlement.NewReceipt(want, time.Now()), nil)

		_, receipt, err := svc.Buy(context.Background(), carol, propertyID, 400)
		if err != nil {
			t.Fatalf("buy: %v", err)
		}
		if receipt.Amount != 250 || receipt.Refund != 150 {
			t.Fatalf("unexpected receipt: %+v", receipt)
		}
	})

	t.Run("not-listed short-circuits before the settler is called", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		settler := mocks.NewMockSettler(ctrl)
		svc, _, _ := newService(t, settler)

		ctx := context.Background()
		property, err := svc.Register(ctx, alice, models.Draft{Title: "Test"})
		if err != nil {
			t.Fatalf("register: %v", err)
		}

		// No EXPECT: any Settle call fails the test.
		_, _, err = svc.Buy(ctx, bob, property.ID, 400)
		if !dErrors.HasCode(err, dErrors.CodeNotForSale) {
			t.Fatalf("want not-for-sale, got %v", err)
		}
	})
}

// countFailingLedger wraps the in-memory ledger with a Count that always
// fails, so Stats errors can be observed independently of ListAll.
type countFailingLedger struct {
	*store.InMemoryLedger
}

func (l *countFailingLedger) Count(context.Context) (int, error) {
	return 0, errors.New("count query timed out")
}

func TestStatsSurfacesCountErrors(t *testing.T) {
	ledger := &countFailingLedger{InMemoryLedger: store.NewInMemoryLedger()}
	svc, err := service.New(ledger, settlement.NewInMemoryBank())
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}

	_, err = svc.Stats(context.Background())
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("want internal error from failed count, got %v", err)
	}
}
