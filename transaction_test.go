package customize

import (
	"fmt"
	"sync"
	"testing"
)

func TestSaveTransactionRegisterDedupes(t *testing.T) {
	txn := NewSaveTransaction()

	if !txn.Register(Outcome{Setting: "nav_menu_item[-5]", Status: OutcomeInserted, Key: 42}) {
		t.Fatal("expected first registration to be accepted")
	}
	if txn.Register(Outcome{Setting: "nav_menu_item[-5]", Status: OutcomeError}) {
		t.Fatal("expected duplicate setting registration to be rejected")
	}
	if !txn.Register(Outcome{Setting: "nav_menu_item[7]", Status: OutcomeDeleted, Key: 7}) {
		t.Fatal("expected distinct setting registration to be accepted")
	}

	if txn.Len() != 2 {
		t.Fatalf("expected two outcomes, got %d", txn.Len())
	}
	outcomes := txn.Outcomes()
	if outcomes[0].Status != OutcomeInserted || outcomes[1].Status != OutcomeDeleted {
		t.Fatalf("unexpected outcome order %#v", outcomes)
	}
}

func TestSaveTransactionOutcomesAreDetached(t *testing.T) {
	txn := NewSaveTransaction()
	txn.Register(Outcome{Setting: "nav_menu_item[1]", Status: OutcomeUpdated, Key: 1})

	first := txn.Outcomes()
	first[0].Status = OutcomeError

	second := txn.Outcomes()
	if second[0].Status != OutcomeUpdated {
		t.Fatalf("expected stored outcome unchanged, got %q", second[0].Status)
	}
}

func TestSaveTransactionConcurrentRegister(t *testing.T) {
	txn := NewSaveTransaction()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			txn.Register(Outcome{
				Setting: fmt.Sprintf("nav_menu_item[%d]", n+1),
				Status:  OutcomeUpdated,
			})
		}(i)
	}
	wg.Wait()

	if txn.Len() != 16 {
		t.Fatalf("expected sixteen outcomes, got %d", txn.Len())
	}
}

func TestSaveTransactionNilSafety(t *testing.T) {
	var txn *SaveTransaction
	if txn.ID() != "" {
		t.Fatal("expected empty id for nil transaction")
	}
	if txn.Register(Outcome{Setting: "nav_menu_item[1]"}) {
		t.Fatal("expected nil transaction to reject registration")
	}
	if txn.Outcomes() != nil || txn.Len() != 0 {
		t.Fatal("expected nil transaction to be empty")
	}
}

func TestSaveTransactionIDsAreUnique(t *testing.T) {
	a := NewSaveTransaction()
	b := NewSaveTransaction()
	if a.ID() == "" || a.ID() == b.ID() {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a.ID(), b.ID())
	}
}
