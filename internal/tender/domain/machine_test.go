package domain

import (
	"errors"
	"testing"
)

func newTestMachine(due int64) *Machine {
	return NewMachine(due, Validators())
}

func TestMachineHappyPathCash(t *testing.T) {
	m := newTestMachine(22247)

	if err := m.SelectMethod(MethodCash); err != nil {
		t.Fatalf("select: %v", err)
	}
	out, err := m.Validate(map[string]string{"amountTendered": "250.00"})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if out.ChangeDueCents == nil || *out.ChangeDueCents != 2753 {
		t.Fatalf("expected change 2753, got %v", out.ChangeDueCents)
	}

	attempt, ok := m.Attempt()
	if !ok || attempt.Status != StatusValidating {
		t.Fatalf("expected Validating, got %+v", attempt)
	}

	comp, applied := m.Complete()
	if !applied {
		t.Fatal("first completion should apply")
	}
	if comp.Method != MethodCash || comp.AmountDueCents != 22247 {
		t.Fatalf("unexpected completion: %+v", comp)
	}
	if comp.ChangeDueCents == nil || *comp.ChangeDueCents != 2753 {
		t.Fatalf("completion lost change: %+v", comp)
	}
}

func TestMachineCompletionIsIdempotent(t *testing.T) {
	m := newTestMachine(1000)
	_ = m.SelectMethod(MethodTapToPay)
	if _, err := m.Validate(nil); err != nil {
		t.Fatalf("validate: %v", err)
	}

	first, applied := m.Complete()
	if !applied {
		t.Fatal("first completion should apply")
	}
	for i := 0; i < 3; i++ {
		again, applied := m.Complete()
		if applied {
			t.Fatalf("completion %d applied twice", i)
		}
		if again != first {
			t.Fatalf("completion drifted: %+v vs %+v", again, first)
		}
	}
}

func TestMachineValidationFailureReturnsToCollection(t *testing.T) {
	m := newTestMachine(22247)
	_ = m.SelectMethod(MethodCash)

	_, err := m.Validate(map[string]string{"amountTendered": "100.00"})
	var payErr *InsufficientPaymentError
	if !errors.As(err, &payErr) {
		t.Fatalf("expected InsufficientPaymentError, got %v", err)
	}
	attempt, _ := m.Attempt()
	if attempt.Status != StatusCollecting {
		t.Fatalf("expected Collecting after failure, got %s", attempt.Status)
	}
	// Fields kept for correction.
	if attempt.Fields["amountTendered"] != "100.00" {
		t.Fatalf("fields discarded: %v", attempt.Fields)
	}

	// Retry with enough cash succeeds.
	if _, err := m.Validate(map[string]string{"amountTendered": "250.00"}); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if _, applied := m.Complete(); !applied {
		t.Fatal("retry completion should apply")
	}
}

func TestMachineSwitchingMethodsDiscardsFields(t *testing.T) {
	m := newTestMachine(1000)
	_ = m.SelectMethod(MethodACH)
	_, _ = m.Validate(map[string]string{"authorized": "false"}) // fails, fields stored

	if err := m.SelectMethod(MethodCash); err != nil {
		t.Fatalf("switch: %v", err)
	}
	attempt, _ := m.Attempt()
	if attempt.Method != MethodCash {
		t.Fatalf("expected cash, got %s", attempt.Method)
	}
	if len(attempt.Fields) != 0 {
		t.Fatalf("uncommitted fields survived the switch: %v", attempt.Fields)
	}
}

func TestMachineReselectingSameMethodKeepsAttempt(t *testing.T) {
	m := newTestMachine(1000)
	_ = m.SelectMethod(MethodCash)
	_, _ = m.Validate(map[string]string{"amountTendered": "1.00"}) // fails short, fields kept

	if err := m.SelectMethod(MethodCash); err != nil {
		t.Fatalf("reselect: %v", err)
	}
	attempt, _ := m.Attempt()
	if attempt.Fields["amountTendered"] != "1.00" {
		t.Fatalf("reselecting the same method should not discard fields: %v", attempt.Fields)
	}
}

func TestMachineSingleOutstandingAttempt(t *testing.T) {
	m := newTestMachine(1000)
	_ = m.SelectMethod(MethodCardManual)
	_, err := m.Validate(map[string]string{
		"cardNumber": "4242424242424242", "expMonth": "1", "expYear": "2030", "cvv": "123",
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	// Gateway call outstanding: no new selection, no second submit.
	if err := m.SelectMethod(MethodCash); !errors.Is(err, ErrAttemptInProgress) {
		t.Fatalf("expected ErrAttemptInProgress, got %v", err)
	}
	if _, err := m.Validate(nil); !errors.Is(err, ErrAttemptInProgress) {
		t.Fatalf("expected ErrAttemptInProgress, got %v", err)
	}
}

func TestMachineGatewayFailureAllowsRetry(t *testing.T) {
	m := newTestMachine(1000)
	_ = m.SelectMethod(MethodCardManual)
	fields := map[string]string{
		"cardNumber": "4242424242420000", "expMonth": "1", "expYear": "2030", "cvv": "123",
	}
	if _, err := m.Validate(fields); err != nil {
		t.Fatalf("validate: %v", err)
	}

	m.Fail() // gateway declined

	attempt, _ := m.Attempt()
	if attempt.Status != StatusFailed {
		t.Fatalf("expected Failed, got %s", attempt.Status)
	}
	// Same method retries without reselecting.
	if _, err := m.Validate(fields); err != nil {
		t.Fatalf("retry validate: %v", err)
	}
}

func TestMachineCancelDiscardsAttempt(t *testing.T) {
	m := newTestMachine(1000)
	_ = m.SelectMethod(MethodCash)
	m.Cancel()

	if _, ok := m.Attempt(); ok {
		t.Fatal("attempt should be gone after cancel")
	}
	if _, applied := m.Complete(); applied {
		t.Fatal("cancelled machine must not complete")
	}
}

func TestMachineLateSuccessAfterCompletionIsNoOp(t *testing.T) {
	m := newTestMachine(1000)
	_ = m.SelectMethod(MethodTapToPay)
	_, _ = m.Validate(nil)
	_, _ = m.Complete()

	// A cancelled-then-late-arriving gateway success path ends in another
	// Complete call; it must not re-apply.
	m.Cancel()
	m.Fail()
	if _, applied := m.Complete(); applied {
		t.Fatal("late completion applied twice")
	}
	if !m.Completed() {
		t.Fatal("machine lost its completion")
	}
}

func TestMachineRejectsUnknownMethod(t *testing.T) {
	m := newTestMachine(1000)
	if err := m.SelectMethod(Method("IOU")); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
}
