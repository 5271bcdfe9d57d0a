package domain

// Machine manages tender selection, detail validation, and completion for a
// single checkout session. Two invariants carry the correctness weight:
//
//   - at most one non-terminal attempt exists at a time, and
//   - completion is idempotent: once completed, further completion requests
//     are silent no-ops, so a duplicate submit or a late gateway success can
//     never double-apply a charge.
type Machine struct {
	amountDueCents int64
	validators     map[Method]Validator

	attempt    *Attempt
	completion *Completion
}

func NewMachine(amountDueCents int64, validators []Validator) *Machine {
	byMethod := make(map[Method]Validator, len(validators))
	for _, v := range validators {
		byMethod[v.Method()] = v
	}
	return &Machine{
		amountDueCents: amountDueCents,
		validators:     byMethod,
	}
}

func (m *Machine) AmountDueCents() int64 { return m.amountDueCents }

// Attempt returns a copy of the current attempt, if any.
func (m *Machine) Attempt() (Attempt, bool) {
	if m.attempt == nil {
		return Attempt{}, false
	}
	return *m.attempt, true
}

func (m *Machine) Completed() bool { return m.completion != nil }

// SelectMethod starts detail collection for the method. Switching methods
// discards whatever fields were collected for the abandoned one. Selection
// is refused while a gateway call is outstanding or after completion.
func (m *Machine) SelectMethod(method Method) error {
	if !method.Valid() {
		return ErrUnknownMethod
	}
	if m.completion != nil {
		return nil // settled; nothing left to select
	}
	if m.attempt != nil && m.attempt.Status == StatusValidating {
		return ErrAttemptInProgress
	}
	if m.attempt != nil && m.attempt.Method == method && m.attempt.Status == StatusCollecting {
		return nil
	}
	m.attempt = &Attempt{
		Method:         method,
		AmountDueCents: m.amountDueCents,
		Fields:         make(map[string]string),
		Status:         StatusCollecting,
	}
	return nil
}

// Validate stores the collected fields and runs the method's validator. On
// success the attempt moves to Validating and stays there until the caller
// reports the gateway outcome via Complete or Fail. On a validation error
// the attempt returns to collection with its fields kept, so the operator
// corrects rather than re-enters.
func (m *Machine) Validate(fields map[string]string) (Outputs, error) {
	if m.attempt == nil || m.completion != nil {
		return Outputs{}, ErrNoAttempt
	}
	switch m.attempt.Status {
	case StatusCollecting, StatusFailed:
	case StatusValidating:
		return Outputs{}, ErrAttemptInProgress
	default:
		return Outputs{}, ErrNoAttempt
	}

	m.attempt.Fields = fields
	v, ok := m.validators[m.attempt.Method]
	if !ok {
		return Outputs{}, ErrUnknownMethod
	}
	out, err := v.Validate(m.amountDueCents, fields)
	if err != nil {
		m.attempt.Status = StatusCollecting
		return Outputs{}, err
	}
	m.attempt.Status = StatusValidating
	m.attempt.Outputs = out
	return out, nil
}

// Complete settles the attempt. The first call returns the completion and
// true; every later call returns the same completion and false without any
// other effect. Callers treat the false return as the cue to do nothing —
// not to re-emit events, not to re-clear the cart.
func (m *Machine) Complete() (Completion, bool) {
	if m.completion != nil {
		return *m.completion, false
	}
	if m.attempt == nil || m.attempt.Status != StatusValidating {
		return Completion{}, false
	}
	m.attempt.Status = StatusCompleted
	m.completion = &Completion{
		Method:         m.attempt.Method,
		AmountDueCents: m.attempt.AmountDueCents,
		ChangeDueCents: m.attempt.Outputs.ChangeDueCents,
	}
	return *m.completion, true
}

// Fail records a gateway decline or error and sends the attempt back to
// detail collection for the same method, fields intact.
func (m *Machine) Fail() {
	if m.attempt == nil || m.completion != nil {
		return
	}
	m.attempt.Status = StatusFailed
}

// Cancel abandons the current attempt. A settled machine ignores it.
func (m *Machine) Cancel() {
	if m.attempt == nil || m.completion != nil {
		return
	}
	m.attempt.Status = StatusCancelled
	m.attempt = nil
}
