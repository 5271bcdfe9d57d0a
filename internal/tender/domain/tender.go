package domain

// Method is the payment instrument chosen for a transaction.
type Method string

const (
	MethodCash       Method = "CASH"
	MethodCardManual Method = "CARD_MANUAL"
	MethodACH        Method = "ACH"
	MethodTapToPay   Method = "TAP_TO_PAY"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodCardManual, MethodACH, MethodTapToPay:
		return true
	}
	return false
}

func (m Method) String() string { return string(m) }

// AttemptStatus tracks one tender attempt through its lifecycle.
type AttemptStatus string

const (
	StatusCollecting AttemptStatus = "COLLECTING"
	StatusValidating AttemptStatus = "VALIDATING"
	StatusCompleted  AttemptStatus = "COMPLETED"
	StatusFailed     AttemptStatus = "FAILED"
	StatusCancelled  AttemptStatus = "CANCELLED"
)

type Attempt struct {
	Method         Method
	AmountDueCents int64
	Fields         map[string]string
	Status         AttemptStatus
	Outputs        Outputs
}

// Outputs carries whatever a validator computed beyond pass/fail. Only cash
// produces one today: the change owed to the customer.
type Outputs struct {
	ChangeDueCents *int64
}

// Completion is handed back to the flow controller to finalize the order.
type Completion struct {
	Method         Method
	AmountDueCents int64
	ChangeDueCents *int64
}
