package application

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	cartapp "github.com/fieldserve/checkout-core/internal/cart/application"
	cartdomain "github.com/fieldserve/checkout-core/internal/cart/domain"
	"github.com/fieldserve/checkout-core/internal/checkout/domain"
	"github.com/fieldserve/checkout-core/internal/directory"
	"github.com/fieldserve/checkout-core/internal/pricing"
	tenderdomain "github.com/fieldserve/checkout-core/internal/tender/domain"
	"github.com/fieldserve/checkout-core/internal/tender/gateway"
	"github.com/google/uuid"
)

var (
	ErrNoSession      = errors.New("no checkout session in progress")
	ErrNotCollecting  = errors.New("session is not collecting payment")
	ErrSessionClosed  = errors.New("session already finished")
	ErrWrongFlowState = errors.New("operation does not apply in the current checkout state")
)

// Controller drives one register's checkout flow. It owns the active session
// and the tender machine, and it is the only component that performs side
// effects around the pure transition function: snapshotting, clearing the
// cart, and emitting OrderCreated exactly once.
type Controller struct {
	mu         sync.Mutex
	log        *slog.Logger
	carts      *cartapp.Service
	engine     *pricing.Engine
	customers  directory.Directory
	gw         gateway.Gateway
	orders     OrderRepository
	validators []tenderdomain.Validator
	taxRateBps int64

	session   *domain.Session
	machine   *tenderdomain.Machine
	orderID   string
	inGateway bool
}

func NewController(
	log *slog.Logger,
	carts *cartapp.Service,
	engine *pricing.Engine,
	customers directory.Directory,
	gw gateway.Gateway,
	orders OrderRepository,
	taxRateBps int64,
) *Controller {
	return &Controller{
		log:        log,
		carts:      carts,
		engine:     engine,
		customers:  customers,
		gw:         gw,
		orders:     orders,
		validators: tenderdomain.Validators(),
		taxRateBps: taxRateBps,
	}
}

// Status is the controller's externally visible state, shaped for the
// console screens.
type Status struct {
	SessionID      string
	State          domain.FlowState
	CustomerID     string
	Lines          []cartdomain.LineItem
	Totals         pricing.Totals
	Attempt        *tenderdomain.Attempt
	OrderID        string
	ChangeDueCents *int64
}

func (c *Controller) Status(ctx context.Context) Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked(ctx)
}

func (c *Controller) statusLocked(ctx context.Context) Status {
	st := Status{
		State:      domain.StateBrowsing,
		CustomerID: c.carts.CustomerID(ctx),
		Lines:      c.carts.Lines(ctx),
	}
	st.Totals = c.engine.ComputeTotalsAt(st.Lines, c.taxRateBps)

	if c.session != nil {
		st.SessionID = c.session.ID
		st.State = c.session.State
		if len(c.session.Snapshot) > 0 {
			// Payment collection prices the frozen snapshot, not the live cart.
			st.Lines = c.session.Snapshot
			st.Totals = c.session.Totals
			st.CustomerID = c.session.CustomerID
		}
	}
	if c.machine != nil {
		if a, ok := c.machine.Attempt(); ok {
			st.Attempt = &a
		}
		if c.machine.Completed() {
			if comp, _ := c.machine.Complete(); comp.ChangeDueCents != nil {
				st.ChangeDueCents = comp.ChangeDueCents
			}
		}
	}
	st.OrderID = c.orderID
	return st
}

// BeginCheckout routes toward the review screen. With no lines the register
// stays in Browsing; with lines but no customer it lands on CustomerRequired.
// Both are redirects, not failures.
func (c *Controller) BeginCheckout(ctx context.Context) (Status, error) {
	// Re-read limits before gating; a job closed elsewhere may have shrunk
	// what this cart can sell.
	if err := c.carts.RefreshStockLimits(ctx); err != nil {
		return Status{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.State.IsTerminal() {
		c.session = domain.NewSession(uuid.NewString(), c.taxRateBps, time.Now().UTC())
		c.machine = nil
		c.orderID = ""
	}

	next, _ := domain.Next(c.session.State, domain.EventBeginCheckout, c.guards(ctx))
	c.session.State = next
	c.log.Info("checkout routed", "session_id", c.session.ID, "state", next)
	return c.statusLocked(ctx), nil
}

// SelectCustomer validates the customer against the directory, attaches it
// to the cart, and re-routes if checkout was gated on it.
func (c *Controller) SelectCustomer(ctx context.Context, customerID string) (Status, error) {
	cust, err := c.customers.Lookup(ctx, customerID)
	if err != nil {
		return Status{}, err
	}
	c.carts.SelectCustomer(ctx, cust.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil && !c.session.State.IsTerminal() {
		next, _ := domain.Next(c.session.State, domain.EventCustomerSelected, c.guards(ctx))
		c.session.State = next
	}
	return c.statusLocked(ctx), nil
}

// CollectPayment freezes the cart snapshot and totals and opens the tender
// machine. From this instant the amount being collected cannot change.
func (c *Controller) CollectPayment(ctx context.Context) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Status{}, ErrNoSession
	}
	next, ok := domain.Next(c.session.State, domain.EventCollectPayment, c.guards(ctx))
	if !ok {
		return Status{}, ErrWrongFlowState
	}

	lines := c.carts.Lines(ctx)
	totals := c.engine.ComputeTotalsAt(lines, c.session.TaxRateBps)
	c.session.Freeze(lines, c.carts.CustomerID(ctx), totals)
	c.session.State = next
	c.machine = tenderdomain.NewMachine(totals.TotalCents, c.validators)
	c.inGateway = false
	c.log.Info("payment collection started",
		"session_id", c.session.ID, "total_cents", totals.TotalCents)
	return c.statusLocked(ctx), nil
}

func (c *Controller) SelectTender(ctx context.Context, method tenderdomain.Method) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.machine == nil || c.session.State != domain.StateCollectingPayment {
		return Status{}, ErrNotCollecting
	}
	if err := c.machine.SelectMethod(method); err != nil {
		return Status{}, err
	}
	return c.statusLocked(ctx), nil
}

// SubmitTender validates the collected fields and, for methods that touch
// the outside world, makes the one suspending gateway call. The lock is
// released for the call's duration; the inGateway flag keeps a second submit
// out in the meantime. An attempt found in Validating with no call in flight
// means persistence failed earlier, and the submit resumes there. A submit
// arriving after the session settled returns the settled status with no
// error; nothing is emitted twice.
func (c *Controller) SubmitTender(ctx context.Context, fields map[string]string, headers map[string]string, traceparent string) (Status, error) {
	c.mu.Lock()
	if c.session != nil && c.machine != nil && c.machine.Completed() {
		// The session already settled. A repeated confirmation is
		// deliberately suppressed, not an error.
		c.log.Debug("duplicate submit ignored", "session_id", c.session.ID)
		st := c.statusLocked(ctx)
		c.mu.Unlock()
		return st, nil
	}
	if c.session == nil || c.machine == nil || c.session.State != domain.StateCollectingPayment {
		c.mu.Unlock()
		return Status{}, ErrNotCollecting
	}
	if c.inGateway {
		st := c.statusLocked(ctx)
		c.mu.Unlock()
		return st, tenderdomain.ErrAttemptInProgress
	}
	if a, ok := c.machine.Attempt(); ok && a.Status == tenderdomain.StatusValidating {
		// An earlier submit cleared the gateway but failed to persist.
		// Resume the finalize instead of validating or charging again.
		c.mu.Unlock()
		return c.finalize(ctx, headers, traceparent)
	}
	if _, err := c.machine.Validate(fields); err != nil {
		st := c.statusLocked(ctx)
		c.mu.Unlock()
		return st, err
	}
	attempt, _ := c.machine.Attempt()
	amountDue := c.machine.AmountDueCents()
	if attempt.Method != tenderdomain.MethodCash {
		c.inGateway = true
	}
	c.mu.Unlock()

	if attempt.Method != tenderdomain.MethodCash {
		result, err := c.gw.Submit(ctx, attempt.Method, amountDue, fields)
		if err != nil {
			c.failAttempt(ctx)
			return c.Status(ctx), &tenderdomain.GatewayError{Code: "unreachable"}
		}
		switch result {
		case gateway.ResultDeclined:
			c.failAttempt(ctx)
			return c.Status(ctx), &tenderdomain.GatewayError{Code: "declined"}
		case gateway.ResultError:
			c.failAttempt(ctx)
			return c.Status(ctx), &tenderdomain.GatewayError{Code: "gateway_error"}
		}
	}

	return c.finalize(ctx, headers, traceparent)
}

func (c *Controller) failAttempt(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inGateway = false
	if c.machine != nil {
		c.machine.Fail()
	}
}

// finalize persists the order with its outbox row, then latches completion
// and clears the cart. If persistence fails the machine stays in Validating
// and the submit can be retried; if completion was already latched by an
// earlier call this is a silent no-op, so nothing is ever emitted twice.
func (c *Controller) finalize(ctx context.Context, headers map[string]string, traceparent string) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inGateway = false

	if c.session == nil || c.machine == nil {
		return Status{}, ErrNoSession
	}
	if c.session.State == domain.StateCompleted || c.machine.Completed() {
		// Duplicate completion request; deliberately suppressed.
		c.log.Debug("duplicate completion ignored", "session_id", c.session.ID)
		return c.statusLocked(ctx), nil
	}

	attempt, ok := c.machine.Attempt()
	if !ok || attempt.Status != tenderdomain.StatusValidating {
		return Status{}, ErrWrongFlowState
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:             uuid.NewString(),
		CustomerID:     c.session.CustomerID,
		Lines:          orderLines(c.session.Snapshot),
		SubtotalCents:  c.session.Totals.SubtotalCents,
		TaxCents:       c.session.Totals.TaxCents,
		TotalCents:     c.session.Totals.TotalCents,
		Method:         attempt.Method.String(),
		ChangeDueCents: attempt.Outputs.ChangeDueCents,
		CreatedAt:      now,
	}
	event := domain.OrderCreated{
		OrderID:        order.ID,
		CustomerID:     order.CustomerID,
		Lines:          order.Lines,
		SubtotalCents:  order.SubtotalCents,
		TaxCents:       order.TaxCents,
		TotalCents:     order.TotalCents,
		Method:         order.Method,
		ChangeDueCents: order.ChangeDueCents,
		Timestamp:      now,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Status{}, err
	}
	if err := c.orders.SaveWithOutbox(ctx, order, "OrderCreated", payload, headers, traceparent); err != nil {
		return Status{}, err
	}

	c.machine.Complete()
	c.orderID = order.ID
	c.carts.Clear(ctx)
	next, _ := domain.Next(c.session.State, domain.EventTenderCompleted, domain.Guards{})
	c.session.State = next
	c.session.FinishedAt = now
	c.log.Info("checkout completed",
		"session_id", c.session.ID, "order_id", order.ID,
		"method", order.Method, "total_cents", order.TotalCents)
	return c.statusLocked(ctx), nil
}

// CancelTender abandons the current attempt and returns to the review
// screen. Snapshot and totals survive, so a different method can be tried
// against the same amount.
func (c *Controller) CancelTender(ctx context.Context) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || c.session.State != domain.StateCollectingPayment {
		return Status{}, ErrNotCollecting
	}
	if c.machine != nil {
		c.machine.Cancel()
	}
	c.inGateway = false
	next, _ := domain.Next(c.session.State, domain.EventTenderCancelled, c.guards(ctx))
	c.session.State = next
	return c.statusLocked(ctx), nil
}

// CancelCheckout abandons the session. The cart is left intact so checkout
// can resume from Browsing later.
func (c *Controller) CancelCheckout(ctx context.Context) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return Status{}, ErrNoSession
	}
	if c.session.State.IsTerminal() {
		return Status{}, ErrSessionClosed
	}
	if c.machine != nil {
		c.machine.Cancel()
	}
	next, _ := domain.Next(c.session.State, domain.EventCancel, c.guards(ctx))
	c.session.State = next
	c.session.FinishedAt = time.Now().UTC()
	c.log.Info("checkout cancelled", "session_id", c.session.ID)
	return c.statusLocked(ctx), nil
}

func (c *Controller) guards(ctx context.Context) domain.Guards {
	return domain.Guards{
		HasLines:    !c.carts.Empty(ctx),
		HasCustomer: c.carts.CustomerID(ctx) != "",
	}
}

func orderLines(snapshot []cartdomain.LineItem) []domain.OrderLine {
	out := make([]domain.OrderLine, 0, len(snapshot))
	for _, line := range snapshot {
		out = append(out, domain.OrderLine{
			ItemID:         line.ID,
			SKU:            line.SKU,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPriceCents,
		})
	}
	return out
}
