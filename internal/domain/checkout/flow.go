package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/internal/domain/model"
)

type Step string

const (
	StepContact   Step = "contact"
	StepReview    Step = "review"
	StepSubmitted Step = "submitted"
	StepCancelled Step = "cancelled"
)

func (s Step) IsTerminal() bool {
	return s == StepSubmitted || s == StepCancelled
}

// Cart is the part of the cart store the flow reads and empties.
type Cart interface {
	Items() model.CartItems
	Deduct(ctx context.Context, items model.CartItems) error
}

// OrderCreator persists an order and returns it with its id.
type OrderCreator interface {
	CreateOrder(ctx context.Context, order model.Order) (model.Order, error)
}

// Notifier tells someone an order was placed. Best effort only.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, order model.Order) error
}

// Draft is the contact information collected during checkout.
type Draft struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (d Draft) trimmed() Draft {
	return Draft{
		Name:    strings.TrimSpace(d.Name),
		Email:   strings.TrimSpace(d.Email),
		Phone:   strings.TrimSpace(d.Phone),
		Address: strings.TrimSpace(d.Address),
		Notes:   strings.TrimSpace(d.Notes),
	}
}

// Validate requires name, email and phone. Address and notes are optional.
func (d Draft) Validate() error {
	t := d.trimmed()
	var missing []string
	if t.Name == "" {
		missing = append(missing, "name")
	}
	if t.Email == "" {
		missing = append(missing, "email")
	}
	if t.Phone == "" {
		missing = append(missing, "phone")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

type Config struct {
	Pricing       Pricing
	SubmitTimeout time.Duration
	NotifyTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Pricing:       DefaultPricing(),
		SubmitTimeout: 15 * time.Second,
		NotifyTimeout: 10 * time.Second,
	}
}

// State is a read-only view of a flow.
type State struct {
	Step       Step         `json:"step"`
	Draft      Draft        `json:"draft"`
	Summary    Summary      `json:"summary"`
	Submitting bool         `json:"submitting"`
	Order      *model.Order `json:"order,omitempty"`
}

// Flow walks one checkout from contact details to a placed order.
type Flow struct {
	mu         sync.Mutex
	step       Step
	draft      Draft
	submitting bool
	placed     *model.Order

	cart     Cart
	creator  OrderCreator
	notifier Notifier
	cfg      Config
	logger   *zap.Logger
}

func NewFlow(cart Cart, creator OrderCreator, notifier Notifier, cfg Config, logger *zap.Logger) *Flow {
	return &Flow{
		step:     StepContact,
		cart:     cart,
		creator:  creator,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := f.cart.Items()
	st := State{
		Step:       f.step,
		Draft:      f.draft,
		Summary:    f.cfg.Pricing.Summarize(items.Total(), items.ItemCount()),
		Submitting: f.submitting,
	}
	if f.placed != nil {
		o := *f.placed
		st.Order = &o
		st.Summary = Summary{
			Subtotal:    o.Subtotal,
			DeliveryFee: o.DeliveryFee,
			FinalTotal:  o.TotalAmount,
			ItemCount:   orderItemCount(o.Items),
		}
	}
	return st
}

// UpdateContact replaces the draft. Only allowed on the contact step.
func (f *Flow) UpdateContact(d Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepContact {
		return ErrInvalidTransition
	}
	f.draft = d
	return nil
}

// Next moves contact -> review once the required fields are present.
func (f *Flow) Next() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step != StepContact {
		return ErrInvalidTransition
	}
	if err := f.draft.Validate(); err != nil {
		return err
	}
	if len(f.cart.Items()) == 0 {
		return ErrEmptyCart
	}
	f.step = StepReview
	return nil
}

// Back returns review -> contact keeping what was entered.
func (f *Flow) Back() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitting {
		return ErrSubmitInFlight
	}
	if f.step != StepReview {
		return ErrInvalidTransition
	}
	f.step = StepContact
	return nil
}

// Cancel discards the draft. The cart is left alone.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitting {
		return ErrSubmitInFlight
	}
	if f.step.IsTerminal() {
		return ErrInvalidTransition
	}
	f.draft = Draft{}
	f.step = StepCancelled
	return nil
}

// Submit places the order. On failure the flow stays on review with the cart
// untouched and the returned *OrderSubmissionError can be retried.
// On success only the ordered lines leave the cart; anything added while the
// order was in flight stays.
func (f *Flow) Submit(ctx context.Context) (model.Order, error) {
	order, frozen, err := f.beginSubmit()
	if err != nil {
		return model.Order{}, err
	}

	subCtx, cancel := context.WithTimeout(ctx, f.cfg.SubmitTimeout)
	created, err := f.creator.CreateOrder(subCtx, order)
	cancel()

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.mu.Unlock()
		f.logger.Warn("order submission failed", zap.String("email", order.CustomerEmail), zap.Error(err))
		return model.Order{}, &OrderSubmissionError{Err: err}
	}
	if created.Items == nil {
		created.Items = order.Items
	}
	f.step = StepSubmitted
	f.placed = &created
	f.mu.Unlock()

	// runs even when the request context is already cancelled
	clearCtx, cancelClear := context.WithTimeout(context.WithoutCancel(ctx), f.cfg.SubmitTimeout)
	err = f.cart.Deduct(clearCtx, frozen)
	cancelClear()
	if err != nil {
		f.logger.Error("order placed but cart clear failed", zap.Int64("order_id", created.ID), zap.Error(err))
	}

	f.logger.Info("order placed",
		zap.Int64("order_id", created.ID),
		zap.String("total", created.TotalAmount.StringFixed(2)),
		zap.Int("items", len(created.Items)),
	)

	go f.notify(created)

	return created, nil
}

// beginSubmit freezes the cart into an order and marks the flow in flight.
func (f *Flow) beginSubmit() (model.Order, model.CartItems, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.submitting {
		return model.Order{}, nil, ErrSubmitInFlight
	}
	if f.step != StepReview {
		return model.Order{}, nil, ErrInvalidTransition
	}
	if err := f.draft.Validate(); err != nil {
		return model.Order{}, nil, err
	}

	items := f.cart.Items()
	if len(items) == 0 {
		return model.Order{}, nil, ErrEmptyCart
	}

	d := f.draft.trimmed()
	subtotal := items.Total()
	fee := f.cfg.Pricing.Fee(subtotal)

	f.submitting = true
	return model.Order{
		CustomerName:    d.Name,
		CustomerEmail:   d.Email,
		CustomerPhone:   d.Phone,
		CustomerAddress: d.Address,
		Notes:           d.Notes,
		Items:           model.OrderItemsFromCart(items),
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		TotalAmount:     subtotal.Add(fee),
		Status:          model.OrderStatusPending,
	}, items, nil
}

func (f *Flow) notify(order model.Order) {
	if f.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.cfg.NotifyTimeout)
	defer cancel()

	if err := f.notifier.NotifyOrderPlaced(ctx, order); err != nil {
		f.logger.Warn("order notification failed", zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

func orderItemCount(items []model.OrderItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
