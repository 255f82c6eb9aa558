package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"storefront/internal/domain/checkout"
	"storefront/internal/domain/model"
)

// CheckoutUsecase keeps one checkout.Flow per session. A finished or
// cancelled flow stays readable until the session begins a new one or the
// session's cart is evicted as idle.
type CheckoutUsecase struct {
	carts    *CartUsecase
	creator  checkout.OrderCreator
	notifier checkout.Notifier
	cfg      checkout.Config
	logger   *zap.Logger

	mu    sync.Mutex
	flows map[string]*checkout.Flow
}

func NewCheckoutUsecase(carts *CartUsecase, creator checkout.OrderCreator, notifier checkout.Notifier, cfg checkout.Config, logger *zap.Logger) *CheckoutUsecase {
	u := &CheckoutUsecase{
		carts:    carts,
		creator:  creator,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		flows:    map[string]*checkout.Flow{},
	}
	// a flow holds its cart store, so it goes with it
	carts.OnEvict(u.drop)
	return u
}

type SubmitOutput struct {
	Order model.Order    `json:"order"`
	State checkout.State `json:"checkout"`
}

// Begin starts a checkout, or returns the one already in progress.
func (u *CheckoutUsecase) Begin(ctx context.Context, sessionID string) (checkout.State, error) {
	if sessionID == "" {
		return checkout.State{}, NewHTTPError(http.StatusBadRequest, "missing session")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if f, ok := u.flows[sessionID]; ok && !f.Step().IsTerminal() {
		return f.State(), nil
	}

	f := checkout.NewFlow(
		u.carts.Store(ctx, sessionID),
		u.creator,
		u.notifier,
		u.cfg,
		u.logger.With(zap.String("session_id", sessionID)),
	)
	u.flows[sessionID] = f
	return f.State(), nil
}

func (u *CheckoutUsecase) Get(ctx context.Context, sessionID string) (checkout.State, error) {
	f, err := u.flow(sessionID)
	if err != nil {
		return checkout.State{}, err
	}
	return f.State(), nil
}

func (u *CheckoutUsecase) UpdateContact(ctx context.Context, sessionID string, d checkout.Draft) (checkout.State, error) {
	return u.apply(sessionID, func(f *checkout.Flow) error { return f.UpdateContact(d) })
}

func (u *CheckoutUsecase) Next(ctx context.Context, sessionID string) (checkout.State, error) {
	return u.apply(sessionID, (*checkout.Flow).Next)
}

func (u *CheckoutUsecase) Back(ctx context.Context, sessionID string) (checkout.State, error) {
	return u.apply(sessionID, (*checkout.Flow).Back)
}

func (u *CheckoutUsecase) Cancel(ctx context.Context, sessionID string) (checkout.State, error) {
	return u.apply(sessionID, (*checkout.Flow).Cancel)
}

func (u *CheckoutUsecase) Submit(ctx context.Context, sessionID string) (SubmitOutput, error) {
	f, err := u.flow(sessionID)
	if err != nil {
		return SubmitOutput{}, err
	}

	order, err := f.Submit(ctx)
	if err != nil {
		return SubmitOutput{}, mapCheckoutError(err)
	}
	return SubmitOutput{Order: order, State: f.State()}, nil
}

func (u *CheckoutUsecase) apply(sessionID string, fn func(f *checkout.Flow) error) (checkout.State, error) {
	f, err := u.flow(sessionID)
	if err != nil {
		return checkout.State{}, err
	}
	if err := fn(f); err != nil {
		return checkout.State{}, mapCheckoutError(err)
	}
	return f.State(), nil
}

func (u *CheckoutUsecase) flow(sessionID string) (*checkout.Flow, error) {
	if sessionID == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "missing session")
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	f, ok := u.flows[sessionID]
	if !ok {
		return nil, NewHTTPError(http.StatusNotFound, "no checkout in progress")
	}
	u.carts.touch(sessionID)
	return f, nil
}

func (u *CheckoutUsecase) drop(sessionID string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.flows, sessionID)
}

func mapCheckoutError(err error) error {
	var ve *checkout.ValidationError
	if errors.As(err, &ve) {
		return &HTTPError{Status: http.StatusBadRequest, Message: ve.Error(), Missing: ve.Missing}
	}
	var se *checkout.OrderSubmissionError
	if errors.As(err, &se) {
		return &HTTPError{Status: http.StatusBadGateway, Message: "order could not be placed, please try again", Retryable: true}
	}

	switch {
	case errors.Is(err, checkout.ErrEmptyCart):
		return NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, checkout.ErrSubmitInFlight):
		return NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, checkout.ErrInvalidTransition):
		return NewHTTPError(http.StatusConflict, err.Error())
	}
	return err
}
