package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidTransition = errors.New("illegal transition of checkout step")
	ErrSubmitInFlight    = errors.New("order submission already in progress")
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
)

// ValidationError lists the required contact fields that were left empty.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Missing, ", "))
}

// OrderSubmissionError means the order was not placed. The cart is intact and
// the submit can be retried.
type OrderSubmissionError struct {
	Err error
}

func (e *OrderSubmissionError) Error() string {
	return fmt.Sprintf("order submission failed: %v", e.Err)
}

func (e *OrderSubmissionError) Unwrap() error {
	return e.Err
}
