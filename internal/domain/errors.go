package domain

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidState           Kind = "InvalidState"
	KindInvalidTransition      Kind = "InvalidTransition"
	KindDishUnavailable        Kind = "DishUnavailable"
	KindFlavorSelectionInvalid Kind = "FlavorSelectionInvalid"
	KindInvalidQuantity        Kind = "InvalidQuantity"
	KindEmptyOrder             Kind = "EmptyOrder"
	KindReasonRequired         Kind = "ReasonRequired"
	KindAlreadyRushed          Kind = "AlreadyRushed"
	KindNothingToBill          Kind = "NothingToBill"
	KindNotFound               Kind = "NotFound"
	KindInvalidDiscount        Kind = "InvalidDiscount"
	KindInvalidInput           Kind = "InvalidInput"
)

// Error is a precondition failure the caller is expected to show to the user.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Kind)
	}
	return e.Msg
}

// Is matches any *Error of the same kind when target carries no message,
// so errors.Is(err, ErrNotFound) works for every not-found failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

var (
	ErrInvalidState           = &Error{Kind: KindInvalidState}
	ErrInvalidTransition      = &Error{Kind: KindInvalidTransition}
	ErrDishUnavailable        = &Error{Kind: KindDishUnavailable}
	ErrFlavorSelectionInvalid = &Error{Kind: KindFlavorSelectionInvalid}
	ErrInvalidQuantity        = &Error{Kind: KindInvalidQuantity}
	ErrEmptyOrder             = &Error{Kind: KindEmptyOrder}
	ErrReasonRequired         = &Error{Kind: KindReasonRequired}
	ErrAlreadyRushed          = &Error{Kind: KindAlreadyRushed}
	ErrNothingToBill          = &Error{Kind: KindNothingToBill}
	ErrNotFound               = &Error{Kind: KindNotFound}
	ErrInvalidDiscount        = &Error{Kind: KindInvalidDiscount}
	ErrInvalidInput           = &Error{Kind: KindInvalidInput}
)

func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
