package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptySymbol     = errors.New("symbol is required")
	ErrDuplicateSymbol = errors.New("symbol is already in the watchlist")
	ErrSymbolNotFound  = errors.New("symbol is not in the watchlist")
	ErrTaskInFlight    = errors.New("analysis is already in progress")
)

// DeleteGuardError refuses a delete because the named symbols have an analysis in flight.
type DeleteGuardError struct {
	Symbols []string
}

func (e *DeleteGuardError) Error() string {
	return fmt.Sprintf("cannot delete %s while analysis is in progress", strings.Join(e.Symbols, ", "))
}
