// Package orderflow models the order status lifecycle: a fixed, closed set of
// statuses plus a store-configured ordered subset of them (the active flow) that
// an order walks through before reaching a terminal status.
package orderflow

import (
	"errors"
	"fmt"
)

// Status is one of the fixed order statuses.
type Status string

const (
	Pending   Status = "pending"
	Preparing Status = "preparing"
	Ready     Status = "ready"
	Delivered Status = "delivered"
	Cancelled Status = "cancelled"
)

var labels = map[Status]string{
	Pending:   "Aguardando",
	Preparing: "Em Preparo",
	Ready:     "Pronto",
	Delivered: "Entregue",
	Cancelled: "Cancelado",
}

// Valid reports whether s belongs to the closed status set.
func (s Status) Valid() bool {
	_, ok := labels[s]
	return ok
}

// Terminal reports whether s ends the lifecycle. Terminal statuses are reached
// only through explicit completion or cancellation.
func (s Status) Terminal() bool { return s == Delivered || s == Cancelled }

// Open lists every non-terminal status, in lifecycle order.
func Open() []Status { return []Status{Pending, Preparing, Ready} }

// Label returns the display label used on the panel and receipts.
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

var (
	ErrEmptyFlow        = errors.New("orderflow: fluxo de pedidos não configurado")
	ErrUnknownStatus    = errors.New("orderflow: status desconhecido")
	ErrTerminalInFlow   = errors.New("orderflow: status terminal não pode fazer parte do fluxo ativo")
	ErrDuplicateStatus  = errors.New("orderflow: status repetido no fluxo ativo")
	ErrAlreadyFinalized = errors.New("orderflow: pedido já finalizado")
)

// Flow is a validated, strictly ordered list of non-terminal statuses.
// The zero value is an empty flow and reports ErrEmptyFlow from Initial.
type Flow struct {
	steps []Status
	index map[Status]int
}

// NewFlow validates steps and builds a Flow. It rejects an empty list, unknown or
// terminal statuses, and repeated statuses (which would make the order cyclic).
func NewFlow(steps ...Status) (Flow, error) {
	if len(steps) == 0 {
		return Flow{}, ErrEmptyFlow
	}
	f := Flow{
		steps: make([]Status, 0, len(steps)),
		index: make(map[Status]int, len(steps)),
	}
	for _, s := range steps {
		if !s.Valid() {
			return Flow{}, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
		}
		if s.Terminal() {
			return Flow{}, fmt.Errorf("%w: %q", ErrTerminalInFlow, s)
		}
		if _, dup := f.index[s]; dup {
			return Flow{}, fmt.Errorf("%w: %q", ErrDuplicateStatus, s)
		}
		f.index[s] = len(f.steps)
		f.steps = append(f.steps, s)
	}
	return f, nil
}

// ParseFlow is NewFlow over raw status keys, as stored in configuration rows.
func ParseFlow(keys []string) (Flow, error) {
	steps := make([]Status, 0, len(keys))
	for _, k := range keys {
		steps = append(steps, Status(k))
	}
	return NewFlow(steps...)
}

// Empty reports whether the flow has no steps; callers must treat the store as not
// ready to take or progress orders.
func (f Flow) Empty() bool { return len(f.steps) == 0 }

// Steps returns a copy of the active statuses in order.
func (f Flow) Steps() []Status {
	out := make([]Status, len(f.steps))
	copy(out, f.steps)
	return out
}

// Contains reports whether s is part of the active flow.
func (f Flow) Contains(s Status) bool {
	_, ok := f.index[s]
	return ok
}

// Initial returns the status assigned to newly created orders.
func (f Flow) Initial() (Status, error) {
	if f.Empty() {
		return "", ErrEmptyFlow
	}
	return f.steps[0], nil
}

// Next returns the status following current. ok is false when current is the last
// active status, meaning the next action is completion.
// A status outside the active flow also yields ok=false.
func (f Flow) Next(current Status) (next Status, ok bool) {
	i, found := f.index[current]
	if !found || i+1 >= len(f.steps) {
		return "", false
	}
	return f.steps[i+1], true
}

// Advance returns the target of the "advance" action for an order in current:
// the next active status, or Delivered when there is none.
func (f Flow) Advance(current Status) (Status, error) {
	if f.Empty() {
		return "", ErrEmptyFlow
	}
	if !current.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, current)
	}
	if current.Terminal() {
		return "", ErrAlreadyFinalized
	}
	if next, ok := f.Next(current); ok {
		return next, nil
	}
	return Delivered, nil
}

// Visible returns the statuses shown on the order panel: the active flow followed
// by the two terminal statuses kept for quick history.
func (f Flow) Visible() []Status {
	return append(f.Steps(), Delivered, Cancelled)
}
