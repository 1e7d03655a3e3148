package mssql

// Events receives notifications around every statement the adapter sends.
type Events interface {
	// BeforeQuery runs before the statement is prepared. Returning false
	// vetoes the statement; nothing reaches the server.
	BeforeQuery(a *Adapter, params []any) bool

	// AfterQuery runs after a successful execution.
	AfterQuery(a *Adapter, params []any)
}

// Hooks adapts plain functions to Events. Nil fields are no-ops.
type Hooks struct {
	Before func(a *Adapter, params []any) bool
	After  func(a *Adapter, params []any)
}

func (h Hooks) BeforeQuery(a *Adapter, params []any) bool {
	if h.Before == nil {
		return true
	}
	return h.Before(a, params)
}

func (h Hooks) AfterQuery(a *Adapter, params []any) {
	if h.After != nil {
		h.After(a, params)
	}
}

func (a *Adapter) fireBefore(params []any) bool {
	if a.events == nil {
		return true
	}
	return a.events.BeforeQuery(a, params)
}

func (a *Adapter) fireAfter(params []any) {
	if a.events != nil {
		a.events.AfterQuery(a, params)
	}
}
