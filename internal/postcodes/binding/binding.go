// Package binding keeps a set of dependent inputs in sync with a postcode and
// house number input pair.
//
// Typing in either driver validates the typed field and, when it passes,
// looks the address up and writes every dependent from the result. Clearing
// both drivers resets the whole form. Only the most recent lookup or reset is
// ever applied.
package binding

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"postcode_lookup/internal/dom"
	"postcode_lookup/internal/postcodes/guard"
	"postcode_lookup/internal/postcodes/service"
	"postcode_lookup/internal/postcodes/transport"
	"postcode_lookup/internal/postcodes/validation"
	"postcode_lookup/platform/apperr"
)

const op = "postcodes.Bind"

// Engine resolves addresses. *service.Service satisfies it.
type Engine interface {
	Lookup(ctx context.Context, p service.LookupParams) (transport.Address, error)
}

// Config describes one binding. Dependents are keyed by the address field
// they display.
type Config struct {
	Postcode     dom.Element
	HomeNumber   dom.Element
	Dependents   map[string]dom.Element
	Document     dom.Document
	Engine       Engine
	Classes      transport.ClassSet
	BuildRequest transport.RequestBuilder
	Success      func(transport.Address)
	Error        func(error)
}

// State is the lifecycle of a binding.
type State int32

const (
	StateIdle State = iota
	StateListening
)

func (s State) String() string {
	if s == StateListening {
		return "listening"
	}
	return "idle"
}

type dependent struct {
	field string
	el    dom.Element
}

// Binding is an installed (or pending) form binding.
type Binding struct {
	ctx        context.Context
	postcode   dom.Element
	homeNumber dom.Element
	dependents []dependent
	engine     Engine
	classes    transport.ClassSet
	build      transport.RequestBuilder
	onSuccess  func(transport.Address)
	onError    func(error)
	guard      *guard.Guard

	mu         sync.Mutex
	generation uint64

	state    atomic.Int32
	install  sync.Once
	inFlight sync.WaitGroup
}

// Bind validates cfg and installs listeners, right away when the document is
// ready and on DOMContentLoaded otherwise. Nothing is touched when cfg is
// incomplete. ctx bounds every lookup the binding issues.
func Bind(ctx context.Context, cfg Config) (*Binding, error) {
	if cfg.Postcode == nil || cfg.HomeNumber == nil {
		return nil, apperr.IncompleteBinding("both postcode and home_number must be bound to use the bind option").WithOp(op)
	}

	fields := make([]string, 0, len(cfg.Dependents))
	for field, el := range cfg.Dependents {
		if el == nil || field == transport.FieldPostcode || field == transport.FieldHomeNumber {
			continue
		}
		fields = append(fields, field)
	}
	if len(fields) == 0 {
		return nil, apperr.IncompleteBinding("at least postcode, home_number and one other field must be bound").WithOp(op)
	}
	if cfg.Engine == nil {
		return nil, apperr.Internal("binding has no lookup engine").WithOp(op)
	}
	sort.Strings(fields)

	b := &Binding{
		ctx:        ctx,
		postcode:   cfg.Postcode,
		homeNumber: cfg.HomeNumber,
		engine:     cfg.Engine,
		classes:    cfg.Classes.WithDefaults(),
		build:      cfg.BuildRequest,
		onSuccess:  cfg.Success,
		onError:    cfg.Error,
		guard:      guard.New(),
	}
	for _, field := range fields {
		b.dependents = append(b.dependents, dependent{field: field, el: cfg.Dependents[field]})
	}

	if dom.IsReady(cfg.Document) {
		b.listen()
	} else {
		cfg.Document.AddEventListener(dom.EventDOMContentLoaded, b.listen)
	}
	return b, nil
}

// State reports whether listeners are installed yet.
func (b *Binding) State() State {
	return State(b.state.Load())
}

// Fields lists the dependent field names in the order they are written.
func (b *Binding) Fields() []string {
	fields := make([]string, len(b.dependents))
	for i, d := range b.dependents {
		fields[i] = d.field
	}
	return fields
}

// Wait blocks until every lookup issued so far has settled.
func (b *Binding) Wait() {
	b.inFlight.Wait()
}

func (b *Binding) listen() {
	b.install.Do(func() {
		for _, d := range b.dependents {
			el := d.el
			el.ClassList().Add(transport.MarkerClass)
			el.AddEventListener(dom.EventChange, func() {
				validation.Validate(el, "", b.classes)
			})
		}
		for _, el := range []dom.Element{b.postcode, b.homeNumber} {
			el.ClassList().Add(transport.MarkerClass)
			el.AddEventListener(dom.EventInput, b.onDriverInput(el))
		}
		b.state.Store(int32(StateListening))
	})
}

func (b *Binding) onDriverInput(el dom.Element) func() {
	return func() {
		postcode := b.postcode.Value()
		homeNumber := b.homeNumber.Value()

		if postcode == "" && homeNumber == "" {
			b.reset()
			return
		}
		if !validation.Validate(el, "", b.classes) {
			return
		}

		gen, ticket := b.issue()
		b.inFlight.Add(1)
		go func() {
			defer b.inFlight.Done()
			b.lookup(gen, ticket, postcode, homeNumber)
		}()
	}
}

func (b *Binding) lookup(gen uint64, ticket *guard.Ticket, postcode, homeNumber string) {
	addr, err := b.engine.Lookup(b.ctx, service.LookupParams{
		Postcode:     postcode,
		HomeNumber:   homeNumber,
		BuildRequest: b.build,
		Guard:        b.guard,
		Ticket:       ticket,
	})
	switch {
	case errors.Is(err, guard.ErrSuperseded):
		return
	case err != nil && b.ctx.Err() != nil:
		// The binding's owner went away; nobody is listening.
		return
	case err != nil:
		b.fail(gen, err)
	default:
		b.apply(gen, addr)
	}
}

// issue orders a lookup on the event goroutine. The generation and the guard
// ticket are taken together so lookup goroutines cannot reorder them.
func (b *Binding) issue() (uint64, *guard.Ticket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
	return b.generation, b.guard.Issue(b.ctx)
}

// reset drops any pending lookup, strips every state class and empties the
// dependents.
func (b *Binding) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.generation++
	b.guard.Supersede()

	all := b.classes.All()
	b.postcode.ClassList().Remove(all...)
	b.homeNumber.ClassList().Remove(all...)
	for _, d := range b.dependents {
		d.el.ClassList().Remove(all...)
		d.el.SetValue("")
	}
}

func (b *Binding) apply(gen uint64, addr transport.Address) {
	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		return
	}

	b.postcode.ClassList().Remove(b.classes.Invalid)
	b.homeNumber.ClassList().Remove(b.classes.Invalid)

	haveDriver := b.postcode.Value() != "" || b.homeNumber.Value() != ""
	all := b.classes.All()
	for _, d := range b.dependents {
		d.el.ClassList().Remove(all...)
		if haveDriver && !addr.IsZero(d.field) {
			d.el.SetValue(addr.Text(d.field))
		} else {
			d.el.ClassList().Add(b.classes.Empty)
		}
	}
	b.mu.Unlock()

	if b.onSuccess != nil {
		b.onSuccess(addr)
	}
}

func (b *Binding) fail(gen uint64, err error) {
	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		return
	}
	b.postcode.ClassList().Add(b.classes.Invalid)
	b.homeNumber.ClassList().Add(b.classes.Invalid)
	b.mu.Unlock()

	if b.onError != nil {
		b.onError(err)
	}
}
