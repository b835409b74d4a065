package osc

import (
	"fmt"

	"github.com/zokrezyl/yetty/card"
)

// CardFactory instantiates one card of a registered type. Ported from
// CardFactory::CreateFn in card-factory.h, generalized from the
// original's CardBufferManager+GPUContext closure capture to a plain
// function value the caller supplies per type at registration time.
type CardFactory func(x, y int32, widthCells, heightCells uint32, args string, payload []byte) (*card.Card, error)

// FactoryRegistry maps card type names to their CardFactory and
// optional help text, mirroring base::ObjectFactory<CardFactory>'s
// registerCard/hasCard/getRegisteredCards from card-factory.h.
type FactoryRegistry struct {
	factories map[string]CardFactory
	help      map[string]string
	order     []string
}

// NewFactoryRegistry returns an empty registry.
func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{
		factories: make(map[string]CardFactory),
		help:      make(map[string]string),
	}
}

// Register binds name to fn. Re-registering an existing name replaces
// its factory without disturbing Names() order.
func (r *FactoryRegistry) Register(name string, fn CardFactory) {
	if _, exists := r.factories[name]; !exists {
		r.order = append(r.order, name)
	}
	r.factories[name] = fn
}

// RegisterHelp attaches human-readable help text to a type name, served
// by the "help" command.
func (r *FactoryRegistry) RegisterHelp(name, text string) {
	r.help[name] = text
}

// Has reports whether name has a registered factory.
func (r *FactoryRegistry) Has(name string) bool {
	_, ok := r.factories[name]
	return ok
}

// Names returns every registered type name in registration order.
func (r *FactoryRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Help returns the help text registered for name, if any.
func (r *FactoryRegistry) Help(name string) (string, bool) {
	text, ok := r.help[name]
	return text, ok
}

// Create instantiates a card of the named type. A failed invocation
// returns an error and no card; the caller must not register anything.
func (r *FactoryRegistry) Create(name string, x, y int32, widthCells, heightCells uint32, args string, payload []byte) (*card.Card, error) {
	fn, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCardType, name)
	}
	return fn(x, y, widthCells, heightCells, args, payload)
}
