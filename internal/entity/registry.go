// Package entity implements the device's controllable/observable units and
// the registry that routes hub commands to them.
//
// Entities never hold the session: they emit state through a narrow [Emitter]
// capability that must tolerate send-after-close. Concrete kinds (media
// player, text attribute, switch, button, select) differ only in their state
// shape and command handling — the registry and the rest of the engine treat
// them uniformly.
//
// All registry mutation happens on the engine loop; the package does no
// locking of its own.
package entity

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MrWong99/voxsat/internal/protocol"
)

// ErrDuplicateKey reports a registration with an already-taken entity key.
// This is a startup wiring bug, not a runtime condition.
var ErrDuplicateKey = errors.New("entity: duplicate key")

// Emitter sends state messages through the current session. Implementations
// swallow [server.ErrSessionClosed] so entity logic never observes a dead
// peer.
type Emitter func(msgs ...protocol.Message)

// Entity is one logical controllable/observable unit.
type Entity interface {
	// Key returns the entity's stable numeric key, unique for the process
	// lifetime.
	Key() uint32

	// ObjectID returns the entity's object identifier (e.g. "assistant_mute").
	ObjectID() string

	// Describe returns the discovery descriptor consumed by the hub's
	// ListEntities exchange.
	Describe() protocol.Message

	// State returns the current state message, or nil for stateless kinds
	// (buttons).
	State() protocol.Message

	// HandleCommand processes a command addressed to this entity. The message
	// is guaranteed to carry the entity's own key.
	HandleCommand(msg protocol.Message)
}

// Registry owns the entity set and routes inbound commands by key.
type Registry struct {
	byKey map[uint32]Entity
	order []Entity // registration order, used for discovery
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byKey: make(map[uint32]Entity)}
}

// Register adds e to the registry. Registering a key twice returns
// [ErrDuplicateKey].
func (r *Registry) Register(e Entity) error {
	if _, taken := r.byKey[e.Key()]; taken {
		return fmt.Errorf("%w: %d (%s)", ErrDuplicateKey, e.Key(), e.ObjectID())
	}
	r.byKey[e.Key()] = e
	r.order = append(r.order, e)
	return nil
}

// NextKey returns the next unused entity key. Keys are assigned sequentially
// at startup.
func (r *Registry) NextKey() uint32 {
	return uint32(len(r.order) + 1)
}

// DescribeAll returns every entity's discovery descriptor in registration
// order. The caller appends the ListEntitiesDone terminator.
func (r *Registry) DescribeAll() []protocol.Message {
	msgs := make([]protocol.Message, 0, len(r.order))
	for _, e := range r.order {
		msgs = append(msgs, e.Describe())
	}
	return msgs
}

// States returns the current state message of every stateful entity, used to
// answer the hub's state subscription.
func (r *Registry) States() []protocol.Message {
	var msgs []protocol.Message
	for _, e := range r.order {
		if s := e.State(); s != nil {
			msgs = append(msgs, s)
		}
	}
	return msgs
}

// Dispatch routes a command message to the entity owning its embedded key.
// Commands for unknown keys are a stale/foreign reference: logged and
// dropped, never fatal.
func (r *Registry) Dispatch(msg protocol.Message) {
	key, ok := commandKey(msg)
	if !ok {
		slog.Warn("not an entity command", "tag", msg.Tag())
		return
	}
	e, ok := r.byKey[key]
	if !ok {
		slog.Warn("dropping command for unknown entity key", "tag", msg.Tag(), "key", key)
		return
	}
	e.HandleCommand(msg)
}

// commandKey extracts the target entity key from a command message.
func commandKey(msg protocol.Message) (uint32, bool) {
	switch m := msg.(type) {
	case *protocol.SwitchCommandRequest:
		return m.Key, true
	case *protocol.ButtonCommandRequest:
		return m.Key, true
	case *protocol.SelectCommandRequest:
		return m.Key, true
	case *protocol.MediaPlayerCommandRequest:
		return m.Key, true
	}
	return 0, false
}
