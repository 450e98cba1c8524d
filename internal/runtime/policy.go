package runtime

import (
	"fmt"

	"github.com/zweadfx/assist/pkg/domain"
)

type edge struct {
	From   domain.NodeID
	Signal Signal
}

// Policy is the static adjacency map driving the executor. It is data, not
// branching: extending the intent set means adding map entries and one task
// node, never modifying existing nodes.
type Policy struct {
	entry domain.NodeID
	edges map[edge]domain.NodeID
}

// DefaultPolicy builds the adjacency map for the standard graph:
// router -> task node (per intent) -> verifier -> {task node | router | finalizer}.
func DefaultPolicy() *Policy {
	p := &Policy{
		entry: domain.NodeRouter,
		edges: make(map[edge]domain.NodeID),
	}

	for _, intent := range domain.Intents() {
		task := domain.TaskNodeID(intent)
		p.edges[edge{domain.NodeRouter, Signal(intent)}] = task
		p.edges[edge{task, SignalOK}] = domain.NodeVerify
		p.edges[edge{domain.NodeVerify, RetrySignal(intent)}] = task
	}

	p.edges[edge{domain.NodeRouter, SignalUnhandled}] = domain.NodeFinalize
	p.edges[edge{domain.NodeVerify, SignalProceed}] = domain.NodeFinalize
	p.edges[edge{domain.NodeVerify, SignalMoreInfo}] = domain.NodeRouter

	return p
}

// Entry returns the node the executor starts at.
func (p *Policy) Entry() domain.NodeID {
	return p.entry
}

// Next resolves the successor for a (node, signal) pair.
func (p *Policy) Next(from domain.NodeID, sig Signal) (domain.NodeID, bool) {
	next, ok := p.edges[edge{from, sig}]
	return next, ok
}

// Validate checks the policy against the registered node set: the entry node
// and every edge endpoint must exist.
func (p *Policy) Validate(nodes map[domain.NodeID]Node) error {
	if p.entry == "" {
		return fmt.Errorf("policy has no entry node")
	}
	if _, ok := nodes[p.entry]; !ok {
		return fmt.Errorf("entry node %s is not registered", p.entry)
	}
	for e, to := range p.edges {
		if _, ok := nodes[e.From]; !ok {
			return fmt.Errorf("edge source %s is not registered", e.From)
		}
		if _, ok := nodes[to]; !ok {
			return fmt.Errorf("edge target %s (from %s on %q) is not registered", to, e.From, e.Signal)
		}
	}
	return nil
}
