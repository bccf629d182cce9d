package flowkit

import (
	"context"
	"fmt"
	"time"
)

// Retry bounds the exec phase of a node. Exec runs at most MaxAttempts
// times with Wait between attempts. The same policy value drives both
// sequential and concurrent execution paths; the wait parks the calling
// goroutine on a timer, honoring ctx cancellation.
type Retry struct {
	MaxAttempts int
	Wait        time.Duration
}

func (r Retry) validate() error {
	if r.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be >= 1, got %d", ErrBadRetry, r.MaxAttempts)
	}
	if r.Wait < 0 {
		return fmt.Errorf("%w: wait must be >= 0, got %s", ErrBadRetry, r.Wait)
	}
	return nil
}

// Node is the basic unit of work: prep reads the shared store, exec
// computes under the retry policy, post writes back and picks the routing
// action. The zero lifecycle is valid: nil prep yields nil, nil exec
// passes the prep result through, nil post returns DefaultAction.
type Node struct {
	name       string
	prep       PrepFunc
	exec       ExecFunc
	post       PostFunc
	fallback   FallbackFunc
	retry      Retry
	successors map[Action]Runner
}

// Option configures a Node at construction time.
type Option func(*Node)

// WithPrep sets the prep phase.
func WithPrep(fn PrepFunc) Option {
	return func(n *Node) { n.prep = fn }
}

// WithExec sets the exec phase.
func WithExec(fn ExecFunc) Option {
	return func(n *Node) { n.exec = fn }
}

// WithPost sets the post phase.
func WithPost(fn PostFunc) Option {
	return func(n *Node) { n.post = fn }
}

// WithFallback sets the recovery function invoked after the last failed
// exec attempt. Its result is treated as an ordinary exec success.
func WithFallback(fn FallbackFunc) Option {
	return func(n *Node) { n.fallback = fn }
}

// WithRetry sets the retry policy. Validation happens on the first Run or
// via Validate, where bad values surface as ErrBadRetry.
func WithRetry(maxAttempts int, wait time.Duration) Option {
	return func(n *Node) { n.retry = Retry{MaxAttempts: maxAttempts, Wait: wait} }
}

// NewNode builds a node with a single-attempt retry policy by default.
func NewNode(name string, opts ...Option) *Node {
	n := &Node{
		name:       name,
		retry:      Retry{MaxAttempts: 1},
		successors: make(map[Action]Runner),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

func (n *Node) Name() string { return n.name }

// Retry reports the node's configured retry policy.
func (n *Node) Retry() Retry { return n.retry }

// Validate checks the node configuration without running it.
func (n *Node) Validate() error { return n.retry.validate() }

// Then wires next as the default-action successor and returns next.
func (n *Node) Then(next Runner) Runner { return n.On(DefaultAction, next) }

// On wires next under the given action label, replacing any previous
// target for that label, and returns next.
func (n *Node) On(action Action, next Runner) Runner {
	if action == "" {
		action = DefaultAction
	}
	n.successors[action] = next
	return next
}

func (n *Node) Successor(action Action) (Runner, bool) {
	next, ok := n.successors[action]
	return next, ok
}

// Run executes one full lifecycle: prep once, exec under the retry
// policy, post once. Prep and post errors are never retried. An exec that
// exhausts every attempt without a fallback skips post and returns
// *ExecFailure.
func (n *Node) Run(ctx context.Context, shared Shared) (Action, error) {
	if err := n.retry.validate(); err != nil {
		return "", err
	}
	prepRes, err := n.runPrep(ctx, shared)
	if err != nil {
		return "", err
	}
	execRes, err := n.execWithRetry(ctx, prepRes)
	if err != nil {
		return "", err
	}
	return n.runPost(ctx, shared, prepRes, execRes)
}

func (n *Node) runPrep(ctx context.Context, shared Shared) (any, error) {
	if n.prep == nil {
		return nil, nil
	}
	return n.prep(ctx, shared)
}

func (n *Node) runPost(ctx context.Context, shared Shared, prepRes, execRes any) (Action, error) {
	if n.post == nil {
		return DefaultAction, nil
	}
	action, err := n.post(ctx, shared, prepRes, execRes)
	if err != nil {
		return "", err
	}
	if action == "" {
		action = DefaultAction
	}
	return action, nil
}

func (n *Node) execWithRetry(ctx context.Context, prepRes any) (any, error) {
	return execWithRetry(ctx, n.name, n.retry, n.exec, n.fallback, prepRes)
}

// execWithRetry runs one exec invocation under the retry policy. It is
// shared by Node and the batch variants, which apply it per item.
func execWithRetry(ctx context.Context, name string, policy Retry, exec ExecFunc, fallback FallbackFunc, prepRes any) (any, error) {
	if exec == nil {
		return prepRes, nil
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		res, err := exec(ctx, prepRes)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts {
			break
		}
		if policy.Wait > 0 {
			timer := time.NewTimer(policy.Wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}

	if fallback != nil {
		return fallback(ctx, prepRes, lastErr)
	}
	return nil, &ExecFailure{Node: name, Attempts: policy.MaxAttempts, Err: lastErr}
}
