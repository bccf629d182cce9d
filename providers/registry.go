// Package providers holds the name-to-callable registries that back the
// concrete LLM, search and embedding nodes. Registries are explicit values
// constructed at startup and passed to whatever needs provider access;
// there is no process-global state.
package providers

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"
)

// SearchResult is one hit returned by a search provider.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// LLMFunc turns a prompt into text. Provider-specific arguments travel in
// opts; the callable owns its own timeout enforcement.
type LLMFunc func(ctx context.Context, prompt, model string, opts map[string]any) (string, error)

// SearchFunc runs a query and returns up to numResults hits.
type SearchFunc func(ctx context.Context, query string, numResults int, opts map[string]any) ([]SearchResult, error)

// EmbedFunc maps text to an embedding vector.
type EmbedFunc func(ctx context.Context, text, model string, opts map[string]any) ([]float64, error)

var (
	// ErrBadProviderName reports a rejected registration: empty name, a
	// name containing the provider/model separator, or whitespace.
	ErrBadProviderName = errors.New("providers: invalid provider name")

	// ErrNoProvider reports a lookup of an unregistered provider, or a
	// bare model specifier with no default provider configured.
	ErrNoProvider = errors.New("providers: provider not registered")
)

// Separator splits a composite "provider/model" specifier.
const Separator = "/"

// Registry is a mutex-guarded name-to-callable mapping for one callable
// kind. The first registered provider becomes the default until
// SetDefault says otherwise.
type Registry[F any] struct {
	mu  sync.RWMutex
	fns map[string]F
	def string
}

func NewRegistry[F any]() *Registry[F] {
	return &Registry[F]{fns: make(map[string]F)}
}

// Register adds a provider under name. Re-registering a name replaces the
// previous callable.
func (r *Registry[F]) Register(name string, fn F) error {
	if err := validateName(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fns[name] = fn
	if r.def == "" {
		r.def = name
	}
	return nil
}

// SetDefault picks the provider used for bare model specifiers.
func (r *Registry[F]) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fns[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNoProvider, name)
	}
	r.def = name
	return nil
}

// Default returns the current default provider name, or "".
func (r *Registry[F]) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.def
}

// Names lists registered providers, sorted.
func (r *Registry[F]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry[F]) namesLocked() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the callable registered under an exact name. An empty
// name selects the default provider.
func (r *Registry[F]) Lookup(name string) (F, error) {
	var zero F
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		if r.def == "" {
			return zero, fmt.Errorf("%w: no default provider configured", ErrNoProvider)
		}
		name = r.def
	}
	fn, ok := r.fns[name]
	if !ok {
		return zero, fmt.Errorf("%w: %q (available: %s)", ErrNoProvider, name, strings.Join(r.namesLocked(), ", "))
	}
	return fn, nil
}

// Resolve maps a specifier to a callable and the model name to hand it.
// "provider/model" selects an explicit provider; a bare model (or an empty
// specifier) goes to the default provider.
func (r *Registry[F]) Resolve(spec string) (F, string, error) {
	var zero F
	provider, model, found := strings.Cut(spec, Separator)
	if !found {
		provider, model = "", spec
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if provider == "" {
		if r.def == "" {
			return zero, "", fmt.Errorf("%w: no default provider configured (specifier %q)", ErrNoProvider, spec)
		}
		provider = r.def
	}
	fn, ok := r.fns[provider]
	if !ok {
		return zero, "", fmt.Errorf("%w: %q (available: %s)", ErrNoProvider, provider, strings.Join(r.namesLocked(), ", "))
	}
	return fn, model, nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrBadProviderName)
	}
	if strings.Contains(name, Separator) {
		return fmt.Errorf("%w: %q contains %q", ErrBadProviderName, name, Separator)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q contains whitespace", ErrBadProviderName, name)
	}
	return nil
}
