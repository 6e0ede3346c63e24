// Package session keeps the default ASTROX client that endpoint wrappers use when the
// caller does not pass one explicitly.
//
// Defaults live in scopes carried by a context.Context. Every context without a scope,
// including context.Background() and anything derived from it, shares one process-wide
// root scope: Configure on such a context changes the default for every other caller
// that has not forked its own scope.
//
// Code that needs its own default, such as a request handler, a worker goroutine or a
// test, should fork a scope first:
//
//	ctx = session.NewContext(ctx)
//	session.Configure(ctx, cfg)
//
// NewContext and WithClient both fork a child scope; Configure on it never reaches the
// root or any sibling.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/gaborage/go-astrox/httpclient"
)

// scope holds at most one client.
type scope struct {
	mu     sync.Mutex
	client httpclient.Client
}

func (s *scope) current() httpclient.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.client
}

type scopeKey struct{}

var (
	root = &scope{}

	optionsMu      sync.RWMutex
	defaultOptions []httpclient.Option
)

func scopeFrom(ctx context.Context) *scope {
	if ctx != nil {
		if s, ok := ctx.Value(scopeKey{}).(*scope); ok {
			return s
		}
	}
	return root
}

func options(extra []httpclient.Option) []httpclient.Option {
	optionsMu.RLock()
	defer optionsMu.RUnlock()
	out := make([]httpclient.Option, 0, len(defaultOptions)+len(extra))
	out = append(out, defaultOptions...)
	return append(out, extra...)
}

// SetDefaultOptions sets the options applied whenever this package builds a client,
// for example a process-wide logger. Clients that already exist are not affected.
func SetDefaultOptions(opts ...httpclient.Option) {
	optionsMu.Lock()
	defer optionsMu.Unlock()
	defaultOptions = append([]httpclient.Option(nil), opts...)
}

// Get returns the scope's client, creating one with the default configuration on first
// use. Later calls return the identical instance until Configure replaces it.
func Get(ctx context.Context) httpclient.Client {
	s := scopeFrom(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		c, err := httpclient.NewDefault(options(nil)...)
		if err != nil {
			// The default configuration always validates.
			panic(fmt.Sprintf("session: building default client: %v", err))
		}
		s.client = c
	}
	return s.client
}

// Configure builds a client from cfg and makes it the scope's default. Handles obtained
// earlier keep their old configuration. On error the scope is left unchanged.
func Configure(ctx context.Context, cfg httpclient.RequestConfig, opts ...httpclient.Option) (httpclient.Client, error) {
	c, err := httpclient.New(cfg, options(opts)...)
	if err != nil {
		return nil, err
	}

	s := scopeFrom(ctx)
	s.mu.Lock()
	s.client = c
	s.mu.Unlock()
	return c, nil
}

// NewContext returns a context with a child scope that starts out with the parent's
// current client. Configure on the child never affects the parent.
func NewContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	child := &scope{client: scopeFrom(ctx).current()}
	return context.WithValue(ctx, scopeKey{}, child)
}

// WithClient returns a context with a child scope whose default is c.
func WithClient(ctx context.Context, c httpclient.Client) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeKey{}, &scope{client: c})
}

// Resolve returns explicit when it is non-nil and the scope's default otherwise.
func Resolve(ctx context.Context, explicit httpclient.Client) httpclient.Client {
	if explicit != nil {
		return explicit
	}
	return Get(ctx)
}

// ResetForTesting clears the root scope and the default options.
func ResetForTesting() {
	root.mu.Lock()
	root.client = nil
	root.mu.Unlock()
	SetDefaultOptions()
}
