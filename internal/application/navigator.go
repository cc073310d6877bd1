package application

import (
	"sync"

	"github.com/bnema/atlas-crm-cli/internal/ports"
)

// LoginRedirect is the terminal stand-in for sending the user back to the
// login screen: it records the redirect and notifies subscribers.
type LoginRedirect struct {
	mu        sync.Mutex
	redirects int
	reason    error
	hooks     []func(error)
}

var _ ports.Navigator = (*LoginRedirect)(nil)

func NewLoginRedirect() *LoginRedirect {
	return &LoginRedirect{}
}

func (r *LoginRedirect) ToLogin(reason error) {
	r.mu.Lock()
	r.redirects++
	r.reason = reason
	hooks := append([]func(error){}, r.hooks...)
	r.mu.Unlock()

	for _, hook := range hooks {
		hook(reason)
	}
}

func (r *LoginRedirect) OnRedirect(fn func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

func (r *LoginRedirect) Redirects() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.redirects
}

func (r *LoginRedirect) LastReason() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reason
}
