package usecase

import (
	"errors"
	"fmt"

	"github.com/ponyo877/lanshare/server/domain"
)

var (
	ErrNoHost    = errors.New("no host available")
	ErrRouteMiss = errors.New("route target unavailable")
)

// Router picks the session a signaling or relay message goes to. It keeps no
// state of its own: every decision is read from the registries.
//
// Host selection walks the host set in host-join order and takes the first
// live candidate. Callers must not rely on which host that is.
type Router struct {
	state *domain.State
}

func NewRouter(state *domain.State) *Router {
	return &Router{state: state}
}

// RouteDownload selects a host to serve itemID to requesterID. The requester
// is never its own host.
func (r *Router) RouteDownload(itemID, requesterID string) (string, error) {
	for _, host := range r.state.Contents.HostsOf(itemID) {
		if host != requesterID && r.state.Sessions.Contains(host) {
			return host, nil
		}
	}
	return "", fmt.Errorf("download %q: %w", itemID, ErrNoHost)
}

// RouteOffer addresses an offer from fromID. An explicit target wins when it
// is live; otherwise the offer goes to some other host of the item.
func (r *Router) RouteOffer(itemID, fromID, targetID string) (string, error) {
	if targetID != "" {
		if targetID != fromID && r.state.Sessions.Contains(targetID) {
			return targetID, nil
		}
		return "", fmt.Errorf("offer %q to %s: %w", itemID, targetID, ErrRouteMiss)
	}
	for _, host := range r.state.Contents.HostsOf(itemID) {
		if host != fromID && r.state.Sessions.Contains(host) {
			return host, nil
		}
	}
	return "", fmt.Errorf("offer %q from %s: %w", itemID, fromID, ErrRouteMiss)
}

// RouteDirect resolves an explicitly addressed message.
func (r *Router) RouteDirect(targetID string) (string, error) {
	if targetID == "" || !r.state.Sessions.Contains(targetID) {
		return "", fmt.Errorf("direct to %q: %w", targetID, ErrRouteMiss)
	}
	return targetID, nil
}
