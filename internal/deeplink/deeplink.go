// ABOUTME: Parses scheme://save?url=... and scheme://import deep links
// ABOUTME: save hands a single URL to the add flow, import triggers a pending-queue drain
package deeplink

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Action is what a deep link asks the app to do
type Action string

const (
	ActionSave   Action = "save"
	ActionImport Action = "import"
)

// ErrUnsupported is returned for a foreign scheme or an unknown action
var ErrUnsupported = errors.New("unsupported deep link")

// Link is a parsed deep link. URL is only set for ActionSave.
type Link struct {
	Action Action
	URL    string
}

// Parse decodes raw against scheme. The action is the host
// (stash://save?url=...) or, when the host is empty, the first path segment
// (stash:///save?url=... or stash:save?url=...).
func Parse(raw, scheme string) (Link, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Link{}, fmt.Errorf("invalid deep link: %w", err)
	}
	if !strings.EqualFold(u.Scheme, scheme) {
		return Link{}, fmt.Errorf("%w: scheme %q", ErrUnsupported, u.Scheme)
	}

	action := u.Host
	if action == "" {
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		action = strings.SplitN(strings.Trim(path, "/"), "/", 2)[0]
	}

	switch Action(strings.ToLower(action)) {
	case ActionSave:
		target := strings.TrimSpace(u.Query().Get("url"))
		if target == "" {
			return Link{}, fmt.Errorf("save link has no url parameter")
		}
		return Link{Action: ActionSave, URL: target}, nil
	case ActionImport:
		return Link{Action: ActionImport}, nil
	default:
		return Link{}, fmt.Errorf("%w: action %q", ErrUnsupported, action)
	}
}
