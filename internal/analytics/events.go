// Package analytics defines the site's metrics events and the consent-gated paths
// that deliver them.
package analytics

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Name identifies a metrics event.
type Name string

const (
	SectionView Name = "section_view"
	CTAClick    Name = "cta_click"
	SocialClick Name = "social_click"
)

// Names lists every accepted event name.
var Names = []Name{SectionView, CTAClick, SocialClick}

// ErrInvalidEvent is wrapped by validation failures.
var ErrInvalidEvent = errors.New("analytics: invalid event")

const (
	maxProps       = 25
	maxPropKeyLen  = 40
	maxPropTextLen = 100
)

// ParseName accepts only the known event names.
func ParseName(s string) (Name, error) {
	n := Name(strings.TrimSpace(s))
	for _, known := range Names {
		if n == known {
			return n, nil
		}
	}
	return "", fmt.Errorf("%w: unknown name %q", ErrInvalidEvent, s)
}

// Props is a flat bag of primitive values: strings, booleans, numbers or nil.
type Props map[string]any

// Validate checks that p is flat and within the GA4 parameter limits.
func (p Props) Validate() error {
	if len(p) > maxProps {
		return fmt.Errorf("%w: %d props, limit %d", ErrInvalidEvent, len(p), maxProps)
	}
	for k, v := range p {
		if k == "" || len(k) > maxPropKeyLen {
			return fmt.Errorf("%w: bad prop key %q", ErrInvalidEvent, k)
		}
		switch val := v.(type) {
		case nil, bool, float64, float32, int, int32, int64, uint, uint32, uint64, json.Number:
		case string:
			if len(val) > maxPropTextLen {
				return fmt.Errorf("%w: prop %q longer than %d", ErrInvalidEvent, k, maxPropTextLen)
			}
		default:
			return fmt.Errorf("%w: prop %q has non-primitive type %T", ErrInvalidEvent, k, v)
		}
	}
	return nil
}

// Keys returns the prop keys in sorted order.
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Event is one metrics record ready for a transport.
type Event struct {
	ID       string
	Name     Name
	Props    Props
	ClientID string
	Time     time.Time
}

// NewEvent validates name and props and stamps the event with a ulid.
func NewEvent(name Name, props Props, now time.Time) (Event, error) {
	if _, err := ParseName(string(name)); err != nil {
		return Event{}, err
	}
	if err := props.Validate(); err != nil {
		return Event{}, err
	}
	if props == nil {
		props = Props{}
	}
	return Event{
		ID:    ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Name:  name,
		Props: props,
		Time:  now,
	}, nil
}
