package consent

import (
	"encoding/json"
	"fmt"
)

// Recorder stores an explicit decision outside the page. The server side can expire
// cookies the document cannot reach, such as the HttpOnly relay client id.
type Recorder interface {
	Record(s State) error
}

// Beacon records decisions by posting {"state": ...} to the consent endpoint with a
// fire-and-forget poster, e.g. navigator.sendBeacon.
type Beacon struct {
	URL  string
	Post func(url string, body []byte) bool
}

func (b Beacon) Record(s State) error {
	if b.Post == nil {
		return fmt.Errorf("consent: beacon has no poster")
	}
	body, err := json.Marshal(struct {
		State string `json:"state"`
	}{State: s.String()})
	if err != nil {
		return fmt.Errorf("consent: encode beacon: %w", err)
	}
	if !b.Post(b.URL, body) {
		return fmt.Errorf("consent: beacon for %s was not queued", s)
	}
	return nil
}
