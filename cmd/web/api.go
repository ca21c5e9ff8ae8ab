package main

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maht0rz/spartans-club-web/internal/analytics"
	"github.com/maht0rz/spartans-club-web/internal/consent"
	mw "github.com/maht0rz/spartans-club-web/internal/middleware"
)

const maxAPIBody = 16 << 10

type consentRequest struct {
	State string `json:"state"`
}

type consentResponse struct {
	State string `json:"state"`
}

// handleConsent stores the banner decision. Forms are redirected back to the page they
// came from; JSON callers get the stored state. Declining also expires any analytics
// cookies the request carried.
func (s *server) handleConsent(w http.ResponseWriter, r *http.Request) {
	asJSON := isJSON(r)
	var raw string
	if asJSON {
		var in consentRequest
		if err := json.NewDecoder(io.LimitReader(r.Body, maxAPIBody)).Decode(&in); err != nil {
			mw.WriteError(w, r, http.StatusBadRequest, "invalid json body")
			return
		}
		raw = in.State
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, maxAPIBody)
		if err := r.ParseForm(); err != nil {
			mw.WriteError(w, r, http.StatusBadRequest, "invalid form body")
			return
		}
		raw = r.PostForm.Get("state")
	}

	state := consent.ParseState(raw)
	if !state.Decided() {
		mw.WriteError(w, r, http.StatusBadRequest, "state must be granted or denied")
		return
	}

	c := state.Cookie()
	c.Secure = s.secureCookies()
	http.SetCookie(w, c)
	if state == consent.Denied {
		names := make([]string, 0, len(r.Cookies()))
		for _, rc := range r.Cookies() {
			names = append(names, rc.Name)
		}
		for _, ec := range consent.ExpiryCookies(names, r.Host) {
			http.SetCookie(w, ec)
		}
	}

	if asJSON {
		mw.WriteJSON(w, http.StatusOK, consentResponse{State: state.String()})
		return
	}
	http.Redirect(w, r, backTarget(r), http.StatusSeeOther)
}

type eventRequest struct {
	Name  string          `json:"name"`
	Props analytics.Props `json:"props"`
}

type eventResponse struct {
	ID string `json:"id"`
}

// handleEvents relays a browser event. Visitors without a grant get 204 and nothing
// leaves the server.
func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var in eventRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAPIBody)).Decode(&in); err != nil {
		mw.WriteError(w, r, http.StatusBadRequest, "invalid json body")
		return
	}

	state := consent.FromRequest(r)
	clientID := ""
	if state == consent.Granted {
		clientID = s.clientID(w, r)
	}

	ev, err := s.relay.Forward(r.Context(), analytics.Incoming{
		Consent:  state,
		ClientID: clientID,
		Name:     in.Name,
		Props:    in.Props,
	})
	switch {
	case errors.Is(err, analytics.ErrNotConsented):
		w.WriteHeader(http.StatusNoContent)
		return
	case errors.Is(err, analytics.ErrInvalidEvent):
		mw.WriteError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	// transport failures are logged by the relay and never surface to the browser
	mw.WriteJSON(w, http.StatusAccepted, eventResponse{ID: ev.ID})
}

// clientID returns the visitor's relay id, issuing one on first use.
func (s *server) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(consent.ClientIDCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     consent.ClientIDCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int((2 * 365 * 24 * time.Hour) / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// backTarget is the same-host path of the Referer, or the site root.
func backTarget(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
