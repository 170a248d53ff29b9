package session

import "time"

// Session holds the opaque bearer token of one logged-in browser.
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticated reports whether a token is present. Expiry is not checked
// here; the backend reports it with a 401.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}
