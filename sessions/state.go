package sessions

// State is the authentication status observed by the UI.
type State struct {
	Loading          bool   // A restore, login transition or logout cleanup is in flight
	Guest            bool   // No authenticated identity
	ClientID         string // Authenticated client, empty for guests once settled
	LogoutInProgress bool   // Remote sign-out pending
}

// InitialState is the state of a freshly started process.
func InitialState() State {
	return State{
		Loading:  true,
		Guest:    true,
		ClientID: "",
	}
}

// Authenticated reports whether the state carries a signed in identity.
func (s State) Authenticated() bool {
	return !s.Guest
}

// normalize enforces that a settled guest state carries no client id. While
// loading, a restore may pre-fill the persisted id for optimistic rendering.
func (s State) normalize() State {
	if s.Guest && !s.Loading {
		s.ClientID = ""
	}
	return s
}
