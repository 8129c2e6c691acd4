package tailscale

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BackendState values reported by `tailscale status --json`.
const (
	BackendNeedsLogin = "NeedsLogin"
	BackendRunning    = "Running"
)

// LoginKind classifies the daemon's authentication phase.
type LoginKind int

const (
	LoginUnknown LoginKind = iota
	LoginNeedsLogin
	LoginRunning
)

func (k LoginKind) String() string {
	switch k {
	case LoginNeedsLogin:
		return "NeedsLogin"
	case LoginRunning:
		return "Running"
	default:
		return "Unknown"
	}
}

// LoginState is the derived login status. AuthURL is only available in the
// NeedsLogin state and DisplayName only in the Running state; the
// constructors are the only way to set either.
type LoginState struct {
	kind         LoginKind
	backendState string
	authURL      string
	displayName  string
}

// Unknown is the state used when status could not be read or the backend
// is in a phase the panel does not distinguish.
func Unknown(backendState string) LoginState {
	return LoginState{kind: LoginUnknown, backendState: backendState}
}

// NeedsLogin builds a NeedsLogin state. authURL may be empty.
func NeedsLogin(authURL string) LoginState {
	return LoginState{kind: LoginNeedsLogin, backendState: BackendNeedsLogin, authURL: authURL}
}

// LoggedIn builds a Running state for the given display name.
func LoggedIn(displayName string) LoginState {
	return LoginState{kind: LoginRunning, backendState: BackendRunning, displayName: displayName}
}

func (s LoginState) Kind() LoginKind      { return s.kind }
func (s LoginState) BackendState() string { return s.backendState }

// AuthURL returns the interactive login URL, present only when NeedsLogin.
func (s LoginState) AuthURL() (string, bool) {
	return s.authURL, s.kind == LoginNeedsLogin
}

// DisplayName returns the logged-in user's name, present only when Running.
func (s LoginState) DisplayName() (string, bool) {
	return s.displayName, s.kind == LoginRunning
}

type loginStateJSON struct {
	State        string  `json:"state"`
	BackendState string  `json:"backendState,omitempty"`
	AuthURL      *string `json:"authUrl,omitempty"`
	DisplayName  *string `json:"displayName,omitempty"`
}

func (s LoginState) MarshalJSON() ([]byte, error) {
	out := loginStateJSON{State: s.kind.String(), BackendState: s.backendState}
	if url, ok := s.AuthURL(); ok {
		out.AuthURL = &url
	}
	if name, ok := s.DisplayName(); ok {
		out.DisplayName = &name
	}
	return json.Marshal(out)
}

func (s *LoginState) UnmarshalJSON(data []byte) error {
	var in loginStateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.State {
	case "NeedsLogin":
		url := ""
		if in.AuthURL != nil {
			url = *in.AuthURL
		}
		*s = NeedsLogin(url)
	case "Running":
		name := ""
		if in.DisplayName != nil {
			name = *in.DisplayName
		}
		*s = LoggedIn(name)
	default:
		*s = Unknown(in.BackendState)
	}
	return nil
}

// Status is the subset of `tailscale status --json` the panel reads.
type Status struct {
	BackendState string `json:"BackendState"`
	AuthURL      string `json:"AuthURL"`
	Self         *struct {
		UserID json.RawMessage `json:"UserID"`
	} `json:"Self"`
	User map[string]struct {
		DisplayName string `json:"DisplayName"`
		LoginName   string `json:"LoginName"`
	} `json:"User"`
}

// ErrNoSelfUser is returned when a Running status lacks the profile of
// the node's own user.
var ErrNoSelfUser = errors.New("status has no profile for self user")

// ParseStatus decodes the JSON status document.
func ParseStatus(data []byte) (Status, error) {
	var st Status
	if err := json.Unmarshal(data, &st); err != nil {
		return Status{}, fmt.Errorf("decode status: %w", err)
	}
	return st, nil
}

// NeedsLoginTrigger reports whether an interactive login should be started
// to obtain an auth URL.
func (st Status) NeedsLoginTrigger() bool {
	return st.BackendState == BackendNeedsLogin && st.AuthURL == ""
}

// LoginState derives the login state. A Running status whose self user
// cannot be resolved is an error.
func (st Status) LoginState() (LoginState, error) {
	switch st.BackendState {
	case BackendNeedsLogin:
		return NeedsLogin(st.AuthURL), nil
	case BackendRunning:
		name, err := st.selfDisplayName()
		if err != nil {
			return Unknown(""), err
		}
		return LoggedIn(name), nil
	default:
		return Unknown(st.BackendState), nil
	}
}

func (st Status) selfDisplayName() (string, error) {
	if st.Self == nil || len(st.Self.UserID) == 0 {
		return "", ErrNoSelfUser
	}
	key := userKey(st.Self.UserID)
	user, ok := st.User[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoSelfUser, key)
	}
	return user.DisplayName, nil
}

// userKey renders a UserID as the key used in the User map. tailscaled
// emits numeric IDs; string IDs are accepted too.
func userKey(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
