package domain

// Phase enumerates the session lifecycle. Exactly one phase holds at any
// time; it is derived, never set directly, so impossible combinations of the
// underlying booleans cannot occur.
type Phase int

const (
	// PhaseUninitialized means the boot check has not completed yet.
	PhaseUninitialized Phase = iota

	// PhaseUnauthenticated means no usable token is stored.
	PhaseUnauthenticated

	// PhaseResolving means a token is present and the current-user fetch is
	// in flight.
	PhaseResolving

	// PhaseAuthenticated means the current user was fetched with the stored
	// token.
	PhaseAuthenticated

	// PhaseInvalid means a request proved the stored token pair unusable, or
	// the user fetch failed for a non-auth reason and needs a retry.
	PhaseInvalid
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseUnauthenticated:
		return "unauthenticated"
	case PhaseResolving:
		return "resolving"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// SessionState is the tagged union of phase and, when authenticated, the
// fetched user.
type SessionState struct {
	Phase Phase
	User  User // zero unless Phase == PhaseAuthenticated
}

// DeriveState is the single transition function. Inputs:
//
//   - hasToken: nil until the boot check resolves token presence, then the
//     result of that check;
//   - loading: whether the current-user fetch is in flight;
//   - fetchErr: the terminal error of the last fetch, nil on success;
//   - user: the fetched user, zero if none.
//
// Every snapshot the coordinator publishes is produced here, and only here.
func DeriveState(hasToken *bool, loading bool, fetchErr error, user User) SessionState {
	switch {
	case hasToken == nil:
		return SessionState{Phase: PhaseUninitialized}
	case !*hasToken:
		return SessionState{Phase: PhaseUnauthenticated}
	case loading:
		return SessionState{Phase: PhaseResolving}
	case fetchErr != nil:
		return SessionState{Phase: PhaseInvalid}
	case user.IsZero():
		// Token present, fetch finished, but no user: treat as resolving
		// not yet started.
		return SessionState{Phase: PhaseResolving}
	default:
		return SessionState{Phase: PhaseAuthenticated, User: user}
	}
}

// Snapshot is the read-only view consumed by the rest of the app. The
// loading screen is shown exactly while Initialized is false.
type Snapshot struct {
	Initialized   bool
	Authenticated bool
	FirstLaunch   bool
	User          User
}

// SnapshotOf projects a state into the app-facing snapshot. Authenticated is
// true iff a user is present; a stored token the server rejects never counts.
func SnapshotOf(state SessionState, firstLaunch bool) Snapshot {
	return Snapshot{
		Initialized:   state.Phase != PhaseUninitialized && state.Phase != PhaseResolving,
		Authenticated: state.Phase == PhaseAuthenticated,
		FirstLaunch:   firstLaunch,
		User:          state.User,
	}
}
