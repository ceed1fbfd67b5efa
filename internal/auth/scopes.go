package auth

// Known OAuth scopes used by the engine.
const (
	ScopeWorkoutsWrite = "workouts:write"
	ScopeWorkoutsRead  = "workouts:read"
	ScopeProgressRead  = "progress:read"
	ScopeSyncWrite     = "sync:write"
)
