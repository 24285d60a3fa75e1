package domain

// Caller is the authenticated principal behind a request.
type Caller struct {
	UserID string // empty in open dev mode
	Role   Role
	Scope  Scope
}

// SystemCaller is used by jobs and startup tasks.
func SystemCaller() Caller {
	return Caller{Role: RoleAdmin, Scope: GlobalScope()}
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
