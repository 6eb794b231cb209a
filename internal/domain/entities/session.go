package entities

// Session supplies the acting-user identity for every operation. The
// caller name must be resolvable to a provider account by that same
// username.
type Session interface {
	CallerName() string
}

// StaticSession is a Session with a fixed caller, used by the CLI
// controllers and by tests.
type StaticSession struct {
	Caller string
}

func (s StaticSession) CallerName() string { return s.Caller }
