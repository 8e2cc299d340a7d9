package webapp

import "github.com/trezcool/safestep/core/user"

// Session holds the current principal, if any. It is owned by the App and only
// mutated by the auth flow; everything else reads it. Authenticated() is true
// exactly when a principal is present.
type Session struct {
	principal *user.Principal
}

func (s *Session) Authenticated() bool {
	return s.principal != nil
}

func (s *Session) Principal() (user.Principal, bool) {
	if s.principal == nil {
		return user.Principal{}, false
	}
	return *s.principal, true
}

func (s *Session) setAuthenticated(usr user.Principal) {
	cp := usr
	s.principal = &cp
}

func (s *Session) clear() {
	s.principal = nil
}
