package model

// Session is the logged-in state of one CLI run, stored in Redis keyed by a
// per-process session ID. Passing it explicitly replaces any process-global
// current-user variable.
type Session struct {
	UserID   int64  `json:"userID"`
	Username string `json:"username"`
}

func (s Session) LoggedIn() bool {
	return s.UserID != 0
}
