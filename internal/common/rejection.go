package common

import "fmt"

// Rejection is a user-facing refusal. Its message is surfaced verbatim to the
// client; any other error stays internal.
type Rejection struct {
	Msg string
}

func (r *Rejection) Error() string { return r.Msg }

func Rejectf(format string, args ...any) error {
	return &Rejection{Msg: fmt.Sprintf(format, args...)}
}
