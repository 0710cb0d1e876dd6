package chat

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyMember is returned when a thread key is built with a
	// missing member identifier.
	ErrEmptyMember = errors.New("thread member id must not be empty")

	// ErrSameMember is returned when both thread members are the same
	// user.
	ErrSameMember = errors.New("cannot open a thread with yourself")

	// ErrEmptyMessage is returned for empty or whitespace-only message
	// text. Rejected before any store I/O.
	ErrEmptyMessage = errors.New("message text must not be empty")

	// ErrInvalidSchedule is returned for a schedule draft missing its
	// title or date.
	ErrInvalidSchedule = errors.New("schedule needs a title and a date")

	// ErrNotThreadMember is returned when a caller operates on a thread
	// they do not belong to.
	ErrNotThreadMember = errors.New("user is not a member of this thread")

	// ErrNotSchedule is returned when a schedule operation targets a
	// message that does not carry a schedule proposal.
	ErrNotSchedule = errors.New("message is not a schedule proposal")

	// ErrScheduleByProposer is returned when a proposer tries to accept
	// their own schedule. The UI never offers the action; rejecting it
	// here as well keeps the state machine safe if the UI is bypassed.
	ErrScheduleByProposer = errors.New("schedule cannot be accepted by its proposer")
)

// SendError reports a failed message send. The attempted draft stays
// attached so the caller can surface it for diagnostics or a manual
// retry; nothing retries automatically.
type SendError struct {
	Draft *Message
	Err   error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send message: %v", e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}
