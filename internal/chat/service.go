package chat

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// messageRepo is the storage interface consumed by Service.
type messageRepo interface {
	Insert(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	ListThread(ctx context.Context, key ThreadKey) ([]*Message, error)
	ListByMember(ctx context.Context, userID string) ([]*Message, error)
	AcceptSchedule(ctx context.Context, id, acceptorID string) (bool, error)
	MarkRead(ctx context.Context, ids []string, readerID string) (int64, error)
}

// ScheduleNotifier receives schedule lifecycle events. Implementations
// must be best-effort: they may not block or fail the send path.
type ScheduleNotifier interface {
	ScheduleProposed(ctx context.Context, msg *Message)
	ScheduleAccepted(ctx context.Context, msg *Message)
}

// Service is the chat session controller: it orchestrates thread loads,
// message submission, the schedule state machine, read-receipt batching,
// and live-update subscriptions for two-party threads.
type Service struct {
	messages     messageRepo
	broker       Broker
	notifier     ScheduleNotifier
	meetLinkBase string
	logger       *zap.Logger
}

// NewService creates a chat Service. meetLinkBase is the URL prefix for
// generated meeting links.
func NewService(messages messageRepo, broker Broker, meetLinkBase string, logger *zap.Logger) *Service {
	if meetLinkBase == "" {
		meetLinkBase = "https://meet.skillswap.dev/"
	}
	return &Service{
		messages:     messages,
		broker:       broker,
		meetLinkBase: meetLinkBase,
		logger:       logger,
	}
}

// SetNotifier configures schedule email notifications. Optional.
func (s *Service) SetNotifier(n ScheduleNotifier) {
	s.notifier = n
}

// LoadThread returns the full thread between the two users, ordered
// ascending by server timestamp with in-flight messages last. Thread
// identity is symmetric: LoadThread(a, b) and LoadThread(b, a) return
// the same set.
func (s *Service) LoadThread(ctx context.Context, currentUserID, counterpartID string) ([]*Message, error) {
	key, err := NewThreadKey(currentUserID, counterpartID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListThread(ctx, key)
	if err != nil {
		return nil, err
	}
	SortMessages(msgs)
	return msgs, nil
}

// SendText submits a plain-text message to the thread. Empty or
// whitespace-only text is rejected before any store I/O. On store
// rejection the returned error is a *SendError carrying the attempted
// draft; the caller decides whether to retry.
func (s *Service) SendText(ctx context.Context, currentUserID, counterpartID, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	key, err := NewThreadKey(currentUserID, counterpartID)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, &Message{
		SenderID: currentUserID,
		Members:  key,
		Content:  TextContent(text),
	})
}

// ScheduleDraft is the caller-supplied part of a schedule proposal.
type ScheduleDraft struct {
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// SendSchedule submits a meeting proposal to the thread. The proposal
// starts pending, carries the sender as proposer, and gets a freshly
// generated meeting link.
func (s *Service) SendSchedule(ctx context.Context, currentUserID, counterpartID string, draft ScheduleDraft) (*Message, error) {
	if strings.TrimSpace(draft.Title) == "" || draft.Date.IsZero() {
		return nil, ErrInvalidSchedule
	}
	key, err := NewThreadKey(currentUserID, counterpartID)
	if err != nil {
		return nil, err
	}
	return s.send(ctx, &Message{
		SenderID: currentUserID,
		Members:  key,
		Content: ScheduleContent(ScheduleDetails{
			ProposerID: currentUserID,
			Date:       draft.Date.UTC(),
			Title:      strings.TrimSpace(draft.Title),
			MeetLink:   s.meetLinkBase + uuid.NewString(),
			Status:     StatusPending,
		}),
	})
}

func (s *Service) send(ctx context.Context, msg *Message) (*Message, error) {
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, &SendError{Draft: msg, Err: err}
	}
	s.broker.Publish(msg.Members, *msg)
	if s.notifier != nil && msg.Content.Kind == KindSchedule {
		s.notifier.ScheduleProposed(ctx, msg)
	}
	return msg, nil
}

// AcceptSchedule transitions a pending proposal to accepted on behalf of
// userID. Only a thread member other than the proposer may accept.
// Accepting an already-accepted proposal is a no-op, so a racing
// double-accept resolves safely. The underlying store update re-checks
// every condition, so the checks here cannot be bypassed by calling the
// repository directly either.
func (s *Service) AcceptSchedule(ctx context.Context, userID, messageID string) (*Message, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.Content.Kind != KindSchedule {
		return nil, ErrNotSchedule
	}
	if !msg.Members.Contains(userID) {
		return nil, ErrNotThreadMember
	}
	if msg.Content.Schedule.ProposerID == userID {
		return nil, ErrScheduleByProposer
	}
	if msg.Content.Schedule.Status == StatusAccepted {
		return msg, nil
	}

	transitioned, err := s.messages.AcceptSchedule(ctx, messageID, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if transitioned {
		s.broker.Publish(updated.Members, *updated)
		if s.notifier != nil {
			s.notifier.ScheduleAccepted(ctx, updated)
		}
	}
	return updated, nil
}

// MarkRead flags every unread counterpart message in the given snapshot
// as read, in a single batch. Idempotent: a second call over the same
// snapshot updates nothing. Failures are logged and swallowed — read
// receipts are best-effort and must never degrade chat usability.
func (s *Service) MarkRead(ctx context.Context, currentUserID string, msgs []*Message) int64 {
	var ids []string
	for _, m := range msgs {
		if m.SenderID != currentUserID && !m.IsRead && m.ID != "" {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return 0
	}
	n, err := s.messages.MarkRead(ctx, ids, currentUserID)
	if err != nil {
		s.logger.Warn("mark read failed",
			zap.String("user_id", currentUserID),
			zap.Int("messages", len(ids)),
			zap.Error(err),
		)
		return 0
	}
	return n
}

// Subscribe opens a live-update stream for the thread between the two
// users. The caller must invoke the returned cancel function when the
// thread closes.
func (s *Service) Subscribe(currentUserID, counterpartID string) (<-chan Message, CancelFunc, error) {
	key, err := NewThreadKey(currentUserID, counterpartID)
	if err != nil {
		return nil, nil, err
	}
	return s.broker.Subscribe(key)
}
