// Package chat implements two-party message threads: the message model,
// canonical thread identity, the session controller, the conversation
// list aggregator, and the inline meeting-scheduling sub-protocol.
package chat

import (
	"encoding/json"
	"time"
)

// ScheduleStatus is the lifecycle state of a schedule proposal.
type ScheduleStatus string

const (
	// StatusPending is the initial state of every proposal.
	StatusPending ScheduleStatus = "pending"
	// StatusAccepted is terminal. Only the non-proposer member can
	// trigger the transition; there is no decline or re-propose path.
	StatusAccepted ScheduleStatus = "accepted"
)

// ScheduleDetails is the structured payload of a meeting proposal
// embedded in a message.
type ScheduleDetails struct {
	ProposerID string         `json:"proposer_id"`
	Date       time.Time      `json:"date"`
	Title      string         `json:"title"`
	MeetLink   string         `json:"meet_link"`
	Status     ScheduleStatus `json:"status"`
}

// ContentKind discriminates the message content union.
type ContentKind int

const (
	// KindUnknown marks content whose stored shape we do not recognise.
	// Unknown content is carried but renders as nothing, never an error.
	KindUnknown ContentKind = iota
	KindText
	KindSchedule
)

// Content is the tagged union of message payloads: plain text or a
// schedule proposal.
type Content struct {
	Kind     ContentKind
	Text     string
	Schedule *ScheduleDetails
}

// TextContent builds a plain-text content value.
func TextContent(text string) Content {
	return Content{Kind: KindText, Text: text}
}

// ScheduleContent builds a schedule-proposal content value.
func ScheduleContent(d ScheduleDetails) Content {
	return Content{Kind: KindSchedule, Schedule: &d}
}

// Preview returns the one-line conversation-list preview of the content.
func (c Content) Preview() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindSchedule:
		return "Meeting request: " + c.Schedule.Title
	default:
		return ""
	}
}

type contentJSON struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	Schedule *ScheduleDetails `json:"schedule,omitempty"`
}

// MarshalJSON encodes the union with an explicit type discriminator.
func (c Content) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindText:
		return json.Marshal(contentJSON{Type: "text", Text: c.Text})
	case KindSchedule:
		return json.Marshal(contentJSON{Type: "schedule", Schedule: c.Schedule})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes the union, tolerating unknown shapes.
func (c *Content) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Content{}
		return nil
	}
	var raw contentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Type == "text":
		*c = TextContent(raw.Text)
	case raw.Type == "schedule" && raw.Schedule != nil:
		*c = Content{Kind: KindSchedule, Schedule: raw.Schedule}
	default:
		*c = Content{}
	}
	return nil
}

// Message is a single entry in a two-party thread.
//
// SenderID, Members, and Timestamp are immutable once created. Only the
// schedule status inside Content and the IsRead flag mutate afterwards,
// and each only by the non-sender / non-proposer member respectively.
type Message struct {
	ID       string    `json:"id"`
	SenderID string    `json:"sender_id"`
	Members  ThreadKey `json:"members"`
	Content  Content   `json:"content"`
	// Timestamp is assigned by the store on creation. Nil means the
	// message is still in flight and has no authoritative position yet.
	Timestamp *time.Time `json:"timestamp,omitempty"`
	IsRead    bool       `json:"is_read"`
}
