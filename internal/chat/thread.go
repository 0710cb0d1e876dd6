package chat

import "sort"

// ThreadKey identifies a two-party thread: the member pair sorted into
// lexicographic order. Two messages belong to the same thread iff their
// keys are equal, regardless of which member asks.
type ThreadKey [2]string

// NewThreadKey builds the canonical key for a member pair.
func NewThreadKey(a, b string) (ThreadKey, error) {
	if a == "" || b == "" {
		return ThreadKey{}, ErrEmptyMember
	}
	if a == b {
		return ThreadKey{}, ErrSameMember
	}
	if a > b {
		a, b = b, a
	}
	return ThreadKey{a, b}, nil
}

// Members returns the sorted member pair as a slice, the form stored in
// message documents.
func (k ThreadKey) Members() []string {
	return []string{k[0], k[1]}
}

// Contains reports whether id is one of the two members.
func (k ThreadKey) Contains(id string) bool {
	return k[0] == id || k[1] == id
}

// Counterpart returns the other member relative to id.
func (k ThreadKey) Counterpart(id string) (string, bool) {
	switch id {
	case k[0]:
		return k[1], true
	case k[1]:
		return k[0], true
	default:
		return "", false
	}
}

// String renders the key as "a:b", used for broker subjects and logs.
func (k ThreadKey) String() string {
	return k[0] + ":" + k[1]
}

// SortMessages orders a thread for presentation: ascending by timestamp,
// with messages lacking a resolved timestamp sorted last (still in
// flight). The sort is stable so equal timestamps keep fetch order.
func SortMessages(msgs []*Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		ti, tj := msgs[i].Timestamp, msgs[j].Timestamp
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.Before(*tj)
		}
	})
}
