package reaction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is a user's stance toward a target. The numeric values are what the
// reactions table stores, the same 1 / -1 convention votes have always used.
type Kind int

const (
	KindNone    Kind = 0
	KindLike    Kind = 1
	KindDislike Kind = -1
)

// ParseKind accepts "like" or "dislike" (case-insensitive). "none" is not a
// request a caller can make.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "like":
		return KindLike, nil
	case "dislike":
		return KindDislike, nil
	}
	return KindNone, fmt.Errorf("%w: %q", ErrInvalidReactionKind, s)
}

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindLike:
		return "like"
	case KindDislike:
		return "dislike"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the three known stances.
func (k Kind) Valid() bool {
	return k == KindNone || k == KindLike || k == KindDislike
}

// Requestable reports whether k may be passed to Decide as the requested kind.
func (k Kind) Requestable() bool {
	return k == KindLike || k == KindDislike
}

// MarshalJSON renders None as null so clients can test the field directly.
func (k Kind) MarshalJSON() ([]byte, error) {
	if k == KindNone {
		return []byte("null"), nil
	}
	return json.Marshal(k.String())
}

// Action describes what a toggle did to the caller's reaction.
type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
	ActionChanged Action = "changed"
)

// TargetType names the kind of content a reaction points at.
type TargetType string

const (
	TargetPost    TargetType = "post"
	TargetComment TargetType = "comment"
)

// ParseTargetType maps a route segment ("posts", "post", "comments", ...) to
// a TargetType.
func ParseTargetType(s string) (TargetType, error) {
	switch strings.ToLower(s) {
	case "post", "posts":
		return TargetPost, nil
	case "comment", "comments":
		return TargetComment, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidTarget, s)
}

// TargetRef identifies a post or a comment.
type TargetRef struct {
	Type TargetType
	ID   uint
}

func (r TargetRef) String() string {
	return fmt.Sprintf("%s/%d", r.Type, r.ID)
}

// Validate rejects unknown types and zero ids before any storage call.
func (r TargetRef) Validate() error {
	if r.Type != TargetPost && r.Type != TargetComment {
		return fmt.Errorf("%w: type %q", ErrInvalidTarget, r.Type)
	}
	if r.ID == 0 {
		return fmt.Errorf("%w: zero id", ErrInvalidTarget)
	}
	return nil
}

// Target is the counter view of a post or comment.
type Target struct {
	Ref          TargetRef
	LikeCount    int64
	DislikeCount int64
}
