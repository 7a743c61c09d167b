package models

// Tag is the resolved display identity for one player: what shows on the
// scoreboard, how their name and messages are colored in chat, and their
// chat-sound and visibility preferences.
type Tag struct {
	ScoreTag  string `json:"score_tag" yaml:"score_tag"`
	ChatTag   string `json:"chat_tag" yaml:"chat_tag"`
	NameColor string `json:"name_color" yaml:"name_color"`
	ChatColor string `json:"chat_color" yaml:"chat_color"`
	ChatSound bool   `json:"chat_sound" yaml:"chat_sound"`
	Visible   bool   `json:"visible" yaml:"visible"`
}

// Clone returns an independent copy. Every read that hands a tag to a caller
// who might mutate it must go through Clone so one caller's mutation cannot
// leak into the cache or another caller's view.
func (t Tag) Clone() *Tag {
	c := t
	return &c
}

// ContentEqual reports whether the four resolved display fields match.
// ChatSound and Visible are user preferences, not resolved attributes, and
// are deliberately excluded: change suppression must not fire just because a
// player toggled a preference, and a preference toggle must not look like a
// permission change.
func (t *Tag) ContentEqual(o *Tag) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.ScoreTag == o.ScoreTag &&
		t.ChatTag == o.ChatTag &&
		t.NameColor == o.NameColor &&
		t.ChatColor == o.ChatColor
}

// Kind selects one or more tag attributes for a mutation. Values combine as
// a bit set so a single call can touch several fields.
type Kind uint8

const (
	KindScoreTag Kind = 1 << iota
	KindChatTag
	KindNameColor
	KindChatColor
)

// Has reports whether k selects the given single kind.
func (k Kind) Has(kind Kind) bool {
	return k&kind != 0
}

// Position controls how a new value composes with an existing field value.
type Position uint8

const (
	// PositionReplace overwrites the existing value.
	PositionReplace Position = iota
	// PositionBefore prepends the new value.
	PositionBefore
	// PositionAfter appends the new value.
	PositionAfter
)

// Compose combines an existing field value with a new one according to the
// position. Unknown positions behave as replace.
func Compose(pos Position, old, value string) string {
	switch pos {
	case PositionBefore:
		return value + old
	case PositionAfter:
		return old + value
	default:
		return value
	}
}

// Field returns the value of exactly one attribute kind, or "" when the kind
// is not a single recognized attribute.
func (t *Tag) Field(kind Kind) string {
	switch kind {
	case KindScoreTag:
		return t.ScoreTag
	case KindChatTag:
		return t.ChatTag
	case KindNameColor:
		return t.NameColor
	case KindChatColor:
		return t.ChatColor
	default:
		return ""
	}
}

// SetField writes the value of exactly one attribute kind. Unrecognized kinds
// are ignored.
func (t *Tag) SetField(kind Kind, value string) {
	switch kind {
	case KindScoreTag:
		t.ScoreTag = value
	case KindChatTag:
		t.ChatTag = value
	case KindNameColor:
		t.NameColor = value
	case KindChatColor:
		t.ChatColor = value
	}
}

// Kinds enumerates the single attribute kinds in a stable order.
var Kinds = []Kind{KindScoreTag, KindChatTag, KindNameColor, KindChatColor}

// ParseKind maps a wire name to a single attribute kind.
func ParseKind(name string) (Kind, bool) {
	switch name {
	case "score_tag":
		return KindScoreTag, true
	case "chat_tag":
		return KindChatTag, true
	case "name_color":
		return KindNameColor, true
	case "chat_color":
		return KindChatColor, true
	default:
		return 0, false
	}
}

// ParsePosition maps a wire name to a composition position. Unknown names
// fall back to replace.
func ParsePosition(name string) Position {
	switch name {
	case "before":
		return PositionBefore
	case "after":
		return PositionAfter
	default:
		return PositionReplace
	}
}
