package models

import "strconv"

// Team identifies the side a player is on. The zero value is TeamNone.
type Team string

const (
	TeamNone      Team = "none"
	TeamSpectator Team = "spec"
	TeamT         Team = "t"
	TeamCT        Team = "ct"
)

// Rule binds a token to a tag. The token is either the decimal string form of
// a player identity (a per-player override) or a permission/group name
// checked against the permission oracle. Order in the rule list defines
// precedence: first match wins.
type Rule struct {
	Token string `json:"token" yaml:"token"`
	Tag   Tag    `json:"tag" yaml:"tag"`
}

// Settings carries the chat formatting knobs that are not per-player:
// the server prefix shown before service replies, the name shown for dead
// players, and per-team prefix and chat names.
type Settings struct {
	ServerPrefix    string          `json:"server_prefix" yaml:"server_prefix"`
	DeadName        string          `json:"dead_name" yaml:"dead_name"`
	TeamPrefixNames map[Team]string `json:"team_prefix_names" yaml:"team_prefix_names"`
	TeamChatNames   map[Team]string `json:"team_chat_names" yaml:"team_chat_names"`
}

// PrefixName returns the configured prefix for a team, or "".
func (s *Settings) PrefixName(team Team) string {
	return s.TeamPrefixNames[team]
}

// ChatName returns the configured chat name for a team, or "".
func (s *Settings) ChatName(team Team) string {
	return s.TeamChatNames[team]
}

// RuleSet is one immutable snapshot of the rule configuration. Snapshots are
// replaced wholesale on reload and never mutated in place, so resolution
// always reads a consistent view.
type RuleSet struct {
	Default  Tag      `json:"default" yaml:"default"`
	Rules    []Rule   `json:"rules" yaml:"rules"`
	Settings Settings `json:"settings" yaml:"settings"`
}

// LiteralToken returns the rule token form of a numeric identity.
func LiteralToken(identity uint64) string {
	return strconv.FormatUint(identity, 10)
}
