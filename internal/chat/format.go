package chat

import (
	"regexp"
	"strings"

	"tagd/internal/tags/models"
)

// Chat control codes understood by game clients. Color tokens in config
// strings are written as {name} and translated to these just before
// delivery.
const (
	codeDefault   = "\x01"
	codeDarkRed   = "\x02"
	codeTeam      = "\x03"
	codeGreen     = "\x04"
	codeOlive     = "\x05"
	codeLime      = "\x06"
	codeRed       = "\x07"
	codeGrey      = "\x08"
	codeYellow    = "\x09"
	codeSilver    = "\x0a"
	codeBlue      = "\x0b"
	codeDarkBlue  = "\x0c"
	codeMagenta   = "\x0e"
	codeLightRed  = "\x0f"
	codeGold      = "\x10"
	codeSpectator = "\x03"
)

var colorTokens = map[string]string{
	"{default}":  codeDefault,
	"{white}":    codeDefault,
	"{darkred}":  codeDarkRed,
	"{team}":     codeTeam,
	"{green}":    codeGreen,
	"{olive}":    codeOlive,
	"{lime}":     codeLime,
	"{red}":      codeRed,
	"{grey}":     codeGrey,
	"{gray}":     codeGrey,
	"{yellow}":   codeYellow,
	"{silver}":   codeSilver,
	"{blue}":     codeBlue,
	"{darkblue}": codeDarkBlue,
	"{magenta}":  codeMagenta,
	"{lightred}": codeLightRed,
	"{gold}":     codeGold,
	"{orange}":   codeGold,
}

var (
	// Player-typed bodies may not smuggle color tokens or control codes.
	stripPattern     = regexp.MustCompile(`\{.*?\}|\p{C}`)
	teamColorPattern = regexp.MustCompile(`(?i)\[teamcolor\]`)
	tokenPattern     = regexp.MustCompile(`(?i)\{[a-z]+\}`)
)

// StripBody removes curly-brace runs and control characters from a raw chat
// body. An empty result means the message carried nothing displayable.
func StripBody(body string) string {
	if body == "" {
		return ""
	}
	return stripPattern.ReplaceAllString(body, "")
}

// TeamColorCode returns the control code that renders in the given team's
// color.
func TeamColorCode(team models.Team) string {
	switch team {
	case models.TeamSpectator:
		return codeSpectator
	case models.TeamCT:
		return codeBlue
	case models.TeamT:
		return codeGold
	default:
		return codeDefault
	}
}

// Translate resolves every known {color} token, case-insensitively. Resolved
// output contains no brace tokens, so translating twice is a no-op:
// already-resolved control codes pass through untouched.
func Translate(s string) string {
	if !strings.Contains(s, "{") {
		return s
	}
	return tokenPattern.ReplaceAllStringFunc(s, func(tok string) string {
		if code, ok := colorTokens[strings.ToLower(tok)]; ok {
			return code
		}
		return tok
	})
}

// FormatSegments concatenates segments, substitutes the [teamcolor]
// placeholder for the team's control code, and translates color tokens.
func FormatSegments(team models.Team, segments ...string) string {
	joined := strings.Join(segments, "")
	joined = teamColorPattern.ReplaceAllString(joined, TeamColorCode(team))
	return Translate(joined)
}
