package atcmd

import "strings"

const (
	// Prefix starts every command line.
	Prefix = "AT"
	// CR terminates outbound command lines and uploaded payloads.
	CR = "\r"
	// CRLF terminates every inbound line.
	CRLF = "\r\n"
	// Prompt is emitted by the modem when it waits for a payload upload.
	Prompt = "\r\n> "
)

var (
	byID    = make(map[Command]Definition, len(definitions))
	byToken = make(map[string]Definition, len(definitions))
)

func init() {
	for _, def := range definitions {
		byID[def.ID] = def
		byToken[def.Token] = def
	}
}

// Lookup returns the catalog definition of id.
func Lookup(id Command) (Definition, bool) {
	def, ok := byID[id]
	return def, ok
}

// LookupToken finds a definition by its wire token, ignoring case and a leading "+".
func LookupToken(token string) (Definition, bool) {
	def, ok := byToken[strings.ToUpper(strings.TrimPrefix(token, "+"))]
	return def, ok
}

// Wire builds the command line sent to the modem. params must already carry its "=" or "?"
// marker for extended commands, e.g. Wire("=1") or Wire("?").
func (d Definition) Wire(params string) string {
	var b strings.Builder
	b.Grow(len(Prefix) + len(d.Token) + len(params) + 2)
	b.WriteString(Prefix)
	switch d.Syntax {
	case Extended:
		b.WriteByte('+')
		b.WriteString(d.Token)
	case SParam:
		b.WriteString(d.Token)
		b.WriteByte('=')
	default:
		b.WriteString(d.Token)
	}
	b.WriteString(params)
	b.WriteString(CR)
	return b.String()
}

// ResponsePrefix is the information-line prefix the modem uses when answering an extended command
// ("+CPIN:" for AT+CPIN?). Other syntaxes have none.
func (d Definition) ResponsePrefix() string {
	if d.Syntax != Extended {
		return ""
	}
	return "+" + d.Token + ":"
}

func (c Command) String() string {
	if def, ok := byID[c]; ok {
		if def.Token == "" {
			return Prefix
		}
		return def.Token
	}
	return "UNKNOWN"
}
