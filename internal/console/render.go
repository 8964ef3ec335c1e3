package console

import (
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/protocol"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/session"
)

// Line prefixes for each kind of output.
const (
	prefixState    = "-- "
	prefixWelcome  = "** "
	prefixResponse = "< "
	prefixError    = "!! "
)

// htmlTag matches tags of real HTML elements. Any other angle brackets in
// bridge text, such as Vec<String>, a<b or <TAB>, are literal characters.
var htmlTag = regexp.MustCompile(`(?i)</?(` + strings.Join(htmlElements, "|") + `)` +
	`(\s+[a-z_:][-a-z0-9_:.]*(\s*=\s*("[^"]*"|'[^']*'|[^\s"'=<>` + "`" + `]+))?)*\s*/?>`)

var htmlElements = []string{
	"a", "abbr", "b", "blockquote", "body", "br", "button", "code", "del", "div",
	"em", "embed", "font", "form", "h1", "h2", "h3", "h4", "h5", "h6", "head",
	"hr", "html", "i", "iframe", "img", "input", "li", "link", "meta", "object",
	"ol", "option", "p", "pre", "s", "script", "select", "small", "span",
	"strong", "style", "sub", "sup", "svg", "table", "td", "textarea", "th",
	"title", "tr", "u", "ul",
}

// Renderer prints session events as transcript lines. It implements
// session.Observer and is safe for concurrent use.
type Renderer struct {
	mu     sync.Mutex
	w      io.Writer
	policy *bluemonday.Policy
}

// NewRenderer writes to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{
		w:      w,
		policy: bluemonday.StrictPolicy(),
	}
}

// OnStateChanged prints the new state.
func (r *Renderer) OnStateChanged(state session.State) {
	r.printf("%s%s\n", prefixState, state)
}

// OnMessage prints an inbound envelope.
func (r *Renderer) OnMessage(env protocol.Envelope) {
	switch env.Type {
	case protocol.TypeWelcome:
		text := r.Sanitize(env.Message)
		if env.SessionID != "" {
			text += fmt.Sprintf(" (session %s)", env.SessionID)
		}
		r.printf("%s%s\n", prefixWelcome, text)
	case protocol.TypeError:
		r.printf("%s%s\n", prefixError, r.Sanitize(env.Text()))
	default:
		r.printf("%s%s\n", prefixResponse, r.Sanitize(env.Text()))
	}
}

// OnError prints a session error and whether a retry follows.
func (r *Renderer) OnError(err error) {
	msg := err.Error()
	var serr *session.Error
	if errors.As(err, &serr) && serr.Retrying {
		msg += " (retrying)"
	}
	r.printf("%s%s\n", prefixError, msg)
}

// Info prints a local notice that did not come from the bridge.
func (r *Renderer) Info(format string, args ...any) {
	r.printf(prefixState+format+"\n", args...)
}

// Sanitize strips HTML markup from bridge text and leaves every other
// character as it was.
func (r *Renderer) Sanitize(text string) string {
	return html.UnescapeString(r.policy.Sanitize(escapeLiterals(text)))
}

// escapeLiterals escapes everything outside real HTML tags so the policy
// only ever removes markup.
func escapeLiterals(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range htmlTag.FindAllStringIndex(text, -1) {
		b.WriteString(html.EscapeString(text[last:loc[0]]))
		b.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}

func (r *Renderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}
