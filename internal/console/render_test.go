package console

import (
	"bytes"
	"errors"
	"testing"

	"github.com/ssfdre38/copilot-android-client-sub000/internal/protocol"
	"github.com/ssfdre38/copilot-android-client-sub000/internal/session"
	"github.com/stretchr/testify/assert"
)

func TestRendererOutput(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out)

	r.OnStateChanged(session.StateConnecting)
	r.OnMessage(protocol.NewWelcome("Connected", "c1", "sess_1"))
	r.OnMessage(protocol.NewResponse("Echo: hi", "sess_1"))
	r.OnMessage(protocol.NewError("boom", ""))
	r.OnError(&session.Error{Kind: session.KindConnectTimeout, Retrying: true})
	r.OnError(errors.New("plain"))

	assert.Equal(t, "-- CONNECTING\n"+
		"** Connected (session sess_1)\n"+
		"< Echo: hi\n"+
		"!! boom\n"+
		"!! Connection timed out: server not responding (retrying)\n"+
		"!! plain\n", out.String())
}

func TestSanitize(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{})

	tests := map[string]string{
		"plain text":                       "plain text",
		"<b>bold</b> text":                 "bold text",
		"<script>alert(1)</script>ok":      "ok",
		`<a href="http://x">link</a> <UP>`: "link <UP>",
		`<p class='x'>para</p>`:            "para",
		"a < b && c":                       "a < b && c",
		"Command received: <TAB>":          "Command received: <TAB>",
		"let v: Vec<String> = x;":          "let v: Vec<String> = x;",
		"if a<b && c>d {":                  "if a<b && c>d {",
		"map<string, int>":                 "map<string, int>",
		"usage: cp <src> <dst>":            "usage: cp <src> <dst>",
		"Tom & Jerry &lt;3 \"quoted\" 'x'": "Tom & Jerry &lt;3 \"quoted\" 'x'",
		"<b>Vec<String></b>":               "Vec<String>",
	}
	for in, want := range tests {
		assert.Equal(t, want, r.Sanitize(in), in)
	}
}
