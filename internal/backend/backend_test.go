package backend

import (
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type output struct {
	mu  sync.Mutex
	buf strings.Builder
	all []string
}

func (o *output) emit(text string) {
	o.mu.Lock()
	o.buf.WriteString(text)
	o.all = append(o.all, text)
	o.mu.Unlock()
}

func (o *output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}

func (o *output) Lines() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.all...)
}

func TestEcho(t *testing.T) {
	e := NewEcho()
	assert.ErrorIs(t, e.Message("early"), ErrNotStarted)

	out := &output{}
	require.NoError(t, e.Start(out.emit))
	require.NoError(t, e.Message("hello"))
	require.NoError(t, e.Command("^C"))
	assert.Equal(t, []string{"Echo: hello", "Command received: ^C"}, out.Lines())

	require.NoError(t, e.Close())
	assert.ErrorIs(t, e.Message("late"), ErrNotStarted)
}

func TestNewFactory(t *testing.T) {
	f, err := NewFactory("", "")
	require.NoError(t, err)
	b, err := f()
	require.NoError(t, err)
	assert.IsType(t, &Echo{}, b)

	f, err = NewFactory(KindPTY, "copilot --banner=false")
	require.NoError(t, err)
	b, err = f()
	require.NoError(t, err)
	p := b.(*PTY)
	assert.Equal(t, "copilot", p.name)
	assert.Equal(t, []string{"--banner=false"}, p.args)

	_, err = NewFactory(KindPTY, "  ")
	assert.Error(t, err)

	_, err = NewFactory("grpc", "")
	assert.Error(t, err)
}

func TestPTYRoundTrip(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("pty not supported on windows")
	}
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	p := NewPTY("cat")
	out := &output{}
	require.NoError(t, p.Start(out.emit))
	defer p.Close()

	require.NoError(t, p.Message("hello bridge"))
	assert.Eventually(t, func() bool {
		return strings.Count(out.String(), "hello bridge") >= 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Message("after close"), ErrClosed)
	require.NoError(t, p.Close())
}

func TestPTYNotStarted(t *testing.T) {
	p := NewPTY("cat")
	assert.ErrorIs(t, p.Command("^C"), ErrNotStarted)
	assert.NoError(t, p.Close())
}
