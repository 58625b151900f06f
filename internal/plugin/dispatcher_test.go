package plugin

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handray/internal/hand"
)

// recordingScript appends each request's event name to log.txt in the
// plugin directory.
const recordingScript = `#!/bin/sh
input=$(cat)
echo "$input" | sed 's/.*"event":"\([a-z_]*\)".*/\1/' >> log.txt
echo '{"success":true}'
`

func TestDispatcher_RunsSubscribers(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()
	clickDir := writePlugin(t, tmpDir, Manifest{
		Name:       "click",
		Executable: "run.sh",
		Events:     []EventType{EventSelectStart, EventSelectEnd},
	}, recordingScript)
	menuDir := writePlugin(t, tmpDir, Manifest{
		Name:       "menu",
		Executable: "run.sh",
		Events:     []EventType{EventSystemGesture},
	}, recordingScript)

	manager := NewManager(tmpDir, nil)
	require.NoError(t, manager.Discover())

	d := NewDispatcher(manager, NewExecutor(5*time.Second), 8, nil)
	defer d.Close()

	require.True(t, d.Dispatch(
		Event{Type: EventSelectStart, Hand: hand.Right},
		Event{Type: EventSelectEnd, Hand: hand.Right},
		Event{Type: EventRecentered, Hand: hand.Left},
	))

	readLog := func(dir string) string {
		b, _ := os.ReadFile(filepath.Join(dir, "log.txt"))
		return strings.TrimSpace(string(b))
	}
	require.Eventually(t, func() bool {
		return readLog(clickDir) == "select_start\nselect_end"
	}, 5*time.Second, 10*time.Millisecond)

	assert.Empty(t, readLog(menuDir))
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir := t.TempDir()
	writePlugin(t, tmpDir, Manifest{
		Name:       "slow",
		Executable: "run.sh",
		Events:     []EventType{EventSelectStart},
	}, "#!/bin/sh\nsleep 10\n")

	manager := NewManager(tmpDir, nil)
	require.NoError(t, manager.Discover())

	d := NewDispatcher(manager, NewExecutor(5*time.Second), 1, nil)

	e := Event{Type: EventSelectStart}
	// The worker takes at most one event off the queue and blocks on it.
	var accepted int
	for range 4 {
		if d.Dispatch(e) {
			accepted++
		}
	}
	assert.LessOrEqual(t, accepted, 2)
	assert.GreaterOrEqual(t, d.Dropped(), uint64(2))

	start := time.Now()
	d.Close()
	assert.Less(t, time.Since(start), 5*time.Second, "Close should cancel the running plugin")
}

func TestDispatcher_ClosedRejects(t *testing.T) {
	d := NewDispatcher(NewManager(t.TempDir(), nil), NewExecutor(0), 0, nil)
	d.Close()
	d.Close()

	assert.False(t, d.Dispatch(Event{Type: EventRecentered}))
}
