package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

var startTime = time.Now()

const (
	colorReset    = "\033[0m"
	colorPurple   = "\033[35m"
	colorNeonCyan = "\033[96m"
	colorNeonMag  = "\033[95m"
)

// termMu synchronizes terminal output so the status line and log writes
// never interleave.
var termMu sync.Mutex

func termWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return w
}

// IsTerminal reports whether stdout is attached to a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type termWriter struct{}

func (tw termWriter) Write(p []byte) (n int, err error) {
	termMu.Lock()
	defer termMu.Unlock()
	return os.Stderr.Write(p)
}

// NewTermWriter returns an io.Writer suitable for log.SetOutput().
// It serialises writes with PrintLiveStatus via termMu.
func NewTermWriter() *termWriter {
	return &termWriter{}
}

const banner = `
  ____    _    __  __ ____   _    ___ ____ _   _ _____ ____
 / ___|  / \  |  \/  |  _ \ / \  |_ _/ ___| \ | | ____|  _ \
| |     / _ \ | |\/| | |_) / _ \  | | |  _|  \| |  _| | |_) |
| |___ / ___ \| |  | |  __/ ___ \ | | |_| | |\  | |___|  _ <
 \____/_/   \_\_|  |_|_| /_/   \_\___\____|_| \_|_____|_| \_\

            >> email + sms campaign generator <<
`

func PrintBanner() {
	width := termWidth()
	for _, l := range strings.Split(banner, "\n") {
		padding := (width - len(l)) / 2
		if padding < 0 {
			padding = 0
		}
		fmt.Printf("%s%s%s\n", strings.Repeat(" ", padding), colorNeonCyan+l, colorReset)
	}
}

// InitializeTerminal pins the banner and status line above a scrolling log
// region starting at line 12.
func InitializeTerminal() {
	fmt.Print("\033[2J\033[H")
	PrintBanner()
	fmt.Print("\033[12;r")
	fmt.Print("\033[12;1H")
}

func CleanupTerminal() {
	fmt.Print("\033[r\033[2J\033[H")
}

// StatusLine renders a one-line summary of s.
func StatusLine(s Snapshot, now time.Time) string {
	pulse, pulseColor := "OFFLINE", colorNeonMag
	switch delta := now.Sub(s.LastHeartbeat); {
	case delta < 40*time.Second:
		pulse, pulseColor = "HEALTHY", colorNeonCyan
	case delta < 90*time.Second:
		pulse, pulseColor = "LAGGING", colorPurple
	}

	task := s.ActiveTask
	if task == "" {
		task = "Waiting..."
	}
	if r := []rune(task); len(r) > 25 {
		task = string(r[:22]) + "..."
	}

	c := s.Counters
	return fmt.Sprintf("%s%-7s%s | %-10s | %s | plans %d (fallback %d) | writes %d (invalid %d) | up %s",
		pulseColor, pulse, colorReset, s.Stage, task,
		c.Plans, c.Fallbacks, c.Writes, c.InvalidOutputs, s.Uptime)
}

// PrintLiveStatus prints the status line under the banner when stdout is a
// terminal.
func PrintLiveStatus() {
	if !IsTerminal() {
		return
	}
	line := "\033[s\033[10;1H\033[K" + StatusLine(GetStatus(), time.Now()) + "\033[u"

	termMu.Lock()
	fmt.Print(line)
	termMu.Unlock()
}
