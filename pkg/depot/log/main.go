package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu sync.Mutex
	out io.Writer = os.Stderr
)

// redirects the leveled output. used by the cli's `--quiet` flag and by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

func emit(level string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s [%s] ", time.Now().Format(time.RFC3339), level)
	fmt.Fprintln(out, a...)
}

func INFO(a ...any) { emit("INFO", a...) }

func WARN(a ...any) { emit("WARN", a...) }

func ERR(a ...any) { emit("ERR", a...) }
