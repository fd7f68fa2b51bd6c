package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// CrashLogDir is where crash reports are written; set by InstallCrashHandler
var CrashLogDir = "./logs"

// InstallCrashHandler prepares the crash report directory. Pair it with a
// deferred RecoverWithCrashFile at the top of main.
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		CrashLogDir = logDir
	}
	if err := os.MkdirAll(CrashLogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to create log directory: %v\n", err)
	}
}

// WriteCrashFile writes a crash report and returns its path, or "" when the
// report could only be written to stderr
func WriteCrashFile(panicVal interface{}, stackTrace string) string {
	now := time.Now()
	crashPath := filepath.Join(CrashLogDir, fmt.Sprintf("crash-%s.log", now.Format("2006-01-02T15-04-05")))

	var report bytes.Buffer
	fmt.Fprintf(&report, "=== ECCLESIA CRASH REPORT ===\n")
	fmt.Fprintf(&report, "Time: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&report, "Version: %s\n\n", GetFullVersion())
	fmt.Fprintf(&report, "=== PANIC VALUE ===\n%v\n\n", panicVal)
	fmt.Fprintf(&report, "=== STACK TRACE ===\n%s\n", stackTrace)
	fmt.Fprintf(&report, "=== ALL GOROUTINES ===\n%s\n", allGoroutineStacks())
	fmt.Fprintf(&report, "=== SYSTEM INFO ===\n")
	fmt.Fprintf(&report, "NumGoroutine: %d\n", runtime.NumGoroutine())
	fmt.Fprintf(&report, "BackgroundGoroutines: %d\n", GetGoroutineCount())
	fmt.Fprintf(&report, "GOOS/GOARCH: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	fmt.Fprintf(&report, "Alloc: %d MB\nSys: %d MB\nNumGC: %d\n", mem.Alloc/1024/1024, mem.Sys/1024/1024, mem.NumGC)
	fmt.Fprintf(&report, "=== END CRASH REPORT ===\n")

	// Unbuffered write; the process is about to exit
	if err := os.WriteFile(crashPath, report.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to write crash file: %v\n%s", err, report.String())
		return ""
	}

	fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - Report saved to: %s !!!\nPanic: %v\n", crashPath, panicVal)
	return crashPath
}

func allGoroutineStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) || len(buf) >= 64*1024*1024 {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}

// RecoverWithCrashFile recovers a panic on the calling goroutine, writes a
// crash report and exits. Usage: defer common.RecoverWithCrashFile()
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		buf := make([]byte, 8192)
		n := runtime.Stack(buf, false)
		WriteCrashFile(r, string(buf[:n]))
		os.Exit(1)
	}
}
