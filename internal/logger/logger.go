package logger

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

var colored = isatty.IsTerminal(os.Stdout.Fd())

func paint(color, s string) string {
	if !colored {
		return s
	}
	return color + s + colorReset
}

func line(color, level, tag, msg string) {
	ts := time.Now().Format("15:04:05")
	fmt.Printf("%s %s %s %s\n",
		paint(colorGray, ts),
		paint(color, fmt.Sprintf("%-4s", level)),
		paint(colorBold, fmt.Sprintf("[%s]", tag)),
		msg)
}

// Info logs an informational message under a tag.
func Info(tag, msg string) {
	line(colorCyan, "INFO", tag, msg)
}

// Success logs a completed-step message under a tag.
func Success(tag, msg string) {
	line(colorGreen, "OK", tag, msg)
}

// Warn logs a warning under a tag.
func Warn(tag, msg string) {
	line(colorYellow, "WARN", tag, msg)
}

// Error logs an error under a tag.
func Error(tag, msg string) {
	line(colorRed, "ERR", tag, msg)
}

// Banner prints the startup banner with the build version.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Println(paint(colorCyan, "┌──────────────────────────────┐"))
	fmt.Println(paint(colorCyan, "│        refine-board          │"))
	fmt.Println(paint(colorCyan, fmt.Sprintf("│  market dashboard  %-9s │", version)))
	fmt.Println(paint(colorCyan, "└──────────────────────────────┘"))
}

// Section prints a visual section divider.
func Section(name string) {
	fmt.Println(paint(colorBold, fmt.Sprintf("── %s ──", name)))
}

// Stats prints a key/value statistic line.
func Stats(key string, value interface{}) {
	fmt.Printf("   %s %v\n", paint(colorGray, key+":"), value)
}

// Server logs the listen address once the HTTP server is up.
func Server(addr string) {
	Success("HTTP", fmt.Sprintf("Listening on http://%s", addr))
}
