// package shared defines configuration, logging and database plumbing used across the application
package shared

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const debugLevel = log.DebugLevel

// levelAliases maps level names accepted in configuration onto [log.Level] names.
var levelAliases = map[string]string{
	"WARNING":  "warn",
	"CRITICAL": "fatal",
	"NOTSET":   "debug",
}

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	l := log.NewWithOptions(w, opts)
	l.SetStyles(logStyles())
	return l
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// ParseLevel parses a configured level name. Names are case-insensitive and accept
// WARNING, CRITICAL and NOTSET in addition to the [log.Level] names.
func ParseLevel(name string) (log.Level, error) {
	name = strings.TrimSpace(name)
	if alias, ok := levelAliases[strings.ToUpper(name)]; ok {
		name = alias
	}
	lvl, err := log.ParseLevel(strings.ToLower(name))
	if err != nil {
		return lvl, fmt.Errorf("unknown log level %q", name)
	}
	return lvl, nil
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// AppVersion returns the module version recorded in the build info, or "dev".
func AppVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func logStyles() *log.Styles {
	styles := log.DefaultStyles()
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Bold(true).
		Foreground(lipgloss.Color("214"))
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Bold(true).
		Foreground(lipgloss.Color("204"))
	styles.Keys["err"] = lipgloss.NewStyle().Foreground(lipgloss.Color("204"))
	styles.Keys["sql"] = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	return styles
}
