package log

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	// LogFileName is the file created inside the configured log directory.
	LogFileName = "recorder.log"

	// DefaultTimestampFormat has microsecond resolution so cycle timing is visible.
	DefaultTimestampFormat = "2006/01/02 15:04:05.000000"
)

var _ Logger = (*logrusLogger)(nil)

type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger builds the recorder logger. Output goes to stdout and,
// when logDir is set, is also appended to logDir/recorder.log.
// An unknown level falls back to info with a warning.
func NewLogrusLogger(logLevel string, logDir string) (Logger, error) {
	out, err := openOutput(logDir)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&SimpleFormatter{TimestampFormat: DefaultTimestampFormat})

	level, levelErr := logrus.ParseLevel(logLevel)
	if levelErr != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)
	if levelErr != nil {
		l.Warnf("Unknown log level %q, using %s", logLevel, level)
	}

	return &logrusLogger{entry: logrus.NewEntry(l)}, nil
}

func openOutput(logDir string) (io.Writer, error) {
	if logDir == "" {
		return os.Stdout, nil
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory '%s': %w", logDir, err)
	}
	path := filepath.Join(logDir, LogFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", path, err)
	}
	return io.MultiWriter(os.Stdout, f), nil
}

// NewFromLogrus wraps an already configured logrus logger, typically one
// from logrus/hooks/test.
func NewFromLogrus(l *logrus.Logger) Logger {
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Fatalf(format string, args ...interface{}) { l.entry.Fatalf(format, args...) }

func (l *logrusLogger) WithField(key string, value interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithField(key, value)}
}

func (l *logrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &logrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

var levelTags = map[logrus.Level]string{
	logrus.TraceLevel: "TRC",
	logrus.DebugLevel: "DBG",
	logrus.InfoLevel:  "INF",
	logrus.WarnLevel:  "WRN",
	logrus.ErrorLevel: "ERR",
	logrus.FatalLevel: "FTL",
	logrus.PanicLevel: "PNC",
}

// SimpleFormatter writes one line per entry:
//
//	2025/04/06 17:30:00.000000 [INF] Saved waypoint session_id=abc
//
// Fields are sorted by key; values containing spaces are quoted.
type SimpleFormatter struct {
	TimestampFormat string
}

// Format implements logrus.Formatter.
func (f *SimpleFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	layout := f.TimestampFormat
	if layout == "" {
		layout = DefaultTimestampFormat
	}
	tag, ok := levelTags[entry.Level]
	if !ok {
		tag = strings.ToUpper(entry.Level.String())
	}
	fmt.Fprintf(b, "%s [%s] %s", entry.Time.Format(layout), tag, entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := fmt.Sprint(entry.Data[k])
		if strings.ContainsAny(v, " \t") {
			v = fmt.Sprintf("%q", v)
		}
		fmt.Fprintf(b, " %s=%s", k, v)
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}
