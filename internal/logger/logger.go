package logger

import (
	"bytes"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&consoleFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Setup applies the verbose flag. Call it once flags and config are parsed.
func Setup() {
	if viper.GetBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
}

// SetOutput redirects all log lines, e.g. through the progress bar.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Logger exposes the underlying logrus instance for callers that want fields.
func Logger() *logrus.Logger {
	return log
}

// Debug prints only if verbose mode is enabled
func Debug(format string, args ...interface{}) {
	log.Debugf(format, args...)
}

// Info always prints
func Info(format string, args ...interface{}) {
	log.Infof(format, args...)
}

// Success is Info with a check mark
func Success(format string, args ...interface{}) {
	log.WithField(successKey, true).Infof(format, args...)
}

// Warn always prints with a warning icon
func Warn(format string, args ...interface{}) {
	log.Warnf(format, args...)
}

// Error always prints
func Error(format string, args ...interface{}) {
	log.Errorf(format, args...)
}

const successKey = "success"

// consoleFormatter keeps the plain, icon-prefixed console lines of the CLI
// instead of logrus' key=value output.
type consoleFormatter struct{}

func (f *consoleFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	switch e.Level {
	case logrus.DebugLevel, logrus.TraceLevel:
		b.WriteString("[DEBUG] ")
	case logrus.WarnLevel:
		b.WriteString("⚠️  ")
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		b.WriteString("❌ ")
	default:
		if ok, _ := e.Data[successKey].(bool); ok {
			b.WriteString("✅ ")
		}
	}
	b.WriteString(e.Message)
	b.WriteByte('\n')
	return b.Bytes(), nil
}
