// Package logging wires the process-wide logrus instance: a package-level
// level map plus a component-scoped *logrus.Entry per subsystem.
package logging

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

var levels = map[string]logrus.Level{
	"trace": logrus.TraceLevel,
	"debug": logrus.DebugLevel,
	"info":  logrus.InfoLevel,
	"warn":  logrus.WarnLevel,
	"error": logrus.ErrorLevel,
	"off":   logrus.PanicLevel,
}

// componentFormatter renders "[component] [time] [level] message" in the
// style of a logrus-easy-formatter config (not vendored here, see DESIGN.md).
type componentFormatter struct{}

func (componentFormatter) Format(e *logrus.Entry) ([]byte, error) {
	component, _ := e.Data["component"].(string)
	if component == "" {
		component = "core"
	}
	line := fmt.Sprintf("[%s] [%s] [%s] %s\n",
		component, e.Time.Format("2006-01-02 15:04:05.000"), e.Level, e.Message)
	return []byte(line), nil
}

// Init configures the package-wide logrus instance from a level name.
func Init(level string) {
	logrus.SetFormatter(componentFormatter{})
	if lvl, ok := levels[level]; ok {
		logrus.SetLevel(lvl)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// For returns a component-scoped logger, e.g. logging.For("signal").
func For(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
