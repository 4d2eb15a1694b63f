package log

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Debug enables the debug level for every Log created after it is set.
var Debug bool

type Log struct {
	*logrus.Entry
}

// New returns a Log whose entries carry the field pkg, along with any
// additional alternating key value pairs in keyvals.
func New(pkg string, keyvals ...interface{}) Log {
	log := logrus.New()
	log.Formatter = &logrus.TextFormatter{ForceColors: true,
		DisableTimestamp:       true,
		DisableLevelTruncation: true}
	if Debug {
		log.SetLevel(logrus.DebugLevel)
	}
	fields := logrus.Fields{"pkg": pkg}
	for i := 0; i+1 < len(keyvals); i += 2 {
		fields[fmt.Sprint(keyvals[i])] = keyvals[i+1]
	}
	return Log{Entry: log.WithFields(fields)}
}

// With returns a copy of l with the additional alternating key value pairs.
func (l Log) With(keyvals ...interface{}) Log {
	fields := make(logrus.Fields, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fields[fmt.Sprint(keyvals[i])] = keyvals[i+1]
	}
	return Log{Entry: l.WithFields(fields)}
}
