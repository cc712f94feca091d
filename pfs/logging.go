package pfs

import "github.com/sirupsen/logrus"

// Logger is the subset of *logrus.Logger the builder needs to announce phase
// boundaries. It never influences control flow — it is advisory only.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

// defaultLogger is the Logger newProperties installs before options run.
// WithLogger replaces it; a nil Logger turns phase logging off.
func defaultLogger() Logger {
	return logrus.StandardLogger()
}

func logPhase(l Logger, phase string) {
	if l == nil {
		return
	}
	l.Infof("pfs: %s", phase)
}
