// Package logging builds the logrus loggers shared by the runtime packages.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// InLambda reports whether the process runs inside the Lambda execution environment.
func InLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// New returns a logger writing to stderr. Inside Lambda it emits JSON so that
// CloudWatch can index the fields; locally it uses the text formatter.
func New(debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	if InLambda() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// Entry returns a logger entry tagged with the module name.
func Entry(logger *logrus.Logger, module string) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("module", module)
}
