package main

import (
	log "github.com/sirupsen/logrus"

	"gitlab.com/cs371/webworker/internal/errortracking"
)

func capturingFatal(err error, fields ...errortracking.CaptureOption) {
	errortracking.CaptureErrWithStackTrace(err, fields...)
	log.WithError(err).Fatal("capturing fatal")
}
