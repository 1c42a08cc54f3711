package wpdeploy

import log "github.com/sirupsen/logrus"

// UTCFormatter wraps a logrus formatter and stamps entries in UTC
type UTCFormatter struct {
	log.Formatter
}

// Format implements logrus.Formatter
func (u UTCFormatter) Format(e *log.Entry) ([]byte, error) {
	e.Time = e.Time.UTC()
	return u.Formatter.Format(e)
}

// ConfigureLogging installs the UTC text formatter and picks the level
func ConfigureLogging(debug bool) {
	log.SetFormatter(UTCFormatter{Formatter: &log.TextFormatter{FullTimestamp: true}})

	if debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}
