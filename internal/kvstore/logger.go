// ABOUTME: Adapter from Badger's logger interface to zerolog.
// ABOUTME: Trims Badger's trailing newlines so each message is one log event.

package kvstore

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type badgerLogger struct {
	log zerolog.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error().Msg(trim(format, args))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn().Msg(trim(format, args))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug().Msg(trim(format, args))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Trace().Msg(trim(format, args))
}

func trim(format string, args []interface{}) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\n")
}
