package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/blobcache"
)

var _ blobcache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

func (l LogrusLogger) Debug(msg string, f blobcache.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f blobcache.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f blobcache.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f blobcache.Fields) { l.with(f).Error(msg) }

// with routes an "err" field through logrus' error key.
func (l LogrusLogger) with(f blobcache.Fields) *logrus.Entry {
	e := l.E
	if err, ok := f["err"].(error); ok {
		e = e.WithError(err)
		rest := make(logrus.Fields, len(f))
		for k, v := range f {
			if k != "err" {
				rest[k] = v
			}
		}
		return e.WithFields(rest)
	}
	return e.WithFields(logrus.Fields(f))
}
