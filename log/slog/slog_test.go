package slog

import (
	"bytes"
	stdslog "log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/unkn0wn-root/blobcache"
)

func TestLoggerSortsFields(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{
		Level: stdslog.LevelInfo,
		ReplaceAttr: func(_ []string, a stdslog.Attr) stdslog.Attr {
			if a.Key == stdslog.TimeKey {
				return stdslog.Attr{}
			}
			return a
		},
	})
	l := Logger{L: stdslog.New(h)}

	l.Debug("dropped", blobcache.Fields{"key": "x"})
	l.Info("cache namespace ready", blobcache.Fields{"root": "/tmp", "folder": "img"})

	assert.Equal(t, "level=INFO msg=\"cache namespace ready\" folder=img root=/tmp\n", buf.String())
}
