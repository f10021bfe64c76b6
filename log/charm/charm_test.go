package charm

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/unkn0wn-root/blobcache"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	base := log.NewWithOptions(&buf, log.Options{
		Level:     log.DebugLevel,
		Formatter: log.LogfmtFormatter,
	})
	l := Logger{L: base}

	l.Debug("blob fetched", blobcache.Fields{"size": "1.2 kB", "key": "k"})

	assert.Equal(t, "level=debug msg=\"blob fetched\" key=k size=\"1.2 kB\"\n", buf.String())
}
