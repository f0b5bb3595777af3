package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name      string
		debug     bool
		level     string
		wantInfo  bool
		wantDebug bool
	}{
		{name: "default is quiet", wantInfo: false},
		{name: "debug flag", debug: true, wantInfo: true, wantDebug: true},
		{name: "env level", level: "INFO", wantInfo: true},
		{name: "env wins over flag", debug: true, level: "error"},
		{name: "unknown env value keeps default", level: "chatty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := newLogger(&buf, tt.debug, tt.level)

			log.Info("info line")
			log.Debug("debug line")

			assert.Equal(t, tt.wantInfo, bytes.Contains(buf.Bytes(), []byte("info line")))
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("debug line")))
		})
	}
}

func TestNewLogger_OmitsTimeOutsideDebug(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, false, "info").Info("hello", "component", "Token")

	assert.NotContains(t, buf.String(), "time=")
	assert.Contains(t, buf.String(), "component=Token")
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/usecase/deploy_component.go", shortPath("/home/u/catapult/internal/usecase/deploy_component.go"))
	assert.Equal(t, "main.go", shortPath("/tmp/main.go"))
	assert.Equal(t, slog.LevelWarn, func() slog.Level { l, _ := parseLevel("warning"); return l }())
}
