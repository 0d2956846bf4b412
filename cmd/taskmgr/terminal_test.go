package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScreenDrawAndClose(t *testing.T) {
	var buf bytes.Buffer
	restored := 0
	s := &screen{out: &buf, active: true, restore: func() { restored++ }}

	s.draw("frame one\n")
	s.draw("frame two\n")
	assert.Equal(t, 2, strings.Count(buf.String(), homeAndClear))

	s.close()
	s.close()
	assert.Equal(t, 1, restored)
	assert.Equal(t, 1, strings.Count(buf.String(), leaveAltScreen))
	assert.True(t, strings.HasSuffix(buf.String(), leaveAltScreen))
}

func TestScreenWithoutTerminalWritesPlainFrames(t *testing.T) {
	var buf bytes.Buffer
	s := &screen{out: &buf, restore: func() {}}

	s.draw("frame\n")
	s.close()
	assert.Equal(t, "frame\n", buf.String())
}
