// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &CustomHandler{Writer: &buf}

	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	require.NoError(t, h.HandleLog(&log.Entry{
		Level:     log.DebugLevel,
		Message:   "fileio: load a.npy (npy)",
		Timestamp: ts,
	}))
	assert.Equal(t, "2025-03-04 05:06:07 D fileio: load a.npy (npy)\n", buf.String())

	buf.Reset()
	require.NoError(t, h.HandleLog(&log.Entry{
		Level:     log.WarnLevel,
		Message:   "failed to remove cache file",
		Fields:    log.Fields{"error": errors.New("busy")},
		Timestamp: ts,
	}))
	assert.Equal(t, "2025-03-04 05:06:07 W failed to remove cache file: busy\n", buf.String())
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		env  string
		want log.Level
	}{
		{env: "", want: log.ErrorLevel},
		{env: "debug", want: log.DebugLevel},
		{env: "WARN", want: log.WarnLevel},
		{env: "nonsense", want: log.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv("TOOLMAN_LOG", tt.env)
			InitLogger()
			l, ok := log.Log.(*log.Logger)
			require.True(t, ok)
			assert.Equal(t, tt.want, l.Level)
		})
	}
}
