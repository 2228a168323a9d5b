package xlog

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInfoWithFieldsEncodesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Info().WithField("name", "spawn").WithField("count", 3).Msg("dispatching")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "dispatching", decoded["message"])
	require.Equal(t, "spawn", decoded["name"])
	require.Equal(t, float64(3), decoded["count"])
}

func TestErrorAttachesErrorField(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Error(errors.New("boom")).Msg("child exited")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, "boom", decoded["error"])
}

func TestInitAttachesPid(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Init(&buf, 4242)

	l.Info().Msg("ready")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Equal(t, float64(4242), decoded["pid"])
}
