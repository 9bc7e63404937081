package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cprcli/internal/config"
)

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"-version"}, &out))
	assert.Contains(t, out.String(), config.AppName)
	assert.Contains(t, out.String(), config.AppVersion)
}

func TestRun_UnknownFlag(t *testing.T) {
	var out bytes.Buffer
	err := run([]string{"-no-such-flag"}, &out)
	require.Error(t, err)
}
