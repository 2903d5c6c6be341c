package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintYAML(t *testing.T) {
	data := struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
	}{
		Address: "0.0.0.0",
		Port:    8080,
	}

	var buf bytes.Buffer
	err := PrintYAML(&buf, data)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "address: 0.0.0.0")
	assert.Contains(t, output, "port: 8080")
}

func TestPrintYAMLArray(t *testing.T) {
	data := []struct {
		Remote string `yaml:"remote"`
	}{
		{Remote: "10.0.0.1:4242"},
		{Remote: "10.0.0.2:4243"},
	}

	var buf bytes.Buffer
	err := PrintYAML(&buf, data)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "- remote: 10.0.0.1:4242")
	assert.Contains(t, output, "- remote: 10.0.0.2:4243")
}
