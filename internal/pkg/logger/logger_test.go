package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goerp/internal/pkg/logger"
)

func TestLogger_WritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "debug")

	log.Info("Snapshot de estoque atualizado.", map[string]interface{}{"key": "w1:p1", "available": 7})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Snapshot de estoque atualizado.", entry["message"])
	assert.Equal(t, "w1:p1", entry["key"])
	assert.EqualValues(t, 7, entry["available"])
	assert.NotEmpty(t, entry["time"])
}

func TestLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "error")

	log.Debug("invisível", nil)
	log.Info("invisível", nil)
	log.Warn("invisível", nil)
	assert.Empty(t, buf.String())

	log.Error("Falha ao consultar estoque.", errors.New("conexão recusada"))
	assert.True(t, strings.Contains(buf.String(), "conexão recusada"))
}

func TestLogger_UnknownLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "verbose")

	log.Debug("invisível", nil)
	assert.Empty(t, buf.String())

	log.Info("visível", nil)
	assert.Contains(t, buf.String(), "visível")
}
