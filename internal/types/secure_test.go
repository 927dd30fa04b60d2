package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "a1b2c3d4e5f6-session-token"

func TestSecretString_Redaction(t *testing.T) {
	s := SecretString(testToken)

	assert.Equal(t, redactedPlaceholder, s.String())
	assert.Equal(t, redactedPlaceholder, fmt.Sprintf("%v", s))
	assert.Equal(t, redactedPlaceholder, fmt.Sprintf("%+v", s))
	assert.Equal(t, testToken, s.Unmask())
}

func TestSecretString_MarshalJSON_InStruct(t *testing.T) {
	type portal struct {
		Session SecretString `json:"session"`
		URL     string       `json:"url"`
	}

	data, err := json.Marshal(portal{Session: testToken, URL: "http://192.168.4.1"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), testToken)
	assert.Contains(t, string(data), redactedPlaceholder)
}

func TestSecretString_LogValue(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	logger.Info("portal configured", "session", SecretString(testToken))

	assert.NotContains(t, buf.String(), testToken)
	assert.Contains(t, buf.String(), redactedPlaceholder)
}

func TestSecretString_IsZero(t *testing.T) {
	assert.True(t, SecretString("").IsZero())
	assert.False(t, SecretString(testToken).IsZero())
}
