package util

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateWebhookSecret(t *testing.T) {
	secret, err := GenerateWebhookSecret()
	require.NoError(t, err)
	require.Len(t, secret, 64)

	_, err = hex.DecodeString(secret)
	require.NoError(t, err)

	other, err := GenerateWebhookSecret()
	require.NoError(t, err)
	require.NotEqual(t, secret, other)
}
