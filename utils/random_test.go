package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandomToken(t *testing.T) {
	token, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	other, err := GenerateRandomToken(32)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGenerateRandomTokenLength(t *testing.T) {
	// base64 编码后长度大于原始字节数
	token, err := GenerateRandomToken(16)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(token), 16)
}
