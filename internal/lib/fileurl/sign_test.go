package fileurl

import (
	"fmt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func parseSigned(t *testing.T, signed string) (fileID, expires, sig string) {
	t.Helper()
	u, err := url.Parse(signed)
	require.NoError(t, err)
	return strings.TrimPrefix(u.Path, "/files/"), u.Query().Get("expires"), u.Query().Get("sig")
}

func TestSignAndVerify(t *testing.T) {
	signed := SignURL("abc123", testSecret, 15*time.Minute)

	fileID, expires, sig := parseSigned(t, signed)
	assert.Equal(t, "abc123", fileID)
	assert.True(t, Verify(fileID, expires, sig, testSecret))
}

func TestVerifyRejectsExpired(t *testing.T) {
	expired := fmt.Sprintf("%d", time.Now().Add(-time.Minute).Unix())
	sig := computeHMAC("abc123", time.Now().Add(-time.Minute).Unix(), testSecret)
	assert.False(t, Verify("abc123", expired, sig, testSecret))
}

func TestVerifyRejectsTamperedFileID(t *testing.T) {
	signed := SignURL("abc123", testSecret, 15*time.Minute)
	_, expires, sig := parseSigned(t, signed)
	assert.False(t, Verify("other-file", expires, sig, testSecret))
}

func TestVerifyRejectsTamperedExpiry(t *testing.T) {
	signed := SignURL("abc123", testSecret, time.Minute)
	fileID, _, sig := parseSigned(t, signed)
	stretched := fmt.Sprintf("%d", time.Now().Add(24*time.Hour).Unix())
	assert.False(t, Verify(fileID, stretched, sig, testSecret))
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signed := SignURL("abc123", testSecret, time.Minute)
	fileID, expires, sig := parseSigned(t, signed)
	assert.False(t, Verify(fileID, expires, sig, "other-secret"))
}

func TestVerifyRejectsGarbageExpiry(t *testing.T) {
	assert.False(t, Verify("abc123", "not-a-number", "sig", testSecret))
}
