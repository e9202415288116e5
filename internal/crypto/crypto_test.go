package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	key, err := GenerateKey()
	require.NoError(t, err)
	s, err := NewSealerFromBase64(key)
	require.NoError(t, err)
	return s
}

func TestNewSealer_KeySize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{name: "valid key size", size: 32},
		{name: "too short", size: 16, wantErr: ErrInvalidKeySize},
		{name: "too long", size: 64, wantErr: ErrInvalidKeySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSealer(make([]byte, tt.size))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, s)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, s)
		})
	}
}

func TestNewSealerFromBase64_InvalidEncoding(t *testing.T) {
	_, err := NewSealerFromBase64("not base64!!")
	assert.Error(t, err)
}

func TestSealOpen(t *testing.T) {
	s := newTestSealer(t)

	sealed, err := s.Seal("ya29.access-token", "google:123")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "ya29")

	opened, err := s.Open(sealed, "google:123")
	require.NoError(t, err)
	assert.Equal(t, "ya29.access-token", opened)
}

func TestSeal_UsesFreshNonce(t *testing.T) {
	s := newTestSealer(t)

	a, err := s.Seal("token", "ctx")
	require.NoError(t, err)
	b, err := s.Seal("token", "ctx")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestOpen_WrongContext(t *testing.T) {
	s := newTestSealer(t)

	sealed, err := s.Seal("token", "google:123")
	require.NoError(t, err)

	_, err = s.Open(sealed, "google:456")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestOpen_WrongKey(t *testing.T) {
	sealed, err := newTestSealer(t).Seal("token", "ctx")
	require.NoError(t, err)

	_, err = newTestSealer(t).Open(sealed, "ctx")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestOpen_Malformed(t *testing.T) {
	s := newTestSealer(t)

	_, err := s.Open(base64.StdEncoding.EncodeToString([]byte("short")), "ctx")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)

	_, err = s.Open("%%%", "ctx")
	assert.Error(t, err)
}

func TestEmptyValues(t *testing.T) {
	s := newTestSealer(t)

	sealed, err := s.Seal("", "ctx")
	require.NoError(t, err)
	assert.Empty(t, sealed)

	opened, err := s.Open("", "ctx")
	require.NoError(t, err)
	assert.Empty(t, opened)
}
