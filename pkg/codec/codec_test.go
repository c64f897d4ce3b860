package codec_test

import (
	"bytes"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/go-chunkpipe/pkg/codec"
)

func testPayload(t *testing.T, total int) []byte {
	t.Helper()
	rnd := rand.New(rand.NewSource(7)) //nolint:gosec //test data only
	payload := make([]byte, total)
	_, _ = rnd.Read(payload)

	return payload
}

func roundTrip(t *testing.T, enc codec.Encoder, dec codec.Decoder, payload []byte) []byte {
	t.Helper()

	var compressed bytes.Buffer
	wrt, err := enc.Encode(&compressed)
	require.NoError(t, err)
	_, err = wrt.Write(payload)
	require.NoError(t, err)
	require.NoError(t, wrt.Close())

	rdr, err := dec.Decode(&compressed)
	require.NoError(t, err)
	decoded, err := io.ReadAll(rdr)
	require.NoError(t, err)
	require.NoError(t, rdr.Close())

	return decoded
}

func TestGzipRoundTrip(t *testing.T) {
	t.Parallel()

	payload := testPayload(t, 20_000)
	gz := codec.Gzip()
	assert.Equal(t, "gzip", gz.Name())
	assert.Equal(t, payload, roundTrip(t, gz, gz, payload))
}

func TestGzipInvalidLevel(t *testing.T) {
	t.Parallel()

	_, err := codec.GzipLevel(99).Encode(&bytes.Buffer{})
	assert.Error(t, err)
}

func TestGzipCorruptStream(t *testing.T) {
	t.Parallel()

	_, err := codec.Gzip().Decode(bytes.NewReader([]byte("not a gzip stream")))
	assert.Error(t, err)
}

func TestZstdRoundTrip(t *testing.T) {
	t.Parallel()

	payload := testPayload(t, 20_000)
	zs := codec.Zstd()
	assert.Equal(t, "zstd", zs.Name())
	assert.Equal(t, payload, roundTrip(t, zs, zs, payload))
}
