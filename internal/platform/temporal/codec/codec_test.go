package codec

import (
	"bytes"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/converter"

	regtypes "github.com/Apurer/herdbook-api/internal/domains/registrations/application/types"
)

func testKey(fill byte) []byte { return bytes.Repeat([]byte{fill}, 32) }

func TestDataConverter_TokenNeverStoredInClear(t *testing.T) {
	dc, err := DataConverter(testKey(7))
	require.NoError(t, err)

	in := regtypes.AssetSubmission{WizardID: "wiz-1", Sequence: 3, BearerToken: "secret-bearer-token"}
	payload, err := dc.ToPayload(in)
	require.NoError(t, err)
	assert.Equal(t, EncodingEncrypted, string(payload.Metadata[converter.MetadataEncoding]))
	assert.NotContains(t, string(payload.Data), "secret-bearer-token")
	assert.NotContains(t, string(payload.Data), "wiz-1")

	var out regtypes.AssetSubmission
	require.NoError(t, dc.FromPayload(payload, &out))
	assert.Equal(t, in, out)
}

func TestDataConverter_WrongKeyFails(t *testing.T) {
	sealer, err := DataConverter(testKey(1))
	require.NoError(t, err)
	opener, err := DataConverter(testKey(2))
	require.NoError(t, err)

	payload, err := sealer.ToPayload(regtypes.AssetSubmission{BearerToken: "t"})
	require.NoError(t, err)
	var out regtypes.AssetSubmission
	require.Error(t, opener.FromPayload(payload, &out))
}

func TestAESCodec_PassesForeignPayloadsThrough(t *testing.T) {
	c, err := NewAESCodec(testKey(3))
	require.NoError(t, err)
	plain, err := converter.GetDefaultDataConverter().ToPayloads("hello")
	require.NoError(t, err)

	decoded, err := c.Decode(plain.GetPayloads())
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Same(t, plain.GetPayloads()[0], decoded[0])
}

func TestParseKey(t *testing.T) {
	key, err := ParseKey(" " + base64.StdEncoding.EncodeToString(testKey(9)) + "\n")
	require.NoError(t, err)
	assert.Equal(t, testKey(9), key)

	_, err = ParseKey(base64.StdEncoding.EncodeToString([]byte("short")))
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = ParseKey("not base64!")
	require.ErrorIs(t, err, ErrInvalidKey)
	_, err = NewAESCodec([]byte("short"))
	require.ErrorIs(t, err, ErrInvalidKey)
}
