package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	t.Run("valid payload", func(t *testing.T) {
		body := []byte(`{
			"reservoir_id": "SHASTA",
			"topic": "SHASTA/WML",
			"timestamp": "2024-01-01T00:00:00-08:00",
			"wml_taf": 1000.5,
			"wml_af": 1000500,
			"units": {"wml": "TAF", "alternate": "AF"},
			"source_file": "Shasta_WML(Sample),.csv",
			"message_type": "publisher"
		}`)

		m, err := DecodeMessage("SHASTA/WML", body)

		require.NoError(t, err)
		assert.Equal(t, "SHASTA", m.ReservoirID)
		assert.Equal(t, 1000.5, m.StorageTAF)
		assert.Equal(t, int64(1000500), m.StorageAF)
		assert.True(t, m.Timestamp.Equal(time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)))
	})

	t.Run("reservoir ID comes from the topic", func(t *testing.T) {
		body := []byte(`{"reservoir_id": "SOMETHING_ELSE", "timestamp": "2024-01-01T00:00:00-08:00", "wml_taf": 1.0, "wml_af": 1000}`)

		m, err := DecodeMessage("OROVILLE/WML", body)

		require.NoError(t, err)
		assert.Equal(t, "OROVILLE", m.ReservoirID)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := DecodeMessage("SHASTA/WML", []byte("{invalid"))

		assert.Error(t, err)
	})

	t.Run("missing wml_taf", func(t *testing.T) {
		body := []byte(`{"timestamp": "2024-01-01T00:00:00-08:00", "wml_af": 1000}`)

		_, err := DecodeMessage("SHASTA/WML", body)

		assert.EqualError(t, err, "Message: missing wml_taf")
	})

	t.Run("missing wml_af", func(t *testing.T) {
		body := []byte(`{"timestamp": "2024-01-01T00:00:00-08:00", "wml_taf": 1.0}`)

		_, err := DecodeMessage("SHASTA/WML", body)

		assert.EqualError(t, err, "Message: missing wml_af")
	})

	t.Run("invalid timestamp", func(t *testing.T) {
		body := []byte(`{"timestamp": "01/01/2024", "wml_taf": 1.0, "wml_af": 1000}`)

		_, err := DecodeMessage("SHASTA/WML", body)

		assert.Error(t, err)
	})

	t.Run("missing timestamp", func(t *testing.T) {
		body := []byte(`{"wml_taf": 1.0, "wml_af": 1000}`)

		_, err := DecodeMessage("SHASTA/WML", body)

		assert.Error(t, err)
	})

	t.Run("non-WML topic", func(t *testing.T) {
		body := []byte(`{"timestamp": "2024-01-01T00:00:00-08:00", "wml_taf": 1.0, "wml_af": 1000}`)

		_, err := DecodeMessage("SHASTA/FLOW", body)

		assert.Error(t, err)
	})
}

func TestPayloadEncodeDecodeRoundTrip(t *testing.T) {
	taf := 1000.5
	af := int64(1000500)

	p := &Payload{
		ReservoirID: "SHASTA",
		Topic:       "SHASTA/WML",
		Timestamp:   "2024-01-01T00:00:00-08:00",
		WMLTAF:      &taf,
		WMLAF:       &af,
		Units:       Units{WML: "TAF", Alternate: "AF"},
		SourceFile:  "Shasta_WML(Sample),.csv",
		MessageType: "publisher",
	}

	body, err := p.Encode()
	require.NoError(t, err)

	m, err := DecodeMessage("SHASTA/WML", body)
	require.NoError(t, err)
	assert.Equal(t, "SHASTA", m.ReservoirID)
	assert.Equal(t, taf, m.StorageTAF)
	assert.Equal(t, af, m.StorageAF)
}
