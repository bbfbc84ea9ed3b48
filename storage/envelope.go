package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// envelopeVersion identifies the current payload envelope layout.
const envelopeVersion = 1

// SignedPayload wraps a JSON payload with an HMAC signature. The key lives
// in the application configuration, so this is tamper evidence against
// casual edits of the state files, not confidentiality or authentication.
type SignedPayload struct {
	Version   int             `json:"version"`
	Timestamp int64           `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Signature string          `json:"signature"`
}

// Codec seals values into signed envelopes and opens them back, rejecting
// envelopes whose signature does not match.
type Codec struct {
	key []byte
	now func() time.Time
}

// NewCodec creates a codec signing with key. An empty key still produces
// envelopes; their signature is the HMAC of the payload under the empty
// key, which detects corruption but not deliberate edits.
func NewCodec(key string) *Codec {
	return &Codec{key: []byte(key), now: time.Now}
}

func (c *Codec) sign(version int, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, c.key)
	mac.Write([]byte(strconv.Itoa(version)))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Seal marshals value and wraps it in a signed envelope.
func (c *Codec) Seal(value any) ([]byte, error) {
	payload, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	timestamp := c.now().UnixMilli()
	envelope := SignedPayload{
		Version:   envelopeVersion,
		Timestamp: timestamp,
		Payload:   payload,
		Signature: c.sign(envelopeVersion, timestamp, payload),
	}
	return json.Marshal(envelope)
}

// Open verifies the envelope signature and unmarshals the payload into
// value. Unparseable envelopes and signature mismatches both return an
// error; callers fall back to their defaults.
func (c *Codec) Open(data []byte, value any) error {
	var envelope SignedPayload
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("failed to parse envelope: %w", err)
	}

	expected := c.sign(envelope.Version, envelope.Timestamp, envelope.Payload)
	if !hmac.Equal([]byte(expected), []byte(envelope.Signature)) {
		return fmt.Errorf("envelope signature mismatch")
	}

	if err := json.Unmarshal(envelope.Payload, value); err != nil {
		return fmt.Errorf("failed to parse payload: %w", err)
	}
	return nil
}
