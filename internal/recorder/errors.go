package recorder

import "fmt"

// UnsupportedEncoderError rejects a start request whose encoder is outside
// the supported set. The session is left untouched.
type UnsupportedEncoderError struct {
	Encoder Encoder
}

func (e *UnsupportedEncoderError) Error() string {
	return fmt.Sprintf("unsupported encoder: %s", e.Encoder)
}

// UnsupportedChannelLayoutError rejects a start request whose channel count
// does not map to a known layout.
type UnsupportedChannelLayoutError struct {
	Channels int
}

func (e *UnsupportedChannelLayoutError) Error() string {
	return fmt.Sprintf("no channel layout for %d channel(s)", e.Channels)
}
