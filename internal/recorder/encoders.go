package recorder

import "fmt"

// Encoder identifies an audio encoder handled by the recorder binary.
type Encoder string

const (
	EncoderAACLC Encoder = "aac-lc"
	EncoderAACHE Encoder = "aac-he"
	EncoderFLAC  Encoder = "flac"
	EncoderOpus  Encoder = "opus"
	EncoderWAV   Encoder = "wav"
)

// supportedEncoders is the closed capability set of the platform shim; every
// other encoder reports unsupported.
var supportedEncoders = map[Encoder]bool{
	EncoderAACLC: true,
	EncoderAACHE: true,
	EncoderFLAC:  true,
	EncoderOpus:  true,
	EncoderWAV:   true,
}

// channelLayouts maps channel counts to fmedia layout names.
var channelLayouts = map[int]string{
	1: "mono",
	2: "stereo",
}

// IsEncoderSupported reports whether the encoder is in the supported set.
func IsEncoderSupported(enc Encoder) bool {
	return supportedEncoders[enc]
}

// FileExtension returns the container extension fmedia selects the encoder
// from when writing the given format.
func (e Encoder) FileExtension() string {
	switch e {
	case EncoderAACLC, EncoderAACHE:
		return "m4a"
	case EncoderFLAC:
		return "flac"
	case EncoderOpus:
		return "opus"
	case EncoderWAV:
		return "wav"
	default:
		return ""
	}
}

// encoderArgs returns the encoder-specific fmedia flags. Bitrate is in bits
// per second and only meaningful for lossy encoders; zero means the binary's
// default.
func encoderArgs(enc Encoder, bitrate int) []string {
	var args []string
	switch enc {
	case EncoderAACLC:
		args = append(args, "--aac-profile=LC")
		if bitrate > 0 {
			args = append(args, fmt.Sprintf("--aac-quality=%d", bitrate/1000))
		}
	case EncoderAACHE:
		args = append(args, "--aac-profile=HE")
		if bitrate > 0 {
			args = append(args, fmt.Sprintf("--aac-quality=%d", bitrate/1000))
		}
	case EncoderOpus:
		if bitrate > 0 {
			args = append(args, fmt.Sprintf("--opus.bitrate=%d", bitrate/1000))
		}
	case EncoderFLAC, EncoderWAV:
		// Lossless; format is selected by the output extension alone.
	}
	return args
}
