package fmedia

import (
	"regexp"
	"strings"
)

// Device is a capture device as reported by `fmedia --list-dev`.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

const (
	captureHeader = "Capture:"
	defaultMarker = " - Default"
)

var deviceLine = regexp.MustCompile(`^device #(\d+): (.+)$`)

// ParseDevices extracts capture devices from `fmedia --list-dev` output.
//
// Everything before the literal `Capture:` line is ignored. After it, a line
// of the form `device #<N>: <label>` starts a device entry; the indented
// `Default Format:` lines that may follow are detail for the current entry,
// not a new device. A trailing " - Default" marker is stripped from labels so
// the system default device reads the same as any other. Lines that match
// neither shape are skipped; device ids are never guessed. No header means no
// devices.
func ParseDevices(lines []string) []Device {
	var devices []Device

	inCapture := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !inCapture {
			if trimmed == captureHeader {
				inCapture = true
			}
			continue
		}

		m := deviceLine.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}

		label := strings.TrimSuffix(strings.TrimSpace(m[2]), defaultMarker)
		devices = append(devices, Device{ID: m[1], Label: label})
	}

	return devices
}
