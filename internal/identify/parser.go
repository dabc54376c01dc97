package identify

import (
	"strconv"
	"strings"
	"unicode"
)

// Markers the vision backend is instructed to emit, one per line.
const (
	markerDevice    = "DEVICE:"
	markerDeviceCO2 = "DEVICE_CO2:"
	markerDeviceKWh = "DEVICE_KWH:"
	markerDisposal  = "DISPOSAL:"
	markerReuse     = "REUSE IDEAS:"
)

// Filler phrases the model sometimes prepends to the device name despite the
// prompt. Matched case-insensitively as prefixes.
var fillerPrefixes = []string{
	"This is a ",
	"This appears to be a ",
	"I can see a ",
	"The image shows a ",
	"This looks like a ",
	"I identify this as a ",
}

const fallbackNameMaxTokens = 4

type section int

const (
	sectionNone section = iota
	sectionDisposal
	sectionReuse
)

// ParseGuidance extracts a DeviceGuide from the raw vision response. The blob
// is scanned line by line: marker lines set the name and the integer
// estimates, DISPOSAL:/REUSE IDEAS: switch the current section, and every
// other non-empty line accumulates into the active section. The parse is
// best-effort and never fails: unreadable integers become 0, missing sections
// stay empty, and a blob without a DEVICE: marker falls back to naming the
// device from its first non-empty line.
func ParseGuidance(blob string) DeviceGuide {
	guide := DeviceGuide{FullResponse: strings.TrimSpace(blob)}

	var (
		disposalLines []string
		reuseLines    []string
		current       = sectionNone
		deviceFound   bool
	)

	for _, raw := range strings.Split(guide.FullResponse, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, markerDevice):
			guide.DeviceName = strings.TrimSpace(strings.TrimPrefix(line, markerDevice))
			deviceFound = true
		case strings.HasPrefix(line, markerDeviceCO2):
			guide.DeviceCO2 = leadingInt(strings.TrimPrefix(line, markerDeviceCO2))
		case strings.HasPrefix(line, markerDeviceKWh):
			guide.DeviceKWh = leadingInt(strings.TrimPrefix(line, markerDeviceKWh))
		case strings.HasPrefix(line, markerDisposal):
			current = sectionDisposal
		case strings.HasPrefix(line, markerReuse):
			current = sectionReuse
		case line != "" && current == sectionDisposal:
			disposalLines = append(disposalLines, line)
		case line != "" && current == sectionReuse:
			reuseLines = append(reuseLines, line)
		}
	}

	guide.DisposalInfo = strings.Join(disposalLines, "\n")
	guide.ReuseIdeas = strings.Join(reuseLines, "\n")

	if !deviceFound {
		guide.DeviceName = fallbackName(guide.FullResponse)
	} else {
		guide.DeviceName = CleanDeviceName(guide.DeviceName)
	}

	if guide.IsSentinel() {
		return sentinelGuide()
	}
	return guide
}

// leadingInt parses the first whitespace-delimited token of s as an integer.
// The estimates arrive as e.g. "300 kg"; anything unparseable counts as 0.
func leadingInt(s string) int64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// fallbackName derives a device name when no DEVICE: marker was present:
// the first non-empty line, cleaned, capped at a few tokens.
func fallbackName(blob string) string {
	var first string
	for _, raw := range strings.Split(blob, "\n") {
		if line := strings.TrimSpace(raw); line != "" {
			first = line
			break
		}
	}
	if idx := strings.Index(first, markerDevice); idx >= 0 {
		first = first[idx+len(markerDevice):]
	}

	name := CleanDeviceName(first)
	fields := strings.Fields(name)
	if len(fields) > fallbackNameMaxTokens {
		name = strings.Join(fields[:fallbackNameMaxTokens], " ")
	}
	return name
}

// CleanDeviceName normalizes a raw device name: strips one leading filler
// phrase, drops any parenthetical tail, and upper-cases the first letter.
// Cleaning an already-clean name is a no-op.
func CleanDeviceName(name string) string {
	name = strings.TrimSpace(name)

	for _, prefix := range fillerPrefixes {
		if len(name) >= len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}

	if idx := strings.Index(name, "("); idx >= 0 {
		name = strings.TrimSpace(name[:idx])
	}

	runes := []rune(name)
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}
