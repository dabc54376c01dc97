package identify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGuidance_WellFormedBlob(t *testing.T) {
	blob := "DEVICE: Laptop\nDEVICE_CO2: 300 kg\nDEVICE_KWH: 150\nDISPOSAL:\n- recycle\nREUSE IDEAS:\n1. repurpose"

	guide := ParseGuidance(blob)

	assert.Equal(t, "Laptop", guide.DeviceName)
	assert.Equal(t, int64(300), guide.DeviceCO2)
	assert.Equal(t, int64(150), guide.DeviceKWh)
	assert.Equal(t, "- recycle", guide.DisposalInfo)
	assert.Equal(t, "1. repurpose", guide.ReuseIdeas)
	assert.False(t, guide.IsSentinel())
}

func TestParseGuidance_MultiLineSections(t *testing.T) {
	blob := `DEVICE: Smartphone
DEVICE_CO2: 55 kg
DEVICE_KWH: 7

DISPOSAL:
- Take it to a certified e-waste recycler
- Check the manufacturer take-back program

REUSE IDEAS:
1. Dedicated music player
2. Security camera
3. Alarm clock`

	guide := ParseGuidance(blob)

	assert.Equal(t, "Smartphone", guide.DeviceName)
	assert.Equal(t, int64(55), guide.DeviceCO2)
	assert.Equal(t, int64(7), guide.DeviceKWh)
	assert.Equal(t, "- Take it to a certified e-waste recycler\n- Check the manufacturer take-back program", guide.DisposalInfo)
	assert.Equal(t, "1. Dedicated music player\n2. Security camera\n3. Alarm clock", guide.ReuseIdeas)
}

func TestParseGuidance_MalformedIntegersDefaultToZero(t *testing.T) {
	cases := []struct {
		name string
		blob string
	}{
		{"non-numeric co2", "DEVICE: Router\nDEVICE_CO2: approximately fifty\nDEVICE_KWH: abc"},
		{"empty values", "DEVICE: Router\nDEVICE_CO2:\nDEVICE_KWH:"},
		{"float values", "DEVICE: Router\nDEVICE_CO2: 12.5\nDEVICE_KWH: 3.9"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			guide := ParseGuidance(tc.blob)
			assert.Equal(t, "Router", guide.DeviceName)
			assert.Zero(t, guide.DeviceCO2)
			assert.Zero(t, guide.DeviceKWh)
		})
	}
}

func TestParseGuidance_MissingSectionsYieldEmptyText(t *testing.T) {
	guide := ParseGuidance("DEVICE: Keyboard\nDEVICE_CO2: 10\nDEVICE_KWH: 1")

	assert.Equal(t, "Keyboard", guide.DeviceName)
	assert.Empty(t, guide.DisposalInfo)
	assert.Empty(t, guide.ReuseIdeas)
}

func TestParseGuidance_FallbackWithoutMarkers(t *testing.T) {
	guide := ParseGuidance("This appears to be a Battery (AA size)")

	assert.Equal(t, "Battery", guide.DeviceName)
	assert.Zero(t, guide.DeviceCO2)
	assert.Zero(t, guide.DeviceKWh)
	assert.Empty(t, guide.DisposalInfo)
	assert.Empty(t, guide.ReuseIdeas)
}

func TestParseGuidance_FallbackCapsTokenCount(t *testing.T) {
	guide := ParseGuidance("some oddly shaped reply with many trailing words")

	assert.Equal(t, "Some oddly shaped reply", guide.DeviceName)
}

func TestParseGuidance_FallbackSkipsLeadingBlankLines(t *testing.T) {
	guide := ParseGuidance("\n\n  \nThis is a Toaster\nmore text")

	assert.Equal(t, "Toaster", guide.DeviceName)
}

func TestParseGuidance_SentinelShortCircuits(t *testing.T) {
	blob := "DEVICE: No Device Detected\nDEVICE_CO2: 100\nDEVICE_KWH: 50\nDISPOSAL:\n- something\nREUSE IDEAS:\n1. something"

	guide := ParseGuidance(blob)

	assert.True(t, guide.IsSentinel())
	assert.Equal(t, SentinelNoDevice, guide.DeviceName)
	assert.Zero(t, guide.DeviceCO2)
	assert.Zero(t, guide.DeviceKWh)
	assert.Empty(t, guide.DisposalInfo)
	assert.Empty(t, guide.ReuseIdeas)
	assert.Empty(t, guide.FullResponse)
}

func TestParseGuidance_SentinelFromBareReply(t *testing.T) {
	guide := ParseGuidance("No Device Detected")

	assert.True(t, guide.IsSentinel())
	assert.Empty(t, guide.DisposalInfo)
}

func TestParseGuidance_ContentBeforeSectionIsIgnored(t *testing.T) {
	blob := "DEVICE: Monitor\nstray line before any section\nDISPOSAL:\n- drop off"

	guide := ParseGuidance(blob)

	assert.Equal(t, "- drop off", guide.DisposalInfo)
	assert.Empty(t, guide.ReuseIdeas)
}

func TestCleanDeviceName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"This is a Laptop", "Laptop"},
		{"this appears to be a smartphone", "Smartphone"},
		{"I can see a Tablet (cracked screen)", "Tablet"},
		{"The image shows a power bank", "Power bank"},
		{"This looks like a Router", "Router"},
		{"I identify this as a Charger", "Charger"},
		{"laptop", "Laptop"},
		{"Game Console (PS4)", "Game Console"},
		{"  Headphones  ", "Headphones"},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanDeviceName(tc.in), "input %q", tc.in)
	}
}

func TestCleanDeviceName_Idempotent(t *testing.T) {
	inputs := []string{
		"This is a Laptop (2019 model)",
		"this looks like a battery",
		"Smartphone",
		"No Device Detected",
	}

	for _, in := range inputs {
		once := CleanDeviceName(in)
		twice := CleanDeviceName(once)
		assert.Equal(t, once, twice, "cleaning %q twice changed the result", in)
	}
}

func TestParseGuidance_KeepsFullResponse(t *testing.T) {
	blob := "  DEVICE: Laptop\nDEVICE_CO2: 300\n"

	guide := ParseGuidance(blob)

	assert.Equal(t, "DEVICE: Laptop\nDEVICE_CO2: 300", guide.FullResponse)
}
