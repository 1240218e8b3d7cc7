// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/gordonklaus/portaudio"
)

// fakeDevice builds a DeviceInfo the way PortAudio would report it, so the
// device tests run without audio hardware or an initialized library.
func fakeDevice(index int, name string, inputs, outputs int) *portaudio.DeviceInfo {
	return &portaudio.DeviceInfo{
		Index:                   index,
		Name:                    name,
		MaxInputChannels:        inputs,
		MaxOutputChannels:       outputs,
		DefaultSampleRate:       48000,
		DefaultLowInputLatency:  5 * time.Millisecond,
		DefaultHighInputLatency: 20 * time.Millisecond,
	}
}

// stubDeviceTable routes every device query through a canned table for the
// duration of the test.
func stubDeviceTable(t *testing.T, devices []*portaudio.DeviceInfo, err error) {
	t.Helper()

	orig := paDevicesFunc
	t.Cleanup(func() { paDevicesFunc = orig })
	paDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return devices, err
	}
}

func testDeviceTable() []*portaudio.DeviceInfo {
	return []*portaudio.DeviceInfo{
		fakeDevice(0, "Built-in Microphone", 2, 0),
		fakeDevice(1, "Built-in Output", 0, 2),
		fakeDevice(2, "USB Interface", 8, 8),
	}
}

func TestInitialize(t *testing.T) {
	orig := paLibInitialize
	defer func() { paLibInitialize = orig }()

	paLibInitialize = func() error { return nil }
	if err := Initialize(); err != nil {
		t.Errorf("Initialize() error = %v, want nil", err)
	}

	paLibInitialize = func() error { return fmt.Errorf("host api unavailable") }
	if err := Initialize(); err == nil {
		t.Error("Initialize() expected error when the library fails, got nil")
	}
}

func TestTerminate(t *testing.T) {
	orig := paLibTerminate
	defer func() { paLibTerminate = orig }()

	paLibTerminate = func() error { return nil }
	if err := Terminate(); err != nil {
		t.Errorf("Terminate() error = %v, want nil", err)
	}

	paLibTerminate = func() error { return fmt.Errorf("not initialized") }
	if err := Terminate(); err == nil {
		t.Error("Terminate() expected error when the library fails, got nil")
	}
}

func TestHostDevices(t *testing.T) {
	stubDeviceTable(t, testDeviceTable(), nil)

	devices, err := HostDevices()
	if err != nil {
		t.Fatalf("HostDevices() error = %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("HostDevices() returned %d devices, want 3", len(devices))
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("device %d: ID = %d, want %d", i, d.ID, i)
		}
		if d.Name == "" {
			t.Errorf("device %d: empty name", i)
		}
		if d.DefaultSampleRate != 48000 {
			t.Errorf("device %d: DefaultSampleRate = %f, want 48000", i, d.DefaultSampleRate)
		}
	}
	if devices[1].MaxInputChannels != 0 || devices[1].MaxOutputChannels != 2 {
		t.Errorf("device 1 channels = (%d in, %d out), want (0 in, 2 out)",
			devices[1].MaxInputChannels, devices[1].MaxOutputChannels)
	}
}

func TestHostDevicesQueryError(t *testing.T) {
	stubDeviceTable(t, nil, fmt.Errorf("enumeration failed"))

	if _, err := HostDevices(); err == nil {
		t.Error("HostDevices() expected error when enumeration fails, got nil")
	}
}

func TestInputDevice(t *testing.T) {
	stubDeviceTable(t, testDeviceTable(), nil)

	t.Run("valid input device", func(t *testing.T) {
		dev, err := InputDevice(0)
		if err != nil {
			t.Fatalf("InputDevice(0) error = %v", err)
		}
		if dev.Name != "Built-in Microphone" {
			t.Errorf("InputDevice(0).Name = %q, want %q", dev.Name, "Built-in Microphone")
		}
	})

	t.Run("system default", func(t *testing.T) {
		orig := paLibDefaultInputDeviceFunc
		defer func() { paLibDefaultInputDeviceFunc = orig }()
		paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
			return fakeDevice(0, "Built-in Microphone", 2, 0), nil
		}

		dev, err := InputDevice(-1)
		if err != nil {
			t.Fatalf("InputDevice(-1) error = %v", err)
		}
		if dev.Name != "Built-in Microphone" {
			t.Errorf("default device name = %q, want %q", dev.Name, "Built-in Microphone")
		}
	})

	// Every selection failure must be recognizable as ErrNoInputDevice so
	// the startup path can classify it.
	tests := []struct {
		name string
		id   int
	}{
		{"negative ID", -2},
		{"ID past end of table", 99},
		{"output-only device", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InputDevice(tt.id)
			if err == nil {
				t.Fatalf("InputDevice(%d) expected error, got nil", tt.id)
			}
			if !errors.Is(err, ErrNoInputDevice) {
				t.Errorf("InputDevice(%d) error = %v, want ErrNoInputDevice", tt.id, err)
			}
		})
	}
}

func TestInputDeviceDefaultUnavailable(t *testing.T) {
	stubDeviceTable(t, testDeviceTable(), nil)

	orig := paLibDefaultInputDeviceFunc
	defer func() { paLibDefaultInputDeviceFunc = orig }()
	paLibDefaultInputDeviceFunc = func() (*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("no default input")
	}

	_, err := InputDevice(-1)
	if err == nil {
		t.Fatal("InputDevice(-1) expected error when no default exists, got nil")
	}
	if !errors.Is(err, ErrNoInputDevice) {
		t.Errorf("InputDevice(-1) error = %v, want ErrNoInputDevice", err)
	}
}

func TestInputDeviceQueryError(t *testing.T) {
	queryErr := fmt.Errorf("enumeration failed")
	stubDeviceTable(t, nil, queryErr)

	_, err := InputDevice(-1)
	if err == nil {
		t.Fatal("InputDevice(-1) expected error when enumeration fails, got nil")
	}
	// An enumeration failure is a library fault, not a missing device.
	if errors.Is(err, ErrNoInputDevice) {
		t.Errorf("InputDevice(-1) error = %v, want a plain enumeration error", err)
	}
}

func TestPaDevicesNormalizesNil(t *testing.T) {
	orig := paLibDevicesFunc
	defer func() { paLibDevicesFunc = orig }()
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, nil
	}

	devices, err := paDevices()
	if err != nil {
		t.Fatalf("paDevices() error = %v", err)
	}
	if devices == nil {
		t.Error("paDevices() = nil, want empty slice")
	}
	if len(devices) != 0 {
		t.Errorf("paDevices() length = %d, want 0", len(devices))
	}
}

func TestPaDevicesPropagatesError(t *testing.T) {
	orig := paLibDevicesFunc
	defer func() { paLibDevicesFunc = orig }()
	paLibDevicesFunc = func() ([]*portaudio.DeviceInfo, error) {
		return nil, fmt.Errorf("PortAudio not initialized")
	}

	devices, err := paDevices()
	if err == nil {
		t.Error("paDevices() expected error, got nil")
	}
	if devices != nil {
		t.Errorf("paDevices() = %v on error, want nil", devices)
	}
}
