// Package devices models the roster of execution targets. A device is a
// tagged variant: exactly one of the kind fields is set. Preprocess devices
// run nothing; they exist to gate real-device execution on successful
// host-side tool conversion.
package devices

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jihwankim/shader-fuzz/pkg/binaries"
)

// Device kinds, as reported by Kind.
const (
	KindPreprocess  = "preprocess"
	KindHost        = "host"
	KindSwiftShader = "swift_shader"
	KindAndroid     = "android"
)

// Device describes one execution target. Binaries are per-device overrides
// that take priority over test-level overrides when resolving tools.
type Device struct {
	Name        string       `json:"name" yaml:"name"`
	Preprocess  *Preprocess  `json:"preprocess,omitempty" yaml:"preprocess,omitempty"`
	Host        *Host        `json:"host,omitempty" yaml:"host,omitempty"`
	SwiftShader *SwiftShader `json:"swift_shader,omitempty" yaml:"swift_shader,omitempty"`
	Android     *Android     `json:"android,omitempty" yaml:"android,omitempty"`

	Binaries []binaries.Binary `json:"binaries,omitempty" yaml:"binaries,omitempty"`
}

// Preprocess is the dummy device kind; success means host-side tooling ran.
type Preprocess struct{}

// Host runs Amber locally against the system Vulkan driver.
type Host struct{}

// SwiftShader runs Amber locally against the SwiftShader ICD, resolved
// through the binary manager.
type SwiftShader struct{}

// Android runs Amber on a device reachable through adb.
type Android struct {
	Serial string `json:"serial" yaml:"serial"`
}

// Kind returns the device kind string, or an error if the variant is
// missing or ambiguous.
func (d *Device) Kind() (string, error) {
	var kinds []string
	if d.Preprocess != nil {
		kinds = append(kinds, KindPreprocess)
	}
	if d.Host != nil {
		kinds = append(kinds, KindHost)
	}
	if d.SwiftShader != nil {
		kinds = append(kinds, KindSwiftShader)
	}
	if d.Android != nil {
		kinds = append(kinds, KindAndroid)
	}
	if len(kinds) != 1 {
		return "", fmt.Errorf("device %q must have exactly one kind, has %d", d.Name, len(kinds))
	}
	return kinds[0], nil
}

// List is the on-disk device roster.
type List struct {
	Devices           []Device `yaml:"devices"`
	ActiveDeviceNames []string `yaml:"active_device_names"`
}

// Active returns the devices named in ActiveDeviceNames, in roster order.
// Names with no matching device are skipped.
func (l *List) Active() []Device {
	active := make(map[string]bool, len(l.ActiveDeviceNames))
	for _, name := range l.ActiveDeviceNames {
		active[name] = true
	}
	var result []Device
	for _, device := range l.Devices {
		if active[device.Name] {
			result = append(result, device)
		}
	}
	return result
}

// DefaultList is the roster created on first run: a preprocess gate plus
// the host Vulkan driver.
func DefaultList() *List {
	return &List{
		Devices: []Device{
			{Name: "host_preprocessor", Preprocess: &Preprocess{}},
			{Name: "host", Host: &Host{}},
		},
		ActiveDeviceNames: []string{"host_preprocessor", "host"},
	}
}

// ReadList loads a roster from a YAML file.
func ReadList(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read device list: %w", err)
	}

	var list List
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to parse device list: %w", err)
	}

	for i := range list.Devices {
		if _, err := list.Devices[i].Kind(); err != nil {
			return nil, err
		}
	}

	return &list, nil
}

// WriteList saves a roster to a YAML file, creating parent directories.
func WriteList(path string, list *List) error {
	data, err := yaml.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal device list: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create device list directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write device list: %w", err)
	}

	return nil
}

// ReadOrCreateList loads the roster, writing the default roster first if the
// file does not exist.
func ReadOrCreateList(path string) (*List, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		list := DefaultList()
		if err := WriteList(path, list); err != nil {
			return nil, err
		}
		return list, nil
	}
	return ReadList(path)
}
