package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/benmeehan/telematics-agent/pkg/file"
	"github.com/benmeehan/telematics-agent/pkg/modem"
)

// ErrNoIdentity is returned when neither the identity file nor the modem provided a device ID.
var ErrNoIdentity = errors.New("device identity is not known")

// Identity holds the device's unique identifier and other metadata.
type Identity struct {
	ID    string `json:"device_id,omitempty"`
	Name  string `json:"device_name,omitempty"`
	OrgID string `json:"org_id,omitempty"`

	// Hardware identity reported by the modem.
	IMEI         string `json:"imei,omitempty"`
	ICCID        string `json:"iccid,omitempty"`
	IMSI         string `json:"imsi,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	Firmware     string `json:"firmware,omitempty"`

	AgentVersion string          `json:"agent_version,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// DeviceInfoInterface defines methods for managing device identity.
type DeviceInfoInterface interface {
	LoadDeviceInfo() error
	SaveDeviceID(deviceID string) error
	GetDeviceID() string
	GetDeviceIdentity() *Identity
	UpdateFromModem(id modem.Identification) error
	SetAgentVersion(version string) error
}

// DeviceInfo manages the device identity and its associated file operations.
type DeviceInfo struct {
	DeviceInfoFile string
	Identity       Identity
	fileOps        file.FileOperations
	mu             sync.RWMutex
}

// NewDeviceInfo initializes a new DeviceInfo instance.
func NewDeviceInfo(filePath string, fileOps file.FileOperations) DeviceInfoInterface {
	return &DeviceInfo{
		DeviceInfoFile: filePath,
		fileOps:        fileOps,
		Identity:       Identity{},
	}
}

// LoadDeviceInfo reads the device information from the file and populates the Identity field.
func (d *DeviceInfo) LoadDeviceInfo() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var id Identity
	err := d.fileOps.ReadJsonFile(d.DeviceInfoFile, &id)
	if err != nil {
		if os.IsNotExist(err) {
			// File does not exist, initialize with default empty values
			d.Identity = Identity{}
			return nil
		}
		return err
	}
	d.Identity = id
	return nil
}

// GetDeviceIdentity returns a copy of the current device Identity.
func (d *DeviceInfo) GetDeviceIdentity() *Identity {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id := d.Identity
	return &id
}

// GetDeviceID returns the current device ID.
func (d *DeviceInfo) GetDeviceID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.Identity.ID
}

// SaveDeviceID updates the device ID in the Identity field and writes it back to the file.
func (d *DeviceInfo) SaveDeviceID(deviceID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Identity.ID = deviceID
	return d.fileOps.WriteJsonFile(d.DeviceInfoFile, d.Identity)
}

// UpdateFromModem records the modem identification. A device without an ID takes the IMEI.
// The file is only rewritten when something changed, e.g. after a SIM swap.
func (d *DeviceInfo) UpdateFromModem(id modem.Identification) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.Identity
	next.IMEI = id.IMEI
	next.ICCID = id.ICCID
	next.IMSI = id.IMSI
	next.Manufacturer = id.Manufacturer
	next.Model = id.Model
	next.Firmware = id.Revision
	if next.ID == "" {
		next.ID = id.IMEI
	}
	if next.ID == "" {
		return ErrNoIdentity
	}

	if sameHardware(d.Identity, next) {
		return nil
	}
	if err := d.fileOps.WriteJsonFile(d.DeviceInfoFile, next); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	d.Identity = next
	return nil
}

// SetAgentVersion records the running agent version, which must be a semantic version.
func (d *DeviceInfo) SetAgentVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("agent version %q: %w", version, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.Identity.AgentVersion = v.String()
	return nil
}

func sameHardware(a, b Identity) bool {
	return a.ID == b.ID &&
		a.IMEI == b.IMEI &&
		a.ICCID == b.ICCID &&
		a.IMSI == b.IMSI &&
		a.Manufacturer == b.Manufacturer &&
		a.Model == b.Model &&
		a.Firmware == b.Firmware
}
