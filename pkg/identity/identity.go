package identity

import (
	"errors"
	"io/fs"

	"github.com/benmeehan/route-agent/pkg/file"
	"github.com/google/uuid"
)

// Identity holds the device's unique identifier.
type Identity struct {
	ID   string `json:"device_id,omitempty"`
	Name string `json:"device_name,omitempty"`
}

// DeviceInfoInterface defines methods for managing device identity.
type DeviceInfoInterface interface {
	LoadDeviceInfo() error
	GetDeviceID() string
}

// DeviceInfo loads the device identity from a JSON file, creating one on first boot.
type DeviceInfo struct {
	DeviceInfoFile string
	Identity       Identity
	fileOps        file.FileOperations
}

// NewDeviceInfo initializes a new DeviceInfo instance.
func NewDeviceInfo(filePath string, fileOps file.FileOperations) *DeviceInfo {
	return &DeviceInfo{
		DeviceInfoFile: filePath,
		fileOps:        fileOps,
	}
}

// LoadDeviceInfo reads the identity file. When the file is missing or has no ID, a
// random ID is generated and written back so it survives restarts.
func (d *DeviceInfo) LoadDeviceInfo() error {
	err := d.fileOps.ReadJsonFile(d.DeviceInfoFile, &d.Identity)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if d.Identity.ID != "" {
		return nil
	}

	d.Identity.ID = uuid.NewString()
	return d.fileOps.WriteJsonFile(d.DeviceInfoFile, d.Identity)
}

// GetDeviceID returns the current device ID.
func (d *DeviceInfo) GetDeviceID() string {
	return d.Identity.ID
}
