package gpu

import "github.com/NVIDIA/go-nvml/pkg/nvml"

// device is the read-only subset of nvml.Device the probe uses.
type device interface {
	GetName() (string, nvml.Return)
	GetUUID() (string, nvml.Return)
	GetTemperature(nvml.TemperatureSensors) (uint32, nvml.Return)
	GetNumFans() (int, nvml.Return)
	GetFanSpeed_v2(int) (uint32, nvml.Return)
	GetPowerManagementLimit() (uint32, nvml.Return)
	GetMemoryInfo() (nvml.Memory, nvml.Return)
}

// DeviceInfo is a point-in-time snapshot of one NVIDIA device.
type DeviceInfo struct {
	Index       int
	Name        string
	UUID        string
	Temperature int // degrees Celsius
	FanSpeeds   []int
	PowerLimit  int // watts
	MemoryTotal uint64
	MemoryUsed  uint64
}
