// Package gpu reads NVIDIA device facts through NVML.
package gpu

import (
	"sync"

	"codeberg.org/mutker/sysreport/internal/logger"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const milliWattsToWatts = 1000

// Probe takes read-only device snapshots. NVML is initialized for the
// duration of each Devices call and shut down afterwards.
type Probe struct {
	lib  library
	log  logger.Logger
	mu   sync.Mutex
}

func NewProbe(log logger.Logger) *Probe {
	return newProbe(nvmlLibrary{}, log)
}

func newProbe(lib library, log logger.Logger) *Probe {
	if log == nil {
		log = logger.Nop()
	}

	return &Probe{lib: lib, log: log.With("gpu")}
}

// Devices returns a snapshot of every visible device. Attributes a device
// does not support are left at their zero value.
func (p *Probe) Devices() ([]DeviceInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.lib.Start(); err != nil {
		return nil, err
	}
	defer func() {
		if err := p.lib.Stop(); err != nil {
			p.log.Warn().Err(err).Msg("Failed to shut down NVML")
		}
	}()

	count, err := p.lib.Count()
	if err != nil {
		return nil, err
	}
	p.log.Debug().Int("count", count).Msg("Detected NVIDIA devices")

	devices := make([]DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		dev, err := p.lib.Device(i)
		if err != nil {
			return nil, err
		}

		info, err := p.readDevice(i, dev)
		if err != nil {
			return nil, err
		}
		devices = append(devices, info)
	}

	return devices, nil
}

func (p *Probe) readDevice(index int, dev device) (DeviceInfo, error) {
	info := DeviceInfo{Index: index}

	name, ret := dev.GetName()
	if err := check(ErrDeviceInfoFailed, ret); err != nil {
		return info, err
	}
	info.Name = name

	if uuid, ret := dev.GetUUID(); ret == nvml.SUCCESS {
		info.UUID = uuid
	}

	if temp, ret := dev.GetTemperature(nvml.TEMPERATURE_GPU); ret == nvml.SUCCESS {
		info.Temperature = int(temp)
	} else {
		p.log.Debug().Str("device", name).Msgf("Temperature unavailable: %v", nvml.ErrorString(ret))
	}

	if fans, ret := dev.GetNumFans(); ret == nvml.SUCCESS {
		info.FanSpeeds = make([]int, 0, fans)
		for fan := 0; fan < fans; fan++ {
			speed, ret := dev.GetFanSpeed_v2(fan)
			if ret != nvml.SUCCESS {
				continue
			}
			info.FanSpeeds = append(info.FanSpeeds, int(speed))
		}
	}

	if limit, ret := dev.GetPowerManagementLimit(); ret == nvml.SUCCESS {
		info.PowerLimit = int(limit / milliWattsToWatts)
	}

	if memory, ret := dev.GetMemoryInfo(); ret == nvml.SUCCESS {
		info.MemoryTotal = memory.Total
		info.MemoryUsed = memory.Used
	}

	return info, nil
}
