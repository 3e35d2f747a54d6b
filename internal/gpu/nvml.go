package gpu

import "github.com/NVIDIA/go-nvml/pkg/nvml"

// library is the part of NVML a probe session needs.
type library interface {
	Start() error
	Stop() error
	Count() (int, error)
	Device(index int) (device, error)
}

// nvmlLibrary calls the real NVML shared library.
type nvmlLibrary struct{}

func (nvmlLibrary) Start() error {
	ret := nvml.Init()
	if driverMissing(ret) {
		return check(ErrNoDriver, ret)
	}
	return check(ErrInitFailed, ret)
}

func (nvmlLibrary) Stop() error {
	return check(ErrShutdownFailed, nvml.Shutdown())
}

func (nvmlLibrary) Count() (int, error) {
	count, ret := nvml.DeviceGetCount()
	return count, check(ErrDeviceCount, ret)
}

func (nvmlLibrary) Device(index int) (device, error) {
	dev, ret := nvml.DeviceGetHandleByIndex(index)
	if err := check(ErrDeviceHandle, ret); err != nil {
		return nil, err
	}
	return dev, nil
}
