package gpu

import (
	"codeberg.org/mutker/sysreport/internal/errors"
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

const (
	// ErrNoDriver means NVML cannot run here: no library or no loaded driver.
	ErrNoDriver         = errors.ErrorCode("gpu_driver_unavailable")
	ErrInitFailed       = errors.ErrorCode("gpu_init_failed")
	ErrDeviceCount      = errors.ErrorCode("gpu_device_count_failed")
	ErrDeviceHandle     = errors.ErrorCode("gpu_device_handle_failed")
	ErrDeviceInfoFailed = errors.ErrorCode("gpu_device_info_failed")
	ErrShutdownFailed   = errors.ErrorCode("gpu_shutdown_failed")
)

// returnError carries a failed NVML return code.
type returnError nvml.Return

func (r returnError) Error() string {
	return nvml.ErrorString(nvml.Return(r))
}

// check turns ret into an error under code, or nil on success.
func check(code errors.ErrorCode, ret nvml.Return) error {
	if ret == nvml.SUCCESS {
		return nil
	}
	return errors.New().Wrap(code, returnError(ret))
}

// driverMissing reports init results that mean the host has no usable
// NVIDIA stack, as opposed to a stack that is present but failing.
func driverMissing(ret nvml.Return) bool {
	switch ret {
	case nvml.ERROR_LIBRARY_NOT_FOUND, nvml.ERROR_DRIVER_NOT_LOADED, nvml.ERROR_FUNCTION_NOT_FOUND:
		return true
	}
	return false
}
