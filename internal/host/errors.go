package host

import "codeberg.org/mutker/sysreport/internal/errors"

const (
	ErrCPURead       = errors.ErrorCode("host_cpu_read_failed")
	ErrMemoryRead    = errors.ErrorCode("host_memory_read_failed")
	ErrDiskRead      = errors.ErrorCode("host_disk_read_failed")
	ErrNetworkRead   = errors.ErrorCode("host_network_read_failed")
	ErrProcessRead   = errors.ErrorCode("host_process_read_failed")
	ErrProcessGone   = errors.ErrorCode("host_process_vanished")
	ErrHostRead      = errors.ErrorCode("host_info_read_failed")
	ErrResolveFailed = errors.ErrorCode("host_resolve_failed")
	ErrGPURead       = errors.ErrorCode("host_gpu_read_failed")

	// ErrSensorUnavailable marks facts the platform does not expose.
	ErrSensorUnavailable = errors.ErrSensorUnavailable
)
