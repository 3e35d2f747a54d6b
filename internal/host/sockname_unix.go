//go:build unix

package host

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FamilyName returns the AF_* name of a socket address family.
func FamilyName(family uint32) string {
	switch family {
	case unix.AF_INET:
		return "AF_INET"
	case unix.AF_INET6:
		return "AF_INET6"
	case unix.AF_UNIX:
		return "AF_UNIX"
	}

	return fmt.Sprintf("AF_%d", family)
}

// SocketTypeName returns the SOCK_* name of a socket type.
func SocketTypeName(typ uint32) string {
	switch typ {
	case unix.SOCK_STREAM:
		return "SOCK_STREAM"
	case unix.SOCK_DGRAM:
		return "SOCK_DGRAM"
	case unix.SOCK_RAW:
		return "SOCK_RAW"
	case unix.SOCK_SEQPACKET:
		return "SOCK_SEQPACKET"
	}

	return fmt.Sprintf("SOCK_%d", typ)
}
