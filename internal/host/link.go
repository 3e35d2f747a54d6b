package host

import (
	"os"
	"strconv"
	"strings"
)

// Duplex names follow the NIC_DUPLEX_* convention.
const (
	DuplexFull    = "NIC_DUPLEX_FULL"
	DuplexHalf    = "NIC_DUPLEX_HALF"
	DuplexUnknown = "NIC_DUPLEX_UNKNOWN"
)

// LinkInfo describes the physical link of a network interface.
type LinkInfo struct {
	Duplex string
	Speed  int // Mbit/s, 0 when unknown
}

// LinkInfo reads duplex and speed from /sys/class/net. Virtual and down
// interfaces report DuplexUnknown and a zero speed.
func (p *Provider) LinkInfo(name string) LinkInfo {
	info := LinkInfo{Duplex: DuplexUnknown}
	dir := p.sys("class", "net", name)

	if raw, err := os.ReadFile(dir + "/duplex"); err == nil {
		switch strings.TrimSpace(string(raw)) {
		case "full":
			info.Duplex = DuplexFull
		case "half":
			info.Duplex = DuplexHalf
		}
	}

	if raw, err := os.ReadFile(dir + "/speed"); err == nil {
		if speed, err := strconv.Atoi(strings.TrimSpace(string(raw))); err == nil && speed > 0 {
			info.Speed = speed
		}
	}

	return info
}
