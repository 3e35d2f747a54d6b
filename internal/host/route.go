package host

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/hex"
	"io"
	"net"
	"os"
	"strconv"
	"strings"

	"codeberg.org/mutker/sysreport/internal/errors"
)

const (
	rtfUp      = 0x1
	rtfGateway = 0x2
)

// DefaultGateways maps interface names to the address of their default
// route. IPv4 routes win over IPv6 routes on the same interface.
func (p *Provider) DefaultGateways(_ context.Context) (map[string]string, error) {
	gateways := make(map[string]string)

	f, err := os.Open(p.proc("net", "route"))
	if err != nil {
		return nil, errors.New().Wrap(ErrSensorUnavailable, err)
	}
	defer f.Close()

	if err := parseRoutes(f, gateways); err != nil {
		return nil, errors.New().Wrap(ErrNetworkRead, err)
	}

	if f6, err := os.Open(p.proc("net", "ipv6_route")); err == nil {
		defer f6.Close()
		if err := parseIPv6Routes(f6, gateways); err != nil {
			p.log.Debug().Err(err).Msg("Failed to parse IPv6 routes")
		}
	}

	return gateways, nil
}

// parseRoutes reads the /proc/net/route table, where addresses are
// little-endian hex words.
func parseRoutes(r io.Reader, gateways map[string]string) error {
	sc := bufio.NewScanner(r)
	header := true

	for sc.Scan() {
		if header {
			header = false
			continue
		}

		fields := strings.Fields(sc.Text())
		if len(fields) < 8 {
			continue
		}
		iface, dest, gw, mask := fields[0], fields[1], fields[2], fields[7]
		if dest != "00000000" || mask != "00000000" {
			continue
		}

		flags, err := strconv.ParseUint(fields[3], 16, 32)
		if err != nil {
			return err
		}
		if flags&(rtfUp|rtfGateway) != rtfUp|rtfGateway {
			continue
		}

		word, err := strconv.ParseUint(gw, 16, 32)
		if err != nil {
			return err
		}
		ip := make(net.IP, net.IPv4len)
		binary.LittleEndian.PutUint32(ip, uint32(word))

		if _, ok := gateways[iface]; !ok {
			gateways[iface] = ip.String()
		}
	}

	return sc.Err()
}

// parseIPv6Routes reads /proc/net/ipv6_route, keeping default routes with
// a non-zero next hop.
func parseIPv6Routes(r io.Reader, gateways map[string]string) error {
	const zero = "00000000000000000000000000000000"
	sc := bufio.NewScanner(r)

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 10 {
			continue
		}
		dest, prefix, nextHop, iface := fields[0], fields[1], fields[4], fields[9]
		if dest != zero || prefix != "00" || nextHop == zero || iface == "lo" {
			continue
		}

		raw, err := hex.DecodeString(nextHop)
		if err != nil {
			return err
		}
		if len(raw) != net.IPv6len {
			continue
		}

		if _, ok := gateways[iface]; !ok {
			gateways[iface] = net.IP(raw).String()
		}
	}

	return sc.Err()
}
