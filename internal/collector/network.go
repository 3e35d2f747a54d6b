package collector

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strings"
	"time"

	"codeberg.org/mutker/sysreport/internal/host"
	"codeberg.org/mutker/sysreport/internal/report"
	psnet "github.com/shirou/gopsutil/v4/net"
)

const (
	localhostAddr = "127.0.0.1"
	noneValue     = "None"
	networkFacets = 3
)

// ConnectionKinds are the socket kinds listed under Deep Analysis.
var ConnectionKinds = []string{"inet", "inet4", "inet6", "tcp", "tcp4", "tcp6", "udp", "udp4", "udp6"}

type NetworkSource interface {
	Resolve(ctx context.Context, name string) ([]string, error)
	NetIOCounters(ctx context.Context) (psnet.IOCountersStat, error)
	Interfaces(ctx context.Context) (psnet.InterfaceStatList, error)
	LinkInfo(name string) host.LinkInfo
	Connections(ctx context.Context, kind string) ([]psnet.ConnectionStat, error)
	DefaultGateways(ctx context.Context) (map[string]string, error)
	PeerAddresses(ctx context.Context) (host.Peers, error)
}

type Network struct {
	base
	src       NetworkSource
	interval  time.Duration
	probeHost string
}

func (n *Network) Domain() report.Domain { return report.DomainNetwork }

// Collect builds the base fields and then the Deep Analysis and Interface
// Details facets, each under its own key. A facet that fails is recorded
// in place; the section fails only when every facet did.
func (n *Network) Collect(ctx context.Context) (*report.Document, error) {
	body := report.NewDocument().
		Set("Localhost Connectivity", n.connectivity(ctx, localhostAddr,
			"PC is connected to localhost.", "PC isn't connected to localhost.")).
		Set("Network Connectivity", n.connectivity(ctx, n.probeHost,
			"PC is connected to the internet.", "PC isn't connected to the internet."))

	var (
		failed   int
		firstErr error
	)
	record := func(err error) *report.Document {
		failed++
		if firstErr == nil {
			firstErr = err
		}
		return facetError(err)
	}

	traffic, err := n.traffic(ctx)
	if err != nil {
		n.log.Warn().Err(err).Msg("Failed to sample network traffic")
		traffic = record(err)
	}
	body.Set("Network Traffic", traffic)

	ifaces, err := n.src.Interfaces(ctx)
	if err != nil {
		n.log.Warn().Err(err).Msg("Failed to list network interfaces")
		body.Set("Deep Analysis", record(err))
		body.Set("Interface Details", record(err))
	} else {
		peers := n.peers(ctx, ifaces)
		body.Set("Deep Analysis", n.deepAnalysis(ctx, ifaces, peers))
		body.Set("Interface Details", n.interfaceDetails(ctx, ifaces, peers))
	}

	if failed == networkFacets {
		return nil, fail(firstErr)
	}

	return n.section(report.DomainNetwork, body), nil
}

func (n *Network) connectivity(ctx context.Context, name, up, down string) string {
	if _, err := n.src.Resolve(ctx, name); err != nil {
		n.log.Debug().Err(err).Str("host", name).Msg("Resolution failed")
		return down
	}
	return up
}

// traffic samples the counters twice, interval apart, to report a rate.
func (n *Network) traffic(ctx context.Context) (*report.Document, error) {
	first, err := n.src.NetIOCounters(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	if err := wait(ctx, n.interval); err != nil {
		return nil, err
	}

	second, err := n.src.NetIOCounters(ctx)
	if err != nil {
		return nil, err
	}
	elapsed := time.Since(start).Seconds()

	return report.NewDocument().
		Set("Network Traffic Information", report.NewDocument().
			Set("Send Rate", mbps(delta(first.BytesSent, second.BytesSent), elapsed)).
			Set("Receive Rate", mbps(delta(first.BytesRecv, second.BytesRecv), elapsed)).
			Set("Total Sent", gb(second.BytesSent)).
			Set("Total Received", gb(second.BytesRecv))).
		Set("Extra Information", report.NewDocument().
			Set("Packets Sent", count(second.PacketsSent)).
			Set("Packet Received", count(second.PacketsRecv)).
			Set("ErrorIn", count(second.Errin)).
			Set("ErrorOut", count(second.Errout)).
			Set("DropIn", count(second.Dropin)).
			Set("DropOut", count(second.Dropout))), nil
}

// peers is only consulted when some interface is point-to-point.
func (n *Network) peers(ctx context.Context, ifaces psnet.InterfaceStatList) host.Peers {
	if !slices.ContainsFunc(ifaces, func(iface psnet.InterfaceStat) bool {
		return slices.Contains(iface.Flags, "pointtopoint")
	}) {
		return nil
	}

	peers, err := n.src.PeerAddresses(ctx)
	if err != nil {
		n.optional(err, "peer addresses")
		return nil
	}
	return peers
}

func (n *Network) deepAnalysis(ctx context.Context, ifaces psnet.InterfaceStatList, peers host.Peers) *report.Document {
	stats := report.NewDocument()
	addrs := report.NewDocument()

	for _, iface := range ifaces {
		link := n.src.LinkInfo(iface.Name)
		stats.Set(iface.Name, report.NewDocument().
			Set("isup", slices.Contains(iface.Flags, "up")).
			Set("duplex", link.Duplex).
			Set("speed", link.Speed).
			Set("mtu", iface.MTU).
			Set("flags", strings.Join(iface.Flags, ",")))

		entries := make([]*report.Document, 0, len(iface.Addrs)+1)
		for _, a := range parseAddrs(iface) {
			entries = append(entries, report.NewDocument().
				Set("family", a.socketFamily()).
				Set("address", a.address).
				Set("netmask", nullable(a.netmask)).
				Set("broadcast", nullable(a.broadcast)).
				Set("ptp", nullable(peers.Peer(iface.Index, a.address))))
		}
		addrs.Set(iface.Name, entries)
	}

	conns := report.NewDocument()
	for _, kind := range ConnectionKinds {
		list, err := n.src.Connections(ctx, kind)
		if err != nil {
			n.log.Warn().Err(err).Str("kind", kind).Msg("Failed to list connections")
			conns.Set(kind, facetError(err))
			continue
		}

		entries := make([]*report.Document, 0, len(list))
		for _, c := range list {
			var pid any = noneValue
			if c.Pid != 0 {
				pid = c.Pid
			}
			entries = append(entries, report.NewDocument().
				Set("fd", c.Fd).
				Set("family", host.FamilyName(c.Family)).
				Set("type", host.SocketTypeName(c.Type)).
				Set("local_address", endpoint(c.Laddr)).
				Set("remote_address", endpoint(c.Raddr)).
				Set("status", c.Status).
				Set("pid", pid))
		}
		conns.Set(kind, entries)
	}

	return report.NewDocument().
		Set("interface_stats", stats).
		Set("interface_addrs", addrs).
		Set("connections", conns)
}

func (n *Network) interfaceDetails(ctx context.Context, ifaces psnet.InterfaceStatList, peers host.Peers) *report.Document {
	gateways, err := n.src.DefaultGateways(ctx)
	if err != nil {
		n.optional(err, "default gateway")
	}

	details := report.NewDocument()
	for _, iface := range ifaces {
		gateway := gateways[iface.Name]
		if gateway == "" {
			gateway = noneValue
		}

		entries := make([]*report.Document, 0, len(iface.Addrs)+1)
		for _, a := range parseAddrs(iface) {
			entries = append(entries, report.NewDocument().
				Set("address_family", a.family).
				Set("ip_address", orNone(a.address)).
				Set("subnet_mask", orNone(a.netmask)).
				Set("broadcast_address", orNone(a.broadcast)).
				Set("peer_address", orNone(peers.Peer(iface.Index, a.address))))
		}

		details.Set(iface.Name, report.NewDocument().
			Set("interface_name", iface.Name).
			Set("mac_address", nullable(iface.HardwareAddr)).
			Set("default_gateway", gateway).
			Set("ip_addresses", entries))
	}

	return details
}

type ifaceAddr struct {
	family    string // IPv4, IPv6, MAC or Unknown
	address   string
	netmask   string
	broadcast string
}

func (a ifaceAddr) socketFamily() string {
	switch a.family {
	case "IPv4":
		return "AF_INET"
	case "IPv6":
		return "AF_INET6"
	case "MAC":
		return "AF_PACKET"
	}
	return a.family
}

// parseAddrs expands the CIDR addresses of iface, IPv4 first, then IPv6,
// then the link-layer address.
func parseAddrs(iface psnet.InterfaceStat) []ifaceAddr {
	var v4, v6, other []ifaceAddr
	broadcast := slices.Contains(iface.Flags, "broadcast")

	for _, raw := range iface.Addrs {
		ip, ipnet, err := net.ParseCIDR(raw.Addr)
		if err != nil {
			other = append(other, ifaceAddr{family: "Unknown", address: raw.Addr})
			continue
		}

		a := ifaceAddr{address: ip.String(), netmask: net.IP(ipnet.Mask).String()}
		if ip4 := ip.To4(); ip4 != nil {
			a.family = "IPv4"
			if broadcast {
				a.broadcast = broadcastAddr(ip4, ipnet.Mask).String()
			}
			v4 = append(v4, a)
			continue
		}
		a.family = "IPv6"
		v6 = append(v6, a)
	}

	out := append(append(v4, v6...), other...)
	if iface.HardwareAddr != "" {
		out = append(out, ifaceAddr{family: "MAC", address: iface.HardwareAddr, broadcast: "ff:ff:ff:ff:ff:ff"})
	}

	return out
}

func broadcastAddr(ip net.IP, mask net.IPMask) net.IP {
	if len(mask) == net.IPv6len {
		mask = mask[12:]
	}
	out := make(net.IP, net.IPv4len)
	for i := range out {
		out[i] = ip[i] | ^mask[i]
	}
	return out
}

// endpoint renders ip:port without brackets, IPv6 included.
func endpoint(a psnet.Addr) string {
	if a.IP == "" {
		return noneValue
	}
	return fmt.Sprintf("%s:%d", a.IP, a.Port)
}

func facetError(err error) *report.Document {
	return report.NewDocument().Set("Error", err.Error())
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return noneValue
	}
	return s
}
