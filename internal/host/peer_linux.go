//go:build linux

package host

import (
	"context"
	"encoding/binary"
	"net"
	"syscall"

	"codeberg.org/mutker/sysreport/internal/errors"
)

// PeerAddresses dumps the kernel address table over rtnetlink. On a
// point-to-point link IFA_LOCAL is our end and IFA_ADDRESS is the peer.
func (p *Provider) PeerAddresses(_ context.Context) (Peers, error) {
	errFactory := errors.New()

	rib, err := syscall.NetlinkRIB(syscall.RTM_GETADDR, syscall.AF_UNSPEC)
	if err != nil {
		return nil, errFactory.Wrap(ErrNetworkRead, err)
	}

	peers, err := parsePeers(rib)
	if err != nil {
		return nil, errFactory.Wrap(ErrNetworkRead, err)
	}

	return peers, nil
}

func parsePeers(rib []byte) (Peers, error) {
	msgs, err := syscall.ParseNetlinkMessage(rib)
	if err != nil {
		return nil, err
	}

	peers := make(Peers)
	for i := range msgs {
		m := &msgs[i]
		if m.Header.Type == syscall.NLMSG_DONE {
			break
		}
		if m.Header.Type != syscall.RTM_NEWADDR || len(m.Data) < syscall.SizeofIfAddrmsg {
			continue
		}

		attrs, err := syscall.ParseNetlinkRouteAttr(m)
		if err != nil {
			return nil, err
		}

		var local, remote net.IP
		for _, a := range attrs {
			switch a.Attr.Type {
			case syscall.IFA_LOCAL:
				local = net.IP(a.Value)
			case syscall.IFA_ADDRESS:
				remote = net.IP(a.Value)
			}
		}
		if local == nil || remote == nil || local.Equal(remote) {
			continue
		}

		// ifa_index follows family, prefixlen, flags and scope.
		index := int(binary.NativeEndian.Uint32(m.Data[4:8]))
		peers.add(index, local.String(), remote.String())
	}

	return peers, nil
}
