package host

// Peers maps an interface index and a local address to the remote end of a
// point-to-point link.
type Peers map[int]map[string]string

// Peer returns the peer of local on interface index, or "".
func (p Peers) Peer(index int, local string) string {
	return p[index][local]
}

func (p Peers) add(index int, local, peer string) {
	if p[index] == nil {
		p[index] = make(map[string]string)
	}
	p[index][local] = peer
}
