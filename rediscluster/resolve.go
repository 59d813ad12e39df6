package rediscluster

import "net"

// resolveAddr resolves a hostname:port seed or redirect address to an
// ip:port suitable for dialing, while keeping the original for logging
// and as the snapshot's lookup key. Addresses already given as an IP
// literal round-trip unchanged.
func resolveAddr(addr string) (dial string, original string, err error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", "", err
	}
	if isIPAddress(host) {
		return addr, addr, nil
	}
	ips, err := net.LookupHost(host)
	if err != nil {
		return "", "", err
	}
	return net.JoinHostPort(ips[0], port), addr, nil
}

func isIPAddress(host string) bool {
	return net.ParseIP(host) != nil
}
