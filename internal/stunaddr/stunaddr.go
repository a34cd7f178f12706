// Package stunaddr discovers the caller's public address via STUN binding
// requests. It supplements the Geo-IP providers: when a provider resolves
// coordinates but no usable address, STUN can still supply the public IP
// for display and probing. It never supplies coordinates.
package stunaddr

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/pion/stun/v3"
)

// DefaultServers are queried when the config lists none.
var DefaultServers = []string{"stun.l.google.com:19302", "stun.cloudflare.com:3478"}

// Discover queries the servers in order and returns the first XOR-mapped
// address ("ip:port"). Per-server failures are soft; only exhausting every
// server returns an error.
func Discover(ctx context.Context, servers []string, timeout time.Duration) (string, error) {
	if len(servers) == 0 {
		servers = DefaultServers
	}

	var lastErr error
	for _, server := range servers {
		addr, err := query(ctx, server, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		return addr, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no STUN servers provided")
	}
	return "", fmt.Errorf("STUN discovery failed: %w", lastErr)
}

// Host strips the NAT-mapped port from a discovered address, leaving the
// bare IP suitable as a ping target.
func Host(mapped string) string {
	if h, _, err := net.SplitHostPort(mapped); err == nil {
		return h
	}
	return mapped
}

func query(ctx context.Context, server string, timeout time.Duration) (string, error) {
	uriStr := strings.TrimSpace(server)
	if uriStr == "" {
		return "", fmt.Errorf("empty STUN server")
	}
	if !strings.HasPrefix(uriStr, "stun:") {
		uriStr = "stun:" + uriStr
	}

	uri, err := stun.ParseURI(uriStr)
	if err != nil {
		return "", err
	}

	client, err := stun.DialURI(uri, &stun.DialConfig{})
	if err != nil {
		return "", err
	}
	defer client.Close()

	msg := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	result := make(chan stun.XORMappedAddress, 1)
	fail := make(chan error, 1)

	go func() {
		var addr stun.XORMappedAddress
		err := client.Do(msg, func(res stun.Event) {
			if res.Error != nil {
				fail <- res.Error
				return
			}
			if err := addr.GetFrom(res.Message); err != nil {
				fail <- err
				return
			}
			result <- addr
		})
		if err != nil {
			fail <- err
		}
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case addr := <-result:
		return addr.String(), nil
	case err := <-fail:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
