package adapters

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"os"
	"sync"
	"time"

	"mqtt-relay-bridge/application"

	"github.com/rs/zerolog"
)

const (
	LinkDefaultPollInterval = 500 * time.Millisecond
	LinkDefaultProbeTimeout = 3 * time.Second
)

type InterfaceLinkParams struct {
	// Interface restricts the link to one network interface. Empty means any
	// interface that is up and not a loopback.
	Interface string
	// BrokerURL is probed once the link is up.
	BrokerURL string

	PollInterval time.Duration
	ProbeTimeout time.Duration

	// LocalAddressFunc and ProbeFunc are replaced in tests.
	LocalAddressFunc func(iface string) (string, error)
	ProbeFunc        func(address string, timeout time.Duration) error
	Sleep            func(ctx context.Context, d time.Duration) error

	Log zerolog.Logger
}

func (p *InterfaceLinkParams) EnsureDefaults() {
	if p.PollInterval == 0 {
		p.PollInterval = LinkDefaultPollInterval
	}
	if p.ProbeTimeout == 0 {
		p.ProbeTimeout = LinkDefaultProbeTimeout
	}
	if p.LocalAddressFunc == nil {
		p.LocalAddressFunc = interfaceAddress
	}
	if p.ProbeFunc == nil {
		p.ProbeFunc = probeTCP
	}
	if p.Sleep == nil {
		p.Sleep = application.SleepContext
	}
}

// InterfaceLink waits for the host network to come up. Association with
// the network itself is left to the operating system.
type InterfaceLink struct {
	params InterfaceLinkParams

	address string
	mu      sync.RWMutex

	log zerolog.Logger
}

func NewInterfaceLink(params InterfaceLinkParams) *InterfaceLink {
	params.EnsureDefaults()
	return &InterfaceLink{params: params, log: params.Log}
}

func (l *InterfaceLink) Connect(ctx context.Context) error {
	l.log.Info().Str("interface", l.params.Interface).Msg("waiting for network link")

	retry := application.RetryPolicy{Delay: l.params.PollInterval, Sleep: l.params.Sleep}
	err := retry.Do(ctx, func(int) error {
		address, err := l.params.LocalAddressFunc(l.params.Interface)
		if err != nil {
			return err
		}

		l.mu.Lock()
		l.address = address
		l.mu.Unlock()
		return nil
	}, nil)
	if err != nil {
		return err
	}

	l.log.Info().
		Str("ip_address", l.LocalAddress()).
		Str("hostname", l.Hostname()).
		Msg("network link up")

	l.probeBroker()
	return nil
}

func (l *InterfaceLink) Connected() bool {
	_, err := l.params.LocalAddressFunc(l.params.Interface)
	return err == nil
}

func (l *InterfaceLink) LocalAddress() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.address
}

func (l *InterfaceLink) Hostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return ""
	}
	return hostname
}

// probeBroker only logs; an unreachable broker is handled by the
// connection supervisor.
func (l *InterfaceLink) probeBroker() {
	if l.params.BrokerURL == "" {
		return
	}

	u, err := url.Parse(l.params.BrokerURL)
	if err != nil || u.Host == "" {
		l.log.Warn().Str("broker", l.params.BrokerURL).Msg("cannot probe broker, invalid url")
		return
	}

	if err := l.params.ProbeFunc(u.Host, l.params.ProbeTimeout); err != nil {
		l.log.Error().Err(err).Str("broker", u.Host).Msg("broker probe failed")
		return
	}
	l.log.Info().Str("broker", u.Host).Msg("broker probe ok")
}

func interfaceAddress(name string) (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}

	for _, iface := range ifaces {
		if name != "" && iface.Name != name {
			continue
		}
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.To4() != nil {
				return ipNet.IP.String(), nil
			}
		}
	}

	if name != "" {
		return "", fmt.Errorf("%w: %s has no address", ErrLinkDown, name)
	}
	return "", fmt.Errorf("%w: no interface with an address", ErrLinkDown)
}

func probeTCP(address string, timeout time.Duration) error {
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return err
	}
	return conn.Close()
}

var _ application.Link = &InterfaceLink{}
