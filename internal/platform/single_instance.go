package platform

import (
	"bufio"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	activateMessage = "activate"
	dialTimeout     = 2 * time.Second
)

// ErrAlreadyRunning indicates another instance already holds the lock.
var ErrAlreadyRunning = errors.New("instance already running")

// InstanceGuard holds the single-instance lock. A later launch of the same app
// asks the holder to bring itself to the front instead of starting twice.
type InstanceGuard struct {
	listener net.Listener
	address  string
	logger   *slog.Logger

	mu     sync.Mutex
	closed bool
}

// AcquireSingleInstance binds a localhost port derived from appID. When the
// port is taken it signals the running instance and returns ErrAlreadyRunning.
func AcquireSingleInstance(appID string, logger *slog.Logger) (*InstanceGuard, error) {
	if logger == nil {
		logger = slog.Default()
	}
	address := AddressFor(appID)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		if notifyErr := Activate(address); notifyErr != nil {
			logger.Warn("signal running instance", "address", address, "error", notifyErr)
		}
		return nil, ErrAlreadyRunning
	}
	return &InstanceGuard{listener: listener, address: address, logger: logger}, nil
}

// Serve calls onActivate for every activation request until Release.
func (guard *InstanceGuard) Serve(onActivate func()) {
	if guard == nil || guard.listener == nil {
		return
	}
	go func() {
		for {
			conn, err := guard.listener.Accept()
			if err != nil {
				if !guard.isClosed() {
					guard.logger.Warn("instance guard accept", "error", err)
				}
				return
			}
			guard.handle(conn, onActivate)
		}
	}()
}

func (guard *InstanceGuard) handle(conn net.Conn, onActivate func()) {
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(dialTimeout))
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		return
	}
	if strings.TrimSpace(line) == activateMessage && onActivate != nil {
		onActivate()
	}
}

// Release frees the single instance lock.
func (guard *InstanceGuard) Release() error {
	if guard == nil || guard.listener == nil {
		return nil
	}
	guard.mu.Lock()
	guard.closed = true
	guard.mu.Unlock()
	return guard.listener.Close()
}

// Address returns the bound address.
func (guard *InstanceGuard) Address() string {
	if guard == nil {
		return ""
	}
	return guard.address
}

func (guard *InstanceGuard) isClosed() bool {
	guard.mu.Lock()
	defer guard.mu.Unlock()
	return guard.closed
}

// Activate asks the instance listening on address to show itself.
func Activate(address string) error {
	conn, err := net.DialTimeout("tcp", address, dialTimeout)
	if err != nil {
		return fmt.Errorf("dial %s: %w", address, err)
	}
	defer conn.Close()
	_, err = fmt.Fprintln(conn, activateMessage)
	return err
}

// AddressFor returns the loopback address reserved for appID.
func AddressFor(appID string) string {
	return fmt.Sprintf("127.0.0.1:%d", portFromName(appID))
}

func portFromName(appID string) int {
	const (
		minPort = 20000
		maxPort = 39999
	)
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(appID))
	rangeSize := maxPort - minPort + 1
	return minPort + int(hash.Sum32()%uint32(rangeSize))
}
