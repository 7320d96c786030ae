package transport

import (
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/test"
)

// NetworkCondition configures network behavior simulation.
// Use this to test discovery under adverse network conditions.
type NetworkCondition struct {
	// DropRate is the probability of dropping a datagram (0.0 - 1.0).
	DropRate float64

	// DelayMin is the minimum delay to add to each datagram.
	DelayMin time.Duration

	// DelayMax is the maximum delay to add to each datagram.
	// Actual delay is uniformly distributed between DelayMin and DelayMax.
	DelayMax time.Duration

	// DuplicateRate is the probability of duplicating a datagram (0.0 - 1.0).
	// Duplicated NOTIFY bursts are common on real networks.
	DuplicateRate float64
}

// PipeConfig configures a Pipe.
type PipeConfig struct {
	// Addr0 and Addr1 are the addresses the two endpoints report.
	// Defaults: 127.0.0.1:1900 and 127.0.0.1:50000.
	Addr0 *net.UDPAddr
	Addr1 *net.UDPAddr

	// AutoProcess enables automatic datagram delivery in a background goroutine.
	AutoProcess bool

	// ProcessInterval is how often the auto-processor delivers datagrams.
	// Default: 1ms
	ProcessInterval time.Duration
}

// DefaultPipeConfig returns the default pipe configuration.
func DefaultPipeConfig() PipeConfig {
	return PipeConfig{
		AutoProcess:     true,
		ProcessInterval: 1 * time.Millisecond,
	}
}

// Pipe connects two in-memory packet endpoints. It wraps pion's test.Bridge
// and adds network condition simulation. Each endpoint is a net.PacketConn
// whose ReadFrom reports the other endpoint's UDP address, so code under
// test sees ordinary UDP peers.
type Pipe struct {
	bridge *test.Bridge
	conns  [2]*PipePacketConn

	mu              sync.RWMutex
	condition       NetworkCondition
	closed          bool
	autoProcess     bool
	processInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// NewPipe creates a pipe with auto-processing enabled.
func NewPipe() *Pipe {
	return NewPipeWithConfig(DefaultPipeConfig())
}

// NewPipeWithConfig creates a pipe with the given configuration.
func NewPipeWithConfig(config PipeConfig) *Pipe {
	p := &Pipe{
		bridge:          test.NewBridge(),
		autoProcess:     config.AutoProcess,
		processInterval: config.ProcessInterval,
		stopCh:          make(chan struct{}),
	}
	if p.processInterval == 0 {
		p.processInterval = 1 * time.Millisecond
	}

	addr0, addr1 := config.Addr0, config.Addr1
	if addr0 == nil {
		addr0 = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: DefaultPort}
	}
	if addr1 == nil {
		addr1 = &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50000}
	}
	p.conns[0] = &PipePacketConn{conn: p.bridge.GetConn0(), local: addr0, peer: addr1, pipe: p}
	p.conns[1] = &PipePacketConn{conn: p.bridge.GetConn1(), local: addr1, peer: addr0, pipe: p}

	if p.autoProcess {
		p.startAutoProcess()
	}
	return p
}

func (p *Pipe) startAutoProcess() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(p.processInterval)
		defer ticker.Stop()

		for {
			select {
			case <-p.stopCh:
				return
			case <-ticker.C:
				p.bridge.Tick()
			}
		}
	}()
}

// SetCondition configures network condition simulation.
// The conditions apply to datagrams in both directions.
func (p *Pipe) SetCondition(cond NetworkCondition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.condition = cond
}

// Conn0 returns endpoint 0.
func (p *Pipe) Conn0() *PipePacketConn {
	return p.conns[0]
}

// Conn1 returns endpoint 1.
func (p *Pipe) Conn1() *PipePacketConn {
	return p.conns[1]
}

// Tick delivers one datagram in each direction (if available).
// Returns the number of datagrams delivered (0, 1, or 2).
func (p *Pipe) Tick() int {
	return p.bridge.Tick()
}

// Process delivers all queued datagrams and returns how many were delivered.
func (p *Pipe) Process() int {
	count := 0
	for {
		n := p.Tick()
		if n == 0 {
			break
		}
		count += n
	}
	return count
}

// Close stops auto-processing and closes both endpoints.
func (p *Pipe) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.autoProcess {
		close(p.stopCh)
	}
	p.mu.Unlock()

	p.wg.Wait()

	err0 := p.conns[0].Close()
	err1 := p.conns[1].Close()
	if err0 != nil {
		return err0
	}
	return err1
}

// PipePacketConn is one endpoint of a Pipe.
type PipePacketConn struct {
	conn  net.Conn
	local *net.UDPAddr
	peer  *net.UDPAddr
	pipe  *Pipe

	closeOnce sync.Once
	closeErr  error
}

// ReadFrom reads a datagram. The returned address is the peer's address.
func (c *PipePacketConn) ReadFrom(b []byte) (n int, addr net.Addr, err error) {
	n, err = c.conn.Read(b)
	if err != nil {
		return n, nil, err
	}
	return n, c.peer, nil
}

// WriteTo writes a datagram to the peer. addr is ignored, since the pipe has
// only one peer.
func (c *PipePacketConn) WriteTo(b []byte, addr net.Addr) (n int, err error) {
	c.pipe.mu.RLock()
	cond := c.pipe.condition
	c.pipe.mu.RUnlock()

	if cond.DropRate > 0 && rand.Float64() < cond.DropRate {
		return len(b), nil
	}

	if cond.DelayMax > 0 {
		delay := cond.DelayMin
		if cond.DelayMax > cond.DelayMin {
			delay += rand.N(cond.DelayMax - cond.DelayMin)
		}
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	if cond.DuplicateRate > 0 && rand.Float64() < cond.DuplicateRate {
		if _, err := c.conn.Write(b); err != nil {
			return 0, err
		}
	}

	return c.conn.Write(b)
}

// Close closes the endpoint. Calling it again returns the first result.
func (c *PipePacketConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// LocalAddr returns the endpoint's address.
func (c *PipePacketConn) LocalAddr() net.Addr {
	return c.local
}

// SetDeadline sets the read and write deadlines.
func (c *PipePacketConn) SetDeadline(t time.Time) error {
	return c.conn.SetDeadline(t)
}

// SetReadDeadline sets the read deadline.
func (c *PipePacketConn) SetReadDeadline(t time.Time) error {
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline sets the write deadline.
func (c *PipePacketConn) SetWriteDeadline(t time.Time) error {
	return c.conn.SetWriteDeadline(t)
}

// Verify PipePacketConn implements net.PacketConn.
var _ net.PacketConn = (*PipePacketConn)(nil)
