package transport

import (
	"net"
	"testing"
	"time"
)

type readResult struct {
	data string
	addr net.Addr
	err  error
}

func readAsync(conn net.PacketConn) <-chan readResult {
	ch := make(chan readResult, 1)
	go func() {
		buf := make([]byte, 256)
		n, addr, err := conn.ReadFrom(buf)
		ch <- readResult{data: string(buf[:n]), addr: addr, err: err}
	}()
	return ch
}

func TestPipe_AutoProcess(t *testing.T) {
	p := NewPipe()
	defer p.Close()

	done := readAsync(p.Conn1())
	time.Sleep(10 * time.Millisecond)

	testData := "NOTIFY * HTTP/1.1\r\n\r\n"
	if _, err := p.Conn0().WriteTo([]byte(testData), p.Conn1().LocalAddr()); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("read error: %v", r.err)
		}
		if r.data != testData {
			t.Errorf("read %q, want %q", r.data, testData)
		}
		if r.addr.String() != p.Conn0().LocalAddr().String() {
			t.Errorf("source = %v, want %v", r.addr, p.Conn0().LocalAddr())
		}
	case <-time.After(time.Second):
		t.Fatal("timeout - auto-process may not be working")
	}
}

func TestPipe_ManualProcess(t *testing.T) {
	p := NewPipeWithConfig(PipeConfig{AutoProcess: false})
	defer p.Close()

	done := readAsync(p.Conn1())
	time.Sleep(10 * time.Millisecond)

	p.Conn0().WriteTo([]byte("queued"), nil)

	select {
	case <-done:
		t.Fatal("datagram delivered without Process()")
	case <-time.After(50 * time.Millisecond):
	}

	if n := p.Process(); n == 0 {
		t.Error("Process() delivered nothing")
	}

	select {
	case r := <-done:
		if r.err != nil || r.data != "queued" {
			t.Errorf("read = %q, %v", r.data, r.err)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout after Process()")
	}
}

func TestPipe_Addresses(t *testing.T) {
	a0 := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 10), Port: 1900}
	a1 := &net.UDPAddr{IP: net.IPv4(192, 168, 1, 20), Port: 40000}
	p := NewPipeWithConfig(PipeConfig{Addr0: a0, Addr1: a1, AutoProcess: true})
	defer p.Close()

	if p.Conn0().LocalAddr() != a0 || p.Conn1().LocalAddr() != a1 {
		t.Fatalf("LocalAddr() = %v, %v", p.Conn0().LocalAddr(), p.Conn1().LocalAddr())
	}

	done := readAsync(p.Conn0())
	time.Sleep(10 * time.Millisecond)
	p.Conn1().WriteTo([]byte("x"), a0)

	select {
	case r := <-done:
		if r.addr != net.Addr(a1) {
			t.Errorf("source = %v, want %v", r.addr, a1)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for read")
	}
}

func TestPipe_CloseUnblocksRead(t *testing.T) {
	p := NewPipe()
	done := readAsync(p.Conn1())
	time.Sleep(10 * time.Millisecond)

	if err := p.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	select {
	case r := <-done:
		if r.err == nil {
			t.Error("ReadFrom() after Close returned no error")
		}
	case <-time.After(time.Second):
		t.Fatal("ReadFrom() still blocked after Close")
	}
}

func TestNetworkCondition_DropRate(t *testing.T) {
	p := NewPipe()
	defer p.Close()

	p.SetCondition(NetworkCondition{DropRate: 1.0})

	testData := []byte("dropped")
	n, err := p.Conn0().WriteTo(testData, nil)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != len(testData) {
		t.Errorf("WriteTo returned %d, want %d", n, len(testData))
	}

	buf := make([]byte, 100)
	p.Conn1().SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if _, _, err := p.Conn1().ReadFrom(buf); err == nil {
		t.Error("expected timeout error due to dropped datagram")
	}
}

func TestNetworkCondition_Duplicate(t *testing.T) {
	p := NewPipe()
	defer p.Close()

	p.SetCondition(NetworkCondition{DuplicateRate: 1.0})
	p.Conn0().WriteTo([]byte("twice"), nil)

	for i := 0; i < 2; i++ {
		buf := make([]byte, 100)
		p.Conn1().SetReadDeadline(time.Now().Add(time.Second))
		n, _, err := p.Conn1().ReadFrom(buf)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if string(buf[:n]) != "twice" {
			t.Errorf("read %d = %q", i, buf[:n])
		}
	}
}

func TestNetworkCondition_Delay(t *testing.T) {
	p := NewPipe()
	defer p.Close()

	delay := 50 * time.Millisecond
	p.SetCondition(NetworkCondition{DelayMin: delay, DelayMax: delay})

	done := readAsync(p.Conn1())
	time.Sleep(10 * time.Millisecond)

	start := time.Now()
	p.Conn0().WriteTo([]byte("delayed"), nil)
	if elapsed := time.Since(start); elapsed < delay {
		t.Errorf("elapsed %v, want at least %v", elapsed, delay)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Error("datagram should arrive after delay")
	}
}

func TestPipe_Tick(t *testing.T) {
	p := NewPipeWithConfig(PipeConfig{AutoProcess: false})
	defer p.Close()

	if n := p.Tick(); n != 0 {
		t.Errorf("Tick() on empty pipe = %d, want 0", n)
	}

	done := readAsync(p.Conn1())
	time.Sleep(10 * time.Millisecond)
	p.Conn0().WriteTo([]byte("one"), nil)

	if p.Tick() == 0 {
		t.Error("Tick should return > 0 when datagrams are pending")
	}

	select {
	case r := <-done:
		if r.data != "one" {
			t.Errorf("read %q, want %q", r.data, "one")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for datagram")
	}
}
