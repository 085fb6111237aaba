package serial

import (
	"errors"
	"io"
	"sync"
)

var errPortClosed = errors.New("port closed")

// fakePort replays queued reads and records writes. Once the queue is drained reads block until the
// port is closed.
type fakePort struct {
	lock sync.Mutex

	reads  chan []byte
	closed chan struct{}
	once   sync.Once

	written    [][]byte
	writeLimit int
	writeErr   error

	flushes int
}

func newFakePort(reads ...[]byte) *fakePort {
	p := &fakePort{reads: make(chan []byte, len(reads)), closed: make(chan struct{}), writeLimit: -1}

	for _, r := range reads {
		p.reads <- r
	}

	return p
}

func (p *fakePort) Read(b []byte) (int, error) {
	select {
	case data := <-p.reads:
		return copy(b, data), nil
	case <-p.closed:
		return 0, errPortClosed
	}
}

func (p *fakePort) Write(b []byte) (int, error) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.writeErr != nil {
		return 0, p.writeErr
	}

	n := len(b)
	if p.writeLimit >= 0 && n > p.writeLimit {
		n = p.writeLimit
	}

	p.written = append(p.written, append([]byte(nil), b[:n]...))
	return n, nil
}

func (p *fakePort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.flushes++
	return nil
}

func (p *fakePort) Flushes() int {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.flushes
}

func (p *fakePort) Written() [][]byte {
	p.lock.Lock()
	defer p.lock.Unlock()

	return append([][]byte(nil), p.written...)
}

var _ io.ReadWriteCloser = (*fakePort)(nil)
