package audio

import (
	"context"
	"sync"
)

const pushBuffer = 64

// PushDevice принимает куски записи извне (из HTTP-запросов браузера).
// Одновременно открыт максимум один поток.
type PushDevice struct {
	mu      sync.Mutex
	current *pushStream
}

func NewPushDevice() *PushDevice {
	return &PushDevice{}
}

func (d *PushDevice) Open(ctx context.Context) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current != nil {
		return nil, ErrDeviceUnavailable
	}
	s := &pushStream{device: d, ch: make(chan []byte, pushBuffer)}
	d.current = s
	return s, nil
}

// Push hands one chunk to the open stream.
func (d *PushDevice) Push(chunk []byte) error {
	d.mu.Lock()
	s := d.current
	d.mu.Unlock()

	if s == nil {
		return ErrNotRecording
	}
	return s.send(chunk)
}

func (d *PushDevice) release(s *pushStream) {
	d.mu.Lock()
	if d.current == s {
		d.current = nil
	}
	d.mu.Unlock()
}

type pushStream struct {
	device *PushDevice

	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func (s *pushStream) Chunks() <-chan []byte {
	return s.ch
}

func (s *pushStream) send(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrNotRecording
	}
	buf := make([]byte, len(chunk))
	copy(buf, chunk)
	s.ch <- buf
	return nil
}

func (s *pushStream) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()

	s.device.release(s)
	return nil
}
