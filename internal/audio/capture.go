package audio

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

const (
	DefaultMIMEType = "audio/webm"

	// сколько ждём, пока цикл дочитает хвост после Close
	drainTimeout = 2 * time.Second
)

// Capture владеет одной записью за раз.
type Capture struct {
	device   Device
	mimeType string
	log      *zap.Logger

	mu      sync.Mutex
	stream  Stream
	chunks  [][]byte
	done    chan struct{}
	running bool
}

func NewCapture(device Device, mimeType string, log *zap.Logger) *Capture {
	if mimeType == "" {
		mimeType = DefaultMIMEType
	}
	return &Capture{
		device:   device,
		mimeType: mimeType,
		log:      log.Named("audio"),
	}
}

// Start opens the device and begins accumulating chunks.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return ErrAlreadyRecording
	}

	stream, err := c.device.Open(ctx)
	if err != nil {
		return err
	}

	c.stream = stream
	c.chunks = nil
	c.done = make(chan struct{})
	c.running = true

	go c.recordLoop(stream, c.done)

	c.log.Debug("capture started")
	return nil
}

func (c *Capture) recordLoop(stream Stream, done chan struct{}) {
	defer close(done)

	for chunk := range stream.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		c.mu.Lock()
		// отставший цикл прошлой записи ничего не дописывает
		if c.done == done {
			c.chunks = append(c.chunks, chunk)
		}
		c.mu.Unlock()
	}
}

// Stop finalizes the accumulated chunks into one blob and releases the
// device. Zero captured chunks produce an empty blob.
func (c *Capture) Stop() (Blob, error) {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return Blob{}, ErrNotRecording
	}
	c.running = false
	stream := c.stream
	done := c.done
	c.stream = nil
	c.mu.Unlock()

	closeErr := stream.Close()

	select {
	case <-done:
	case <-time.After(drainTimeout):
		c.log.Warn("capture loop did not drain in time")
	}

	c.mu.Lock()
	chunks := c.chunks
	c.chunks = nil
	c.done = nil
	c.mu.Unlock()

	size := 0
	for _, ch := range chunks {
		size += len(ch)
	}
	data := make([]byte, 0, size)
	for _, ch := range chunks {
		data = append(data, ch...)
	}

	blob := Blob{Data: data, MIMEType: c.mimeType, Chunks: len(chunks)}
	c.log.Info("capture stopped",
		zap.String("size", humanize.Bytes(uint64(blob.Size()))),
		zap.Int("chunks", blob.Chunks),
	)

	if closeErr != nil {
		c.log.Warn("release device", zap.Error(closeErr))
	}
	return blob, nil
}

func (c *Capture) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
