package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

const fileChunkSize = 32 << 10

// FileDevice отдаёт содержимое аудиофайла кусками, как будто это микрофон.
type FileDevice struct {
	path     string
	finished chan struct{}
	once     sync.Once
}

func NewFileDevice(path string) *FileDevice {
	return &FileDevice{path: path, finished: make(chan struct{})}
}

// Finished закрывается, когда файл прочитан до конца.
func (d *FileDevice) Finished() <-chan struct{} {
	return d.finished
}

func (d *FileDevice) Open(ctx context.Context) (Stream, error) {
	f, err := os.Open(d.path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrPermission):
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, d.path)
		case errors.Is(err, fs.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrDeviceUnavailable, d.path)
		}
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	s := &fileStream{
		file:   f,
		ch:     make(chan []byte),
		cancel: cancel,
		exited: make(chan struct{}),
	}
	go s.readLoop(readCtx, d)
	return s, nil
}

type fileStream struct {
	file   *os.File
	ch     chan []byte
	cancel context.CancelFunc
	exited chan struct{}
}

func (s *fileStream) Chunks() <-chan []byte {
	return s.ch
}

func (s *fileStream) readLoop(ctx context.Context, d *FileDevice) {
	defer close(s.exited)
	defer close(s.ch)

	for {
		buf := make([]byte, fileChunkSize)
		n, err := s.file.Read(buf)
		if n > 0 {
			select {
			case s.ch <- buf[:n]:
			case <-ctx.Done():
				return
			}
		}
		if err == io.EOF {
			d.once.Do(func() { close(d.finished) })
			return
		}
		if err != nil {
			return
		}
	}
}

func (s *fileStream) Close() error {
	s.cancel()
	<-s.exited
	return s.file.Close()
}
