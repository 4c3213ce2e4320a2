package speech

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Track: загруженный аудиоресурс, который можно проигрывать.
type Track interface {
	// Play starts or resumes playback; a finished track restarts.
	Play() error
	Pause() error
	// Release frees the underlying resource; the track is unusable after.
	Release() error
}

// Output превращает аудиобайты в проигрываемый ресурс.
// onEnd вызывается каждый раз, когда воспроизведение доходит до конца.
type Output interface {
	Load(audio []byte, onEnd func()) (Track, error)
}

// FileOutput кладёт синтезированный mp3 во временный файл на время жизни
// трека и отслеживает позицию воспроизведения по его длительности.
type FileOutput struct {
	dir string
}

func NewFileOutput(dir string) *FileOutput {
	if dir == "" {
		dir = os.TempDir()
	}
	return &FileOutput{dir: dir}
}

func (o *FileOutput) Load(audio []byte, onEnd func()) (Track, error) {
	if err := os.MkdirAll(o.dir, 0o755); err != nil {
		return nil, err
	}

	path := filepath.Join(o.dir, fmt.Sprintf("reply_%s.mp3", uuid.NewString()))
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		return nil, fmt.Errorf("write track: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	length, err := AudioDuration(ctx, path)
	if err != nil || length <= 0 {
		length = EstimateDuration(len(audio))
	}

	return &fileTrack{path: path, length: length, onEnd: onEnd}, nil
}

type fileTrack struct {
	path   string
	length time.Duration
	onEnd  func()

	mu        sync.Mutex
	position  time.Duration
	startedAt time.Time
	timer     *time.Timer
	released  bool
}

func (t *fileTrack) Path() string { return t.path }

func (t *fileTrack) Play() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return fmt.Errorf("track released")
	}
	if t.timer != nil {
		return nil
	}
	if t.position >= t.length {
		t.position = 0
	}

	t.startedAt = time.Now()
	t.timer = time.AfterFunc(t.length-t.position, t.finish)
	return nil
}

func (t *fileTrack) finish() {
	t.mu.Lock()
	if t.released || t.timer == nil {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.position = t.length
	onEnd := t.onEnd
	t.mu.Unlock()

	if onEnd != nil {
		onEnd()
	}
}

func (t *fileTrack) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer == nil {
		return nil
	}
	t.timer.Stop()
	t.timer = nil
	t.position += time.Since(t.startedAt)
	if t.position > t.length {
		t.position = t.length
	}
	return nil
}

func (t *fileTrack) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.released {
		return nil
	}
	t.released = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
