package speech

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxPlayers: сколько проигрывателей держим одновременно. Сначала выкидываем
// простаивающие, затем самые старые.
const maxPlayers = 16

// Players хранит по проигрывателю на каждое сообщение.
type Players struct {
	synth   Synthesizer
	out     Output
	timeout time.Duration
	log     *zap.Logger

	mu    sync.Mutex
	byKey map[string]*Player
	order []string // ключи в порядке создания
}

func NewPlayers(synth Synthesizer, out Output, timeout time.Duration, log *zap.Logger) *Players {
	return &Players{
		synth:   synth,
		out:     out,
		timeout: timeout,
		log:     log,
		byKey:   make(map[string]*Player),
	}
}

// Get returns the player for key, creating it on first use.
func (p *Players) Get(key string) *Player {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pl, ok := p.byKey[key]; ok {
		return pl
	}
	if len(p.byKey) >= maxPlayers {
		p.evictIdleLocked()
	}
	for len(p.byKey) >= maxPlayers {
		p.evictLocked(p.order[0])
	}

	pl := NewPlayer(p.synth, p.out, p.timeout, p.log)
	p.byKey[key] = pl
	p.order = append(p.order, key)
	return pl
}

func (p *Players) evictIdleLocked() {
	for _, k := range append([]string(nil), p.order...) {
		if p.byKey[k].State() == PlaybackIdle {
			p.evictLocked(k)
		}
	}
}

func (p *Players) evictLocked(key string) {
	if pl, ok := p.byKey[key]; ok {
		_ = pl.Close()
		delete(p.byKey, key)
	}
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *Players) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.byKey)
}

// Reset releases every player.
func (p *Players) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for k, pl := range p.byKey {
		_ = pl.Close()
		delete(p.byKey, k)
	}
	p.order = nil
}
