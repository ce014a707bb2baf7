package sequence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/atu_queue/kiosk/internal/db"
)

const (
	DefaultSeed   = 100
	DefaultPrefix = "T"
	keyPrefix     = "seq:"
)

// FloorFunc reports the highest suffix already issued for prefix according
// to some other record of issued tickets, or 0 when there is none.
type FloorFunc func(ctx context.Context, prefix string) (int, error)

// Generator mints ticket numbers of the form PREFIX-N. Each prefix has its
// own counter that only moves forward.
type Generator struct {
	KV        db.KV
	Seed      int
	OnCorrupt db.RecoveryFunc
	// Floor is consulted when a counter is missing or unreadable, so a
	// rebuilt counter never falls behind numbers that were already handed out.
	Floor FloorFunc

	mu sync.Mutex
}

func New(kv db.KV, seed int, onCorrupt db.RecoveryFunc) *Generator {
	return &Generator{KV: kv, Seed: seed, OnCorrupt: onCorrupt}
}

func NormalizePrefix(prefix string) string {
	p := strings.ToUpper(strings.TrimSpace(prefix))
	if p == "" {
		return DefaultPrefix
	}
	return p
}

// NextID advances the counter for prefix and returns the new ticket number.
// The counter is persisted before the number is returned.
func (g *Generator) NextID(ctx context.Context, prefix string) (string, error) {
	p := NormalizePrefix(prefix)

	g.mu.Lock()
	defer g.mu.Unlock()

	last, err := g.last(ctx, p)
	if err != nil {
		return "", err
	}
	next := last + 1
	if err := g.KV.Set(ctx, keyPrefix+p, []byte(strconv.Itoa(next))); err != nil {
		return "", fmt.Errorf("persist sequence %s: %w", p, err)
	}
	return fmt.Sprintf("%s-%d", p, next), nil
}

// Peek returns the last issued value for prefix without advancing it.
func (g *Generator) Peek(ctx context.Context, prefix string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last(ctx, NormalizePrefix(prefix))
}

func (g *Generator) last(ctx context.Context, p string) (int, error) {
	key := keyPrefix + p
	raw, err := g.KV.Get(ctx, key)
	if errors.Is(err, db.ErrNotFound) {
		return g.rebuild(ctx, p)
	}
	if err != nil {
		return 0, fmt.Errorf("read sequence %s: %w", p, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || n < 0 {
		if err == nil {
			err = fmt.Errorf("negative counter %d", n)
		}
		if g.OnCorrupt != nil {
			g.OnCorrupt(&db.CorruptStateError{Key: key, Err: err})
		}
		return g.rebuild(ctx, p)
	}
	return n, nil
}

// rebuild picks the starting point for a counter with no usable value: the
// seed, or the highest number already issued for the prefix if that is larger.
func (g *Generator) rebuild(ctx context.Context, p string) (int, error) {
	start := g.seed()
	if g.Floor == nil {
		return start, nil
	}
	floor, err := g.Floor(ctx, p)
	if err != nil {
		return 0, fmt.Errorf("sequence floor %s: %w", p, err)
	}
	return max(start, floor), nil
}

func (g *Generator) seed() int {
	if g.Seed <= 0 {
		return DefaultSeed
	}
	return g.Seed
}
