// Package lock implementa la exclusión mutua por llave de los servicios de inventario y caja.
package lock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/inventario-caja/internal/domain"
)

// KeyedMutex exclusión por llave dentro del proceso. Cada llave es un semáforo de capacidad 1
// que se libera de la tabla cuando nadie lo usa.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewKeyedMutex construye el locker en proceso.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: map[string]*slot{}}
}

// Acquire toma las llaves en orden lexicográfico (sin duplicados) para evitar interbloqueos.
// Si el contexto se cancela mientras espera, libera lo ya tomado y devuelve un ErrConflict.
func (k *KeyedMutex) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)
	held := make([]string, 0, len(keys))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			k.unlock(held[i])
		}
	}
	for _, key := range keys {
		if err := k.lock(ctx, key); err != nil {
			release()
			return nil, fmt.Errorf("%w: no se obtuvo el bloqueo %s: %v", domain.ErrConflict, key, err)
		}
		held = append(held, key)
	}
	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (k *KeyedMutex) lock(ctx context.Context, key string) error {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.drop(key, s)
		return ctx.Err()
	}
}

func (k *KeyedMutex) unlock(key string) {
	k.mu.Lock()
	s := k.slots[key]
	k.mu.Unlock()
	if s == nil {
		return
	}
	<-s.ch
	k.drop(key, s)
}

func (k *KeyedMutex) drop(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// normalize ordena y elimina llaves vacías o repetidas.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
