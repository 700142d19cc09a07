// Package expiring implementa um mapa com expiração por chave.
//
// Cada entrada tem um timer próprio (time.AfterFunc) que remove a chave de forma
// autônoma. Toda mutação (insert/touch/delete) troca ou cancela o timer dentro da
// mesma seção crítica que altera o estado, então nunca sobra timer pendurado.
//
// Um timer que já disparou mas perdeu a corrida para um Touch/Delete é
// descartado pela geração da entrada: a remoção só acontece se a geração ainda
// for a mesma que agendou o timer.
package expiring

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
	timer     *time.Timer
	gen       uint64
}

type Map[K comparable, V any] struct {
	mu       sync.Mutex
	entries  map[K]*entry[V]
	gen      uint64
	onExpire func(K, V)
}

type Option[K comparable, V any] func(*Map[K, V])

// WithOnExpire registra um callback chamado (fora do lock) quando uma chave expira.
// Não é chamado para Delete nem Close.
func WithOnExpire[K comparable, V any](fn func(K, V)) Option[K, V] {
	return func(m *Map[K, V]) { m.onExpire = fn }
}

func New[K comparable, V any](opts ...Option[K, V]) *Map[K, V] {
	m := &Map[K, V]{entries: make(map[K]*entry[V])}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Insert adiciona a chave somente se ela não existir. Checagem e inserção são atômicas.
func (m *Map[K, V]) Insert(k K, v V, ttl time.Duration) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[k]; ok {
		return time.Time{}, false
	}
	e := &entry[V]{value: v}
	m.entries[k] = e
	m.schedule(k, e, ttl)
	return e.expiresAt, true
}

// Get lê sem renovar a expiração.
func (m *Map[K, V]) Get(k K) (V, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[k]
	if !ok {
		var zero V
		return zero, time.Time{}, false
	}
	return e.value, e.expiresAt, true
}

// Touch lê e empurra a expiração para now+ttl.
func (m *Map[K, V]) Touch(k K, ttl time.Duration) (V, time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[k]
	if !ok {
		var zero V
		return zero, time.Time{}, false
	}
	e.timer.Stop()
	m.schedule(k, e, ttl)
	return e.value, e.expiresAt, true
}

// Update aplica fn ao valor atual. Se a chave não existe ela é criada com
// expiração now+ttl; se existe, a expiração original é mantida.
func (m *Map[K, V]) Update(k K, ttl time.Duration, fn func(cur V, exists bool) V) (V, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[k]; ok {
		e.value = fn(e.value, true)
		return e.value, e.expiresAt
	}
	var zero V
	e := &entry[V]{value: fn(zero, false)}
	m.entries[k] = e
	m.schedule(k, e, ttl)
	return e.value, e.expiresAt
}

// Delete remove a chave e cancela o timer. Devolve false se a chave não existia.
func (m *Map[K, V]) Delete(k K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[k]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(m.entries, k)
	return true
}

func (m *Map[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close cancela todos os timers e esvazia o mapa.
func (m *Map[K, V]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, e := range m.entries {
		e.timer.Stop()
		delete(m.entries, k)
	}
}

// schedule deve ser chamado com m.mu travado.
func (m *Map[K, V]) schedule(k K, e *entry[V], ttl time.Duration) {
	m.gen++
	gen := m.gen
	e.gen = gen
	e.expiresAt = time.Now().Add(ttl)
	e.timer = time.AfterFunc(ttl, func() { m.expire(k, gen) })
}

func (m *Map[K, V]) expire(k K, gen uint64) {
	m.mu.Lock()
	e, ok := m.entries[k]
	if !ok || e.gen != gen {
		m.mu.Unlock()
		return
	}
	delete(m.entries, k)
	m.mu.Unlock()

	if m.onExpire != nil {
		m.onExpire(k, e.value)
	}
}
