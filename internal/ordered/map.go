// Package ordered provides a string-keyed map that remembers insertion order.
package ordered

// Map is a string-keyed map iterated in insertion order. Replacing the value
// of an existing key keeps its position. The zero value is ready to use.
// Map is not safe for concurrent use.
type Map[V any] struct {
	keys  []string
	index map[string]int
	vals  []V
}

// New returns an empty map.
func New[V any]() *Map[V] { return &Map[V]{} }

// Set inserts or replaces key. New keys are appended.
func (m *Map[V]) Set(key string, v V) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[key]; ok {
		m.vals[i] = v
		return
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, v)
}

// Get returns the value stored for key.
func (m *Map[V]) Get(key string) (V, bool) {
	var zero V
	if m == nil || m.index == nil {
		return zero, false
	}
	i, ok := m.index[key]
	if !ok {
		return zero, false
	}
	return m.vals[i], true
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key, preserving the relative order of the remaining keys.
func (m *Map[V]) Delete(key string) bool {
	if m == nil || m.index == nil {
		return false
	}
	i, ok := m.index[key]
	if !ok {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.vals = append(m.vals[:i], m.vals[i+1:]...)
	delete(m.index, key)
	for j := i; j < len(m.keys); j++ {
		m.index[m.keys[j]] = j
	}
	return true
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns a copy of the keys in order.
func (m *Map[V]) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range calls fn for each entry in order until fn returns false.
func (m *Map[V]) Range(fn func(key string, v V) bool) {
	if m == nil {
		return
	}
	for i, k := range m.keys {
		if !fn(k, m.vals[i]) {
			return
		}
	}
}

// Merge copies every entry of other into m with Set semantics: keys already
// in m keep their position and take other's value, new keys are appended.
func (m *Map[V]) Merge(other *Map[V]) {
	other.Range(func(k string, v V) bool {
		m.Set(k, v)
		return true
	})
}

// Clone returns a shallow copy of m.
func (m *Map[V]) Clone() *Map[V] {
	out := New[V]()
	out.Merge(m)
	return out
}
