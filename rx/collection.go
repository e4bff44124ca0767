package rx

// List is an observable slice. Mutating methods fire the bound
// notification; reads never do. Generated code binds each collection
// property to its model's change stream at construction.
type List[T any] struct {
	items  []T
	notify func()
}

// Bind attaches the change callback invoked after every mutation.
func (l *List[T]) Bind(notify func()) {
	l.notify = notify
}

func (l *List[T]) fire() {
	if l.notify != nil {
		l.notify()
	}
}

func (l *List[T]) Len() int     { return len(l.items) }
func (l *List[T]) At(i int) T   { return l.items[i] }

// Items returns a copy; mutating the result never mutates the list.
func (l *List[T]) Items() []T {
	out := make([]T, len(l.items))
	copy(out, l.items)
	return out
}

func (l *List[T]) Add(v T) {
	l.items = append(l.items, v)
	l.fire()
}

func (l *List[T]) Insert(i int, v T) {
	l.items = append(l.items, v)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
	l.fire()
}

func (l *List[T]) Set(i int, v T) {
	l.items[i] = v
	l.fire()
}

func (l *List[T]) RemoveAt(i int) {
	l.items = append(l.items[:i], l.items[i+1:]...)
	l.fire()
}

func (l *List[T]) Clear() {
	l.items = l.items[:0]
	l.fire()
}

// Replace swaps the whole contents in one notification.
func (l *List[T]) Replace(items []T) {
	l.items = append(l.items[:0], items...)
	l.fire()
}

// Map is an observable map with the same binding contract as List.
type Map[K comparable, V any] struct {
	m      map[K]V
	notify func()
}

func (m *Map[K, V]) Bind(notify func()) {
	m.notify = notify
}

func (m *Map[K, V]) fire() {
	if m.notify != nil {
		m.notify()
	}
}

func (m *Map[K, V]) Len() int { return len(m.m) }

func (m *Map[K, V]) Get(k K) (V, bool) {
	v, ok := m.m[k]
	return v, ok
}

func (m *Map[K, V]) Set(k K, v V) {
	if m.m == nil {
		m.m = make(map[K]V)
	}
	m.m[k] = v
	m.fire()
}

func (m *Map[K, V]) Delete(k K) {
	delete(m.m, k)
	m.fire()
}

func (m *Map[K, V]) Clear() {
	clear(m.m)
	m.fire()
}

// Replace swaps the whole contents in one notification.
func (m *Map[K, V]) Replace(entries map[K]V) {
	m.m = make(map[K]V, len(entries))
	for k, v := range entries {
		m.m[k] = v
	}
	m.fire()
}

// Keys returns the keys in unspecified order.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, 0, len(m.m))
	for k := range m.m {
		out = append(out, k)
	}
	return out
}
