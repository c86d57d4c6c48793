package fork

// Route pairs a destination key with the payload sent to it.
type Route[K comparable, V any] struct {
	Key     K
	Payload V
}

// Result is the outcome of classifying one record: either a single
// destination or several, each with its own payload.
// The zero Result routes the record nowhere.
type Result[K comparable, V any] struct {
	routes []Route[K, V]
}

// Single routes one payload to one destination.
func Single[K comparable, V any](key K, payload V) Result[K, V] {
	return Result[K, V]{routes: []Route[K, V]{{Key: key, Payload: payload}}}
}

// Multiple routes each map value to its key. Emission order across
// destinations follows map iteration and is therefore unspecified; use
// Routes when it matters.
func Multiple[K comparable, V any](m map[K]V) Result[K, V] {
	routes := make([]Route[K, V], 0, len(m))
	for k, v := range m {
		routes = append(routes, Route[K, V]{Key: k, Payload: v})
	}
	return Result[K, V]{routes: routes}
}

// Routes routes payloads in the given order.
func Routes[K comparable, V any](routes ...Route[K, V]) Result[K, V] {
	return Result[K, V]{routes: routes}
}

// Routes returns the routes of r in emission order.
func (r Result[K, V]) Routes() []Route[K, V] {
	return r.routes
}

// Len returns the number of routes.
func (r Result[K, V]) Len() int {
	return len(r.routes)
}

// ByKey adapts a function that only names a destination. The record itself
// becomes the payload for that destination.
func ByKey[T any, K comparable](fn func(T) K) ClassifyFunc[T, K, T] {
	return func(record T) (Result[K, T], error) {
		return Single(fn(record), record), nil
	}
}
