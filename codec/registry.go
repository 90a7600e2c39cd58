package codec

import "sync"

// Registry manages the available codecs
type Registry struct {
	mu     sync.RWMutex
	codecs map[string]Codec // keyed by name
	order  []string         // registration order, for deterministic detection
}

var defaultRegistry = &Registry{
	codecs: make(map[string]Codec),
}

// Register registers a codec in the default registry
func Register(codec Codec) {
	defaultRegistry.Register(codec)
}

// Get retrieves a codec by name from the default registry
func Get(name string) (Codec, error) {
	return defaultRegistry.Get(name)
}

// Detect returns the first registered codec whose magic matches data
func Detect(data []byte) (Codec, error) {
	return defaultRegistry.Detect(data)
}

// List returns all registered codecs
func List() []Codec {
	return defaultRegistry.List()
}

// Register registers a codec under its name
func (r *Registry) Register(codec Codec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codecs[codec.Name()]; !ok {
		r.order = append(r.order, codec.Name())
	}
	r.codecs[codec.Name()] = codec
}

// Get retrieves a codec by name
func (r *Registry) Get(name string) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codec, ok := r.codecs[name]
	if !ok {
		return nil, ErrCodecNotFound
	}
	return codec, nil
}

// Detect returns the first registered codec whose magic matches data.
// Codecs are tried in registration order.
func (r *Registry) Detect(data []byte) (Codec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		codec := r.codecs[name]
		if matchMagic(codec.Magic(), data) {
			return codec, nil
		}
	}
	return nil, ErrUnknownFormat
}

// List returns all registered codecs in registration order
func (r *Registry) List() []Codec {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codecs := make([]Codec, 0, len(r.order))
	for _, name := range r.order {
		codecs = append(codecs, r.codecs[name])
	}
	return codecs
}

// matchMagic reports whether data begins with the magic string,
// where a '?' in magic matches any single byte.
func matchMagic(magic string, data []byte) bool {
	if len(data) < len(magic) {
		return false
	}
	for i := 0; i < len(magic); i++ {
		if magic[i] != data[i] && magic[i] != '?' {
			return false
		}
	}
	return len(magic) > 0
}
