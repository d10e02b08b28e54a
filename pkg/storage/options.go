package storage

// Option configures Put operations.
type Option func(*putOptions)

type putOptions struct {
	key         string
	prefix      string
	contentType string
}

// WithKey sets an explicit object key, replacing the generated one.
// Use this to overwrite an existing object at a known location.
func WithKey(key string) Option {
	return func(o *putOptions) {
		o.key = key
	}
}

// WithPrefix sets a path prefix for the uploaded object.
// Example: WithPrefix("hotels/42") results in "hotels/42/{uuid}.{ext}".
func WithPrefix(prefix string) Option {
	return func(o *putOptions) {
		o.prefix = prefix
	}
}

// WithContentType overrides content type detection from magic bytes.
func WithContentType(ct string) Option {
	return func(o *putOptions) {
		o.contentType = ct
	}
}
