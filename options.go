package mdict

import "errors"

// Option configures a Dict during construction.
//
// Example:
//
//	d, err := mdict.Open("langdao.mdx",
//	    mdict.WithRecordCache(),
//	    mdict.WithKeyNormalizer(folder),
//	)
type Option func(*config) error

type config struct {
	defaultEncoding string
	cache           bool
	normalizer      KeyNormalizer
	resource        bool
}

func defaultConfig() config {
	return config{
		defaultEncoding: "utf-8",
		normalizer:      identityNormalizer{},
	}
}

// WithDefaultEncoding sets the WHATWG codec label used when the header
// does not declare an encoding. The default is "utf-8".
func WithDefaultEncoding(label string) Option {
	return func(c *config) error {
		if label == "" {
			return errors.New("mdict: default encoding label must not be empty")
		}
		c.defaultEncoding = label
		return nil
	}
}

// WithRecordCache keeps every decoded record block in memory for the
// lifetime of the handle. The cache is insert-only and never evicted;
// slices returned by Lookup alias it. Callers needing bounded memory
// leave the cache off or open a fresh handle.
func WithRecordCache() Option {
	return func(c *config) error {
		c.cache = true
		return nil
	}
}

// WithKeyNormalizer installs the headword folding policy applied when
// indexing and when hashing queries.
func WithKeyNormalizer(n KeyNormalizer) Option {
	return func(c *config) error {
		if n == nil {
			return errors.New("mdict: key normalizer must not be nil")
		}
		c.normalizer = n
		return nil
	}
}

// WithResourceKeys marks the container as a resource (MDD) archive: the
// normalizer receives resource=true for every key, letting one policy
// treat file paths and headwords differently.
func WithResourceKeys() Option {
	return func(c *config) error {
		c.resource = true
		return nil
	}
}
