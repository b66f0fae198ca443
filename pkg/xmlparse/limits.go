package xmlparse

import (
	"cmp"
	"fmt"
)

const (
	DefaultMaxDepth           = 256
	DefaultMaxAttrs           = 256
	DefaultMaxTokenSize       = 4 << 20
	DefaultMaxEntityExpansion = 64 << 10
)

// Limits bounds the resources a single parse may consume. Zero fields fall
// back to the defaults.
type Limits struct {
	MaxDepth           int
	MaxAttrs           int
	MaxTokenSize       int
	MaxEntityExpansion int
}

// Validate rejects negative limits.
func (l Limits) Validate() error {
	if l.MaxDepth < 0 {
		return fmt.Errorf("xml max depth must be >= 0")
	}
	if l.MaxAttrs < 0 {
		return fmt.Errorf("xml max attrs must be >= 0")
	}
	if l.MaxTokenSize < 0 {
		return fmt.Errorf("xml max token size must be >= 0")
	}
	if l.MaxEntityExpansion < 0 {
		return fmt.Errorf("xml max entity expansion must be >= 0")
	}
	return nil
}

// Resolved fills unset limits with defaults.
func (l Limits) Resolved() Limits {
	return Limits{
		MaxDepth:           cmp.Or(l.MaxDepth, DefaultMaxDepth),
		MaxAttrs:           cmp.Or(l.MaxAttrs, DefaultMaxAttrs),
		MaxTokenSize:       cmp.Or(l.MaxTokenSize, DefaultMaxTokenSize),
		MaxEntityExpansion: cmp.Or(l.MaxEntityExpansion, DefaultMaxEntityExpansion),
	}
}

// Merge overlays the non-zero fields of other onto l.
func (l Limits) Merge(other Limits) Limits {
	return Limits{
		MaxDepth:           cmp.Or(other.MaxDepth, l.MaxDepth),
		MaxAttrs:           cmp.Or(other.MaxAttrs, l.MaxAttrs),
		MaxTokenSize:       cmp.Or(other.MaxTokenSize, l.MaxTokenSize),
		MaxEntityExpansion: cmp.Or(other.MaxEntityExpansion, l.MaxEntityExpansion),
	}
}
