//go:build !unix

package heap

import "errors"

// MapRegion is only available on unix platforms.
type MapRegion struct {
	Region
}

// NewMapRegion ...
func NewMapRegion(limit uint64) (*MapRegion, error) {
	return nil, errors.New("heap: anonymous mmap not supported on this platform")
}

// Close ...
func (r *MapRegion) Close() error {
	return nil
}
