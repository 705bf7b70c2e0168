//go:build !linux || tinygo

package hwport

import "errors"

// CDevPort is not available on non-Linux platforms.
type CDevPort struct{}

// NewCDevPort returns an error on non-Linux platforms.
func NewCDevPort(chipName string, pins Pinout) (*CDevPort, error) {
	return nil, errors.New("gpiocdev: not supported on this platform (requires Linux)")
}

// Read is not implemented on non-Linux platforms.
func (p *CDevPort) Read(pin Pin) bool { return Low }

// Write is not implemented on non-Linux platforms.
func (p *CDevPort) Write(pin Pin, level bool) {}

// Err reports that the backend is unsupported.
func (p *CDevPort) Err() error {
	return errors.New("gpiocdev: not supported")
}

// Close is not implemented on non-Linux platforms.
func (p *CDevPort) Close() error {
	return nil
}
