//go:build !linux

package imu

import (
	"errors"
)

// LinuxI2C is only available on linux.
type LinuxI2C struct{}

func OpenI2C(path string) (*LinuxI2C, error) {
	return nil, errors.New("i2c-dev buses are only supported on linux")
}

func (b *LinuxI2C) Tx(addr uint16, w, r []byte) error {
	return errors.New("i2c-dev buses are only supported on linux")
}

func (b *LinuxI2C) Close() error { return nil }
