//go:build linux

package imu

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// i2cSlave is the I2C_SLAVE ioctl request from linux/i2c-dev.h.
const i2cSlave = 0x0703

// LinuxI2C is a drivers.I2C over a /dev/i2c-N character device.
type LinuxI2C struct {
	mu   sync.Mutex
	f    *os.File
	addr uint16
}

// OpenI2C opens an i2c-dev bus, e.g. /dev/i2c-1.
func OpenI2C(path string) (*LinuxI2C, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus (%s): %w", path, err)
	}
	return &LinuxI2C{f: f, addr: 0xFFFF}, nil
}

func (b *LinuxI2C) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr != b.addr {
		if err := unix.IoctlSetInt(int(b.f.Fd()), i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("i2c select 0x%02x: %w", addr, err)
		}
		b.addr = addr
	}
	if len(w) > 0 {
		if _, err := b.f.Write(w); err != nil {
			return fmt.Errorf("i2c write 0x%02x: %w", addr, err)
		}
	}
	if len(r) > 0 {
		if _, err := b.f.Read(r); err != nil {
			return fmt.Errorf("i2c read 0x%02x: %w", addr, err)
		}
	}
	return nil
}

func (b *LinuxI2C) Close() error {
	return b.f.Close()
}
