// Package snapshot implements the top-level save and load state machines
// that drive package object and package wire against an
// iochannel-compatible sink or source.
package snapshot

import (
	"fmt"
	"io"

	"github.com/emberkv/rdbsnap/errs"
	"github.com/emberkv/rdbsnap/format"
)

const magicPrefix = "REDIS"

func writeMagic(w io.Writer, version format.Version) error {
	_, err := fmt.Fprintf(w, "%s%04d", magicPrefix, version)
	return err
}

// readMagic validates the 5-byte "REDIS" prefix and parses the following
// 4-digit ASCII version, rejecting a version outside the supported range.
func readMagic(r io.Reader) (format.Version, error) {
	var buf [9]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, fmt.Errorf("snapshot: magic: %w", errs.ErrShortRead)
	}

	if string(buf[:5]) != magicPrefix {
		return 0, errs.ErrBadMagic
	}

	var version int
	for _, b := range buf[5:] {
		if b < '0' || b > '9' {
			return 0, errs.ErrBadMagic
		}
		version = version*10 + int(b-'0')
	}

	v := format.Version(version)
	if !v.Supported() {
		return 0, fmt.Errorf("snapshot: version %d: %w", v, errs.ErrUnsupportedVersion)
	}

	return v, nil
}
