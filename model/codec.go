package model

import (
	"encoding/binary"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/google/uuid"
)

// Store values are length-prefixed binary records: a leading format version
// byte, then fields in declared order. Strings and nested records carry a
// uvarint length prefix; UUIDs are the fixed 16 bytes. The round-trip is
// byte-exact, which the admin insert-then-get tests rely on.

const recordVersion = 1

type encoder struct {
	buf []byte
}

func newEncoder() *encoder {
	return &encoder{buf: []byte{recordVersion}}
}

func (e *encoder) uvarint(v uint64) {
	e.buf = binary.AppendUvarint(e.buf, v)
}

func (e *encoder) varint(v int64) {
	e.buf = binary.AppendVarint(e.buf, v)
}

func (e *encoder) bytes(b []byte) {
	e.uvarint(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *encoder) string(s string) {
	e.bytes([]byte(s))
}

func (e *encoder) bool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
	} else {
		e.buf = append(e.buf, 0)
	}
}

func (e *encoder) uuid(id uuid.UUID) {
	e.buf = append(e.buf, id[:]...)
}

func (e *encoder) uuids(ids []uuid.UUID) {
	e.uvarint(uint64(len(ids)))
	for _, id := range ids {
		e.uuid(id)
	}
}

func (e *encoder) strings(list []string) {
	e.uvarint(uint64(len(list)))
	for _, s := range list {
		e.string(s)
	}
}

func (e *encoder) duration(d time.Duration) {
	e.uvarint(uint64(d))
}

type decoder struct {
	buf []byte
	off int
	err error
}

func newDecoder(b []byte) *decoder {
	d := &decoder{buf: b}
	if version := d.byte(); d.err == nil && version != recordVersion {
		d.err = errors.Errorf("unsupported record version %d", version)
	}
	return d
}

func (d *decoder) fail(msg string) {
	if d.err == nil {
		d.err = errors.New(msg)
	}
}

func (d *decoder) byte() byte {
	if d.err != nil {
		return 0
	}
	if d.off >= len(d.buf) {
		d.fail("record truncated")
		return 0
	}
	b := d.buf[d.off]
	d.off++
	return b
}

func (d *decoder) uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.buf[d.off:])
	if n <= 0 {
		d.fail("bad uvarint")
		return 0
	}
	d.off += n
	return v
}

func (d *decoder) varint() int64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Varint(d.buf[d.off:])
	if n <= 0 {
		d.fail("bad varint")
		return 0
	}
	d.off += n
	return v
}

func (d *decoder) bytes() []byte {
	n := int(d.uvarint())
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.buf) {
		d.fail("record truncated")
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *decoder) string() string {
	return string(d.bytes())
}

func (d *decoder) bool() bool {
	return d.byte() != 0
}

func (d *decoder) uuid() uuid.UUID {
	var id uuid.UUID
	if d.err != nil {
		return id
	}
	if d.off+16 > len(d.buf) {
		d.fail("record truncated")
		return id
	}
	copy(id[:], d.buf[d.off:d.off+16])
	d.off += 16
	return id
}

func (d *decoder) uuids() []uuid.UUID {
	n := int(d.uvarint())
	if d.err != nil || n == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, n)
	for range n {
		ids = append(ids, d.uuid())
	}
	return ids
}

func (d *decoder) strings() []string {
	n := int(d.uvarint())
	if d.err != nil || n == 0 {
		return nil
	}
	list := make([]string, 0, n)
	for range n {
		list = append(list, d.string())
	}
	return list
}

func (d *decoder) duration() time.Duration {
	return time.Duration(d.uvarint())
}

func (d *decoder) finish() error {
	if d.err != nil {
		return errors.Wrap(d.err, "decode store record")
	}
	return nil
}
