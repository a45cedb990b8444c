// Package snapshot implements the self-describing binary serialization of
// an object tree rooted at a single reference object: a 4-byte size
// header, the "SNPSH1" magic, then a recursive class-name/property
// encoding. The original never implemented a symmetric load path
// (Snapshot.toObject); Load is kept unimplemented here too, returning
// ErrLoadUnsupported, rather than inventing an ungrounded format.
package snapshot

import (
	"bytes"
	"errors"
	"unicode/utf16"

	"github.com/KonstantinGeist/skizo-sub000/internal/marshal"
	"github.com/KonstantinGeist/skizo-sub000/internal/metadata"
)

// Magic is the 6-byte literal every snapshot body starts with, right
// after the 4-byte total-size header.
const Magic = "SNPSH1"

var (
	ErrLoadUnsupported  = errors.New("snapshot: loading a snapshot back into an object tree is not supported")
	ErrNotSerializable  = errors.New("snapshot: value type, binary blob, closure, foreign proxy, or failable cannot be snapshotted")
)

const (
	tagNull uint8 = iota
	tagBoxed
	tagNested
)

// Property is one field-like value a Source reports for an object: the
// setter name Render/parsing refers to it by, the resolved class of the
// value (needed even for a null value, to describe the declared type),
// and the live value itself (0 means null).
type Property struct {
	SetterName string
	ValueClass *metadata.Class
	Value      uintptr
}

// Source is the seam between the snapshot writer and live domain objects,
// mirroring reflectx.ObjectModel's role for templates.
type Source interface {
	ClassOf(obj uintptr) (*metadata.Class, error)
	Properties(obj uintptr) ([]Property, error)
	// BoxedBytes returns a boxed instance's wrapped value encoded as raw
	// bytes (the embedded-bytes case the wire format calls for).
	BoxedBytes(obj uintptr) ([]byte, error)
}

// IsSerializable reports whether class may appear as a snapshot root or
// property value: value types (only meaningful boxed), binary blobs,
// closures, foreign proxies, and failables are all rejected.
func IsSerializable(class *metadata.Class) bool {
	if class.Flags.HasValueType() {
		return false
	}
	switch class.Special {
	case metadata.SpecialBinaryBlob, metadata.SpecialClosureEnv, metadata.SpecialForeign, metadata.SpecialFailable:
		return false
	default:
		return true
	}
}

// Snapshot serializes the object tree rooted at root into the SNPSH1 wire
// format described above.
func Snapshot(root uintptr, src Source) ([]byte, error) {
	var body bytes.Buffer
	if err := writeObject(&body, root, src); err != nil {
		return nil, err
	}

	out := make([]byte, 0, 4+len(Magic)+body.Len())
	total := int32(4 + len(Magic) + body.Len())
	out = marshal.PutInt32(out, total)
	out = append(out, Magic...)
	out = append(out, body.Bytes()...)
	return out, nil
}

func putUTF16String(buf *bytes.Buffer, s string) {
	units := utf16.Encode([]rune(s))
	header := marshal.PutInt32(nil, int32(len(units)))
	buf.Write(header)
	for _, u := range units {
		buf.Write(marshal.PutInt16(nil, int16(u)))
	}
}

func writeObject(buf *bytes.Buffer, obj uintptr, src Source) error {
	class, err := src.ClassOf(obj)
	if err != nil {
		return err
	}
	if !IsSerializable(class) {
		return ErrNotSerializable
	}

	putUTF16String(buf, class.NiceName)

	props, err := src.Properties(obj)
	if err != nil {
		return err
	}
	buf.Write(marshal.PutInt32(nil, int32(len(props))))

	for _, p := range props {
		putUTF16String(buf, p.SetterName)
		putUTF16String(buf, p.ValueClass.NiceName)

		if !IsSerializable(p.ValueClass) {
			return ErrNotSerializable
		}

		switch {
		case p.Value == 0:
			buf.WriteByte(tagNull)
		case p.ValueClass.Special == metadata.SpecialBoxed:
			bs, err := src.BoxedBytes(p.Value)
			if err != nil {
				return err
			}
			buf.WriteByte(tagBoxed)
			buf.Write(marshal.PutInt32(nil, int32(len(bs))))
			buf.Write(bs)
		default:
			buf.WriteByte(tagNested)
			if err := writeObject(buf, p.Value, src); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load is intentionally unimplemented: see the package doc and
// SPEC_FULL.md's Open Question decision on Snapshot.toObject.
func Load(data []byte) (uintptr, error) {
	return 0, ErrLoadUnsupported
}
