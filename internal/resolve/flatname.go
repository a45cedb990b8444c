package resolve

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// flatName produces a short, deterministic, content-addressed mangled name
// for a synthesized class: "$" + prefix + "$" + a hash of key, where prefix
// names the synthesized kind (e.g. "array" or "boxed") and key is the
// wrapped class's flat name (e.g. "Foo"). Using a hash instead of a per-domain sequence counter
// means two domains independently synthesizing the same (kind, element)
// pair agree on the same flat name without any coordination, useful once
// a snapshot or cross-domain message needs to name a synthesized class by
// flat name on both ends.
func flatName(prefix, key string) string {
	sum := blake2b.Sum256([]byte(key))
	return "$" + prefix + "$" + hex.EncodeToString(sum[:8])
}
