package util

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// StorageKey derives the provider key for a query text:
//
//	<prefix>:<ns>:<epoch>:<first 16 bytes of sha256(query) in hex>
//
// The query text itself can be kilobytes long and contain any byte, so only
// its digest goes into the key. The epoch changes on Clear.
func StorageKey(prefix, ns string, epoch uint64, query string) string {
	sum := sha256.Sum256([]byte(query))
	return prefix + ":" + ns + ":" + strconv.FormatUint(epoch, 10) + ":" + hex.EncodeToString(sum[:16])
}
