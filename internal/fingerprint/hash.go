package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"time"

	xxhash "github.com/cespare/xxhash/v2"

	"github.com/vibecheck/vibecheck/internal/types"
)

// ContentHash computes the spec.md §3/§6-mandated fingerprint: truncated
// SHA-256, first 16 hex chars. An empty hash ("") is returned on read
// failure and is treated by downstream callers as distinct from every
// other hash (never equal to another empty-hash file).
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

// KeyHash computes the stable on-disk cache filename fragment,
// SHA-256(key) truncated to 32 hex chars (spec.md §4.D/§6).
func KeyHash(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:32]
}

// QuickHash is a cheap non-cryptographic pre-filter used by the
// Incremental Engine (component G) to skip a full SHA-256 pass on files
// whose content almost certainly hasn't changed. It is never exposed as
// the canonical content_hash — see DESIGN.md entry A for why xxhash
// cannot stand in for the spec-mandated SHA-256 fingerprint.
func QuickHash(data []byte) uint64 {
	return xxhash.Sum64(data)
}

// ReadCapped reads root/relPath, refusing anything larger than maxBytes
// (maxBytes <= 0 means unbounded). Used by the Drift Detector (component
// J) to enforce its per-file size ceiling without a separate Stat+Open
// dance at every call site.
func ReadCapped(root, relPath string, maxBytes int64) ([]byte, bool) {
	full := root + string(os.PathSeparator) + relPath
	if maxBytes > 0 {
		info, err := os.Stat(full)
		if err != nil || info.Size() > maxBytes {
			return nil, false
		}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, false
	}
	return data, true
}

// FingerprintFile reads path and builds its types.Fingerprint. On read
// failure ContentHash is "" and ByteSize/MtimeMs are zero.
func FingerprintFile(root, relPath string) types.Fingerprint {
	full := root + string(os.PathSeparator) + relPath
	data, err := os.ReadFile(full)
	if err != nil {
		return types.Fingerprint{RelativePath: relPath}
	}
	info, serr := os.Stat(full)
	var mtime int64
	if serr == nil {
		mtime = info.ModTime().UnixMilli()
	} else {
		mtime = time.Now().UnixMilli()
	}
	return types.Fingerprint{
		RelativePath: relPath,
		ContentHash:  ContentHash(data),
		ByteSize:     int64(len(data)),
		MtimeMs:      mtime,
	}
}
