package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// hashKey builds a cache key of the form prefix:sha256(parts).
// The full 256-bit hash is kept to avoid collisions between datasets.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash returns the SHA-256 hash of data as a 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// LayoutKey identifies a computed layout: the dataset content plus every
// option that affects geometry.
func LayoutKey(datasetHash string, opts any) string {
	return hashKey("layout:"+datasetHash, opts)
}

// ArtifactKey identifies a rendered artifact: the dataset content plus the
// output format and every option that affects rendering.
func ArtifactKey(datasetHash, format string, opts any) string {
	return hashKey("artifact:"+datasetHash+":"+format, opts)
}
