package checksum

import (
	"crypto/sha256"
	"encoding/base64"
)

// SHA256 returns the base64 encoded SHA-256 of data, the format S3 expects in
// x-amz-checksum-sha256.
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}
