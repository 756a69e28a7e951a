package frame

import (
	"crypto/md5"
	"encoding/hex"
)

// Fingerprint returns a hex digest over the frame's canonical CSV form.
//
// The digest is used only for change detection between snapshots of the same
// dataset: identical serialized bytes produce identical fingerprints. It is
// not a security primitive.
func Fingerprint(f Frame) (string, error) {
	b, err := EncodeCSV(f)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:]), nil
}
