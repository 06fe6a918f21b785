package apis

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/anand-gl/jsoncanonicalizer"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// weakETag hashes the canonical JSON form of v, so the tag does not depend on
// how the encoder orders or spaces the body.
func weakETag(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	canonical, err := jsoncanonicalizer.Transform(b)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return `W/"` + hex.EncodeToString(sum[:16]) + `"`, nil
}
