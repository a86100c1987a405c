// nolint: gochecknoglobals
package idgenerator

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	JobIDLength       = 15
	ModelKeySuffixLen = 10
)

// alphabet used in ID generation.
var alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

func JobID() string {
	return gonanoid.MustGenerate(alphabet, JobIDLength)
}

func ModelKeySuffix() string {
	return gonanoid.MustGenerate(alphabet, ModelKeySuffixLen)
}
