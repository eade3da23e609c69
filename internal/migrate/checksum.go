package migrate

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Fingerprint computes the deterministic content hash of a definition's
// forward and reverse operations. Two independently constructed definitions
// with identical statement text hash identically; any change to either side
// changes the hash. The version and description are deliberately excluded so
// that renaming a migration does not read as drift.
func Fingerprint(def Definition) string {
	var content strings.Builder
	writeOperation(&content, "forward", def.Forward)
	writeOperation(&content, "reverse", def.Reverse)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(content.String())))
}

func writeOperation(b *strings.Builder, label string, op Operation) {
	b.WriteString(label)
	b.WriteString(":\n")
	if op == nil {
		return
	}
	for _, stmt := range op.Statements() {
		b.WriteString(stmt)
		b.WriteString(";\n")
	}
}
