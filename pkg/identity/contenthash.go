package identity

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/Sumatoshi-tech/diffcore/pkg/diffmodel"
)

// contentDomain separates content hashes from any other xxhash use.
const contentDomain = "diffcore/hunk-content/v1\x00"

// ContentHash fingerprints the substantive content of a hunk: its four range
// numbers and the ordered (op, text) pairs of its lines. It uses xxhash64,
// a different construction from the stable ids, so cache keys and identity
// never move together by accident.
func ContentHash(hunk *diffmodel.Hunk) string {
	digest := xxhash.New()

	_, _ = digest.WriteString(contentDomain)
	_, _ = digest.WriteString(fmt.Sprintf("%d,%d,%d,%d\n", hunk.OldStart, hunk.OldLines, hunk.NewStart, hunk.NewLines))

	for i := range hunk.Lines {
		line := &hunk.Lines[i]

		_, _ = digest.WriteString(string(line.Op))
		_, _ = digest.WriteString(" ")
		_, _ = digest.WriteString(strconv.Itoa(len(line.Text)))
		_, _ = digest.WriteString(":")
		_, _ = digest.WriteString(line.Text)
		_, _ = digest.WriteString("\n")
	}

	return fmt.Sprintf("%016x", digest.Sum64())
}
