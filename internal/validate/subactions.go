package validate

// Duplicate rows for one real-world action come in through the tracker as
// separate storage rows. Exactly the canonical row(s) stay visible on the
// dashboard; the rest are flagged subordinate. The flagging keys off input
// arrival order, so it must run before any sort reorders the table.

import (
	"strings"

	"github.com/fieldline-io/plansync/internal/tabular"
)

// FlagSubactions groups rows by the coarse real-world key in groupColumns
// and returns a per-row flag slice, true meaning subordinate. Within a group
// of size > 1: rows with a non-empty cell in docParagraphColumn are all
// canonical; when none has one, the first row in input order is canonical.
func FlagSubactions(t *tabular.Table, groupColumns []string, docParagraphColumn string) []bool {
	flags := make([]bool, t.Len())

	groups := map[string][]int{}
	var order []string
	for r := 0; r < t.Len(); r++ {
		key := rowFingerprint(t, r, groupColumns)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	for _, key := range order {
		rows := groups[key]
		if len(rows) < 2 {
			continue
		}

		var withDocPara []int
		for _, r := range rows {
			if v := t.Value(r, docParagraphColumn); v != nil && strings.TrimSpace(*v) != "" {
				withDocPara = append(withDocPara, r)
			}
		}

		canonical := map[int]struct{}{}
		if len(withDocPara) > 0 {
			for _, r := range withDocPara {
				canonical[r] = struct{}{}
			}
		} else {
			canonical[rows[0]] = struct{}{}
		}

		for _, r := range rows {
			if _, ok := canonical[r]; !ok {
				flags[r] = true
			}
		}
	}
	return flags
}
