package option

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	labelPolicyOnce sync.Once
	labelPolicy     *bluemonday.Policy
)

// Sanitize cleans a label that is allowed to carry markup. The policy accepts
// the usual user-generated-content subset (formatting, links, images) and
// strips scripts and event handlers. Fields that do not allow HTML labels
// should not call this; their labels are escaped by the renderer instead.
func Sanitize(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(labelSanitizer().Sanitize(trimmed))
}

// SanitizeEntries returns a copy of entries with every label passed through
// Sanitize. The input slice is not modified.
func SanitizeEntries(entries []Entry) []Entry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	for i := range out {
		out[i].Label = Sanitize(out[i].Label)
	}
	return out
}

func labelSanitizer() *bluemonday.Policy {
	labelPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("class").Globally()
		labelPolicy = policy
	})
	return labelPolicy
}
