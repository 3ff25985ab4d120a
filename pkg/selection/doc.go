// Package selection tracks what a field has chosen and how those choices are
// presented: the selected key set with its lazily resolved label cache, the
// resolver that merges search results with selections and applies disable
// rules, and the validation gate enforcing item-count and placeholder policy
// at submit time.
package selection
