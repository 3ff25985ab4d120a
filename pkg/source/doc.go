// Package source provides the option-source variants a select field can be
// backed by: a Static fixed option set, a Query source delegating to caller
// supplied callbacks, and a Relation source resolving options from a record
// store. All variants implement the same Source capability set (search plus
// single and batched label resolution) so the engine treats them uniformly;
// the variant is chosen at field construction time and never changes.
package source
