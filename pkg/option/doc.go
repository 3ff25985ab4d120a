// Package option defines the transient option model shared by every option
// source and by the selection engine: an Entry couples the stored key with its
// display label and a disabled marker. Labels are plain text unless the owning
// field enables HTML labels, in which case Sanitize strips anything a UGC
// policy would reject before the label reaches a renderer.
package option
