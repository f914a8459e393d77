// Package output provides the whole-content file writer used by every tool
// that rewrites a document or image in place.
//
// [FileWriter] never leaves a target half-written: content goes to a
// temporary sibling file first and is renamed over the target, so a failed
// write leaves the previous content intact.
package output
