// Package watch turns file-system changes below a project root into
// rebuild and reload actions.
//
// Changed paths are matched against an ordered list of [Rule]s. A rule's
// [Policy] decides whether its action runs immediately or is coalesced
// through a [Debouncer]. Rebuilds are funnelled through a [Queue] so that at
// most one render runs at a time and at most one more is pending.
package watch
