// Package prompter assembles the linear display stream of a compiled song.
//
// The stream is what a chord prompter scrolls through during performance:
// one meta unit with the song's tempo and time signature, then for each
// section a header unit followed by content units. A content unit pairs a
// lyric line with the chord measures played under it, already expanded,
// stacked, repeat-resolved, and optimized into (multiplier, measures) form.
package prompter
