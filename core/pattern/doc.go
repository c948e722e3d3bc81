// Package pattern implements the pattern compilation and measure-arithmetic
// engine: compiling pattern code into structured measure sequences, counting
// and validating measures against time signatures and lyric timing budgets,
// expanding loops, applying section modifiers, resolving the repeat
// shorthand, and compressing measure runs for compact prompter display.
//
// Every function in this package is pure: it operates on its inputs alone,
// holds no cross-call state, and either returns a result or fails with a
// typed *errors.CompileError. The first error aborts the conversion; there
// are no partial results.
package pattern
