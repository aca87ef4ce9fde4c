// Package boundary is the contract layer between foreign callers and the
// image handle manager.
//
// Every entry point validates its arguments before doing any work, converts
// errors into a closed set of Result codes and recovers from panics, so no
// failure unwinds into the caller's runtime. Constructors and accessors
// report failure through zero values; effectful operations return a Result.
//
// The null token (0) is rejected with InvalidHandle without a table lookup.
// Paths must be non-empty valid UTF-8 text.
package boundary
