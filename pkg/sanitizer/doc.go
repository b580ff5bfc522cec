// Package sanitizer normalizes user-supplied text before validation and
// storage.
//
// All functions are idempotent: applying them twice produces the same result.
// Invalid input is handled by returning the empty string rather than an
// error.
package sanitizer
