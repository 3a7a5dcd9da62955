// Package formula implements an incremental calculator over a sequence of
// tags.
//
// Each completed token of input, whether a number, an operator, a bracket, or
// an accepted suggestion, becomes an immutable Tag. A Store holds the tags of
// one editing session, an Editor decides keystroke by keystroke what the raw
// input means, and Evaluate reduces the sequence to a number.
//
// Evaluation is strictly left to right. "2 + 3 * 4" is 20, not 14, because
// every operator has the same strength; only brackets group.
//
package formula
