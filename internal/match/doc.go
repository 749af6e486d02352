// Package match finds known names close to a mistyped one.
//
// Names are folded (separators dropped, lower case) and compared by an
// edit distance that counts a swap of two adjacent characters as one edit,
// the usual shape of a typo in a parameter or channel name.
package match
