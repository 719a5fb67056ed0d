// Package phoneme wraps the external grapheme-to-phoneme converter.
//
// The conversion algorithm lives outside this repository; skein only shells
// out to a configured command, passing sanitized text on stdin and the
// language precedence order as a flag, and reads back whitespace-separated
// phoneme symbols.
package phoneme
