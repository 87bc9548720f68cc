// Package main provides the pdfa11y command line interface.
//
// pdfa11y checks PDF documents for WCAG accessibility compliance, writes
// Markdown compliance reports, and applies the automatic fixes the
// validator marks as safe.
//
// Usage:
//
//	pdfa11y validate <file>...
//	pdfa11y report <file>
//	pdfa11y fix <file>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
