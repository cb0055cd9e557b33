// Package main provides the entry point for the phatnguoi CLI.
//
// phatnguoi looks up unpaid traffic violations ("phạt nguội") recorded by
// camera for Vietnamese license plates. It solves the lookup form's CAPTCHA
// with OCR, submits the plate, and parses the result page.
//
// Usage:
//
//	phatnguoi check 30A-123.45
//	phatnguoi check 30A12345:car 29B112345:motorbike
//	phatnguoi history 30A12345
//
// See --help for all available options.
package main

func main() {
	Execute()
}
