// Package ocr is the optical character recognition capability used to read
// CAPTCHA images.
//
// A Recognizer turns encoded image bytes into text. Resize prepares a raw
// CAPTCHA for recognition by scaling it onto a fixed canvas, which improves
// accuracy on the service's small source images. WithTimeout bounds a slow
// engine so a single attempt can never block indefinitely.
//
// The Tesseract-backed engine lives in the tesseract subpackage because it
// links against libtesseract through cgo.
package ocr
