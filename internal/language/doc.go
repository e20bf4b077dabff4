// Package language normalizes the optional language hint handed to
// speech-to-text backends.
//
// Codes are parsed with golang.org/x/text/language so BCP 47 tags
// ("en-US"), ISO 639-2 codes ("eng"), and common English names ("english")
// all resolve to the shortest ISO 639 code the backends expect.
package language
