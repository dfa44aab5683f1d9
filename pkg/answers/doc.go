// Package answers checks a single answer against the rules its question declares.
//
// It does not judge whether an answer is plausible business data: a required
// email must look like an email, a rating must be between 1 and 5, a choice must
// be one of the options. Per-type knobs live in Question.Settings and are decoded
// with mapstructure.
package answers
