// Package file stores flows and respondent progress as files on the local
// filesystem, and decodes flow documents written in JSON or YAML.
package file
