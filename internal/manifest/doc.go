// Package manifest defines the sticker pack model and the contents.json
// codec.
//
// The manifest format is a compatibility boundary: an external messaging
// client parses these files with hard-coded key names, so Encode always
// emits every key (optional strings as empty strings, booleans as real
// booleans) and Decode enforces the schema's required fields, the traversal
// guards on identifiers and filenames, and the emoji cap. Decode failures
// are *SchemaError values naming the offending field.
package manifest
