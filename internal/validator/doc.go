// Package validator decides whether a sticker pack may be served to the
// external client. It enforces the client contract on field lengths,
// sticker counts, asset byte ceilings, and image dimensions.
package validator
