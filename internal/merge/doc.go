// Package merge is the application layer of the PDF merge pipeline.
//
// It orchestrates the in-process PDF engine, the Ghostscript compressor, and
// the job audit recorder. Pipeline order: concatenate, optional compression,
// encryption last. Ghostscript failures degrade to the uncompressed output
// instead of failing the request.
package merge
