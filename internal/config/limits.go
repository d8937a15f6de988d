package config

const (
	// MaxNameLength is the maximum length for notebook, note, folder and file names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxNameLength = 255

	// MaxContentLength is the maximum size of a note's content (1 MiB).
	MaxContentLength = 1 << 20

	// MaxNoteTypeLength bounds the note type tag (e.g. "presto", "markdown").
	MaxNoteTypeLength = 64

	// MaxBatchSize is the default upper bound on actions in one batch.
	MaxBatchSize = 500

	// MaxTreeDepth bounds folder nesting. Each level adds one id segment to
	// a node's materialized path, so deep trees also mean long index keys.
	MaxTreeDepth = 32
)
