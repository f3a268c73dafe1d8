package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultPgVersion is the PostgreSQL version assumed when neither the
	// configuration nor the connection declares one.
	DefaultPgVersion = "16.0"

	// MinPgVersion is the oldest server version the diff engine will generate
	// DDL for. Anything older fails with an unsupported version error.
	MinPgVersion = "9.6"
)
