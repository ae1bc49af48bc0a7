package ir

// Version constants for records and the journal.
const (
	// JournalVersion is the payload schema version written to journal entries.
	JournalVersion = "1"

	// Version is the timelockidx release version.
	Version = "0.1.0"
)
