package models

// Setting is a generic key/value row used for user preferences and
// internal bookkeeping (schema version, numbering templates, overrides).
type Setting struct {
	Key   string `gorm:"primaryKey;size:120"`
	Value string
}
