package output

// Table represents a pre-rendered table for table output formatting.
type Table struct {
	Headers []string   `json:"headers,omitempty" yaml:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Tabular values choose their own table columns.
type Tabular interface {
	TableData() Table
}

// TableData lets a Table stand for itself.
func (t Table) TableData() Table { return t }

// Texter values choose their own text rendering, e.g. a tree outline.
type Texter interface {
	Text() string
}
