package domain

// User is a catalog principal that owns sessions and definer identities.
type User struct {
	ID    string
	Org   string
	Name  string
	Admin bool
}

// Procedure is a named, stored batch of statements with an optional default
// schedule.
type Procedure struct {
	ID          string
	Org         string
	Name        string
	Statements  []string
	Description string
}

// TimedEventDef is the persisted definition of a timed event in the catalog.
// The coordinator holds the scheduling state; this is only the definition the
// gateway builds registration requests from.
type TimedEventDef struct {
	ID          string
	Org         string
	Name        string
	Procedure   string
	Definer     string
	Schedule    string
	Enabled     bool
	Description string
}

// Privilege names used by grants.
const (
	PrivSelect = "SELECT"
	PrivInsert = "INSERT"
)

// Grant allows a user a privilege on a table. For SELECT grants, a non-empty
// Columns list restricts the grant to those columns.
type Grant struct {
	User      string
	Table     string
	Privilege string
	Columns   []string
}

// WriteMode controls how a sink treats existing data.
type WriteMode string

const (
	// WriteAppend adds rows without touching existing data.
	WriteAppend WriteMode = "APPEND"
	// WriteOverwrite replaces existing data.
	WriteOverwrite WriteMode = "OVERWRITE"
)

// TableConfig is a table's stored data-source configuration: where it lives
// and how writes to it behave.
type TableConfig struct {
	Org          string
	Name         string
	SourceType   string // data-source type tag, e.g. "duckdb"
	SourceName   string // registered source the table belongs to
	Options      map[string]string
	PartitionBy  []string
	Mode         WriteMode
}
