package domain

// Command is the closed set of statement variants the classifier produces.
// Dispatch over Command values must be an exhaustive type switch whose
// default arm treats the value as an unsupported command.
type Command interface {
	isCommand()
}

// CreateTimedEvent creates a named cron-scheduled event backed by a stored
// procedure's statements.
type CreateTimedEvent struct {
	Name        string
	Schedule    string // cron expression
	Procedure   string // stored procedure holding the statements to run
	Enable      bool
	Description string
	SQL         string // source statement text
}

// AlterTimedEventEnable enables or disables an existing timed event.
type AlterTimedEventEnable struct {
	Name   string
	Enable bool
	SQL    string
}

// RunnableCommand is a self-executing statement that returns rows directly,
// such as SHOW or DESC.
type RunnableCommand struct {
	SQL string
}

// CreateTempView registers a named temp view over a query's result plan.
type CreateTempView struct {
	Name    string
	Query   string
	Replace bool // replace-if-exists
	Cache   bool // mark the view's result for caching
	SQL     string
}

// InsertInto writes a source query's output into a target table.
type InsertInto struct {
	Table     string
	Query     string
	Overwrite bool // overwrite replaces existing data; append does not
	SQL       string
}

// DataQuery is an arbitrary read statement.
type DataQuery struct {
	SQL string
}

func (CreateTimedEvent) isCommand()      {}
func (AlterTimedEventEnable) isCommand() {}
func (RunnableCommand) isCommand()       {}
func (CreateTempView) isCommand()        {}
func (InsertInto) isCommand()            {}
func (DataQuery) isCommand()             {}
