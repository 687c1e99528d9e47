package types

// Standard table names for Cupboard.GetTable.
const (
	BlocksTable = "blocks"
	WeeksTable  = "weeks"
	DaysTable   = "days"
	RacesTable  = "races"
)

// StandardTableNames lists all standard table names in dependency order:
// every table appears after the tables it references.
var StandardTableNames = []string{
	BlocksTable,
	WeeksTable,
	DaysTable,
	RacesTable,
}
