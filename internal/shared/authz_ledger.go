package shared

// Ledger permissions.
const (
	PermPartiesView     = "parties.view"
	PermLedgerView      = "ledger.view"
	PermLedgerExport    = "ledger.export"
	PermJobsView        = "jobs.view"
	PermPermissionsView = "permissions.view"
)

// LedgerScopes lists all permissions related to party ledgers.
func LedgerScopes() []string {
	return []string{
		PermPartiesView,
		PermLedgerView,
		PermLedgerExport,
		PermJobsView,
		PermPermissionsView,
	}
}
