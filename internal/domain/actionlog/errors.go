package actionlog

import "errors"

// Undo failure conditions. All are user-facing and recoverable: the caller
// surfaces a message, nothing crashes, and storage errors are reported
// separately (wrapped, never swallowed).
var (
	ErrNoActionToUndo    = errors.New("no action to undo")
	ErrProcedureNotFound = errors.New("procedure no longer exists")
	ErrNoBackupForDelete = errors.New("no backup available to restore the deleted procedure")
	ErrNoBackupForEdit   = errors.New("no backup available to revert the edit")
	ErrUnsupportedAction = errors.New("the last action cannot be undone")
)
