package booking

const (
	operationCreate           = "create_booking"
	operationUpdateStatus     = "update_status"
	operationCancel           = "cancel"
	operationRequestExtension = "request_extension"
	operationApproveExtension = "approve_extension"
	operationRejectExtension  = "reject_extension"
	operationAdminDelete      = "admin_delete"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	// DefaultCurrency applies when a property rate card omits one.
	DefaultCurrency = "INR"

	// Admin listing bounds.
	DefaultListLimit = 10
	MaxListLimit     = 100
)
