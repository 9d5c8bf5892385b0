package errors

// Error codes returned in ErrorResponse.Error. The frontend maps them to UI copy.
// Format: CATEGORY_SPECIFIC_DETAIL

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden         = "AUTHZ_FORBIDDEN"
	AuthzPermissionMissing = "AUTHZ_PERMISSION_MISSING"
	AuthzOwnerOnly         = "AUTHZ_OWNER_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationInvalidRange = "VALIDATION_INVALID_RANGE"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Store (STORE_) ====================
	StoreNotFound      = "STORE_NOT_FOUND"
	StoreRequired      = "STORE_REQUIRED"
	StoreAlreadyExists = "STORE_ALREADY_EXISTS"

	// ==================== Menu content (MENU_) ====================
	MenuNotFound      = "MENU_NOT_FOUND"
	SectionNotFound   = "SECTION_NOT_FOUND"
	DishNotFound      = "DISH_NOT_FOUND"
	ReorderOutOfScope = "MENU_REORDER_OUT_OF_SCOPE"

	// ==================== Billing (BILLING_) ====================
	BillingDuplicateSubscription = "BILLING_DUPLICATE_SUBSCRIPTION"
	BillingSubscriptionNotFound  = "BILLING_SUBSCRIPTION_NOT_FOUND"
	BillingNotOnGracePeriod      = "BILLING_NOT_ON_GRACE_PERIOD"
	BillingIncompletePayment     = "BILLING_INCOMPLETE_PAYMENT"
	BillingUnknownPrice          = "BILLING_UNKNOWN_PRICE"
	BillingProcessingError       = "BILLING_PROCESSING_ERROR"
	BillingInvalidSignature      = "BILLING_INVALID_SIGNATURE"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
