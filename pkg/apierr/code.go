package apierr

// Code is a machine-readable error code returned in API responses.
type Code string

// Common errors.
const (
	CodeInvalidRequestBody Code = "INVALID_REQUEST_BODY"
	CodeInvalidID          Code = "INVALID_ID"
	CodeInternalError      Code = "INTERNAL_ERROR"
	CodeNotImplemented     Code = "NOT_IMPLEMENTED"
)

// Course errors.
const (
	CodeCourseNotFound     Code = "COURSE_NOT_FOUND"
	CodeInvalidCourseID    Code = "INVALID_COURSE_ID"
	CodeCoursePathRequired Code = "COURSE_PATH_REQUIRED"
	CodeCoursePathInvalid  Code = "COURSE_PATH_INVALID"
	CodeCourseCreateFailed Code = "COURSE_CREATE_FAILED"
)

// Sync errors.
const (
	CodeSyncInProgress   Code = "SYNC_IN_PROGRESS"
	CodeCourseLoadFailed Code = "COURSE_LOAD_FAILED"
	CodeSyncFailed       Code = "SYNC_FAILED"
	CodeQIDRequired      Code = "QID_REQUIRED"
	CodeQIDInvalid       Code = "QID_INVALID"
)

// Sync job errors.
const (
	CodeSyncJobNotFound     Code = "SYNC_JOB_NOT_FOUND"
	CodeInvalidJobID        Code = "INVALID_JOB_ID"
	CodeSyncJobCreateFailed Code = "SYNC_JOB_CREATE_FAILED"
	CodeSyncJobListFailed   Code = "SYNC_JOB_LIST_FAILED"
	CodeEnqueueFailed       Code = "ENQUEUE_FAILED"
	CodeQueueUnavailable    Code = "QUEUE_UNAVAILABLE"
)

// Upload errors.
const (
	CodeFileRequired Code = "FILE_REQUIRED"
	CodeUploadFailed Code = "UPLOAD_FAILED"
)

// Webhook errors.
const (
	CodeMissingAuthToken Code = "MISSING_AUTH_TOKEN"
	CodeInvalidAuthToken Code = "INVALID_AUTH_TOKEN"
	CodeRepoURLRequired  Code = "REPO_URL_REQUIRED"
)

// Health errors.
const (
	CodeDatabaseNotReady Code = "DATABASE_NOT_READY"
)
