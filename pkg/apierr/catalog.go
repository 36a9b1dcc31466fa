package apierr

import "net/http"

// --- Common ---

func InvalidRequestBody() *Error {
	return New(CodeInvalidRequestBody, http.StatusBadRequest, "Invalid request body")
}

func InvalidID(entity string) *Error {
	return New(CodeInvalidID, http.StatusBadRequest, "Invalid "+entity+" ID")
}

func InternalError(cause error) *Error {
	return Wrap(CodeInternalError, http.StatusInternalServerError, "Internal server error", cause)
}

func NotImplemented(feature string) *Error {
	return New(CodeNotImplemented, http.StatusNotImplemented, feature+" is not implemented yet")
}

// --- Course ---

func CourseNotFound() *Error {
	return New(CodeCourseNotFound, http.StatusNotFound, "Course not found")
}

func InvalidCourseID() *Error {
	return New(CodeInvalidCourseID, http.StatusBadRequest, "Invalid course ID")
}

func CoursePathRequired() *Error {
	return New(CodeCoursePathRequired, http.StatusBadRequest, "Course path is required")
}

func CoursePathInvalid() *Error {
	return New(CodeCoursePathInvalid, http.StatusBadRequest, "Course path must be an absolute, clean directory path")
}

func CourseCreateFailed(cause error) *Error {
	return Wrap(CodeCourseCreateFailed, http.StatusInternalServerError, "Failed to create course", cause)
}

// --- Sync ---

func SyncInProgress() *Error {
	return New(CodeSyncInProgress, http.StatusConflict, "Another sync of this course is already running")
}

// CourseLoadFailed carries the loader's message; malformed course content is
// the caller's to fix.
func CourseLoadFailed(cause error) *Error {
	return Wrap(CodeCourseLoadFailed, http.StatusUnprocessableEntity, "Course content could not be loaded: "+cause.Error(), cause)
}

func SyncFailed(cause error) *Error {
	return Wrap(CodeSyncFailed, http.StatusInternalServerError, "Sync failed", cause)
}

func QIDRequired() *Error {
	return New(CodeQIDRequired, http.StatusBadRequest, "qid is required")
}

func QIDInvalid() *Error {
	return New(CodeQIDInvalid, http.StatusBadRequest, "qid must be a relative path below questions/")
}

// --- Sync job ---

func SyncJobNotFound() *Error {
	return New(CodeSyncJobNotFound, http.StatusNotFound, "Sync job not found")
}

func InvalidJobID() *Error {
	return New(CodeInvalidJobID, http.StatusBadRequest, "Invalid sync job ID")
}

func SyncJobCreateFailed(cause error) *Error {
	return Wrap(CodeSyncJobCreateFailed, http.StatusInternalServerError, "Failed to create sync job", cause)
}

func SyncJobListFailed(cause error) *Error {
	return Wrap(CodeSyncJobListFailed, http.StatusInternalServerError, "Failed to list sync jobs", cause)
}

func EnqueueFailed(cause error) *Error {
	return Wrap(CodeEnqueueFailed, http.StatusInternalServerError, "Failed to enqueue sync job", cause)
}

func QueueUnavailable() *Error {
	return New(CodeQueueUnavailable, http.StatusServiceUnavailable, "Background sync queue is not configured")
}

// --- Upload ---

func FileRequired() *Error {
	return New(CodeFileRequired, http.StatusBadRequest, "File is required (multipart field 'file')")
}

func UploadFailed(cause error) *Error {
	return Wrap(CodeUploadFailed, http.StatusInternalServerError, "Failed to upload file", cause)
}

// --- Webhook ---

func MissingAuthToken() *Error {
	return New(CodeMissingAuthToken, http.StatusUnauthorized, "Missing X-Gitlab-Token or X-Webhook-Token header")
}

func InvalidAuthToken() *Error {
	return New(CodeInvalidAuthToken, http.StatusUnauthorized, "Invalid webhook token")
}

func RepoURLRequired() *Error {
	return New(CodeRepoURLRequired, http.StatusBadRequest, "Push payload has no repository clone URL")
}

// --- Health ---

func DatabaseNotReady() *Error {
	return New(CodeDatabaseNotReady, http.StatusServiceUnavailable, "Database not ready")
}
