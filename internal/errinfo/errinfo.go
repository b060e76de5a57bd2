package errinfo

import "fmt"

// ErrorInfo carries structured error data across the engine boundary.
type ErrorInfo struct {
	ErrorCode string   `json:"error_code"`
	Phase     string   `json:"phase,omitempty"`
	Retryable bool     `json:"retryable"`
	Actions   []string `json:"actions,omitempty"`
	Path      string   `json:"path,omitempty"`
	ModelID   string   `json:"model_id,omitempty"`
	RunID     string   `json:"run_id,omitempty"`
	Detail    string   `json:"detail,omitempty"`
}

// Error makes ErrorInfo usable as a plain error; callers recover the
// structured form with errors.As.
func (e *ErrorInfo) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.ErrorCode, e.Detail)
	}
	return e.ErrorCode
}

const (
	CodeFileUnreadable       = "FILE_UNREADABLE"
	CodeModelTransient       = "MODEL_TRANSIENT"
	CodeModelMalformed       = "MODEL_MALFORMED"
	CodeContextExceeded      = "CONTEXT_EXCEEDED"
	CodeOperationRejected    = "OPERATION_REJECTED"
	CodeSandboxViolation     = "SANDBOX_VIOLATION"
	CodeDestinationCollision = "DESTINATION_COLLISION"
	CodeSessionBusy          = "SESSION_BUSY"
	CodeValidationFailed     = "VALIDATION_FAILED"
	CodeUserCanceled         = "USER_CANCELED"
)

const (
	ActionRetry       = "retry"
	ActionNarrowScope = "narrow_scope"
	ActionRescan      = "rescan"
)

const (
	PhaseScan      = "scan"
	PhaseResolve   = "resolve"
	PhaseCompile   = "compile"
	PhaseInterpret = "interpret"
	PhaseExecute   = "execute"
	PhaseSession   = "session"
)

func FileUnreadable(path, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeFileUnreadable,
		Phase:     PhaseScan,
		Retryable: false,
		Path:      path,
		Detail:    detail,
	}
}

func ModelTransient(modelID, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeModelTransient,
		Phase:     PhaseInterpret,
		Retryable: true,
		Actions:   []string{ActionRetry},
		ModelID:   modelID,
		Detail:    detail,
	}
}

func ModelMalformed(modelID, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeModelMalformed,
		Phase:     PhaseInterpret,
		Retryable: false,
		ModelID:   modelID,
		Detail:    detail,
	}
}

func ContextExceeded(detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeContextExceeded,
		Phase:     PhaseCompile,
		Retryable: false,
		Actions:   []string{ActionNarrowScope},
		Detail:    detail,
	}
}

func OperationRejected(path, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeOperationRejected,
		Phase:     PhaseInterpret,
		Retryable: false,
		Path:      path,
		Detail:    detail,
	}
}

func SandboxViolation(path, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeSandboxViolation,
		Phase:     PhaseExecute,
		Retryable: false,
		Path:      path,
		Detail:    detail,
	}
}

func DestinationCollision(path, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeDestinationCollision,
		Phase:     PhaseExecute,
		Retryable: false,
		Path:      path,
		Detail:    detail,
	}
}

func SessionBusy(runID string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeSessionBusy,
		Phase:     PhaseSession,
		Retryable: true,
		Actions:   []string{ActionRetry},
		RunID:     runID,
		Detail:    "a command is already in flight for this session",
	}
}

func ValidationFailed(phase, detail string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeValidationFailed,
		Phase:     phase,
		Retryable: false,
		Detail:    detail,
	}
}

func UserCanceled(phase string) *ErrorInfo {
	return &ErrorInfo{
		ErrorCode: CodeUserCanceled,
		Phase:     phase,
		Retryable: false,
	}
}
