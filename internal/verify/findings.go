package verify

import "fmt"

// Severity splits findings into pipeline-fatal errors and advisories
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding codes
const (
	CodeSingleStage           = "single-stage"
	CodeToolchainInRuntime    = "toolchain-in-runtime"
	CodeMissingRuntimeLibrary = "missing-runtime-library"
	CodeNoPromotion           = "no-promotion"
	CodeNoExpose              = "no-expose"
	CodeNoStartCommand        = "no-start-command"
	CodeNotASGIStart          = "not-asgi-start"
	CodeUnpinnedRequirement   = "unpinned-requirement"
)

// Finding is one verifier result against a descriptor
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Severity, f.Code, f.Message)
}

// HasErrors reports whether any finding is fatal
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func errorf(code, format string, args ...interface{}) Finding {
	return Finding{Severity: SeverityError, Code: code, Message: fmt.Sprintf(format, args...)}
}

func warnf(code, format string, args ...interface{}) Finding {
	return Finding{Severity: SeverityWarning, Code: code, Message: fmt.Sprintf(format, args...)}
}
