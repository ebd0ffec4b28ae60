package core

// Outcome tags an ActionResult.
type Outcome int

const (
	// OutcomeSuccess carries Text.
	OutcomeSuccess Outcome = iota
	// OutcomeFailure carries Err.
	OutcomeFailure
	// OutcomeBusy means the same action is already in flight; nothing was sent.
	OutcomeBusy
	// OutcomeNoResult means there is no translation to act on; nothing was sent.
	OutcomeNoResult
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return OutcomeLabelSuccess
	case OutcomeFailure:
		return OutcomeLabelFailure
	case OutcomeBusy:
		return OutcomeLabelBusy
	case OutcomeNoResult:
		return OutcomeLabelNoResult
	default:
		return "unknown"
	}
}

// ActionResult is returned from every operation that can fail.
type ActionResult struct {
	Outcome Outcome
	Text    string
	Err     *Error
}

func Success(text string) ActionResult {
	return ActionResult{Outcome: OutcomeSuccess, Text: text}
}

func Failure(err *Error) ActionResult {
	return ActionResult{Outcome: OutcomeFailure, Err: err}
}

func Busy() ActionResult {
	return ActionResult{Outcome: OutcomeBusy}
}

func NoResult() ActionResult {
	return ActionResult{Outcome: OutcomeNoResult}
}

// OK reports whether the action produced text.
func (r ActionResult) OK() bool {
	return r.Outcome == OutcomeSuccess
}

// Kind returns the failure kind, or "" for non-failures.
func (r ActionResult) Kind() ErrorKind {
	if r.Err == nil {
		return ""
	}
	return r.Err.Kind
}
