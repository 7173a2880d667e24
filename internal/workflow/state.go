package workflow

import "slices"

// Phase is the step a commit workflow is in.
type Phase int

const (
	Generating Phase = iota
	WaitingForAction
	Accepted
	Cancelled
)

func (p Phase) String() string {
	switch p {
	case Generating:
		return "generating"
	case WaitingForAction:
		return "waiting"
	case Accepted:
		return "accepted"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool { return p == Accepted || p == Cancelled }

// State is one snapshot of the workflow. Transitions return a new value and
// never alias the receiver's Feedback.
type State struct {
	Phase    Phase
	Attempt  int
	Feedback []string
	// Message is the latest generated or edited text. Empty while the first
	// attempt is generating.
	Message string
}

// Initial is the state before the first generation.
func Initial() State {
	return State{Phase: Generating}
}

// AtRetryLimit reports whether a Generating state may not call the backend.
func (s State) AtRetryLimit(maxRetries int) bool {
	return s.Phase == Generating && s.Attempt >= maxRetries
}

// OnGenerated records a successful generation.
func (s State) OnGenerated(message string, autoAccept bool) State {
	if s.Phase != Generating {
		return s
	}
	next := s
	next.Message = message
	if autoAccept {
		next.Phase = Accepted
	} else {
		next.Phase = WaitingForAction
	}
	return next
}

// ActionKind is a choice offered at the action menu, or the outcome of one.
type ActionKind int

const (
	ActionAccept ActionKind = iota
	ActionEdit
	ActionEditCancelled
	ActionRetry
	ActionRetryWithFeedback
	ActionQuit
)

func (k ActionKind) String() string {
	switch k {
	case ActionAccept:
		return "accept"
	case ActionEdit:
		return "edit"
	case ActionEditCancelled:
		return "edit-cancelled"
	case ActionRetry:
		return "retry"
	case ActionRetryWithFeedback:
		return "retry-with-feedback"
	case ActionQuit:
		return "quit"
	default:
		return "unknown"
	}
}

// Action is a resolved user decision. Text carries the edited message for
// ActionEdit and the feedback for ActionRetryWithFeedback.
type Action struct {
	Kind ActionKind
	Text string
}

// OnAction applies a user decision to a WaitingForAction state. Other
// phases are returned unchanged.
func (s State) OnAction(a Action) State {
	if s.Phase != WaitingForAction {
		return s
	}
	next := s
	switch a.Kind {
	case ActionAccept:
		next.Phase = Accepted
	case ActionEdit:
		next.Phase = Accepted
		next.Message = a.Text
	case ActionEditCancelled:
	case ActionRetry:
		next.Phase = Generating
		next.Attempt++
	case ActionRetryWithFeedback:
		next.Phase = Generating
		next.Attempt++
		if a.Text != "" {
			next.Feedback = append(slices.Clone(s.Feedback), a.Text)
		}
	case ActionQuit:
		next.Phase = Cancelled
	}
	return next
}
