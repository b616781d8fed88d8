package conversation

// Step identifies where a chat is in the booking flow.
type Step int

const (
	// StepIdle is the resting state; only greetings and direct appointment
	// requests move the chat forward.
	StepIdle Step = iota
	// StepConfirmIntent waits for a yes/no after a greeting.
	StepConfirmIntent
	// StepCollectName waits for the patient's full name.
	StepCollectName
	// StepCollectID waits for the patient's DNI.
	StepCollectID
	// StepCollectAge waits for the patient's age, which routes the chat to
	// the general or pediatric track.
	StepCollectAge
	// StepChooseGeneralProvider shows the numbered general dentist menu.
	StepChooseGeneralProvider
	// StepChoosePediatricProvider shows the numbered pediatric dentist menu.
	StepChoosePediatricProvider
	// StepConfirmProvider waits for a yes/no on the chosen provider before
	// any slot is taken.
	StepConfirmProvider
	// StepHoldingSlot means a slot has been reserved for this chat and the
	// confirmation timer is running.
	StepHoldingSlot
	// StepChangeRequest rebooks an existing appointment looked up by DNI.
	StepChangeRequest
)

func (s Step) String() string {
	switch s {
	case StepIdle:
		return "idle"
	case StepConfirmIntent:
		return "confirm_intent"
	case StepCollectName:
		return "collect_name"
	case StepCollectID:
		return "collect_id"
	case StepCollectAge:
		return "collect_age"
	case StepChooseGeneralProvider:
		return "choose_general_provider"
	case StepChoosePediatricProvider:
		return "choose_pediatric_provider"
	case StepConfirmProvider:
		return "confirm_provider"
	case StepHoldingSlot:
		return "holding_slot"
	case StepChangeRequest:
		return "change_request"
	default:
		return "unknown"
	}
}
