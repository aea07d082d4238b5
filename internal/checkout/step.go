package checkout

// Step is the checkout state. The legal transitions are
// OVERVIEW -> PAYMENT, PAYMENT -> OVERVIEW, PAYMENT -> PROCESSING,
// PROCESSING -> COMPLETE and, on gateway rejection, PROCESSING -> PAYMENT.
type Step string

const (
	StepOverview   Step = "OVERVIEW"
	StepPayment    Step = "PAYMENT"
	StepProcessing Step = "PROCESSING"
	StepComplete   Step = "COMPLETE"
)

func (s Step) IsTerminal() bool {
	return s == StepComplete
}

// String representation (for logging)
func (s Step) String() string {
	return string(s)
}
