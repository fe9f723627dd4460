package attachpaymentlink

type Input struct {
	TripID string `json:"tripId"`
}

type Output struct {
	PaymentLink string `json:"paymentLink"`
	// AlreadyAttached is set when the trip had a link before this job ran,
	// which happens when a completed job is redelivered.
	AlreadyAttached bool `json:"paymentLinkAlreadyAttached"`
}
