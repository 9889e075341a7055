package payment

import "fmt"

// Status lines shown to the payer.
const (
	StatusSubmitting           = "Submitting payment request..."
	StatusAwaitingConfirmation = "Payment initiated. Please confirm on your phone..."
	StatusInitiationFailed     = "Could not initiate payment."
	StatusRequestFailed        = "There was a problem with the payment request."
	StatusExhausted            = "Could not confirm payment. Please try again."
	StatusPollingFailed        = "Error while checking the payment status."
	StatusCancelled            = "Payment cancelled."
)

// gatewayCompleted is the only status value that ends polling successfully.
const gatewayCompleted = "completed"

func statusInvalidInput(err error) string {
	return fmt.Sprintf("Invalid payment details: %v", err)
}

func statusRejected(message string) string {
	if message == "" {
		return StatusInitiationFailed
	}
	return fmt.Sprintf("%s %s", StatusInitiationFailed, message)
}

func statusCurrent(raw string) string {
	if raw == "" {
		raw = "unknown"
	}
	return fmt.Sprintf("Current status: %s", raw)
}

func statusCompleted(redirectURL string) string {
	return fmt.Sprintf("Payment completed! Redirecting to %s...", redirectURL)
}
