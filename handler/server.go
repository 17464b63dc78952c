package handler

import (
	"github.com/aws/aws-lambda-go/lambda"
)

// current is the handler registered with the Lambda runtime
var current *Handler

// Serve registers h with the Lambda runtime for direct invocations. It does
// not return.
func Serve(h *Handler) {
	current = h
	lambda.Start(h.Handle)
}

// ServeSQS registers h with the Lambda runtime for SQS batches.
func ServeSQS(h *Handler) {
	current = h
	lambda.Start(h.HandleSQS)
}

// Close stops the served handler
func Close() {
	if current != nil {
		current.Stop()
	}
}
