package dto

// ErrorResponse is the body of every error the team endpoints write
// themselves. Message is meant to be shown to the user as-is.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
