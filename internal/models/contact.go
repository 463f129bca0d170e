package models

// ContactRequest represents a contact form submission
type ContactRequest struct {
	Name           string `json:"name" binding:"required,max=120"`
	Email          string `json:"email" binding:"required,email"`
	Phone          string `json:"phone" binding:"omitempty,max=32"`
	Subject        string `json:"subject" binding:"required,max=200"`
	Message        string `json:"message" binding:"required,min=10,max=5000"`
	RecaptchaToken string `json:"recaptchaToken" binding:"required"`
}

// ContactSubmission is the record forwarded to the CMS
type ContactSubmission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ContactResponse represents the response after submitting the contact form
type ContactResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ReCAPTCHAResponse represents Google's ReCAPTCHA verification response
type ReCAPTCHAResponse struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
}
