package models

// DeliveryStatus is the outcome of one outbound email.
type DeliveryStatus struct {
	Success    bool `json:"success"`
	StatusCode int  `json:"statusCode"`
}

// IsSuccessStatus reports whether a provider status code counts as delivered.
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}
