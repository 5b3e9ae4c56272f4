package models

// GenerateOTPRequest asks the API to text an OTP to the account's phone.
type GenerateOTPRequest struct {
	Mobile string `json:"mobile"`
	Secret string `json:"secret"`
}

// GenerateOTPResponse opens an OTP transaction. At most one is live at a time.
type GenerateOTPResponse struct {
	TxnID string `json:"txnId"`
}

// ValidateOTPRequest completes the transaction. OTP is the sha256 hex digest
// of the code the user received, never the code itself.
type ValidateOTPRequest struct {
	OTP   string `json:"otp"`
	TxnID string `json:"txnId"`
}

// ValidateOTPResponse carries the bearer token on success.
type ValidateOTPResponse struct {
	Token string `json:"token"`
}

// OtpMessage is the inbound webhook payload forwarded from the user's phone.
type OtpMessage struct {
	MsgBody string `json:"msgBody"`
	AuthKey string `json:"authKey"`
}
