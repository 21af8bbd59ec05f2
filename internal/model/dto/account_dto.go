package dto

// MeResponse GET /api/me 返回体
type MeResponse struct {
	Plan    string `json:"plan"`
	Credits int    `json:"credits"`
}

// CheckoutResponse upgrade / billing-portal 返回体
type CheckoutResponse struct {
	URL string `json:"url"`
}
