package dto

type RevenueCatWebhook struct {
	APIVersion string          `json:"api_version"`
	Event      RevenueCatEvent `json:"event"`
}

// RevenueCatEvent carries the fields the privilege sync reads. AppUserID is
// the user id the mobile client logged in to RevenueCat with.
type RevenueCatEvent struct {
	Type              string   `json:"type"`
	ID                string   `json:"id"`
	AppUserID         string   `json:"app_user_id"`
	OriginalAppUserID string   `json:"original_app_user_id"`
	ProductID         string   `json:"product_id"`
	EntitlementIDs    []string `json:"entitlement_ids"`
	PurchasedAtMs     int64    `json:"purchased_at_ms"`
	ExpirationAtMs    int64    `json:"expiration_at_ms"`
	Environment       string   `json:"environment"`
}
