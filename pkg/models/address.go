package models

import "encoding/json"

// Address is one side (pickup or delivery) of a shipment. All values are kept
// as entered; validation happens in the intake layer.
type Address struct {
	CompanyName     string `json:"companyName"`
	Country         string `json:"country"`
	Pincode         string `json:"pincode"`
	MobileNo        string `json:"mobileNo"`
	FullName        string `json:"fullName"`
	CompleteAddress string `json:"completeAddress"`
	Landmark        string `json:"landmark"`
	City            string `json:"city"`
	State           string `json:"state"`
	AlternateNo     string `json:"alternateNo,omitempty"`
	Email           string `json:"email,omitempty"`
}

// Externally submitted address forms arrive with inconsistent key casing
// depending on which integration produced them. Each field is resolved from
// the first non-empty alias.
var addressFieldAliases = map[string][]string{
	"companyName":     {"companyName", "company_name", "company", "organization"},
	"country":         {"country", "countryCode", "country_code"},
	"pincode":         {"pincode", "pinCode", "postalCode", "postal_code", "zip", "zipCode", "zip_code"},
	"mobileNo":        {"mobileNo", "mobile_no", "mobile", "phone", "phoneNumber", "phone_number"},
	"fullName":        {"fullName", "full_name", "name", "contactName", "contact_name"},
	"completeAddress": {"completeAddress", "complete_address", "address", "addressLine1", "address_line_1", "streetAddress"},
	"landmark":        {"landmark"},
	"city":            {"city", "town"},
	"state":           {"state", "province", "region"},
	"alternateNo":     {"alternateNo", "alternate_no", "alternatePhone", "alternate_phone"},
	"email":           {"email", "emailAddress", "email_address"},
}

// DecodeLooseAddress normalizes a loosely keyed address object into an
// Address. Unknown keys are ignored; missing fields stay empty.
func DecodeLooseAddress(raw json.RawMessage) Address {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Address{}
	}

	pick := func(field string) string {
		for _, alias := range addressFieldAliases[field] {
			v, ok := obj[alias]
			if !ok || v == nil {
				continue
			}
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
		return ""
	}

	return Address{
		CompanyName:     pick("companyName"),
		Country:         pick("country"),
		Pincode:         pick("pincode"),
		MobileNo:        pick("mobileNo"),
		FullName:        pick("fullName"),
		CompleteAddress: pick("completeAddress"),
		Landmark:        pick("landmark"),
		City:            pick("city"),
		State:           pick("state"),
		AlternateNo:     pick("alternateNo"),
		Email:           pick("email"),
	}
}
