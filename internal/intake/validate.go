package intake

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shipdesk/intake/internal/rating"
	"github.com/shipdesk/intake/pkg/models"
)

var (
	phoneRe     = regexp.MustCompile(`^\d{10,15}$`)
	emailRe     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	separatorRe = regexp.MustCompile(`[\s-]`)
)

// Validate runs the full synchronous pass and replaces the form's error map
// with the result. An empty map is the sole success signal. Values are never
// mutated here.
func (f *Form) Validate() map[string]string {
	errs := make(map[string]string)

	f.validateAddress(SectionPickup, f.Pickup, errs)
	f.validateAddress(SectionDelivery, f.Delivery, errs)

	for _, p := range f.Products {
		if strings.TrimSpace(p.Name) == "" {
			errs[fmt.Sprintf("product_%d_name", p.ID)] = "Product name is required"
		}
		if rating.Number(p.UnitPrice) <= 0 {
			errs[fmt.Sprintf("product_%d_unitPrice", p.ID)] = "Unit price must be greater than 0"
		}
		if rating.Integer(p.Quantity) <= 0 {
			errs[fmt.Sprintf("product_%d_quantity", p.ID)] = "Quantity must be greater than 0"
		}
	}

	for _, p := range f.Packages {
		if strings.TrimSpace(p.Quantity) != "" && rating.Integer(p.Quantity) < 1 {
			errs[fmt.Sprintf("package_%d_quantity", p.ID)] = "Quantity must be at least 1"
		}
		if rating.Number(p.ActualWeight) <= 0 {
			errs[fmt.Sprintf("package_%d_actualWeight", p.ID)] = "Actual weight must be greater than 0"
		}
		if rating.Number(p.Length) <= 0 {
			errs[fmt.Sprintf("package_%d_length", p.ID)] = "Length must be greater than 0"
		}
		if rating.Number(p.Breadth) <= 0 {
			errs[fmt.Sprintf("package_%d_breadth", p.ID)] = "Breadth must be greater than 0"
		}
		if rating.Number(p.Height) <= 0 {
			errs[fmt.Sprintf("package_%d_height", p.ID)] = "Height must be greater than 0"
		}
	}

	f.errors = errs
	return f.Errors()
}

func (f *Form) validateAddress(section string, addr models.Address, errs map[string]string) {
	if strings.TrimSpace(addr.CompanyName) == "" {
		errs[fieldKey(section, "companyName")] = "Company name is required"
	}
	if strings.TrimSpace(addr.Country) == "" {
		errs[fieldKey(section, "country")] = "Country is required"
	}
	if strings.TrimSpace(addr.Pincode) == "" {
		if rating.RequiresCityName(addr.Country) {
			errs[fieldKey(section, "pincode")] = "City is required"
		} else {
			errs[fieldKey(section, "pincode")] = "Pincode is required"
		}
	}
	if strings.TrimSpace(addr.MobileNo) == "" {
		errs[fieldKey(section, "mobileNo")] = "Mobile number is required"
	} else if !validPhone(addr.MobileNo) {
		errs[fieldKey(section, "mobileNo")] = "Please enter a valid mobile number"
	}
	if strings.TrimSpace(addr.FullName) == "" {
		errs[fieldKey(section, "fullName")] = "Full name is required"
	}
	if strings.TrimSpace(addr.CompleteAddress) == "" {
		errs[fieldKey(section, "completeAddress")] = "Complete address is required"
	}
	if strings.TrimSpace(addr.Landmark) == "" {
		errs[fieldKey(section, "landmark")] = "Landmark is required"
	}
	if strings.TrimSpace(addr.City) == "" {
		errs[fieldKey(section, "city")] = "City is required"
	}
	if strings.TrimSpace(addr.State) == "" {
		errs[fieldKey(section, "state")] = "State is required"
	}
	// Alternate number and email are optional but must be well formed when present.
	if addr.AlternateNo != "" && !validPhone(addr.AlternateNo) {
		errs[fieldKey(section, "alternateNo")] = "Please enter a valid alternate number"
	}
	if addr.Email != "" && !emailRe.MatchString(addr.Email) {
		errs[fieldKey(section, "email")] = "Please enter a valid email address"
	}
}

// validPhone matches 10 to 15 digits after stripping spaces and dashes.
func validPhone(s string) bool {
	return phoneRe.MatchString(separatorRe.ReplaceAllString(s, ""))
}
