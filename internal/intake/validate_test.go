package intake

import "testing"

func TestValidateEmptyFormReportsRequiredFields(t *testing.T) {
	f := NewForm()
	errs := f.Validate()

	expected := map[string]string{
		"pickupCompanyName":      "Company name is required",
		"pickupCountry":          "Country is required",
		"pickupPincode":          "Pincode is required",
		"pickupMobileNo":         "Mobile number is required",
		"pickupFullName":         "Full name is required",
		"pickupCompleteAddress":  "Complete address is required",
		"pickupLandmark":         "Landmark is required",
		"pickupCity":             "City is required",
		"pickupState":            "State is required",
		"deliveryCompanyName":    "Company name is required",
		"product_1_name":         "Product name is required",
		"product_1_unitPrice":    "Unit price must be greater than 0",
		"product_1_quantity":     "Quantity must be greater than 0",
		"package_1_actualWeight": "Actual weight must be greater than 0",
		"package_1_length":       "Length must be greater than 0",
		"package_1_breadth":      "Breadth must be greater than 0",
		"package_1_height":       "Height must be greater than 0",
	}

	for key, message := range expected {
		if errs[key] != message {
			t.Errorf("errs[%q] = %q, expected %q", key, errs[key], message)
		}
	}

	// The starting package row has quantity "1", which is valid.
	if _, found := errs["package_1_quantity"]; found {
		t.Error("did not expect a quantity error on the default package row")
	}
}

func TestValidateCompleteFormPasses(t *testing.T) {
	f := validForm(t)
	if errs := f.Validate(); len(errs) != 0 {
		t.Fatalf("expected a clean pass, got %v", errs)
	}
}

func TestValidateCityLabelForCityNameCountries(t *testing.T) {
	f := validForm(t)
	f.SetAddressField(SectionPickup, "country", "OMAN") // country change clears the pincode
	errs := f.Validate()
	if errs["pickupPincode"] != "City is required" {
		t.Errorf("pickupPincode error = %q, expected city wording for OMAN", errs["pickupPincode"])
	}

	f.SetAddressField(SectionDelivery, "country", "USA")
	errs = f.Validate()
	if errs["deliveryPincode"] != "Pincode is required" {
		t.Errorf("deliveryPincode error = %q, expected pincode wording for USA", errs["deliveryPincode"])
	}
}

func TestValidatePhoneNumbers(t *testing.T) {
	tests := []struct {
		name    string
		mobile  string
		wantErr string
	}{
		{name: "plain_digits", mobile: "0501234567", wantErr: ""},
		{name: "separators_stripped", mobile: "050 123-45 67", wantErr: ""},
		{name: "fifteen_digits", mobile: "123456789012345", wantErr: ""},
		{name: "too_short", mobile: "123456789", wantErr: "Please enter a valid mobile number"},
		{name: "too_long", mobile: "1234567890123456", wantErr: "Please enter a valid mobile number"},
		{name: "letters", mobile: "05012345ab", wantErr: "Please enter a valid mobile number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm(t)
			f.SetAddressField(SectionPickup, "mobileNo", tt.mobile)
			errs := f.Validate()
			if errs["pickupMobileNo"] != tt.wantErr {
				t.Errorf("pickupMobileNo error = %q, expected %q", errs["pickupMobileNo"], tt.wantErr)
			}
		})
	}
}

func TestValidateOptionalFields(t *testing.T) {
	f := validForm(t)
	// Blank optional fields pass.
	if errs := f.Validate(); len(errs) != 0 {
		t.Fatalf("expected clean form, got %v", errs)
	}

	f.SetAddressField(SectionPickup, "email", "not-an-email")
	f.SetAddressField(SectionPickup, "alternateNo", "12")
	errs := f.Validate()
	if errs["pickupEmail"] != "Please enter a valid email address" {
		t.Errorf("pickupEmail error = %q", errs["pickupEmail"])
	}
	if errs["pickupAlternateNo"] != "Please enter a valid alternate number" {
		t.Errorf("pickupAlternateNo error = %q", errs["pickupAlternateNo"])
	}

	f.SetAddressField(SectionPickup, "email", "ops@gulftraders.ae")
	f.SetAddressField(SectionPickup, "alternateNo", "0501112222")
	if errs := f.Validate(); len(errs) != 0 {
		t.Errorf("expected clean form with valid optional fields, got %v", errs)
	}
}

func TestValidateProductRows(t *testing.T) {
	f := validForm(t)
	f.SetProductField(1, "unitPrice", "0")
	f.SetProductField(1, "quantity", "abc")
	errs := f.Validate()

	if errs["product_1_unitPrice"] != "Unit price must be greater than 0" {
		t.Errorf("unitPrice error = %q", errs["product_1_unitPrice"])
	}
	if errs["product_1_quantity"] != "Quantity must be greater than 0" {
		t.Errorf("quantity error = %q", errs["product_1_quantity"])
	}
}

func TestValidatePackageQuantityOnlyWhenSet(t *testing.T) {
	f := validForm(t)
	f.SetPackageField(1, "quantity", "")
	errs := f.Validate()
	if _, found := errs["package_1_quantity"]; found {
		t.Error("blank package quantity should not be an error")
	}

	f.SetPackageField(1, "quantity", "0")
	errs = f.Validate()
	if errs["package_1_quantity"] != "Quantity must be at least 1" {
		t.Errorf("quantity error = %q", errs["package_1_quantity"])
	}
}
