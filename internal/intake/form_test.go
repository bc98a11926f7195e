package intake

import (
	"math"
	"testing"

	"github.com/shipdesk/intake/internal/rating"
	"github.com/shipdesk/intake/pkg/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// validForm fills every required field with a UAE -> GERMANY shipment:
// one product at 100 x 2 and one package of 2 units at 3kg, 50x40x30cm.
func validForm(t *testing.T) *Form {
	t.Helper()
	f := NewForm()

	pickup := map[string]string{
		"companyName": "Gulf Traders LLC", "country": "UAE", "pincode": "Dubai",
		"mobileNo": "0501234567", "fullName": "Ayesha Khan",
		"completeAddress": "Warehouse 4, Al Quoz", "landmark": "Near metro",
		"city": "Dubai", "state": "Dubai",
	}
	delivery := map[string]string{
		"companyName": "Berlin Imports GmbH", "country": "GERMANY", "pincode": "10115",
		"mobileNo": "4915123456789", "fullName": "Jonas Weber",
		"completeAddress": "Invalidenstr. 12", "landmark": "Hauptbahnhof",
		"city": "Berlin", "state": "Berlin",
	}
	// Country must be set before pincode: changing the country clears the
	// pincode, and map iteration order is random.
	if err := f.SetAddressField(SectionPickup, "country", pickup["country"]); err != nil {
		t.Fatalf("SetAddressField(pickup, country): %v", err)
	}
	for field, value := range pickup {
		if err := f.SetAddressField(SectionPickup, field, value); err != nil {
			t.Fatalf("SetAddressField(pickup, %s): %v", field, err)
		}
	}
	if err := f.SetAddressField(SectionDelivery, "country", delivery["country"]); err != nil {
		t.Fatalf("SetAddressField(delivery, country): %v", err)
	}
	for field, value := range delivery {
		if err := f.SetAddressField(SectionDelivery, field, value); err != nil {
			t.Fatalf("SetAddressField(delivery, %s): %v", field, err)
		}
	}

	f.SetProductField(1, "name", "Machine parts")
	f.SetProductField(1, "unitPrice", "100")
	f.SetProductField(1, "quantity", "2")

	f.SetPackageField(1, "quantity", "2")
	f.SetPackageField(1, "actualWeight", "3")
	f.SetPackageField(1, "length", "50")
	f.SetPackageField(1, "breadth", "40")
	f.SetPackageField(1, "height", "30")

	return f
}

func TestNewFormStartsWithOneRowEach(t *testing.T) {
	f := NewForm()
	if len(f.Products) != 1 || f.Products[0].ID != 1 {
		t.Fatalf("expected one product row with id 1, got %+v", f.Products)
	}
	if f.Products[0].Currency != rating.DefaultCurrency {
		t.Errorf("new product currency = %q, expected AED", f.Products[0].Currency)
	}
	if len(f.Packages) != 1 || f.Packages[0].Quantity != "1" {
		t.Fatalf("expected one package row with quantity 1, got %+v", f.Packages)
	}
}

func TestRemoveLastRowIsNoOp(t *testing.T) {
	f := NewForm()
	if f.RemoveProduct(1) {
		t.Error("removing the only product row should be a no-op")
	}
	if f.RemovePackage(1) {
		t.Error("removing the only package row should be a no-op")
	}
	if len(f.Products) != 1 || len(f.Packages) != 1 {
		t.Error("row counts changed after no-op removals")
	}
}

func TestRowIDsNeverReused(t *testing.T) {
	f := NewForm()
	second := f.AddProduct()
	if second.ID != 2 {
		t.Fatalf("second product id = %d, expected 2", second.ID)
	}

	third := f.AddProduct()
	if third.ID != 3 {
		t.Fatalf("third product id = %d, expected 3", third.ID)
	}

	// Removing a middle row must not shift later ids down.
	f.RemoveProduct(1)
	fourth := f.AddProduct()
	if fourth.ID != 4 {
		t.Fatalf("next id = %d, expected 4 (ids 2 and 3 live)", fourth.ID)
	}

	// Even after the highest row goes away its id stays retired.
	f.RemoveProduct(4)
	fifth := f.AddProduct()
	if fifth.ID != 5 {
		t.Fatalf("next id = %d after removing row 4, expected 5", fifth.ID)
	}
}

func TestCountryChangeClearsPincode(t *testing.T) {
	f := NewForm()
	f.SetAddressField(SectionPickup, "country", "UAE")
	f.SetAddressField(SectionPickup, "pincode", "Dubai")

	f.SetAddressField(SectionPickup, "country", "GERMANY")
	if f.Pickup.Pincode != "" {
		t.Errorf("pincode = %q after country change, expected empty", f.Pickup.Pincode)
	}
}

func TestEditClearsExactFieldError(t *testing.T) {
	f := NewForm()
	f.Validate()
	errs := f.Errors()
	if errs["pickupCompanyName"] == "" {
		t.Fatal("expected pickupCompanyName error on an empty form")
	}

	f.SetAddressField(SectionPickup, "companyName", "Gulf Traders LLC")
	errs = f.Errors()
	if _, still := errs["pickupCompanyName"]; still {
		t.Error("editing companyName did not clear its error")
	}
	if _, kept := errs["pickupCountry"]; !kept {
		t.Error("editing one field cleared an unrelated error")
	}
}

func TestRemoveRowClearsItsErrors(t *testing.T) {
	f := NewForm()
	f.AddPackage()
	f.Validate()
	if f.Errors()["package_2_height"] == "" {
		t.Fatal("expected errors recorded for package row 2")
	}

	f.RemovePackage(2)
	for key := range f.Errors() {
		if key == "package_2_height" || key == "package_2_length" {
			t.Errorf("error %q survived row removal", key)
		}
	}
}

func TestComplianceLockedOnUAEExport(t *testing.T) {
	f := NewForm()
	f.SetAddressField(SectionPickup, "country", "UAE")
	f.SetAddressField(SectionDelivery, "country", "GERMANY")

	c := f.Compliance()
	if !c.ExportDeclaration || !c.ExportDeclarationLocked {
		t.Fatalf("expected forced+locked export declaration, got %+v", c)
	}

	// The toggle must be ignored while locked.
	f.SetExportDeclaration(false)
	if c := f.Compliance(); !c.ExportDeclaration {
		t.Error("export declaration toggled off while locked")
	}

	// Reverting the route to UAE -> UAE unlocks and drops the declaration.
	f.SetAddressField(SectionDelivery, "country", "UAE")
	c = f.Compliance()
	if c.ExportDeclaration || c.ExportDeclarationLocked {
		t.Fatalf("expected declaration released on domestic route, got %+v", c)
	}
}

func TestCurrencyMixedDetection(t *testing.T) {
	f := NewForm()
	f.AddProduct()
	f.SetProductField(2, "currency", "USD")

	if _, ok := f.Currency(); ok {
		t.Error("expected mixed currencies to report not-single")
	}

	f.SetProductField(2, "currency", "AED")
	code, ok := f.Currency()
	if !ok || code != "AED" {
		t.Errorf("Currency() = (%q, %v), expected (AED, true)", code, ok)
	}
}

func TestRateRequestCarriesBoxTypeTotalWeight(t *testing.T) {
	f := validForm(t)
	req := f.RateRequest()

	if req.PickupCountry != "UAE" || req.DestinationCountry != "GERMANY" {
		t.Fatalf("route = %s -> %s", req.PickupCountry, req.DestinationCountry)
	}
	if len(req.Boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(req.Boxes))
	}
	// volumetric 50*40*30/5000 = 12 beats actual 3; the box line carries the
	// total for both units of the type, and the aggregate matches it.
	if !almostEqual(req.Boxes[0].ActualWeight, 24) {
		t.Errorf("box weight = %v, expected chargeable 12 x quantity 2 = 24", req.Boxes[0].ActualWeight)
	}
	if req.Boxes[0].Quantity != 2 {
		t.Errorf("box quantity = %d, expected 2", req.Boxes[0].Quantity)
	}
	if !almostEqual(req.ActualWeight, 24) {
		t.Errorf("aggregate weight = %v, expected 24", req.ActualWeight)
	}
	if !almostEqual(req.ShipmentValue, 200) {
		t.Errorf("shipment value = %v, expected 200", req.ShipmentValue)
	}
}

func TestRateRequestConvertsImperialUnits(t *testing.T) {
	f := NewForm()
	f.Units = rating.ImperialLbIn
	f.SetPackageField(1, "actualWeight", "10")

	req := f.RateRequest()
	if !almostEqual(req.Boxes[0].ActualWeight, 4.53592) {
		t.Errorf("box weight = %v, expected 4.53592 kg", req.Boxes[0].ActualWeight)
	}
}

func TestOrderRequestCarriesRawWeightsAndSurcharge(t *testing.T) {
	f := validForm(t)
	quote := models.Quote{Carrier: "DHL Express", Cost: 750, Currency: "AED", EstimatedDelivery: "2-3 days"}

	req := f.OrderRequest(quote)
	if !almostEqual(req.Boxes[0].ActualWeight, 3) {
		t.Errorf("order box weight = %v, expected raw actual 3", req.Boxes[0].ActualWeight)
	}
	if !almostEqual(req.ActualWeight, 24) {
		t.Errorf("order aggregate = %v, expected rounded chargeable 24", req.ActualWeight)
	}
	if req.Carrier.Name != "DHL Express" || !almostEqual(req.Carrier.Cost, 750) {
		t.Errorf("carrier echo = %+v", req.Carrier)
	}
	if !almostEqual(req.Compliance.ExportDeclarationCharge, 120) {
		t.Errorf("export charge = %v, expected 120 on UAE export", req.Compliance.ExportDeclarationCharge)
	}

	// The same shipment without the UAE export route carries no surcharge.
	f.SetAddressField(SectionPickup, "country", "INDIA")
	req = f.OrderRequest(quote)
	if req.Compliance.ExportDeclarationCharge != 0 {
		t.Errorf("export charge = %v, expected 0 off the UAE export route", req.Compliance.ExportDeclarationCharge)
	}
}

func TestResetKeepsUnits(t *testing.T) {
	f := validForm(t)
	f.Units = rating.ImperialLbIn
	f.AddProduct()

	f.Reset()
	if len(f.Products) != 1 || f.Products[0].ID != 1 {
		t.Errorf("reset did not restore the single starting row: %+v", f.Products)
	}
	if f.Pickup.CompanyName != "" {
		t.Error("reset kept address data")
	}
	if f.Units != rating.ImperialLbIn {
		t.Error("reset discarded the chosen unit system")
	}
}

func TestApplyPrefillReplacesAddresses(t *testing.T) {
	f := validForm(t)
	f.Validate()

	pickup := models.Address{CompanyName: "New Co", Country: "INDIA"}
	f.ApplyPrefill(pickup, models.Address{})

	if f.Pickup.CompanyName != "New Co" {
		t.Errorf("pickup company = %q, expected New Co", f.Pickup.CompanyName)
	}
	if f.Delivery.CompanyName != "" {
		t.Error("delivery address not replaced")
	}
	if len(f.Errors()) != 0 {
		t.Error("prefill did not clear the error map")
	}
}
