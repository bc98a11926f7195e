// Package intake owns the order form session: pickup/delivery addresses,
// product and package rows, compliance flags and the field error map. It has
// no network or rendering concerns; the workflow layer drives it.
package intake

import (
	"fmt"
	"math"
	"strings"

	"github.com/shipdesk/intake/internal/rating"
	"github.com/shipdesk/intake/pkg/models"
)

// Address sections of the form.
const (
	SectionPickup   = "pickup"
	SectionDelivery = "delivery"
)

// Product is one product row as entered. Numeric fields stay strings until a
// derivation needs them; malformed input coerces to 0 there.
type Product struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Currency  string `json:"currency"`
	UnitPrice string `json:"unitPrice"`
	Quantity  string `json:"quantity"`
}

// Package is one package/box row as entered.
type Package struct {
	ID           int    `json:"id"`
	Quantity     string `json:"quantity"`
	ActualWeight string `json:"actualWeight"`
	Length       string `json:"length"`
	Breadth      string `json:"breadth"`
	Height       string `json:"height"`
}

// Compliance is the form's declarations view. ExportDeclaration is forced and
// locked on UAE export routes.
type Compliance struct {
	RequireBOE              bool `json:"requireBOE"`
	RequireDO               bool `json:"requireDO"`
	ExportDeclaration       bool `json:"exportDeclaration"`
	ExportDeclarationLocked bool `json:"exportDeclarationLocked"`
	DutyExemption           bool `json:"dutyExemption"`
}

// Form is a single active intake session's state. It is not safe for
// concurrent use; the owning workflow serializes access.
type Form struct {
	Pickup   models.Address    `json:"pickup"`
	Delivery models.Address    `json:"delivery"`
	Products []Product         `json:"products"`
	Packages []Package         `json:"packages"`
	Units    rating.UnitSystem `json:"-"`

	requireBOE        bool
	requireDO         bool
	exportDeclaration bool
	dutyExemption     bool

	lastProductID int
	lastPackageID int

	errors map[string]string
}

// NewForm starts with one empty product row and one single-unit package row,
// the minimum cardinality the form enforces.
func NewForm() *Form {
	return &Form{
		Products:      []Product{{ID: 1, Currency: rating.DefaultCurrency}},
		Packages:      []Package{{ID: 1, Quantity: "1"}},
		Units:         rating.MetricKgCm,
		lastProductID: 1,
		lastPackageID: 1,
		errors:        make(map[string]string),
	}
}

// SetAddressField updates one address field and clears any recorded error for
// it. Changing the country also clears the pincode/city value so a stale
// postal code never survives a country switch.
func (f *Form) SetAddressField(section, field, value string) error {
	addr := f.address(section)
	if addr == nil {
		return fmt.Errorf("unknown address section %q", section)
	}

	switch field {
	case "companyName":
		addr.CompanyName = value
	case "country":
		if addr.Country != value {
			addr.Pincode = ""
			f.clearError(fieldKey(section, "pincode"))
		}
		addr.Country = value
	case "pincode":
		addr.Pincode = value
	case "mobileNo":
		addr.MobileNo = value
	case "fullName":
		addr.FullName = value
	case "completeAddress":
		addr.CompleteAddress = value
	case "landmark":
		addr.Landmark = value
	case "city":
		addr.City = value
	case "state":
		addr.State = value
	case "alternateNo":
		addr.AlternateNo = value
	case "email":
		addr.Email = value
	default:
		return fmt.Errorf("unknown address field %q", field)
	}

	f.clearError(fieldKey(section, field))
	return nil
}

// ApplyPrefill loads both addresses from a normalized external address form
// submission, replacing whatever was entered so far.
func (f *Form) ApplyPrefill(pickup, delivery models.Address) {
	f.Pickup = pickup
	f.Delivery = delivery
	f.errors = make(map[string]string)
}

// AddProduct appends a fresh row. Row IDs are never reused within a session,
// so a removal can never redirect errors onto a later row.
func (f *Form) AddProduct() Product {
	p := Product{ID: f.nextProductID(), Currency: rating.DefaultCurrency}
	f.Products = append(f.Products, p)
	return p
}

// RemoveProduct drops the row and its errors. Removing the last remaining row
// is a no-op.
func (f *Form) RemoveProduct(id int) bool {
	if len(f.Products) <= 1 {
		return false
	}
	for i, p := range f.Products {
		if p.ID == id {
			f.Products = append(f.Products[:i], f.Products[i+1:]...)
			f.clearErrorsWithPrefix(fmt.Sprintf("product_%d_", id))
			return true
		}
	}
	return false
}

// SetProductField updates one product field and clears that field's error.
func (f *Form) SetProductField(id int, field, value string) error {
	for i := range f.Products {
		if f.Products[i].ID != id {
			continue
		}
		switch field {
		case "name":
			f.Products[i].Name = value
		case "currency":
			f.Products[i].Currency = value
		case "unitPrice":
			f.Products[i].UnitPrice = value
		case "quantity":
			f.Products[i].Quantity = value
		default:
			return fmt.Errorf("unknown product field %q", field)
		}
		f.clearError(fmt.Sprintf("product_%d_%s", id, field))
		return nil
	}
	return fmt.Errorf("no product with id %d", id)
}

// AddPackage appends a fresh single-unit row.
func (f *Form) AddPackage() Package {
	p := Package{ID: f.nextPackageID(), Quantity: "1"}
	f.Packages = append(f.Packages, p)
	return p
}

// RemovePackage drops the row and its errors. Removing the last remaining row
// is a no-op.
func (f *Form) RemovePackage(id int) bool {
	if len(f.Packages) <= 1 {
		return false
	}
	for i, p := range f.Packages {
		if p.ID == id {
			f.Packages = append(f.Packages[:i], f.Packages[i+1:]...)
			f.clearErrorsWithPrefix(fmt.Sprintf("package_%d_", id))
			return true
		}
	}
	return false
}

// SetPackageField updates one package field and clears that field's error.
func (f *Form) SetPackageField(id int, field, value string) error {
	for i := range f.Packages {
		if f.Packages[i].ID != id {
			continue
		}
		switch field {
		case "quantity":
			f.Packages[i].Quantity = value
		case "actualWeight":
			f.Packages[i].ActualWeight = value
		case "length":
			f.Packages[i].Length = value
		case "breadth":
			f.Packages[i].Breadth = value
		case "height":
			f.Packages[i].Height = value
		default:
			return fmt.Errorf("unknown package field %q", field)
		}
		f.clearError(fmt.Sprintf("package_%d_%s", id, field))
		return nil
	}
	return fmt.Errorf("no package with id %d", id)
}

func (f *Form) SetRequireBOE(v bool)    { f.requireBOE = v }
func (f *Form) SetRequireDO(v bool)     { f.requireDO = v }
func (f *Form) SetDutyExemption(v bool) { f.dutyExemption = v }

// SetExportDeclaration is ignored while the route forces the declaration on.
func (f *Form) SetExportDeclaration(v bool) {
	if rating.ExportDeclarationRequired(f.Pickup.Country, f.Delivery.Country) {
		return
	}
	f.exportDeclaration = v
}

// Compliance derives the export declaration from the current route rather
// than from previously mutated state.
func (f *Form) Compliance() Compliance {
	locked := rating.ExportDeclarationRequired(f.Pickup.Country, f.Delivery.Country)
	return Compliance{
		RequireBOE:              f.requireBOE,
		RequireDO:               f.requireDO,
		ExportDeclaration:       locked || (f.exportDeclaration && !locked),
		ExportDeclarationLocked: locked,
		DutyExemption:           f.dutyExemption,
	}
}

// Errors returns a copy of the current field error map.
func (f *Form) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Reset returns the form to its initial state. Row IDs restart; the unit
// system the user picked is kept.
func (f *Form) Reset() {
	units := f.Units
	*f = *NewForm()
	f.Units = units
}

// valueLines coerces the product rows for shipment value math.
func (f *Form) valueLines() []rating.ValueLine {
	lines := make([]rating.ValueLine, 0, len(f.Products))
	for _, p := range f.Products {
		lines = append(lines, rating.ValueLine{
			UnitPrice: rating.Number(p.UnitPrice),
			Quantity:  rating.Integer(p.Quantity),
		})
	}
	return lines
}

// boxDims coerces the package rows for weight math, in the form's own units.
func (f *Form) boxDims() []rating.BoxDims {
	boxes := make([]rating.BoxDims, 0, len(f.Packages))
	for _, p := range f.Packages {
		qty := rating.Integer(p.Quantity)
		if qty < 1 {
			qty = 1
		}
		boxes = append(boxes, rating.BoxDims{
			Quantity:     qty,
			ActualWeight: rating.Number(p.ActualWeight),
			Length:       rating.Number(p.Length),
			Breadth:      rating.Number(p.Breadth),
			Height:       rating.Number(p.Height),
		})
	}
	return boxes
}

// ShipmentValue is the sum of line totals across all products.
func (f *Form) ShipmentValue() float64 {
	return rating.ShipmentValue(f.valueLines())
}

// TotalChargeableWeight is the shipment's billing weight in the form's units.
func (f *Form) TotalChargeableWeight() float64 {
	return rating.AggregateChargeableWeight(f.boxDims(), f.Units)
}

// Currency returns the common product currency, or false when lines mix
// currencies and the aggregate value has no meaningful unit.
func (f *Form) Currency() (string, bool) {
	codes := make([]string, 0, len(f.Products))
	for _, p := range f.Products {
		codes = append(codes, strings.TrimSpace(p.Currency))
	}
	return rating.SingleCurrency(codes)
}

// RateRequest assembles the quote payload. Weights and dimensions are
// normalized to kg/cm, and each box line carries the total chargeable weight
// for all units of that box type, which is what the pricing collaborator
// quotes on.
func (f *Form) RateRequest() models.RateRequest {
	boxes := f.boxDims()
	apiBoxes := make([]models.Box, 0, len(boxes))
	for _, box := range boxes {
		chargeable := rating.ChargeableWeight(box.ActualWeight, box.Length, box.Breadth, box.Height, f.Units)
		apiBoxes = append(apiBoxes, models.Box{
			Quantity:     box.Quantity,
			ActualWeight: f.toKilograms(chargeable) * float64(box.Quantity),
			Length:       f.toCentimeters(box.Length),
			Breadth:      f.toCentimeters(box.Breadth),
			Height:       f.toCentimeters(box.Height),
		})
	}

	return models.RateRequest{
		PickupCountry:      f.Pickup.Country,
		PickupPincode:      f.Pickup.Pincode,
		DestinationCountry: f.Delivery.Country,
		DestinationPincode: f.Delivery.Pincode,
		ActualWeight:       f.toKilograms(f.TotalChargeableWeight()),
		Boxes:              apiBoxes,
		ShipmentValue:      f.ShipmentValue(),
	}
}

// OrderRequest assembles the booking payload for the selected quote. Boxes
// carry their raw actual weights; the aggregate is the chargeable weight
// rounded to two decimals. The export declaration surcharge is derived from
// the route here, at assembly time.
func (f *Form) OrderRequest(quote models.Quote) models.OrderRequest {
	boxes := f.boxDims()
	apiBoxes := make([]models.Box, 0, len(boxes))
	for _, box := range boxes {
		apiBoxes = append(apiBoxes, models.Box{
			Quantity:     box.Quantity,
			ActualWeight: f.toKilograms(box.ActualWeight),
			Length:       f.toCentimeters(box.Length),
			Breadth:      f.toCentimeters(box.Breadth),
			Height:       f.toCentimeters(box.Height),
		})
	}

	compliance := f.Compliance()
	return models.OrderRequest{
		PickupCountry:      f.Pickup.Country,
		PickupPincode:      f.Pickup.Pincode,
		DestinationCountry: f.Delivery.Country,
		DestinationPincode: f.Delivery.Pincode,
		ActualWeight:       round2(f.toKilograms(f.TotalChargeableWeight())),
		Boxes:              apiBoxes,
		ShipmentValue:      f.ShipmentValue(),
		Carrier: models.CarrierSelection{
			Name:                      quote.Carrier,
			Cost:                      quote.Cost,
			Currency:                  quote.Currency,
			EstimatedDelivery:         quote.EstimatedDelivery,
			EstimatedDeliveryReadable: quote.EstimatedDeliveryReadable,
		},
		Compliance: models.Compliance{
			RequireBOE:              compliance.RequireBOE,
			RequireDO:               compliance.RequireDO,
			ExportDeclaration:       compliance.ExportDeclaration,
			ExportDeclarationCharge: rating.ExportDeclarationCharge(f.Pickup.Country, f.Delivery.Country),
			DutyExemption:           compliance.DutyExemption,
		},
	}
}

func (f *Form) toKilograms(w float64) float64 {
	if f.Units == rating.ImperialLbIn {
		return rating.PoundsToKilograms(w)
	}
	return w
}

func (f *Form) toCentimeters(d float64) float64 {
	if f.Units == rating.ImperialLbIn {
		return rating.InchesToCentimeters(d)
	}
	return d
}

func (f *Form) address(section string) *models.Address {
	switch section {
	case SectionPickup:
		return &f.Pickup
	case SectionDelivery:
		return &f.Delivery
	}
	return nil
}

func (f *Form) nextProductID() int {
	for _, p := range f.Products {
		if p.ID > f.lastProductID {
			f.lastProductID = p.ID
		}
	}
	f.lastProductID++
	return f.lastProductID
}

func (f *Form) nextPackageID() int {
	for _, p := range f.Packages {
		if p.ID > f.lastPackageID {
			f.lastPackageID = p.ID
		}
	}
	f.lastPackageID++
	return f.lastPackageID
}

func (f *Form) clearError(key string) {
	delete(f.errors, key)
}

func (f *Form) clearErrorsWithPrefix(prefix string) {
	for key := range f.errors {
		if strings.HasPrefix(key, prefix) {
			delete(f.errors, key)
		}
	}
}

// fieldKey builds error map keys like "pickupCompanyName".
func fieldKey(section, field string) string {
	if field == "" {
		return section
	}
	return section + strings.ToUpper(field[:1]) + field[1:]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
