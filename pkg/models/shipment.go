package models

// Box is one package line as the pricing collaborator expects it: dimensions
// in centimeters, weight in kilograms.
type Box struct {
	Quantity     int     `json:"quantity"`
	ActualWeight float64 `json:"actualWeight"`
	Length       float64 `json:"length"`
	Breadth      float64 `json:"breadth"`
	Height       float64 `json:"height"`
}

// RateRequest is the POST /api/calculate-rate payload.
type RateRequest struct {
	PickupCountry      string  `json:"pickupCountry"`
	PickupPincode      string  `json:"pickupPincode"`
	DestinationCountry string  `json:"destinationCountry"`
	DestinationPincode string  `json:"destinationPincode"`
	ActualWeight       float64 `json:"actualWeight"`
	Boxes              []Box   `json:"boxes"`
	ShipmentValue      float64 `json:"shipmentValue"`
}

// Quote is one carrier offer returned by the pricing collaborator. It is
// read-only and lives no longer than the intake session that requested it.
type Quote struct {
	Carrier                   string  `json:"carrier"`
	Cost                      float64 `json:"cost"`
	Currency                  string  `json:"currency"`
	EstimatedDelivery         string  `json:"estimatedDelivery"`
	EstimatedDeliveryReadable string  `json:"estimatedDeliveryReadable"`
}

type RouteEndpoint struct {
	Country string `json:"country"`
	Pincode string `json:"pincode"`
}

type WeightSummary struct {
	ActualWeight float64 `json:"actualWeight"`
	Unit         string  `json:"unit"`
}

type ValueSummary struct {
	Value    float64 `json:"value"`
	Currency string  `json:"currency"`
}

// RateResult is the data member of a successful quote response.
type RateResult struct {
	Pickup        RouteEndpoint `json:"pickup"`
	Destination   RouteEndpoint `json:"destination"`
	Weight        WeightSummary `json:"weight"`
	ShipmentValue ValueSummary  `json:"shipmentValue"`
	Quotes        []Quote       `json:"quotes"`
	Dimensions    []Box         `json:"dimensions,omitempty"`
	CalculatedAt  string        `json:"calculatedAt,omitempty"`
}

// CarrierSelection is the quote the user picked, echoed back verbatim on
// order creation.
type CarrierSelection struct {
	Name                      string  `json:"name"`
	Cost                      float64 `json:"cost"`
	Currency                  string  `json:"currency"`
	EstimatedDelivery         string  `json:"estimatedDelivery"`
	EstimatedDeliveryReadable string  `json:"estimatedDeliveryReadable"`
}

// Compliance carries customs declarations for the order. The export
// declaration charge is derived from the route at order assembly, never at
// quote time.
type Compliance struct {
	RequireBOE              bool    `json:"requireBOE"`
	RequireDO               bool    `json:"requireDO"`
	ExportDeclaration       bool    `json:"exportDeclaration"`
	ExportDeclarationCharge float64 `json:"exportDeclarationCharge"`
	DutyExemption           bool    `json:"dutyExemption"`
}

// OrderRequest is the POST /api/orders payload.
type OrderRequest struct {
	PickupCountry      string           `json:"pickupCountry"`
	PickupPincode      string           `json:"pickupPincode"`
	DestinationCountry string           `json:"destinationCountry"`
	DestinationPincode string           `json:"destinationPincode"`
	ActualWeight       float64          `json:"actualWeight"`
	Boxes              []Box            `json:"boxes"`
	ShipmentValue      float64          `json:"shipmentValue"`
	Carrier            CarrierSelection `json:"carrier"`
	Compliance         Compliance       `json:"compliance"`
}

// OrderConfirmation is the data member of a successful order response. The
// client holds no order identity until this arrives.
type OrderConfirmation struct {
	OrderID   string `json:"orderId"`
	AWB       string `json:"awb,omitempty"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}
