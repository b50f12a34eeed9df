package dlcheck

// Reference event names.
const (
	EventFormSubmissionSuccess = "form_submission_success"
	EventPurchase              = "purchase"
)

var referenceRegistry = MustRegistry(map[string]*EventSchema{
	EventFormSubmissionSuccess: formSubmissionSchema(),
	EventPurchase:              purchaseSchema(),
})

// Reference returns the built-in registry: a lead/contact form submission
// event and a GA4 purchase event with a nested items array.
func Reference() *Registry { return referenceRegistry }

func formSubmissionSchema() *EventSchema {
	return &EventSchema{
		Required: []string{"event", "form_id", "form_type", "form_location"},
		Fields: map[string]FieldSpec{
			"event": &Primitive{Type: TypeString, Const: EventFormSubmissionSuccess, HasConst: true},
			"form_id": &Primitive{
				Type:      TypeString,
				Pattern:   MustPattern(`^[a-z_]+$`),
				MinLength: Ptr(3),
				MaxLength: Ptr(50),
			},
			"form_type": &Primitive{
				Type: TypeString,
				Enum: []any{"lead", "support", "sales", "newsletter", "download"},
			},
			"form_location": &Primitive{Type: TypeString, Pattern: MustPattern(`^[a-z0-9_/]+$`)},
			"form_fields":   &Object{AllowUnknown: true, Optional: true},
		},
		AllowUnknown: false,
	}
}

func purchaseSchema() *EventSchema {
	return &EventSchema{
		Required: []string{"event", "ecommerce"},
		Fields: map[string]FieldSpec{
			"event": &Primitive{Type: TypeString, Const: EventPurchase, HasConst: true},
			"ecommerce": &Object{
				Required: []string{"transaction_id", "value", "currency", "items"},
				Fields: map[string]FieldSpec{
					"transaction_id": &Primitive{
						Type:      TypeString,
						Pattern:   MustPattern(`^[A-Z0-9_-]+$`),
						MinLength: Ptr(5),
						MaxLength: Ptr(100),
					},
					"value":    &Primitive{Type: TypeNumber, Minimum: Ptr(0.0), Maximum: Ptr(1000000.0)},
					"currency": &Primitive{Type: TypeString, Pattern: MustPattern(`^[A-Z]{3}$`)},
					"tax":      &Primitive{Type: TypeNumber, Minimum: Ptr(0.0), Optional: true},
					"shipping": &Primitive{Type: TypeNumber, Minimum: Ptr(0.0), Optional: true},
					"items": &Array{
						MinItems: Ptr(1),
						MaxItems: Ptr(200),
						Items: ItemSpec{
							Required: []string{"item_id", "item_name", "price", "quantity"},
							Fields: map[string]*Primitive{
								"item_id":       {Type: TypeString, MinLength: Ptr(1)},
								"item_name":     {Type: TypeString, MinLength: Ptr(1), MaxLength: Ptr(500)},
								"price":         {Type: TypeNumber, Minimum: Ptr(0.0), Maximum: Ptr(1000000.0)},
								"quantity":      {Type: TypeInteger, Minimum: Ptr(1.0), Maximum: Ptr(10000.0)},
								"item_brand":    {Type: TypeString, MaxLength: Ptr(100), Optional: true},
								"item_category": {Type: TypeString, MaxLength: Ptr(100), Optional: true},
								"item_variant":  {Type: TypeString, MaxLength: Ptr(100), Optional: true},
							},
						},
					},
				},
			},
		},
	}
}
