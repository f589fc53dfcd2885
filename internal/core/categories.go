package core

import "strings"

// Category is one entry of the fixed expense catalogue.
type Category struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Subcategories []Subcategory `json:"subcategories"`
}

type Subcategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

var categories = []Category{
	{ID: "food_purchase", Name: "Food Purchase", Subcategories: []Subcategory{
		{"raw_materials", "Raw Materials", "Fresh ingredients, spices, etc."},
		{"processed_foods", "Processed Foods", "Canned goods, packaged items"},
		{"beverages", "Beverages", "Drinks, juices, tea, coffee"},
		{"dairy_products", "Dairy Products", "Milk, cheese, yogurt"},
		{"frozen_items", "Frozen Items", "Frozen vegetables, ice cream"},
		{"snacks", "Snacks", "Chips, biscuits, candies"},
	}},
	{ID: "equipment", Name: "Equipment", Subcategories: []Subcategory{
		{"kitchen_equipment", "Kitchen Equipment", "Stoves, ovens, mixers"},
		{"serving_equipment", "Serving Equipment", "Plates, cups, utensils"},
		{"cleaning_equipment", "Cleaning Equipment", "Dishwashers, cleaning tools"},
		{"furniture", "Furniture", "Tables, chairs, cabinets"},
		{"electronics", "Electronics", "POS systems, refrigerators"},
		{"maintenance_tools", "Maintenance Tools", "Repair tools, spare parts"},
	}},
	{ID: "utilities", Name: "Utilities", Subcategories: []Subcategory{
		{"electricity", "Electricity", "Power bills"},
		{"water", "Water", "Water supply bills"},
		{"gas", "Gas", "Cooking gas, heating"},
		{"internet", "Internet", "Internet connectivity"},
		{"phone", "Phone", "Telephone bills"},
		{"waste_management", "Waste Management", "Garbage collection"},
	}},
	{ID: "staff", Name: "Staff", Subcategories: []Subcategory{
		{"salaries", "Salaries", "Monthly staff salaries"},
		{"overtime", "Overtime", "Extra working hours payment"},
		{"benefits", "Benefits", "Health insurance, bonuses"},
		{"training", "Training", "Staff training programs"},
		{"uniforms", "Uniforms", "Staff clothing"},
		{"recruitment", "Recruitment", "Hiring costs"},
	}},
	{ID: "marketing", Name: "Marketing", Subcategories: []Subcategory{
		{"advertising", "Advertising", "Online and offline ads"},
		{"promotions", "Promotions", "Discount campaigns, offers"},
		{"social_media", "Social Media", "Social media marketing"},
		{"printed_materials", "Printed Materials", "Flyers, menus, banners"},
		{"events", "Events", "Special events, celebrations"},
		{"loyalty_programs", "Loyalty Programs", "Customer retention programs"},
	}},
	{ID: "maintenance", Name: "Maintenance", Subcategories: []Subcategory{
		{"equipment_repair", "Equipment Repair", "Fixing kitchen equipment"},
		{"facility_maintenance", "Facility Maintenance", "Building repairs, painting"},
		{"pest_control", "Pest Control", "Pest management services"},
		{"deep_cleaning", "Deep Cleaning", "Professional cleaning services"},
		{"hvac", "HVAC", "Air conditioning, ventilation"},
		{"plumbing", "Plumbing", "Water system repairs"},
	}},
	{ID: "other", Name: "Other", Subcategories: []Subcategory{
		{"licenses", "Licenses", "Business licenses, permits"},
		{"insurance", "Insurance", "Business insurance"},
		{"accounting", "Accounting", "Accountant fees, software"},
		{"legal", "Legal", "Legal consultation fees"},
		{"bank_charges", "Bank Charges", "Banking fees, transaction charges"},
		{"miscellaneous", "Miscellaneous", "Other unexpected expenses"},
	}},
}

// Categories returns a copy of the expense catalogue.
func Categories() []Category {
	out := make([]Category, len(categories))
	for i, c := range categories {
		c.Subcategories = append([]Subcategory(nil), c.Subcategories...)
		out[i] = c
	}
	return out
}

func CategoryByID(id string) (Category, bool) {
	id = strings.TrimSpace(id)
	for _, c := range categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
