package actions

// ParamType is the JSON type of an action parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
)

// Param describes one action argument.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Enum        []string
}

// Spec describes one action to the reasoning service.
type Spec struct {
	Name        string
	Description string
	Params      []Param
}

var specs = []Spec{
	{
		Name:        NameSearch,
		Description: "Search for available coworking spaces. Results are sorted by hourly price, cheapest first.",
		Params: []Param{
			{Name: "space_type", Type: TypeString, Description: "Type of space",
				Enum: []string{"hot_desk", "private_office", "meeting_room", "event_space", "phone_booth"}},
			{Name: "location", Type: TypeString, Description: "Location filter, e.g. 'KL Eco City' or 'Bangsar South'"},
			{Name: "min_capacity", Type: TypeInteger, Description: "Minimum number of people the space should accommodate"},
			{Name: "max_price_per_hour", Type: TypeNumber, Description: "Maximum price per hour"},
		},
	},
	{
		Name:        NameCheckAvailability,
		Description: "Check availability of a specific space on a given date, returning free and booked hourly slots.",
		Params: []Param{
			{Name: "space_id", Type: TypeInteger, Description: "The ID of the space to check", Required: true},
			{Name: "check_date", Type: TypeString, Description: "Date to check in YYYY-MM-DD format", Required: true},
		},
	},
	{
		Name:        NameCreateReservation,
		Description: "Create a booking for a space. Requires the user to be signed in.",
		Params: []Param{
			{Name: "space_id", Type: TypeInteger, Description: "The ID of the space to book", Required: true},
			{Name: "booking_date", Type: TypeString, Description: "Date of booking in YYYY-MM-DD format", Required: true},
			{Name: "start_hour", Type: TypeInteger, Description: "Start hour in 24-hour format, e.g. 9 for 9 AM, 14 for 2 PM", Required: true},
			{Name: "end_hour", Type: TypeInteger, Description: "End hour in 24-hour format, must be after start_hour", Required: true},
			{Name: "notes", Type: TypeString, Description: "Optional notes for the booking"},
		},
	},
	{
		Name:        NameListMine,
		Description: "Get the current user's bookings. Requires the user to be signed in.",
		Params: []Param{
			{Name: "upcoming_only", Type: TypeBoolean, Description: "If true (the default), only show future bookings"},
		},
	},
	{
		Name:        NameCancel,
		Description: "Cancel one of the current user's bookings before it starts. Requires the user to be signed in.",
		Params: []Param{
			{Name: "booking_id", Type: TypeString, Description: "The ID of the booking to cancel", Required: true},
		},
	},
}

// Catalog returns the action schemas, in a stable order.
func (r *Registry) Catalog() []Spec {
	out := make([]Spec, len(specs))
	copy(out, specs)
	return out
}

func names() []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.Name
	}
	return out
}
