package models

// Group is a roster of members whose expenses are netted together.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Currency is the tag every expense in the group is computed in.
	// It is carried through untouched and never converted.
	Currency string

	// Members is the roster. Expenses may only reference these ids.
	Members []string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}
