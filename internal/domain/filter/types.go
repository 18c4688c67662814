// Package filter describes ad-hoc list conditions passed from HTTP query
// strings to repositories.
package filter

// ComparisonType is the operator of a filter item.
type ComparisonType string

const (
	Equal          ComparisonType = "eq"
	NotEqual       ComparisonType = "neq"
	Less           ComparisonType = "lt"
	Greater        ComparisonType = "gt"
	LessOrEqual    ComparisonType = "lte"
	GreaterOrEqual ComparisonType = "gte"
	InList         ComparisonType = "in"
	NotInList      ComparisonType = "nin"
	Contains       ComparisonType = "contains"  // ILIKE %val%
	NotContains    ComparisonType = "ncontains" // NOT ILIKE %val%
	IsNull         ComparisonType = "null"
	IsNotNull      ComparisonType = "not_null"
)

// Item is one condition on a column (snake_case).
type Item struct {
	Field    string         `json:"field"`
	Operator ComparisonType `json:"operator"`
	Value    any            `json:"value"`
}

// Eq is shorthand for an equality item.
func Eq(field string, value any) Item {
	return Item{Field: field, Operator: Equal, Value: value}
}
