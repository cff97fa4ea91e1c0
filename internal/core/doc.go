// Package core holds the record types, their parsing and validation rules,
// display formatting and the result shapes returned by the repository.
//
// Amounts and durations are decimals. Anything that is not a positive number
// is coerced to zero so the record fails validation instead of being stored.
package core
