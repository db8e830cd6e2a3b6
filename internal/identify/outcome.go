package identify

// Outcome is the tagged result of parsing a model answer: either a parsed
// value or the raw text that could not be parsed.
type Outcome[T any] struct {
	value  T
	raw    string
	parsed bool
}

// Parsed wraps a successfully parsed value.
func Parsed[T any](v T, raw string) Outcome[T] {
	return Outcome[T]{value: v, raw: raw, parsed: true}
}

// Malformed records an answer that held no usable JSON object.
func Malformed[T any](raw string) Outcome[T] {
	return Outcome[T]{raw: raw}
}

// Get returns the parsed value and whether there was one.
func (o Outcome[T]) Get() (T, bool) {
	return o.value, o.parsed
}

// IsParsed reports whether the answer was parsed.
func (o Outcome[T]) IsParsed() bool {
	return o.parsed
}

// Raw returns the model text the outcome was built from.
func (o Outcome[T]) Raw() string {
	return o.raw
}
