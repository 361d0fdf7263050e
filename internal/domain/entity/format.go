package entity

// Output formats a content type can be rendered in.
const (
	FormatImage = "image"
	FormatText  = "text"
)

// ValidFormat reports whether f is a known output format.
func ValidFormat(f string) bool {
	return f == FormatImage || f == FormatText
}
