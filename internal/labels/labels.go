package labels

// Classes is the fixed vocabulary the inference service was trained on.
// The order matters only for presentation.
var Classes = []string{
	"airplane",
	"automobile",
	"bird",
	"cat",
	"deer",
	"dog",
	"frog",
	"horse",
	"ship",
	"truck",
}

var classSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(Classes))
	for _, c := range Classes {
		set[c] = struct{}{}
	}
	return set
}()

// Valid reports whether label is a member of the class vocabulary.
// The empty string is not a class; callers treat it as "unset".
func Valid(label string) bool {
	_, ok := classSet[label]
	return ok
}
