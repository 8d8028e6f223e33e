package dictionary

// embeddedFrequencies is a small bundled word/frequency table used by the
// default "embedded" provider. Real deployments should configure the
// "file" provider with a proper frequency corpus; this table only exists
// so that entroppy has sane out-of-the-box behaviour and deterministic
// tests.
var embeddedFrequencies = map[string]float64{
	"the": 0.053, "of": 0.030, "and": 0.029, "to": 0.026, "in": 0.021,
	"a": 0.021, "is": 0.011, "that": 0.010, "for": 0.008, "it": 0.008,
	"as": 0.007, "was": 0.007, "with": 0.007, "be": 0.006, "by": 0.006,
	"on": 0.006, "not": 0.005, "he": 0.005, "i": 0.005, "this": 0.005,
	"are": 0.004, "or": 0.004, "his": 0.004, "from": 0.004, "at": 0.004,
	"which": 0.003, "but": 0.003, "have": 0.003, "an": 0.003, "had": 0.003,
	"they": 0.003, "you": 0.003, "were": 0.002, "their": 0.002, "there": 0.002,
	"been": 0.002, "has": 0.002, "we": 0.002, "one": 0.002, "all": 0.002,
	"would": 0.002, "her": 0.002, "she": 0.002, "when": 0.002, "what": 0.002,
	"about": 0.0015, "into": 0.0015, "more": 0.0015, "other": 0.0014,
	"some": 0.0014, "could": 0.0013, "time": 0.0013, "these": 0.0012,
	"two": 0.0012, "may": 0.0011, "then": 0.0011, "do": 0.0011, "first": 0.001,
	"any": 0.001, "like": 0.001, "people": 0.001, "because": 0.0009,
	"him": 0.0009, "also": 0.0009, "such": 0.0008, "them": 0.0008,
	"even": 0.0007, "through": 0.0007, "can": 0.0007, "only": 0.0007,
	"its": 0.0007, "after": 0.0006, "most": 0.0006, "between": 0.0005,
	"new": 0.0005, "just": 0.0005, "nod": 0.00001,
}
