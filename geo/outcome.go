package geo

// Outcome reports what Process did with a request.
type Outcome int

const (
	SkippedHost Outcome = iota
	SkippedMethod
	SkippedContentType
	SkippedKeys
	Rewritten
	DecodeError
	ShapeError
	EncodeError
)

func (o Outcome) String() string {
	switch o {
	case SkippedHost:
		return "skipped_host"
	case SkippedMethod:
		return "skipped_method"
	case SkippedContentType:
		return "skipped_content_type"
	case SkippedKeys:
		return "skipped_keys"
	case Rewritten:
		return "rewritten"
	case DecodeError:
		return "decode_error"
	case ShapeError:
		return "shape_error"
	case EncodeError:
		return "encode_error"
	default:
		return "unknown"
	}
}

// Failed reports whether the outcome is a payload processing failure.
func (o Outcome) Failed() bool {
	return o == DecodeError || o == ShapeError || o == EncodeError
}

// Outcomes lists every outcome, in declaration order.
func Outcomes() []Outcome {
	return []Outcome{SkippedHost, SkippedMethod, SkippedContentType, SkippedKeys, Rewritten, DecodeError, ShapeError, EncodeError}
}
