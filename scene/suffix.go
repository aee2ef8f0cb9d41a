package scene

import (
	"strings"
)

// SuffixTags is the decomposition of an object name into its base name and
// the assembly semantics encoded as trailing name tokens. Derived on demand,
// never stored.
type SuffixTags struct {
	Base       string
	Variant    string   // selector label ("1", "2", ...), empty when untagged
	Purpose    *Purpose // purpose override, nil when no purpose token
	Payload    *bool    // payload override, nil when no payload token
	HasVariant bool
}

// Recognized tag tokens. Tags are case-sensitive, underscore-delimited and
// may appear in any order at the end of a name, each at most once.
const (
	tagVariant = "VARIANT"
	tagRender  = "RENDER"
	tagProxy   = "PROXY"
	tagGuide   = "GUIDE"
	tagPayload = "PAYLOAD"
)

// ResolveSuffixes splits an object name into SuffixTags. Tokens are consumed
// right to left until the first unrecognized token, which stays part of the
// base name together with everything before it - no silent data loss.
// Resolving an already-resolved base name again yields no further tags.
//
// A trailing "_VARIANT" with no digits is not a variant tag: it is kept as a
// literal token and reported as a MalformedSuffix warning so the author can
// spot the near-miss. A repeated tag stops resolution the same way and is
// also reported, since the leftover base still ends in a tag-shaped token.
func ResolveSuffixes(name string) (SuffixTags, []Warning) {
	tags := SuffixTags{Base: name}

	duplicate := func(what string) Warning {
		return Warning{
			Kind:    WarnMalformedSuffix,
			Object:  name,
			Message: "duplicate " + what + " tag treated as literal token",
		}
	}

	var warns []Warning
	for {
		idx := strings.LastIndexByte(tags.Base, '_')
		if idx < 0 {
			break
		}
		token := tags.Base[idx+1:]

		switch {
		case token == tagRender || token == tagProxy || token == tagGuide:
			if tags.Purpose != nil {
				// second purpose token stays literal
				return tags, append(warns, duplicate("purpose"))
			}
			p := purposeForToken(token)
			tags.Purpose = &p
		case token == tagPayload:
			if tags.Payload != nil {
				return tags, append(warns, duplicate("payload"))
			}
			t := true
			tags.Payload = &t
		case strings.HasPrefix(token, tagVariant):
			if tags.HasVariant {
				return tags, append(warns, duplicate("variant"))
			}
			digits := token[len(tagVariant):]
			if !allDigits(digits) || len(digits) == 0 {
				if len(digits) == 0 {
					warns = append(warns, Warning{
						Kind:    WarnMalformedSuffix,
						Object:  name,
						Message: "variant tag without digits treated as literal token",
					})
				}
				return tags, warns
			}
			tags.Variant = digits
			tags.HasVariant = true
		default:
			return tags, warns
		}
		tags.Base = tags.Base[:idx]
	}
	return tags, warns
}

func purposeForToken(token string) Purpose {
	switch token {
	case tagRender:
		return PurposeRender
	case tagProxy:
		return PurposeProxy
	case tagGuide:
		return PurposeGuide
	default:
		// callers pass only recognized tokens
		panic("unrecognized purpose token " + token)
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
