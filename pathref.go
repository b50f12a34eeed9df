package dlcheck

import (
	"fmt"
	"strconv"

	"github.com/reoring/dlcheck/i18n"
)

// PathRef builds dotted field paths (ecommerce.items[0].price) in a chain-safe
// way and creates Issues located at them. The zero value is the record root.
type PathRef struct {
	s string
}

// Root returns the record root path.
func Root() PathRef { return PathRef{} }

// Field appends a key segment.
func (p PathRef) Field(name string) PathRef {
	if p.s == "" {
		return PathRef{s: name}
	}
	return PathRef{s: p.s + "." + name}
}

// Index appends an array index segment.
func (p PathRef) Index(i int) PathRef {
	return PathRef{s: p.s + "[" + strconv.Itoa(i) + "]"}
}

// String renders the path; the root renders as "".
func (p PathRef) String() string { return p.s }

// Issue creates an Issue at p. msgKey selects the i18n template; kv are
// alternating parameter names and values, kept raw in Params and rendered
// into the message.
func (p PathRef) Issue(code, msgKey string, kv ...any) Issue {
	params := make(map[string]any, len(kv)/2)
	data := make(map[string]string, len(kv)/2+1)
	data["path"] = p.s
	for i := 0; i+1 < len(kv); i += 2 {
		k := fmt.Sprint(kv[i])
		params[k] = kv[i+1]
		data[k] = FormatValue(kv[i+1])
	}
	if len(params) == 0 {
		params = nil
	}
	return Issue{Path: p.s, Code: code, Message: i18n.T(msgKey, data), Params: params}
}
