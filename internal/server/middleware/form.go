package middleware

// form.go expands bracket notation in url encoded bodies and decodes forms into structs.

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/schema"
	"github.com/information-sharing-networks/https-app/internal/response"
)

const (
	// formDepthLimit is the number of nested bracket groups expanded; the rest of the key is kept as a literal key
	formDepthLimit = 5

	// formArrayLimit is the highest explicit index (a[20]=x) that produces a slice, larger indices stay map keys
	formArrayLimit = 20
)

// decoder is safe for concurrent use once configured
var decoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.SetAliasTag("form")
	d.IgnoreUnknownKeys(true)
	return d
}

// DecodeForm decodes the url encoded body parsed by ParseURLEncoded into dst (a pointer to a struct).
//
// Fields are matched using the `form` struct tag. Bracket notation maps to nested structs and slices:
//
//	user[name]=bob&user[tags][]=a&user[tags][]=b&items[0][sku]=x1
//
// decodes into
//
//	struct {
//		User  struct{ Name string `form:"name"`; Tags []string `form:"tags"` } `form:"user"`
//		Items []struct{ SKU string `form:"sku"` } `form:"items"`
//	}
func DecodeForm(r *http.Request, dst any) error {
	if err := r.ParseForm(); err != nil {
		return response.WrapMalformedRequestError(err, "invalid form")
	}

	src := make(map[string][]string, len(r.PostForm))
	for key, values := range r.PostForm {
		path := formPath(key)
		src[path] = append(src[path], values...)
	}

	if err := decoder.Decode(dst, src); err != nil {
		return response.WrapMalformedRequestError(err, "invalid form values")
	}
	return nil
}

// formPath rewrites a[b][0][c] as a.b.0.c, the path syntax used by gorilla/schema. Trailing [] is dropped.
func formPath(key string) string {
	segs := splitFormKey(key, formDepthLimit)
	if len(segs) > 1 && segs[len(segs)-1] == "" {
		segs = segs[:len(segs)-1]
	}
	return strings.Join(segs, ".")
}

// splitFormKey splits a[b][c] into [a b c]. a[] yields [a ""].
//
// Keys without a complete bracket group are returned unchanged. Bracket groups beyond depth
// are kept together as a single literal segment.
func splitFormKey(key string, depth int) []string {
	open := strings.IndexByte(key, '[')
	if open < 0 || !strings.Contains(key[open:], "]") {
		return []string{key}
	}

	var segs []string
	if open > 0 {
		segs = append(segs, key[:open])
	}

	rest := key[open:]
	for i := 0; i < depth && strings.HasPrefix(rest, "["); i++ {
		end := strings.IndexByte(rest, ']')
		if end < 0 || strings.IndexByte(rest[1:end], '[') >= 0 {
			break
		}
		segs = append(segs, rest[1:end])
		rest = rest[end+1:]
	}

	if strings.HasPrefix(rest, "[") {
		segs = append(segs, rest)
	}
	if len(segs) == 0 {
		return []string{key}
	}
	return segs
}

// expandForm builds the nested representation of an extended url encoded body.
func expandForm(pairs []formPair) map[string]any {
	root := make(map[string]any)
	for _, p := range pairs {
		assignFormValue(root, splitFormKey(p.key, formDepthLimit), p.value)
	}
	for key, value := range root {
		root[key] = compactForm(value)
	}
	return root
}

// assignFormValue sets value at path segs below m. While building, every container is a map;
// compactForm turns index-keyed maps into slices once all pairs are assigned.
func assignFormValue(m map[string]any, segs []string, value string) {
	key := segs[0]
	if key == "" {
		key = nextFormIndex(m)
	}

	if len(segs) == 1 {
		m[key] = mergeFormLeaf(m[key], value)
		return
	}

	if scalar, ok := m[key].(string); ok {
		child, rest := promoteFormScalar(scalar, segs[1:])
		m[key] = child
		assignFormValue(child, rest, value)
		return
	}

	child := asFormMap(m[key])
	m[key] = child
	assignFormValue(child, segs[1:], value)
}

// promoteFormScalar turns a scalar that is now also used with brackets into a list that starts
// with the scalar: a=1&a[b]=2 gives ["1", {"b": "2"}] and a=1&a[]=2 (or a[0]=2) gives ["1", "2"].
// It returns the new container and the path to assign below it.
//
// The reverse order (a[b]=2&a=1) appends the scalar to the object under the next index: {"b": "2", "0": "1"}.
func promoteFormScalar(scalar string, segs []string) (map[string]any, []string) {
	m := map[string]any{"0": scalar}

	if i, ok := formIndex(segs[0]); segs[0] == "" || (ok && i <= formArrayLimit) {
		return m, append([]string{""}, segs[1:]...)
	}

	m["1"] = make(map[string]any)
	return m, append([]string{"1"}, segs...)
}

func mergeFormLeaf(existing any, value string) any {
	switch e := existing.(type) {
	case nil:
		return value
	case string:
		return []any{e, value}
	case []any:
		return append(e, value)
	case map[string]any:
		e[nextFormIndex(e)] = value
		return e
	default:
		return value
	}
}

func asFormMap(v any) map[string]any {
	switch e := v.(type) {
	case map[string]any:
		return e
	case string:
		return map[string]any{"0": e}
	case []any:
		m := make(map[string]any, len(e))
		for i, item := range e {
			m[strconv.Itoa(i)] = item
		}
		return m
	default:
		return make(map[string]any)
	}
}

// nextFormIndex returns the index used to append to m: one past the highest index key.
func nextFormIndex(m map[string]any) string {
	next := 0
	for key := range m {
		if i, ok := formIndex(key); ok && i >= next {
			next = i + 1
		}
	}
	return strconv.Itoa(next)
}

// formIndex parses canonical non-negative integers ("0", "12", not "012" or "-1").
func formIndex(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || strconv.Itoa(i) != key {
		return 0, false
	}
	return i, true
}

func compactForm(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}

	for key, child := range m {
		m[key] = compactForm(child)
	}

	if len(m) == 0 {
		return m
	}

	indices := make([]int, 0, len(m))
	maxIndex := 0
	for key := range m {
		i, ok := formIndex(key)
		if !ok {
			return m
		}
		indices = append(indices, i)
		if i > maxIndex {
			maxIndex = i
		}
	}

	// appended values (a[]=x) are always contiguous; sparse explicit indices must stay within the limit
	if maxIndex > formArrayLimit && maxIndex != len(indices)-1 {
		return m
	}

	sort.Ints(indices)
	out := make([]any, 0, len(indices))
	for _, i := range indices {
		out = append(out, m[strconv.Itoa(i)])
	}
	return out
}
