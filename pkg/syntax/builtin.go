package syntax

import (
	"sort"
	"strings"
	"unicode"
)

// Category groups builtins by the kind of operand they apply to.
type Category string

const (
	CategoryString   Category = "string"
	CategoryNumber   Category = "number"
	CategoryBoolean  Category = "boolean"
	CategorySequence Category = "sequence"
	CategoryHash     Category = "hash"
	CategoryExpert   Category = "expert"
)

// Builtin is one entry of the "?name" catalog.
type Builtin struct {
	Name       string
	Categories []Category
}

var builtinsByCategory = map[Category][]string{
	CategoryString: {
		"blank_to_null", "boolean", "c_lower_case", "c_upper_case", "cap_first", "capitalize",
		"chop_linebreak", "contains", "date", "datetime", "empty_to_null", "ends_with",
		"ensure_ends_with", "ensure_starts_with", "esc", "groups", "html", "index_of",
		"j_string", "js_string", "json_string", "keep_after", "keep_after_last", "keep_before",
		"keep_before_last", "last_index_of", "left_pad", "length", "lower_case", "matches",
		"no_esc", "number", "remove_beginning", "remove_ending", "replace", "right_pad", "rtf",
		"split", "starts_with", "string", "substring", "time", "trim", "trim_to_null", "truncate",
		"truncate_c", "truncate_c_m", "truncate_m", "truncate_w", "truncate_w_m", "uncap_first",
		"upper_case", "url", "url_path", "word_list", "xhtml", "xml",
	},
	CategoryNumber: {
		"abs", "c", "ceiling", "cn", "floor", "is_infinite", "is_nan", "lower_abc",
		"number_to_date", "number_to_datetime", "number_to_time", "round", "string", "upper_abc",
	},
	CategoryBoolean: {
		"c", "cn", "string", "then",
	},
	CategorySequence: {
		"chunk", "drop_while", "filter", "first", "join", "last", "map", "max", "min", "reverse",
		"seq_contains", "seq_index_of", "seq_last_index_of", "size", "sort", "sort_by", "take_while",
	},
	CategoryHash: {
		"keys", "values",
	},
	CategoryExpert: {
		"absolute_template_name", "ancestors", "api", "byte", "children", "counter", "date_if_unknown",
		"datetime_if_unknown", "double", "eval", "eval_json", "float", "has_api", "has_content",
		"has_next", "index", "int", "interpret", "is_boolean", "is_collection", "is_collection_ex",
		"is_date", "is_date_like", "is_date_only", "is_datetime", "is_directive", "is_enumerable",
		"is_even_item", "is_first", "is_hash", "is_hash_ex", "is_indexable", "is_last",
		"is_macro", "is_markup_output", "is_method", "is_node", "is_number", "is_odd_item",
		"is_sequence", "is_string", "is_time", "is_transform", "is_unknown_date_like",
		"iso", "iso_local", "iso_utc", "item_cycle", "item_parity", "item_parity_cap", "long",
		"markup_string", "namespace", "new", "next_sibling", "node_name", "node_namespace",
		"node_type", "parent", "previous_sibling", "root", "sequence", "short", "switch",
		"time_if_unknown", "with_args", "with_args_last",
	},
}

var builtins = func() map[string]*Builtin {
	m := map[string]*Builtin{}
	cats := make([]Category, 0, len(builtinsByCategory))
	for c := range builtinsByCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		for _, name := range builtinsByCategory[c] {
			b, ok := m[name]
			if !ok {
				b = &Builtin{Name: name}
				m[name] = b
			}
			b.Categories = append(b.Categories, c)
		}
	}
	return m
}()

// LookupBuiltin finds a builtin by name. camelCase spellings such as
// "upperCase" resolve to their snake_case entry.
func LookupBuiltin(name string) (Builtin, bool) {
	if b, ok := builtins[name]; ok {
		return *b, true
	}
	if b, ok := builtins[snakeCase(name)]; ok {
		return *b, true
	}
	return Builtin{}, false
}

// Builtins lists the names of every catalogued builtin of category c.
func Builtins(c Category) []string {
	out := append([]string(nil), builtinsByCategory[c]...)
	sort.Strings(out)
	return out
}

func snakeCase(name string) string {
	var sb strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
