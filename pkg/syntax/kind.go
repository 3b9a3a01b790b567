package syntax

import (
	"sort"
	"sync"
)

// SchemaVersion identifies the node kind and field catalog below. Renaming or
// removing a kind or a field is a breaking change and bumps it.
const SchemaVersion = "1.0.0"

// Kind is the grammar symbol of a node. Named kinds are identifiers such as
// "if_clause"; anonymous kinds are the literal punctuation they cover, such
// as "," or "}".
type Kind string

const (
	KindError     Kind = "ERROR"
	SourceFile    Kind = "source_file"
	Text          Kind = "text"
	Comment       Kind = "comment"
	Whitespace    Kind = "whitespace"
	Interpolation Kind = "interpolation"

	FtlStmt          Kind = "ftl_stmt"
	FtlParameter     Kind = "ftl_parameter"
	AssignStmt       Kind = "assign_stmt"
	AssignInline     Kind = "assign_inline"
	AssignClause     Kind = "assign_clause"
	AssignExpression Kind = "assign_expression"
	LocalStmt        Kind = "local_stmt"
	LocalInline      Kind = "local_inline"
	LocalClause      Kind = "local_clause"
	IfStmt           Kind = "if_stmt"
	IfClause         Kind = "if_clause"
	ElseifClause     Kind = "elseif_clause"
	ElseClause       Kind = "else_clause"
	ListStmt         Kind = "list_stmt"
	ListClause       Kind = "list_clause"
	SepClause        Kind = "sep_clause"
	IteratorPair     Kind = "iterator_pair"
	MacroStmt        Kind = "macro_stmt"
	MacroClause      Kind = "macro_clause"
	Parameter        Kind = "parameter"
	MacroExpansion   Kind = "macro_expansion"
	NamedArgument    Kind = "named_argument"
	FunctionStmt     Kind = "function_stmt"
	FunctionClause   Kind = "function_clause"
	ReturnStmt       Kind = "return_stmt"
	ImportStmt       Kind = "import_stmt"
	SwitchStmt       Kind = "switch_stmt"
	SwitchClause     Kind = "switch_clause"
	CaseClause       Kind = "case_clause"
	OnClause         Kind = "on_clause"
	DefaultClause    Kind = "default_clause"
	BreakStmt        Kind = "break_stmt"

	BinaryExpression        Kind = "binary_expression"
	RangeExpression         Kind = "range_expression"
	UnaryExpression         Kind = "unary_expression"
	DefaultExpression       Kind = "default_expression"
	MemberExpression        Kind = "member_expression"
	SubscriptExpression     Kind = "subscript_expression"
	CallExpression          Kind = "call_expression"
	ArgumentList            Kind = "argument_list"
	BuiltinExpression       Kind = "builtin_expression"
	ParenthesizedExpression Kind = "parenthesized_expression"
	Array                   Kind = "array"
	Object                  Kind = "object"
	Pair                    Kind = "pair"

	Identifier             Kind = "identifier"
	Number                 Kind = "number"
	StringLiteral          Kind = "string_literal"
	AmbiguousStringLiteral Kind = "ambiguous_string_literal"
	BooleanTrue            Kind = "boolean_true"
	BooleanFalse           Kind = "boolean_false"
	ParameterName          Kind = "parameter_name"
	FunctionName           Kind = "function_name"
	MacroName              Kind = "macro_name"
	MacroNamespace         Kind = "macro_namespace"
	BuiltinName            Kind = "builtin_name"
	ImportPath             Kind = "import_path"
	ImportAlias            Kind = "import_alias"

	FtlBegin             Kind = "ftl_begin"
	AssignBegin          Kind = "assign_begin"
	AssignClose          Kind = "assign_close"
	LocalBegin           Kind = "local_begin"
	LocalClose           Kind = "local_close"
	IfBegin              Kind = "if_begin"
	ElseifBegin          Kind = "elseif_begin"
	ElseBegin            Kind = "else_begin"
	IfClose              Kind = "if_close"
	ListBegin            Kind = "list_begin"
	ListClose            Kind = "list_close"
	SepBegin             Kind = "sep_begin"
	SepClose             Kind = "sep_close"
	KeywordAs            Kind = "keyword_as"
	KeywordIn            Kind = "keyword_in"
	MacroBegin           Kind = "macro_begin"
	MacroClose           Kind = "macro_close"
	MacroCallBegin       Kind = "macro_call_begin"
	MacroCallEnd         Kind = "macro_call_end"
	MacroCloseTag        Kind = "macro_close_tag"
	FunctionBegin        Kind = "function_begin"
	FunctionClose        Kind = "function_close"
	ReturnBegin          Kind = "return_begin"
	ImportBegin          Kind = "import_begin"
	SwitchBegin          Kind = "switch_begin"
	SwitchClose          Kind = "switch_close"
	CaseBegin            Kind = "case_begin"
	OnBegin              Kind = "on_begin"
	DefaultBegin         Kind = "default_begin"
	BreakBegin           Kind = "break_begin"
	CloseTag             Kind = "close_tag"
	UndocumentedCloseTag Kind = "undocumented_close_tag"
	InterpolationPrepend Kind = "interpolation_prepend"

	EqualOperator            Kind = "equal_operator"
	DeprecatedEqualOperator  Kind = "deprecated_equal_operator"
	GreaterThanOperator      Kind = "greater_than_operator"
	GreaterThanEqualOperator Kind = "greater_than_equal_operator"
	BinaryOperator           Kind = "binary_operator"
	RangeOperator            Kind = "range_operator"
	AssignOperator           Kind = "assign_operator"
	DefaultOperator          Kind = "default_operator"
	NegationOperator         Kind = "negation_operator"
)

// Field names. A field labels the role a child plays in its parent.
const (
	FieldExpression  = "expression"
	FieldParameter   = "parameter"
	FieldName        = "name"
	FieldValue       = "value"
	FieldAssignment  = "assignment"
	FieldNamespace   = "namespace"
	FieldBody        = "body"
	FieldLeft        = "left"
	FieldOperator    = "operator"
	FieldRight       = "right"
	FieldCondition   = "condition"
	FieldFrom        = "from"
	FieldInto        = "into"
	FieldKey         = "key"
	FieldDefault     = "default"
	FieldMember      = "member"
	FieldArgument    = "argument"
	FieldImportPath  = "import_path"
	FieldImportAlias = "import_alias"
	FieldOperand     = "operand"
	FieldObject      = "object"
	FieldProperty    = "property"
	FieldIndex       = "index"
	FieldFunction    = "function"
	FieldArguments   = "arguments"
	FieldBuiltin     = "builtin"
	FieldElement     = "element"
	FieldPair        = "pair"
)

// KindInfo describes one entry of the schema.
type KindInfo struct {
	Kind  Kind
	Named bool
	// Extra kinds may appear between any two children.
	Extra  bool
	Fields []string
}

var (
	schemaOnce sync.Once
	schema     map[Kind]KindInfo
)

func buildSchema() map[Kind]KindInfo {
	m := map[Kind]KindInfo{}
	named := func(k Kind, fields ...string) {
		m[k] = KindInfo{Kind: k, Named: true, Fields: fields}
	}

	named(KindError)
	named(SourceFile)
	named(Text)
	m[Comment] = KindInfo{Kind: Comment, Named: true, Extra: true}
	m[Whitespace] = KindInfo{Kind: Whitespace, Extra: true}
	named(Interpolation, FieldExpression)

	named(FtlStmt, FieldParameter)
	named(FtlParameter, FieldName, FieldValue)
	named(AssignStmt)
	named(AssignInline, FieldAssignment, FieldNamespace)
	named(AssignClause, FieldName, FieldNamespace, FieldBody)
	named(AssignExpression, FieldLeft, FieldOperator, FieldRight)
	named(LocalStmt)
	named(LocalInline, FieldAssignment, FieldNamespace)
	named(LocalClause, FieldName, FieldNamespace, FieldBody)
	named(IfStmt)
	named(IfClause, FieldCondition, FieldBody)
	named(ElseifClause, FieldCondition, FieldBody)
	named(ElseClause, FieldBody)
	named(ListStmt)
	named(ListClause, FieldFrom, FieldInto, FieldBody)
	named(SepClause, FieldBody)
	named(IteratorPair, FieldKey, FieldValue)
	named(MacroStmt)
	named(MacroClause, FieldName, FieldParameter, FieldBody)
	named(Parameter, FieldName, FieldDefault)
	named(MacroExpansion, FieldNamespace, FieldMember, FieldArgument, FieldBody)
	named(NamedArgument, FieldName, FieldValue)
	named(FunctionStmt)
	named(FunctionClause, FieldName, FieldParameter, FieldBody)
	named(ReturnStmt, FieldValue)
	named(ImportStmt, FieldImportPath, FieldImportAlias)
	named(SwitchStmt)
	named(SwitchClause, FieldValue, FieldBody)
	named(CaseClause, FieldValue, FieldBody)
	named(OnClause, FieldValue, FieldBody)
	named(DefaultClause, FieldBody)
	named(BreakStmt)

	named(BinaryExpression, FieldLeft, FieldOperator, FieldRight)
	named(RangeExpression, FieldLeft, FieldOperator, FieldRight)
	named(UnaryExpression, FieldOperator, FieldOperand)
	named(DefaultExpression, FieldOperand, FieldOperator, FieldDefault)
	named(MemberExpression, FieldObject, FieldProperty)
	named(SubscriptExpression, FieldObject, FieldIndex)
	named(CallExpression, FieldFunction, FieldArguments)
	named(ArgumentList, FieldArgument)
	named(BuiltinExpression, FieldObject, FieldBuiltin, FieldArguments)
	named(ParenthesizedExpression, FieldExpression)
	named(Array, FieldElement)
	named(Object, FieldPair)
	named(Pair, FieldKey, FieldValue)

	for _, k := range []Kind{
		Identifier, Number, StringLiteral, AmbiguousStringLiteral, BooleanTrue, BooleanFalse,
		ParameterName, FunctionName, MacroName, MacroNamespace, BuiltinName, ImportPath, ImportAlias,
		FtlBegin, AssignBegin, AssignClose, LocalBegin, LocalClose, IfBegin, ElseifBegin, ElseBegin,
		IfClose, ListBegin, ListClose, SepBegin, SepClose, KeywordAs, KeywordIn, MacroBegin,
		MacroClose, MacroCallBegin, MacroCallEnd, MacroCloseTag, FunctionBegin, FunctionClose,
		ReturnBegin, ImportBegin, SwitchBegin, SwitchClose, CaseBegin, OnBegin, DefaultBegin,
		BreakBegin, CloseTag, UndocumentedCloseTag, InterpolationPrepend,
		EqualOperator, DeprecatedEqualOperator, GreaterThanOperator, GreaterThanEqualOperator,
		BinaryOperator, RangeOperator, AssignOperator, DefaultOperator, NegationOperator,
	} {
		named(k)
	}

	for _, p := range []string{"{", "}", "[", "]", "(", ")", ",", ":", ".", "?", "="} {
		m[Kind(p)] = KindInfo{Kind: Kind(p)}
	}
	return m
}

func loadSchema() map[Kind]KindInfo {
	schemaOnce.Do(func() { schema = buildSchema() })
	return schema
}

// Schema returns a copy of the full kind table.
func Schema() map[Kind]KindInfo {
	m := loadSchema()
	out := make(map[Kind]KindInfo, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Lookup returns the schema entry for k.
func Lookup(k Kind) (KindInfo, bool) {
	info, ok := loadSchema()[k]
	return info, ok
}

// Kinds lists every kind in the schema, sorted.
func Kinds() []Kind {
	m := loadSchema()
	out := make([]Kind, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// HasField reports whether the schema allows field on kind k.
func HasField(k Kind, field string) bool {
	info, ok := Lookup(k)
	if !ok {
		return false
	}
	for _, f := range info.Fields {
		if f == field {
			return true
		}
	}
	return false
}

func (k Kind) IsNamed() bool {
	info, ok := Lookup(k)
	return ok && info.Named
}
