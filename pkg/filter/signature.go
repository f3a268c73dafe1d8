package filter

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pgdrift/pgdrift/pkg/utils"
	"github.com/pkg/errors"
)

type (
	// Signature is a parsed qualified object signature: an optional schema,
	// a name (possibly multi-part for table children), and an argument type
	// list when the object is a function or procedure. HasArgs distinguishes
	// "fn()" from a bare name.
	Signature struct {
		Schema  string
		Name    string
		Args    []string
		HasArgs bool
	}

	signatureAST struct {
		Parts []string    `parser:"@(Ident | QuotedIdent) ( '.' @(Ident | QuotedIdent) )*"`
		Args  *argListAST `parser:"@@?"`
	}

	argListAST struct {
		Args []*argTypeAST `parser:"'(' ( @@ ( ',' @@ )* )? ')'"`
	}

	// argTypeAST covers multi-word type names ("timestamp with time zone"),
	// typmods ("numeric(10,2)"), and array suffixes ("integer[]").
	argTypeAST struct {
		Words []string `parser:"@(Ident | QuotedIdent)+"`
		Mods  []string `parser:"( '(' @Number ( ',' @Number )* ')' )?"`
		Array bool     `parser:"@( '[' ']' )?"`
	}
)

var (
	signatureLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "QuotedIdent", Pattern: `"([^"]|"")*"`},
		{Name: "Number", Pattern: `\d+`},
		{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_$]*`},
		{Name: "Punct", Pattern: `[(),.\[\]]`},
		{Name: "Whitespace", Pattern: `\s+`},
	})

	signatureParser = participle.MustBuild[signatureAST](
		participle.Lexer(signatureLexer),
		participle.Elide("Whitespace"),
	)
)

// ParseSignature parses an object signature such as "public.users",
// "public.users.id", or "audit.log_change(integer, text[])". Quoted
// identifiers are accepted and normalized to their unquoted form.
func ParseSignature(raw string) (*Signature, error) {
	ast, err := signatureParser.ParseString("", raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid object signature: %s", raw)
	}

	sig := &Signature{}
	parts := make([]string, len(ast.Parts))
	for i, p := range ast.Parts {
		parts[i] = utils.StripQuotes(p)
	}
	if len(parts) == 1 {
		sig.Name = parts[0]
	} else {
		sig.Schema = parts[0]
		sig.Name = strings.Join(parts[1:], ".")
	}

	if ast.Args != nil {
		sig.HasArgs = true
		for _, a := range ast.Args.Args {
			sig.Args = append(sig.Args, a.render())
		}
	}
	return sig, nil
}

// String renders the signature in canonical form: unquoted, schema-qualified,
// argument types comma-separated without spaces.
func (s *Signature) String() string {
	out := s.Name
	if s.Schema != "" {
		out = s.Schema + "." + out
	}
	if s.HasArgs {
		out += "(" + strings.Join(s.Args, ",") + ")"
	}
	return out
}

func (a *argTypeAST) render() string {
	words := make([]string, len(a.Words))
	for i, w := range a.Words {
		words[i] = utils.StripQuotes(w)
	}
	t := strings.Join(words, " ")
	if len(a.Mods) > 0 {
		t += "(" + strings.Join(a.Mods, ",") + ")"
	}
	if a.Array {
		t += "[]"
	}
	return t
}
