package catalog

import (
	"strings"

	"github.com/pgdrift/pgdrift/pkg/model"
)

// pg_trigger.tgtype bitmask.
const (
	triggerTypeRow      = 1 << 0
	triggerTypeBefore   = 1 << 1
	triggerTypeInsert   = 1 << 2
	triggerTypeDelete   = 1 << 3
	triggerTypeUpdate   = 1 << 4
	triggerTypeTruncate = 1 << 5
	triggerTypeInstead  = 1 << 6
)

func typeCategory(typtype string) string {
	switch typtype {
	case "e":
		return "ENUM"
	case "c":
		return "COMPOSITE"
	case "r":
		return "RANGE"
	}
	return ""
}

func constraintType(contype string) string {
	switch contype {
	case "p":
		return "PRIMARY KEY"
	case "u":
		return "UNIQUE"
	case "f":
		return "FOREIGN KEY"
	case "c":
		return "CHECK"
	case "x":
		return "EXCLUDE"
	}
	return ""
}

func foreignKeyAction(code string) string {
	switch code {
	case "r":
		return "RESTRICT"
	case "c":
		return "CASCADE"
	case "n":
		return "SET NULL"
	case "d":
		return "SET DEFAULT"
	}
	// 'a' is NO ACTION, the default; omitted from generated DDL.
	return ""
}

// checkExpression unwraps "CHECK (expr)" from pg_get_constraintdef output.
func checkExpression(condef string) string {
	s := strings.TrimSpace(condef)
	s = strings.TrimPrefix(s, "CHECK ")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// decodeDomainChecks splits "name CHECK (expr)" strings into structured
// checks.
func decodeDomainChecks(raw []string) []model.DomainCheck {
	var checks []model.DomainCheck
	for _, r := range raw {
		name, rest, ok := strings.Cut(r, " ")
		if !ok {
			continue
		}
		checks = append(checks, model.DomainCheck{
			Name:       name,
			Expression: checkExpression(rest),
		})
	}
	return checks
}

// decodeTrigger unpacks the tgtype bitmask and extracts the WHEN condition
// and function arguments from the reconstructed trigger definition.
func decodeTrigger(tgtype int, function, triggerDef string) *model.TriggerDef {
	def := &model.TriggerDef{
		Function:   function + "()",
		ForEachRow: tgtype&triggerTypeRow != 0,
	}

	switch {
	case tgtype&triggerTypeInstead != 0:
		def.Timing = "INSTEAD OF"
	case tgtype&triggerTypeBefore != 0:
		def.Timing = "BEFORE"
	default:
		def.Timing = "AFTER"
	}

	if tgtype&triggerTypeInsert != 0 {
		def.Events = append(def.Events, "INSERT")
	}
	if tgtype&triggerTypeUpdate != 0 {
		def.Events = append(def.Events, "UPDATE")
	}
	if tgtype&triggerTypeDelete != 0 {
		def.Events = append(def.Events, "DELETE")
	}
	if tgtype&triggerTypeTruncate != 0 {
		def.Events = append(def.Events, "TRUNCATE")
	}

	def.Condition = triggerCondition(triggerDef)
	def.Arguments = triggerArguments(triggerDef)
	return def
}

// triggerCondition extracts the WHEN predicate from pg_get_triggerdef output.
func triggerCondition(triggerDef string) string {
	start := strings.Index(triggerDef, " WHEN (")
	if start < 0 {
		return ""
	}
	rest := triggerDef[start+len(" WHEN ("):]
	end := strings.LastIndex(rest, ") EXECUTE ")
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// triggerArguments extracts the literal arguments passed to the trigger
// function from pg_get_triggerdef output.
func triggerArguments(triggerDef string) []string {
	open := strings.LastIndex(triggerDef, "(")
	end := strings.LastIndex(triggerDef, ")")
	if open < 0 || end <= open+1 {
		return nil
	}

	var (
		args     []string
		current  strings.Builder
		inString bool
	)
	inner := triggerDef[open+1 : end]
	for n := 0; n < len(inner); n++ {
		c := inner[n]
		switch {
		case c == '\'':
			inString = !inString
			current.WriteByte(c)
		case c == ',' && !inString:
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		args = append(args, s)
	}
	return args
}

// decodeRule translates pg_rewrite fields and splits the action commands out
// of pg_get_ruledef output.
func decodeRule(evType string, instead bool, ruleDef string) *model.RuleDef {
	def := &model.RuleDef{Instead: instead}

	switch evType {
	case "1":
		def.Event = "SELECT"
	case "2":
		def.Event = "UPDATE"
	case "3":
		def.Event = "INSERT"
	case "4":
		def.Event = "DELETE"
	}

	body := strings.TrimSuffix(strings.TrimSpace(ruleDef), ";")
	doPos := strings.Index(body, " DO ")
	if doPos < 0 {
		return def
	}

	head, action := body[:doPos], strings.TrimSpace(body[doPos+len(" DO "):])
	if wherePos := strings.Index(head, " WHERE "); wherePos >= 0 {
		def.Condition = strings.TrimSpace(head[wherePos+len(" WHERE "):])
	}

	action = strings.TrimSpace(strings.TrimPrefix(action, "INSTEAD"))
	if action != "" {
		def.Commands = []string{action}
	}
	return def
}

// typeStarters are first words of multi-word built-in type names; a leading
// token in this set is a type, not an argument name.
var typeStarters = map[string]bool{
	"timestamp": true, "time": true, "double": true, "character": true,
	"bit": true, "interval": true, "numeric": true, "varchar": true,
	"decimal": true, "national": true,
}

// parseFunctionArgs parses pg_get_function_arguments output into structured
// arguments: "[mode] [name] type [DEFAULT expr]" per comma-separated entry.
func parseFunctionArgs(raw string) []model.FunctionArg {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var args []model.FunctionArg
	for _, entry := range splitTopLevel(raw) {
		arg := model.FunctionArg{}

		entry, arg.Default = cutDefault(entry)
		entry = strings.TrimSpace(entry)

		for _, mode := range []string{"INOUT ", "IN ", "OUT ", "VARIADIC "} {
			if strings.HasPrefix(entry, mode) {
				m := strings.TrimSpace(mode)
				if m != "IN" {
					arg.Mode = m
				}
				entry = strings.TrimSpace(strings.TrimPrefix(entry, mode))
				break
			}
		}

		first, rest, ok := strings.Cut(entry, " ")
		if ok && !typeStarters[first] {
			arg.Name = first
			arg.Type = strings.TrimSpace(rest)
		} else {
			arg.Type = entry
		}
		args = append(args, arg)
	}
	return args
}

// splitTopLevel splits on commas outside parentheses, brackets, and quotes.
func splitTopLevel(s string) []string {
	var (
		parts    []string
		current  strings.Builder
		depth    int
		inString bool
	)
	for n := 0; n < len(s); n++ {
		c := s[n]
		switch {
		case c == '\'':
			inString = !inString
			current.WriteByte(c)
		case inString:
			current.WriteByte(c)
		case c == '(' || c == '[':
			depth++
			current.WriteByte(c)
		case c == ')' || c == ']':
			depth--
			current.WriteByte(c)
		case c == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	if p := strings.TrimSpace(current.String()); p != "" {
		parts = append(parts, p)
	}
	return parts
}

func cutDefault(entry string) (string, string) {
	if pos := strings.Index(entry, " DEFAULT "); pos >= 0 {
		return entry[:pos], strings.TrimSpace(entry[pos+len(" DEFAULT "):])
	}
	return entry, ""
}

// baseTypeName strips typmods and array suffixes: "public.status[]" and
// "numeric(10,2)" reduce to their bare type names.
func baseTypeName(t string) string {
	if pos := strings.Index(t, "("); pos >= 0 {
		t = t[:pos]
	}
	return strings.TrimSuffix(strings.TrimSpace(t), "[]")
}

// owningTable reduces a "schema.table.column" owner reference to its table.
func owningTable(ownedBy string) string {
	if pos := strings.LastIndex(ownedBy, "."); pos >= 0 {
		return ownedBy[:pos]
	}
	return ownedBy
}

// splitQualified splits "schema.name" into its two parts.
func splitQualified(qualified string) [2]string {
	schema, name, ok := strings.Cut(qualified, ".")
	if !ok {
		return [2]string{"", qualified}
	}
	return [2]string{schema, name}
}
