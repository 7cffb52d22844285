package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	projectCodeRe  = regexp.MustCompile(`^[0-9]{2}-[0-9]{1,3}$`)
	phaseCodeRe    = regexp.MustCompile(`^[A-Z]{2,3}$`)
	activityCodeRe = regexp.MustCompile(`^[A-Z]{2,3}[0-9]{0,2}$`)
)

// Structural runs the tag-driven shape checks (required, format, bounds,
// enum membership, element-wise checks) and reports violations as an error
// tree keyed by JSON field names.
type Structural struct {
	validate *validator.Validate
}

// NewStructural builds the shared structural validator with the domain code
// patterns registered.
func NewStructural() *Structural {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "project_code", projectCodeRe)
	mustRegister(v, "phase_code", phaseCodeRe)
	mustRegister(v, "activity_code", activityCodeRe)
	return &Structural{validate: v}
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// Check validates doc and translates the violations. overrides maps
// "<dotted field path without indices>.<tag>" to a replacement message.
func (s *Structural) Check(doc any, overrides map[string]string) (Errors, error) {
	err := s.validate.Struct(doc)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, fmt.Errorf("validation: structural check: %w", err)
	}
	var out Errors
	for _, fe := range verrs {
		path := parseNamespace(fe.Namespace())
		if len(path) == 0 {
			continue
		}
		out.Add(path, fe.Tag(), message(fe, path, overrides))
	}
	return out, nil
}

// parseNamespace converts a validator namespace such as
// "User.billingGroups[1].timeline[0].begin" into a field path with indices
// as their own segments, dropping the root struct segment.
func parseNamespace(ns string) []string {
	ns = strings.ReplaceAll(ns, "[", ".")
	ns = strings.ReplaceAll(ns, "]", "")
	parts := strings.Split(ns, ".")
	if len(parts) <= 1 {
		return nil
	}
	return parts[1:]
}

func message(fe validator.FieldError, path []string, overrides map[string]string) string {
	if msg, ok := overrides[overrideKey(path, fe.Tag())]; ok {
		return msg
	}
	field := path[len(path)-1]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s ne doit pas être vide", field)
	case "email":
		return fmt.Sprintf("%s doit être une adresse courriel valide", field)
	case "oneof":
		return fmt.Sprintf("%s doit être une de ces valeurs: %s", field, strings.Join(splitOneOf(fe.Param()), ", "))
	case "len":
		return fmt.Sprintf("%s doit contenir exactement %s éléments", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s doit contenir au moins %s éléments", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s doit contenir au plus %s éléments", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s doit être supérieur ou égal à %s", field, fe.Param())
	case "project_code":
		return "Le code du projet doit être de la forme 23-456"
	case "phase_code":
		return "Le code de la phase doit être composé de 2 ou 3 lettres majuscules"
	case "activity_code":
		return "Le code de l'activité doit être composé de 2 ou 3 lettres majuscules suivies d'au plus 2 chiffres"
	}
	return fmt.Sprintf("%s est invalide", field)
}

// overrideKey drops index segments so one override covers every element of a
// list field, e.g. "lines.entries.len".
func overrideKey(path []string, tag string) string {
	parts := make([]string, 0, len(path)+1)
	for _, p := range path {
		if p != "" && !isIndex(p) {
			parts = append(parts, p)
		}
	}
	parts = append(parts, tag)
	return strings.Join(parts, ".")
}

func isIndex(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// splitOneOf splits an oneof parameter list, honoring single quotes around
// values containing spaces.
func splitOneOf(param string) []string {
	fields := strings.Fields(param)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, strings.Trim(f, "'"))
	}
	return out
}
