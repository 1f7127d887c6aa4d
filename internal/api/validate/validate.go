package validate

import (
	"net/mail"
	"strings"
)

type ErrField struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type Errs []ErrField

func (e Errs) Error() string {
	var b strings.Builder
	for i, ef := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(ef.Field + ": " + ef.Msg)
	}
	return b.String()
}

// Collect drops nil results and returns nil when nothing failed.
func Collect(fs ...*ErrField) error {
	var out Errs
	for _, f := range fs {
		if f != nil {
			out = append(out, *f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func Required(field, value string) *ErrField {
	if strings.TrimSpace(value) == "" {
		return &ErrField{Field: field, Msg: "required"}
	}
	return nil
}

// Email accepts a bare address or the configured emergency username, which
// need not be an address.
func Email(field, value string, alsoAllowed ...string) *ErrField {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	for _, a := range alsoAllowed {
		if a != "" && strings.EqualFold(v, a) {
			return nil
		}
	}
	if addr, err := mail.ParseAddress(v); err != nil || addr.Address != v {
		return &ErrField{Field: field, Msg: "must be an email address"}
	}
	return nil
}

func OneOf(field, value string, allowed ...string) *ErrField {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ErrField{Field: field, Msg: "must be one of " + strings.Join(allowed, ", ")}
}
