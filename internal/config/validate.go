package config

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaCUE string

// Validation error codes (C100-C199)
const (
	ErrSchemaViolation    = "C100" // value rejected by schema.cue
	ErrDuplicateSeedEmail = "C101" // two seed users share an email
	ErrDuplicateSeedID    = "C102" // two seed users share an id
	ErrSchemaLoad         = "C103" // schema.cue or the config could not be encoded
)

// ValidationError represents one configuration problem.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// InvalidError is returned by Load when validation fails.
type InvalidError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *InvalidError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Validate checks cfg against schema.cue and the seed user uniqueness
// rules. Returns all errors found (does not fail-fast).
func Validate(cfg Config) []ValidationError {
	errs := validateSchema(cfg)
	errs = append(errs, validateSeedUsers(cfg.SeedUsers)...)
	return errs
}

func validateSchema(cfg Config) []ValidationError {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return []ValidationError{{Field: "schema", Message: err.Error(), Code: ErrSchemaLoad}}
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	if cfg.SeedUsers == nil {
		cfg.SeedUsers = []SeedUser{}
	}
	val := ctx.Encode(cfg)
	if err := val.Err(); err != nil {
		return []ValidationError{{Field: "config", Message: err.Error(), Code: ErrSchemaLoad}}
	}

	err := def.Unify(val).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var errs []ValidationError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		errs = append(errs, ValidationError{
			Field:   strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
			Code:    ErrSchemaViolation,
		})
	}
	return errs
}

func validateSeedUsers(users []SeedUser) []ValidationError {
	var errs []ValidationError
	emails := map[string]bool{}
	ids := map[string]bool{}

	for i, u := range users {
		field := fmt.Sprintf("seed_users.%d", i)
		if emails[u.Email] {
			errs = append(errs, ValidationError{
				Field:   field + ".email",
				Message: fmt.Sprintf("email %q is already used by another seed user", u.Email),
				Code:    ErrDuplicateSeedEmail,
			})
		}
		emails[u.Email] = true

		if ids[u.ID] {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("id %q is already used by another seed user", u.ID),
				Code:    ErrDuplicateSeedID,
			})
		}
		ids[u.ID] = true
	}
	return errs
}
