package providers

import (
	"regexp"

	"github.com/gookit/validate"

	"srd/internal/structures"
)

var unixPathPattern = regexp.MustCompile(`^/[^\x00]*$`)

func init() {
	validate.AddValidator("unixPath", func(val interface{}) bool {
		s, ok := val.(string)
		return ok && unixPathPattern.MatchString(s)
	})
}

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if v.Validate() {
		return nil
	}
	return v.Errors.OneError()
}
