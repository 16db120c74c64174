package helpers

import (
	"strings"

	"github.com/juju/errors"
)

// FoldErrors skips nil, single error is returned as is.
func FoldErrors(errs []error) error {
	ss := make([]string, 0, len(errs))
	var last error
	for _, e := range errs {
		if e != nil {
			last = e
			ss = append(ss, e.Error())
		}
	}
	switch len(ss) {
	case 0:
		return nil
	case 1:
		return last
	}
	return errors.Errorf("%s", strings.Join(ss, "\n"))
}
