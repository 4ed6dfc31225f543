package users

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/nhle/task-reminders/internal/model"
)

var emailRegexp = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

// validator collects the first failure per field.
type validator struct {
	errors map[string]string
}

func newValidator() *validator {
	return &validator{errors: make(map[string]string)}
}

func (v *validator) check(cond bool, key, msg string) {
	if cond {
		return
	}
	if _, ok := v.errors[key]; !ok {
		v.errors[key] = msg
	}
}

func (v *validator) checkEmail(email string) {
	v.check(email != "", "email", "must be provided")
	v.check(emailRegexp.MatchString(email), "email", "must be a valid email address")
}

func (v *validator) checkPassword(password string) {
	v.check(password != "", "password", "must be provided")
	v.check(len(password) >= 8, "password", "must be at least 8 characters long")
	v.check(len(password) <= 72, "password", "must be at most 72 characters long")
}

// err returns nil when every check passed. Fields are reported in
// alphabetical order so messages are stable.
func (v *validator) err() error {
	if len(v.errors) == 0 {
		return nil
	}
	keys := make([]string, 0, len(v.errors))
	for k := range v.errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+v.errors[k])
	}
	return fmt.Errorf("%w: %s", model.ErrInvalidArgument, strings.Join(parts, "; "))
}
